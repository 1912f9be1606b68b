// File path: internal/api/sync_handler.go
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/docsync-dev/docsync/internal/common"
	"github.com/docsync-dev/docsync/internal/manifest"
	"github.com/docsync-dev/docsync/internal/recon"
)

// handleSyncAll kicks off a full cycle in the background and returns
// immediately; progress is observable through /v1/outcomes and /v1/logs.
func (s *Server) handleSyncAll(w http.ResponseWriter, r *http.Request) {
	tracked, err := s.orchestrator.Manifests().ListTracked(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
		defer cancel()
		s.orchestrator.Controller().RunAll(ctx)
	}()
	common.Logger().Info("api: full sync triggered", "repos", len(tracked))
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"triggered": len(tracked)})
}

// handleSyncRepo reconciles one repository synchronously and returns its
// outcome. Overlapping triggers get 409.
func (s *Server) handleSyncRepo(w http.ResponseWriter, r *http.Request) {
	repoID := repoIDParam(r)
	outcome, err := s.orchestrator.Controller().RunOne(r.Context(), repoID)
	switch {
	case errors.Is(err, recon.ErrRunInFlight):
		writeError(w, http.StatusConflict, err)
		return
	case errors.Is(err, recon.ErrTrackingDisabled):
		writeError(w, http.StatusConflict, err)
		return
	case errors.Is(err, manifest.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, manifest.ErrInvalidRepo):
		writeError(w, http.StatusBadRequest, err)
		return
	}
	// Failed and partial runs still return their outcome; the status field
	// carries the verdict.
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleOutcomes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"outcomes": s.orchestrator.Controller().Outcomes(),
	})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs": common.LogEntries(),
	})
}
