// File path: internal/api/repos_handler.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/docsync-dev/docsync/internal/common"
	"github.com/docsync-dev/docsync/internal/github"
	"github.com/docsync-dev/docsync/internal/manifest"
)

type registerRepoRequest struct {
	URL    string `json:"url"`
	Branch string `json:"branch"`
}

type trackingRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleListRepos(w http.ResponseWriter, r *http.Request) {
	repos, err := s.orchestrator.Manifests().List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"repositories": repos})
}

func (s *Server) handleRegisterRepo(w http.ResponseWriter, r *http.Request) {
	var req registerRepoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("url required"))
		return
	}
	repoID, err := github.ParseRepoURL(req.URL)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	branch := strings.TrimSpace(req.Branch)
	if branch == "" {
		branch = "main"
	}
	// Re-registering under a different branch retires the old branch's
	// documents; their doc ids carry the branch and would otherwise linger.
	if existing, err := s.orchestrator.Manifests().Get(r.Context(), repoID); err == nil && existing.Branch != branch {
		if err := s.orchestrator.Pipeline().PurgeRepo(r.Context(), existing); err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("purge previous branch: %w", err))
			return
		}
		common.Logger().Info("api: previous branch purged", "repo", repoID, "branch", existing.Branch)
	}
	if err := s.orchestrator.Manifests().Register(r.Context(), repoID, branch); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	common.Logger().Info("api: repository registered", "repo", repoID, "branch", branch)
	man, err := s.orchestrator.Manifests().Get(r.Context(), repoID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, man)
}

func (s *Server) handleGetRepo(w http.ResponseWriter, r *http.Request) {
	man, err := s.orchestrator.Manifests().Get(r.Context(), repoIDParam(r))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, man)
}

// handleDeleteRepo removes the manifest and purges every indexed chunk the
// repository contributed.
func (s *Server) handleDeleteRepo(w http.ResponseWriter, r *http.Request) {
	repoID := repoIDParam(r)
	man, err := s.orchestrator.Manifests().Get(r.Context(), repoID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err := s.orchestrator.Pipeline().PurgeRepo(r.Context(), man); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("purge index: %w", err))
		return
	}
	if err := s.orchestrator.Manifests().Delete(r.Context(), repoID); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	common.Logger().Info("api: repository deleted", "repo", repoID, "files", len(man.Files))
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": repoID, "files_purged": len(man.Files)})
}

func (s *Server) handleSetTracking(w http.ResponseWriter, r *http.Request) {
	var req trackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	repoID := repoIDParam(r)
	if err := s.orchestrator.Manifests().SetTracking(r.Context(), repoID, req.Enabled); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	common.Logger().Info("api: tracking updated", "repo", repoID, "enabled", req.Enabled)
	writeJSON(w, http.StatusOK, map[string]interface{}{"repo_id": repoID, "tracking_enabled": req.Enabled})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, manifest.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, manifest.ErrInvalidRepo):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
