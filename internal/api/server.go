// File path: internal/api/server.go

// Package api exposes the docsync HTTP surface: repository management, sync
// triggers, outcome reporting, and operational endpoints.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/docsync-dev/docsync/internal/common"
	"github.com/docsync-dev/docsync/internal/data/orchestrator"
)

type Server struct {
	router       chi.Router
	orchestrator *orchestrator.Orchestrator
}

// NewServer builds the HTTP server on top of a wired orchestrator.
func NewServer(ctx context.Context, orch *orchestrator.Orchestrator) (*Server, error) {
	if orch == nil {
		return nil, fmt.Errorf("orchestrator required")
	}
	s := &Server{
		router:       chi.NewRouter(),
		orchestrator: orch,
	}
	s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	logger.Info("api: configuring routes")
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Get("/v1/repos", s.handleListRepos)
	s.router.Post("/v1/repos", s.handleRegisterRepo)
	s.router.Get("/v1/repos/{owner}/{name}", s.handleGetRepo)
	s.router.Delete("/v1/repos/{owner}/{name}", s.handleDeleteRepo)
	s.router.Post("/v1/repos/{owner}/{name}/tracking", s.handleSetTracking)

	s.router.Post("/v1/sync", s.handleSyncAll)
	s.router.Post("/v1/sync/{owner}/{name}", s.handleSyncRepo)
	s.router.Get("/v1/search", s.handleSearch)
	s.router.Get("/v1/outcomes", s.handleOutcomes)
	s.router.Get("/v1/logs", s.handleLogs)
}

func repoIDParam(r *http.Request) string {
	return chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "name")
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
