// File path: internal/api/search_handler.go
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

const defaultSearchLimit = 5

// handleSearch embeds the query text and runs a vector search against the
// index. Results carry the chunk metadata written at ingestion time.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("query parameter q required"))
		return
	}
	limit := defaultSearchLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}

	vectors, err := s.orchestrator.Embedder().Embed(r.Context(), []string{query})
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("embed query: %w", err))
		return
	}
	if len(vectors) == 0 {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("embed query: empty result"))
		return
	}
	results, err := s.orchestrator.Index().Search(r.Context(), vectors[0], limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("search index: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": results,
	})
}
