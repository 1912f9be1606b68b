// File path: internal/api/server_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docsync-dev/docsync/internal/data/orchestrator"
	"github.com/docsync-dev/docsync/internal/embed"
	"github.com/docsync-dev/docsync/internal/index"
	"github.com/docsync-dev/docsync/internal/recon"
	"github.com/docsync-dev/docsync/internal/source"
)

type stubTrees struct {
	entries map[string][]source.TreeEntry
}

func (s stubTrees) FetchTree(ctx context.Context, repoID, ref string) ([]source.TreeEntry, error) {
	return s.entries[repoID], nil
}

type stubContents struct {
	texts map[string]string
}

func (s stubContents) FetchContents(ctx context.Context, repoID, ref string, paths []string) ([]source.FileContent, []source.PathError) {
	var out []source.FileContent
	for _, path := range paths {
		out = append(out, source.FileContent{Path: path, Hash: "h-" + path, Text: s.texts[path]})
	}
	return out, nil
}

type stubIndex struct {
	docs map[string]index.Document
}

func (m *stubIndex) Available() bool                                   { return true }
func (m *stubIndex) EnsureCollection(ctx context.Context, d int) error { return nil }
func (m *stubIndex) Upsert(ctx context.Context, docs []index.Document, vectors [][]float32) error {
	for _, doc := range docs {
		m.docs[doc.ID] = doc
	}
	return nil
}
func (m *stubIndex) DeleteByDocID(ctx context.Context, docID string) (int, error) {
	count := 0
	for id, doc := range m.docs {
		if doc.DocID == docID {
			delete(m.docs, id)
			count++
		}
	}
	return count, nil
}
func (m *stubIndex) Search(ctx context.Context, v []float32, limit int) ([]index.SearchResult, error) {
	var out []index.SearchResult
	for id, doc := range m.docs {
		if len(out) >= limit {
			break
		}
		payload := map[string]interface{}{"content": doc.Text}
		for k, value := range doc.Metadata {
			payload[k] = value
		}
		out = append(out, index.SearchResult{ID: id, Score: 0.5, Payload: payload})
	}
	return out, nil
}

func newTestServer(t *testing.T) (*Server, *stubIndex) {
	t.Helper()
	idx := &stubIndex{docs: make(map[string]index.Document)}
	orch, err := orchestrator.New(context.Background(),
		orchestrator.Config{SQLitePath: filepath.Join(t.TempDir(), "manifests.db")},
		orchestrator.WithSchedulerDisabled(),
		orchestrator.WithIndexStore(idx),
		orchestrator.WithEmbedder(embed.NewLocalEmbedder(8)),
		orchestrator.WithTreeFetcher(stubTrees{entries: map[string][]source.TreeEntry{
			"octo/docs": {{Path: "README.md", Hash: "h-README.md"}},
		}}),
		orchestrator.WithContentFetcher(stubContents{texts: map[string]string{
			"README.md": "# Docs",
		}}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { orch.Close() })

	server, err := NewServer(context.Background(), orch)
	require.NoError(t, err)
	return server, idx
}

func doRequest(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func registerDocsRepo(t *testing.T, server *Server) {
	t.Helper()
	rec := doRequest(t, server, http.MethodPost, "/v1/repos",
		registerRepoRequest{URL: "https://github.com/octo/docs", Branch: "main"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t)
	rec := doRequest(t, server, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	rec := doRequest(t, server, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterAndListRepos(t *testing.T) {
	server, _ := newTestServer(t)
	registerDocsRepo(t, server)

	rec := doRequest(t, server, http.MethodGet, "/v1/repos", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Repositories []struct {
			RepoID          string `json:"repo_id"`
			TrackingEnabled bool   `json:"tracking_enabled"`
		} `json:"repositories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Repositories, 1)
	require.Equal(t, "octo/docs", resp.Repositories[0].RepoID)
	require.True(t, resp.Repositories[0].TrackingEnabled)
}

func TestRegisterRejectsBadURL(t *testing.T) {
	server, _ := newTestServer(t)
	rec := doRequest(t, server, http.MethodPost, "/v1/repos",
		registerRepoRequest{URL: "https://gitlab.com/o/r"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, server, http.MethodPost, "/v1/repos", registerRepoRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncRepoReturnsOutcome(t *testing.T) {
	server, idx := newTestServer(t)
	registerDocsRepo(t, server)

	rec := doRequest(t, server, http.MethodPost, "/v1/sync/octo/docs", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var outcome recon.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	require.Equal(t, recon.OutcomeSuccess, outcome.Status)
	require.Equal(t, 1, outcome.Added)
	require.NotEmpty(t, idx.docs)

	rec = doRequest(t, server, http.MethodGet, "/v1/repos/octo/docs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var man struct {
		Files []struct {
			Path string `json:"path"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &man))
	require.Len(t, man.Files, 1)
	require.Equal(t, "README.md", man.Files[0].Path)
}

func TestSyncUnknownRepoIs404(t *testing.T) {
	server, _ := newTestServer(t)
	rec := doRequest(t, server, http.MethodPost, "/v1/sync/octo/ghost", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrackingDisabledBlocksSync(t *testing.T) {
	server, _ := newTestServer(t)
	registerDocsRepo(t, server)

	rec := doRequest(t, server, http.MethodPost, "/v1/repos/octo/docs/tracking",
		trackingRequest{Enabled: false})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, server, http.MethodPost, "/v1/sync/octo/docs", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteRepoPurgesIndex(t *testing.T) {
	server, idx := newTestServer(t)
	registerDocsRepo(t, server)
	rec := doRequest(t, server, http.MethodPost, "/v1/sync/octo/docs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, idx.docs)

	rec = doRequest(t, server, http.MethodDelete, "/v1/repos/octo/docs", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Empty(t, idx.docs)

	rec = doRequest(t, server, http.MethodGet, "/v1/repos/octo/docs", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReRegisterNewBranchPurgesOldDocs(t *testing.T) {
	server, idx := newTestServer(t)
	registerDocsRepo(t, server)
	rec := doRequest(t, server, http.MethodPost, "/v1/sync/octo/docs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, idx.docs)

	rec = doRequest(t, server, http.MethodPost, "/v1/repos",
		registerRepoRequest{URL: "octo/docs", Branch: "develop"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Empty(t, idx.docs, "old branch documents must be purged on branch switch")

	rec = doRequest(t, server, http.MethodPost, "/v1/sync/octo/docs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, idx.docs)
	for _, doc := range idx.docs {
		require.Equal(t, "develop", doc.Metadata["branch"])
	}
}

func TestSearchEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	registerDocsRepo(t, server)
	rec := doRequest(t, server, http.MethodPost, "/v1/sync/octo/docs", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, server, http.MethodGet, "/v1/search?q=alpha&limit=3", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Query   string                   `json:"query"`
		Results []map[string]interface{} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "alpha", resp.Query)
	require.NotEmpty(t, resp.Results)
}

func TestSearchRequiresQuery(t *testing.T) {
	server, _ := newTestServer(t)
	rec := doRequest(t, server, http.MethodGet, "/v1/search", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, server, http.MethodGet, "/v1/search?q=docs&limit=zero", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOutcomesEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	registerDocsRepo(t, server)
	doRequest(t, server, http.MethodPost, "/v1/sync/octo/docs", nil)

	rec := doRequest(t, server, http.MethodGet, "/v1/outcomes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Outcomes []recon.Outcome `json:"outcomes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Outcomes, 1)
	require.Equal(t, "octo/docs", resp.Outcomes[0].RepoID)
}

func TestLogsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	rec := doRequest(t, server, http.MethodGet, "/v1/logs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp, "logs")
}
