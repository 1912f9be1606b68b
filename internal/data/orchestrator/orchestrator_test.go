// File path: internal/data/orchestrator/orchestrator_test.go
package orchestrator

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docsync-dev/docsync/internal/embed"
	"github.com/docsync-dev/docsync/internal/index"
	"github.com/docsync-dev/docsync/internal/recon"
	"github.com/docsync-dev/docsync/internal/source"
)

type staticTrees struct {
	entries []source.TreeEntry
}

func (s staticTrees) FetchTree(ctx context.Context, repoID, ref string) ([]source.TreeEntry, error) {
	return s.entries, nil
}

type staticContents struct {
	texts map[string]string
}

func (s staticContents) FetchContents(ctx context.Context, repoID, ref string, paths []string) ([]source.FileContent, []source.PathError) {
	var out []source.FileContent
	for _, path := range paths {
		out = append(out, source.FileContent{Path: path, Hash: "h-" + path, Text: s.texts[path]})
	}
	return out, nil
}

type memoryIndex struct {
	docs map[string]index.Document
}

func (m *memoryIndex) Available() bool                                   { return true }
func (m *memoryIndex) EnsureCollection(ctx context.Context, d int) error { return nil }
func (m *memoryIndex) Upsert(ctx context.Context, docs []index.Document, vectors [][]float32) error {
	for _, doc := range docs {
		m.docs[doc.ID] = doc
	}
	return nil
}
func (m *memoryIndex) DeleteByDocID(ctx context.Context, docID string) (int, error) {
	count := 0
	for id, doc := range m.docs {
		if doc.DocID == docID {
			delete(m.docs, id)
			count++
		}
	}
	return count, nil
}
func (m *memoryIndex) Search(ctx context.Context, v []float32, limit int) ([]index.SearchResult, error) {
	return nil, nil
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *memoryIndex) {
	t.Helper()
	idx := &memoryIndex{docs: make(map[string]index.Document)}
	orch, err := New(context.Background(),
		Config{SQLitePath: filepath.Join(t.TempDir(), "manifests.db")},
		WithSchedulerDisabled(),
		WithIndexStore(idx),
		WithEmbedder(embed.NewLocalEmbedder(8)),
		WithTreeFetcher(staticTrees{entries: []source.TreeEntry{{Path: "a.md", Hash: "h-a.md"}}}),
		WithContentFetcher(staticContents{texts: map[string]string{"a.md": "# Alpha"}}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, orch.Close()) })
	return orch, idx
}

func TestOrchestratorWiresEndToEnd(t *testing.T) {
	orch, idx := newTestOrchestrator(t)
	ctx := context.Background()

	require.NoError(t, orch.Manifests().Register(ctx, "o/r", "main"))
	outcome, err := orch.Controller().RunOne(ctx, "o/r")
	require.NoError(t, err)
	require.Equal(t, recon.OutcomeSuccess, outcome.Status)
	require.NotEmpty(t, idx.docs)

	man, err := orch.Manifests().Get(ctx, "o/r")
	require.NoError(t, err)
	require.Len(t, man.Files, 1)
}

func TestNewFailsWhenDatabaseCannotOpen(t *testing.T) {
	// A directory is not a valid database file.
	_, err := New(context.Background(), Config{SQLitePath: t.TempDir()}, WithSchedulerDisabled())
	require.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DOCSYNC_DB_PATH", "")
	t.Setenv("DOCSYNC_SYNC_INTERVAL", "")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DOCSYNC_SYNC_INTERVAL", "30m")
	t.Setenv("DOCSYNC_MAX_PARALLEL", "5")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 5, cfg.MaxParallel)
	require.Equal(t, "30m0s", cfg.SyncInterval.String())
}
