// File path: internal/sqlite/manifest_test.go
package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docsync-dev/docsync/internal/manifest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "manifest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestGetUnknownRepoReturnsNotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Get(context.Background(), "o/missing")
	require.ErrorIs(t, err, manifest.ErrNotFound)
}

func TestRegisterAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Register(ctx, "angular/angular", "main"))

	got, err := store.Get(ctx, "angular/angular")
	require.NoError(t, err)
	require.Equal(t, "angular/angular", got.RepoID)
	require.Equal(t, "main", got.Branch)
	require.True(t, got.TrackingEnabled)
	require.Empty(t, got.Files)
}

func TestRegisterRejectsInvalidRepoID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"", "noslash", "a/b/c", "/name", "owner/"} {
		require.ErrorIs(t, store.Register(ctx, id, "main"), manifest.ErrInvalidRepo, "id %q", id)
	}
}

func TestMergeUpsertsAndRemoves(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Register(ctx, "o/r", "main"))

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Merge(ctx, "o/r", []manifest.FileRecord{
		{Path: "a.md", ContentHash: "h1", Status: manifest.FileIngested, LastIngested: now},
		{Path: "b.md", ContentHash: "h2", Status: manifest.FileIngested, LastIngested: now},
	}, nil, manifest.StatusComplete))

	require.NoError(t, store.Merge(ctx, "o/r", []manifest.FileRecord{
		{Path: "b.md", ContentHash: "h3", Status: manifest.FileIngested, LastIngested: now},
	}, []string{"a.md"}, manifest.StatusComplete))

	got, err := store.Get(ctx, "o/r")
	require.NoError(t, err)
	require.Len(t, got.Files, 1)
	require.Equal(t, "b.md", got.Files[0].Path)
	require.Equal(t, "h3", got.Files[0].ContentHash)
	require.Equal(t, manifest.StatusComplete, got.Status)
}

func TestMergePreservesUntouchedRecords(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Register(ctx, "o/r", "main"))

	require.NoError(t, store.Merge(ctx, "o/r", []manifest.FileRecord{
		{Path: "a.md", ContentHash: "h1", Status: manifest.FileIngested},
		{Path: "b.md", ContentHash: "h2", Status: manifest.FileIngested},
		{Path: "c.md", ContentHash: "h3", Status: manifest.FileIngested},
	}, nil, manifest.StatusComplete))

	// Touch only b.md; a.md and c.md must survive unchanged.
	require.NoError(t, store.Merge(ctx, "o/r", []manifest.FileRecord{
		{Path: "b.md", ContentHash: "h2b", Status: manifest.FileIngested},
	}, nil, manifest.StatusComplete))

	got, err := store.Get(ctx, "o/r")
	require.NoError(t, err)
	hashes := got.HashesByPath()
	require.Equal(t, map[string]string{"a.md": "h1", "b.md": "h2b", "c.md": "h3"}, hashes)
}

func TestMergeUnknownRepoFails(t *testing.T) {
	store := openTestStore(t)
	err := store.Merge(context.Background(), "o/ghost", nil, nil, manifest.StatusComplete)
	require.ErrorIs(t, err, manifest.ErrNotFound)
}

func TestMergeRecordsPartialStatus(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Register(ctx, "o/r", "main"))

	require.NoError(t, store.Merge(ctx, "o/r", []manifest.FileRecord{
		{Path: "a.md", ContentHash: "h1", Status: manifest.FileFailed},
	}, nil, manifest.StatusPartial))

	got, err := store.Get(ctx, "o/r")
	require.NoError(t, err)
	require.Equal(t, manifest.StatusPartial, got.Status)
	require.Equal(t, manifest.FileFailed, got.Files[0].Status)
	require.False(t, got.LastUpdated.IsZero())
}

func TestSetTrackingAndListTracked(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Register(ctx, "o/a", "main"))
	require.NoError(t, store.Register(ctx, "o/b", "main"))

	require.NoError(t, store.SetTracking(ctx, "o/a", false))

	tracked, err := store.ListTracked(ctx)
	require.NoError(t, err)
	require.Len(t, tracked, 1)
	require.Equal(t, "o/b", tracked[0].RepoID)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.ErrorIs(t, store.SetTracking(ctx, "o/ghost", true), manifest.ErrNotFound)
}

func TestReRegisterSameBranchKeepsFileRecords(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Register(ctx, "o/r", "main"))
	require.NoError(t, store.Merge(ctx, "o/r", []manifest.FileRecord{
		{Path: "a.md", ContentHash: "h1", Status: manifest.FileIngested},
	}, nil, manifest.StatusComplete))
	require.NoError(t, store.SetTracking(ctx, "o/r", false))

	require.NoError(t, store.Register(ctx, "o/r", "main"))

	got, err := store.Get(ctx, "o/r")
	require.NoError(t, err)
	require.True(t, got.TrackingEnabled)
	require.Len(t, got.Files, 1)
}

func TestReRegisterNewBranchClearsFileRecords(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Register(ctx, "o/r", "main"))
	require.NoError(t, store.Merge(ctx, "o/r", []manifest.FileRecord{
		{Path: "a.md", ContentHash: "h1", Status: manifest.FileIngested},
	}, nil, manifest.StatusComplete))

	// The stored hashes describe main's files; switching to develop must
	// start the manifest over so the next run re-indexes everything.
	require.NoError(t, store.Register(ctx, "o/r", "develop"))

	got, err := store.Get(ctx, "o/r")
	require.NoError(t, err)
	require.True(t, got.TrackingEnabled)
	require.Equal(t, "develop", got.Branch)
	require.Empty(t, got.Files)
}

func TestDeleteCascadesFiles(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Register(ctx, "o/r", "main"))
	require.NoError(t, store.Merge(ctx, "o/r", []manifest.FileRecord{
		{Path: "a.md", ContentHash: "h1", Status: manifest.FileIngested},
	}, nil, manifest.StatusComplete))

	require.NoError(t, store.Delete(ctx, "o/r"))
	_, err := store.Get(ctx, "o/r")
	require.ErrorIs(t, err, manifest.ErrNotFound)

	var count int
	require.NoError(t, store.DB().Get(&count, `SELECT COUNT(*) FROM manifest_files WHERE repo_id = ?`, "o/r"))
	require.Zero(t, count)

	require.ErrorIs(t, store.Delete(ctx, "o/r"), manifest.ErrNotFound)
}
