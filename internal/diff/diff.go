// File path: internal/diff/diff.go

// Package diff computes the changeset between a stored repository manifest
// and a freshly fetched tree listing. Pure computation: no I/O, no clock.
package diff

import (
	"fmt"

	"github.com/docsync-dev/docsync/internal/manifest"
	"github.com/docsync-dev/docsync/internal/source"
)

// Change pairs a path with the content hash it should have after the run.
type Change struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
}

// Changeset partitions the union of old and new paths into four buckets.
// Added/Modified/Unchanged follow the insertion order of the new tree;
// Removed follows the order of the old manifest. The ordering is part of the
// contract so runs are reproducible.
type Changeset struct {
	Added     []Change `json:"added"`
	Modified  []Change `json:"modified"`
	Removed   []string `json:"removed"`
	Unchanged []string `json:"unchanged"`
}

// HasChanges reports whether the changeset requires any work.
func (c Changeset) HasChanges() bool {
	return len(c.Added) > 0 || len(c.Modified) > 0 || len(c.Removed) > 0
}

// FetchPaths returns added ∪ modified, the only paths whose content must be
// fetched. Removed paths never need content.
func (c Changeset) FetchPaths() []string {
	if len(c.Added) == 0 && len(c.Modified) == 0 {
		return nil
	}
	out := make([]string, 0, len(c.Added)+len(c.Modified))
	for _, ch := range c.Added {
		out = append(out, ch.Path)
	}
	for _, ch := range c.Modified {
		out = append(out, ch.Path)
	}
	return out
}

// HashFor returns the new-tree hash recorded for a path in added or
// modified, and whether the path is part of the changeset.
func (c Changeset) HashFor(path string) (string, bool) {
	for _, ch := range c.Added {
		if ch.Path == path {
			return ch.Hash, true
		}
	}
	for _, ch := range c.Modified {
		if ch.Path == path {
			return ch.Hash, true
		}
	}
	return "", false
}

// Summary renders the human-readable per-run report required for logging.
func (c Changeset) Summary() string {
	return fmt.Sprintf("%d added, %d modified, %d removed, %d unchanged",
		len(c.Added), len(c.Modified), len(c.Removed), len(c.Unchanged))
}

// Compute diffs the stored manifest against the current tree. Equal path
// with equal hash is unchanged; equal path with differing hash is modified;
// paths only in the tree are added; paths only in the manifest are removed.
// Duplicate paths in either input are rejected.
func Compute(old []manifest.FileRecord, tree []source.TreeEntry) (Changeset, error) {
	oldHashes := make(map[string]string, len(old))
	for _, rec := range old {
		if _, dup := oldHashes[rec.Path]; dup {
			return Changeset{}, fmt.Errorf("duplicate path in manifest: %s", rec.Path)
		}
		oldHashes[rec.Path] = rec.ContentHash
	}

	var cs Changeset
	seen := make(map[string]struct{}, len(tree))
	for _, entry := range tree {
		if _, dup := seen[entry.Path]; dup {
			return Changeset{}, fmt.Errorf("duplicate path in tree: %s", entry.Path)
		}
		seen[entry.Path] = struct{}{}
		oldHash, ok := oldHashes[entry.Path]
		switch {
		case !ok:
			cs.Added = append(cs.Added, Change{Path: entry.Path, Hash: entry.Hash})
		case oldHash != entry.Hash:
			cs.Modified = append(cs.Modified, Change{Path: entry.Path, Hash: entry.Hash})
		default:
			cs.Unchanged = append(cs.Unchanged, entry.Path)
		}
	}
	for _, rec := range old {
		if _, ok := seen[rec.Path]; !ok {
			cs.Removed = append(cs.Removed, rec.Path)
		}
	}
	return cs, nil
}
