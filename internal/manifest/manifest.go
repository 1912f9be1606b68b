// File path: internal/manifest/manifest.go

// Package manifest defines the persisted per-repository file manifest and
// the store contract backing it. The SQLite implementation lives in
// internal/sqlite.
package manifest

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("manifest not found")
	ErrInvalidRepo = errors.New("invalid repository id")
)

// FileStatus tracks the ingestion state of a single file record.
type FileStatus string

const (
	FilePending  FileStatus = "pending"
	FileIngested FileStatus = "ingested"
	FileFailed   FileStatus = "failed"
)

// ManifestStatus summarises the last reconciliation of a repository.
type ManifestStatus string

const (
	StatusComplete ManifestStatus = "complete"
	StatusPartial  ManifestStatus = "partial"
	StatusFailed   ManifestStatus = "failed"
)

// FileRecord is the last-known state of one file within a repository.
// Identity is the path; the content hash is an opaque equality token.
type FileRecord struct {
	Path         string     `json:"path" db:"path"`
	ContentHash  string     `json:"content_hash" db:"content_hash"`
	Status       FileStatus `json:"status" db:"status"`
	LastIngested time.Time  `json:"last_ingested" db:"last_ingested"`
}

// RepositoryManifest is the tracked state of one repository. Files are
// ordered by path and unique by path. Mutation happens only through
// Store.Merge; the pipeline never writes records directly.
type RepositoryManifest struct {
	RepoID          string         `json:"repo_id" db:"repo_id"`
	Branch          string         `json:"branch" db:"branch"`
	TrackingEnabled bool           `json:"tracking_enabled" db:"tracking_enabled"`
	Status          ManifestStatus `json:"status" db:"status"`
	LastUpdated     time.Time      `json:"last_updated" db:"last_updated"`
	Files           []FileRecord   `json:"files,omitempty"`
}

// HashesByPath returns the manifest's path -> content hash mapping.
func (m *RepositoryManifest) HashesByPath() map[string]string {
	if m == nil || len(m.Files) == 0 {
		return nil
	}
	out := make(map[string]string, len(m.Files))
	for _, f := range m.Files {
		out[f.Path] = f.ContentHash
	}
	return out
}

// ValidateRepoID checks the canonical owner/name form used as manifest key.
func ValidateRepoID(repoID string) error {
	parts := strings.Split(strings.TrimSpace(repoID), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ErrInvalidRepo
	}
	return nil
}

// Store persists repository manifests. Writes are scoped by repo id; Merge
// only touches the records and removals it is handed, so records outside the
// changeset always survive.
type Store interface {
	// Get returns the manifest with all file records, or ErrNotFound.
	Get(ctx context.Context, repoID string) (*RepositoryManifest, error)
	// Register creates (or re-enables) a tracked repository entry.
	Register(ctx context.Context, repoID, branch string) error
	// Merge upserts the provided records, deletes the removed paths, stamps
	// last_updated, and sets the manifest status — atomically.
	Merge(ctx context.Context, repoID string, records []FileRecord, removed []string, status ManifestStatus) error
	// SetTracking flips the tracking gate used by the controller.
	SetTracking(ctx context.Context, repoID string, enabled bool) error
	// ListTracked returns manifests with tracking enabled, without file
	// records, ordered by repo id.
	ListTracked(ctx context.Context) ([]RepositoryManifest, error)
	// List returns all manifests without file records, ordered by repo id.
	List(ctx context.Context) ([]RepositoryManifest, error)
	// Delete removes the manifest and all its file records.
	Delete(ctx context.Context, repoID string) error
}
