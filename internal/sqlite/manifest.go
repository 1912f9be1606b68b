// File path: internal/sqlite/manifest.go
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/docsync-dev/docsync/internal/manifest"
)

// Timestamps are stored as RFC3339 text so the rows stay portable across
// drivers; CURRENT_TIMESTAMP defaults use SQLite's space-separated layout.
const sqliteTimeLayout = "2006-01-02 15:04:05"

type repoRow struct {
	RepoID          string `db:"repo_id"`
	Branch          string `db:"branch"`
	TrackingEnabled bool   `db:"tracking_enabled"`
	Status          string `db:"status"`
	LastUpdated     string `db:"last_updated"`
}

type fileRow struct {
	Path         string `db:"path"`
	ContentHash  string `db:"content_hash"`
	Status       string `db:"status"`
	LastIngested string `db:"last_ingested"`
}

func (r repoRow) toManifest() manifest.RepositoryManifest {
	return manifest.RepositoryManifest{
		RepoID:          r.RepoID,
		Branch:          r.Branch,
		TrackingEnabled: r.TrackingEnabled,
		Status:          manifest.ManifestStatus(r.Status),
		LastUpdated:     parseStoredTime(r.LastUpdated),
	}
}

func (r fileRow) toRecord() manifest.FileRecord {
	return manifest.FileRecord{
		Path:         r.Path,
		ContentHash:  r.ContentHash,
		Status:       manifest.FileStatus(r.Status),
		LastIngested: parseStoredTime(r.LastIngested),
	}
}

func parseStoredTime(value string) time.Time {
	if parsed, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return parsed
	}
	if parsed, err := time.Parse(sqliteTimeLayout, value); err == nil {
		return parsed.UTC()
	}
	return time.Time{}
}

func formatStoredTime(value time.Time) string {
	if value.IsZero() {
		value = time.Now()
	}
	return value.UTC().Format(time.RFC3339Nano)
}

// Get returns the manifest with all file records ordered by path, or
// manifest.ErrNotFound when the repository was never registered.
func (s *Store) Get(ctx context.Context, repoID string) (*manifest.RepositoryManifest, error) {
	if err := manifest.ValidateRepoID(repoID); err != nil {
		return nil, err
	}
	var repo repoRow
	err := s.db.GetContext(ctx, &repo,
		`SELECT repo_id, branch, tracking_enabled, status, last_updated
                 FROM repositories WHERE repo_id = ?`, repoID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, manifest.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load repository %s: %w", repoID, err)
	}

	var files []fileRow
	if err := s.db.SelectContext(ctx, &files,
		`SELECT path, content_hash, status, last_ingested
                 FROM manifest_files WHERE repo_id = ? ORDER BY path`, repoID); err != nil {
		return nil, fmt.Errorf("load manifest files %s: %w", repoID, err)
	}

	out := repo.toManifest()
	out.Files = make([]manifest.FileRecord, 0, len(files))
	for _, row := range files {
		out.Files = append(out.Files, row.toRecord())
	}
	return &out, nil
}

// Register creates the repository entry, or re-enables tracking when the
// entry already exists. Re-registering with the same branch keeps the file
// records, so a disable/enable cycle keeps incremental state. Registering a
// different branch clears them: the stored hashes describe the old branch's
// files and the next run must treat everything as added.
func (s *Store) Register(ctx context.Context, repoID, branch string) error {
	if err := manifest.ValidateRepoID(repoID); err != nil {
		return err
	}
	if branch == "" {
		branch = "main"
	}
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var existing string
		err := tx.GetContext(ctx, &existing,
			`SELECT branch FROM repositories WHERE repo_id = ?`, repoID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check repository %s: %w", repoID, err)
		}
		if err == nil && existing != branch {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM manifest_files WHERE repo_id = ?`, repoID); err != nil {
				return fmt.Errorf("clear manifest files %s: %w", repoID, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO repositories (repo_id, branch, tracking_enabled, status, last_updated)
                         VALUES (?, ?, 1, ?, ?)
                         ON CONFLICT(repo_id) DO UPDATE SET
                                tracking_enabled = 1,
                                branch = excluded.branch`,
			repoID, branch, string(manifest.StatusComplete), formatStoredTime(time.Now())); err != nil {
			return fmt.Errorf("register repository %s: %w", repoID, err)
		}
		return nil
	})
}

// Merge applies one reconciliation outcome atomically: upsert the touched
// records, delete the removed paths, stamp last_updated, and set the manifest
// status. Records not named in either list are left untouched.
func (s *Store) Merge(ctx context.Context, repoID string, records []manifest.FileRecord, removed []string, status manifest.ManifestStatus) error {
	if err := manifest.ValidateRepoID(repoID); err != nil {
		return err
	}
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var exists int
		err := tx.GetContext(ctx, &exists, `SELECT 1 FROM repositories WHERE repo_id = ?`, repoID)
		if errors.Is(err, sql.ErrNoRows) {
			return manifest.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check repository %s: %w", repoID, err)
		}

		now := time.Now()
		for _, rec := range records {
			if rec.Path == "" {
				return fmt.Errorf("merge %s: empty file path", repoID)
			}
			ingested := rec.LastIngested
			if ingested.IsZero() {
				ingested = now
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO manifest_files (repo_id, path, content_hash, status, last_ingested)
                                 VALUES (?, ?, ?, ?, ?)
                                 ON CONFLICT(repo_id, path) DO UPDATE SET
                                        content_hash = excluded.content_hash,
                                        status = excluded.status,
                                        last_ingested = excluded.last_ingested`,
				repoID, rec.Path, rec.ContentHash, string(rec.Status), formatStoredTime(ingested)); err != nil {
				return fmt.Errorf("merge record %s/%s: %w", repoID, rec.Path, err)
			}
		}
		for _, path := range removed {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM manifest_files WHERE repo_id = ? AND path = ?`, repoID, path); err != nil {
				return fmt.Errorf("remove record %s/%s: %w", repoID, path, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE repositories SET status = ?, last_updated = ? WHERE repo_id = ?`,
			string(status), formatStoredTime(now), repoID); err != nil {
			return fmt.Errorf("stamp repository %s: %w", repoID, err)
		}
		return nil
	})
}

// SetTracking flips the tracking gate for a registered repository.
func (s *Store) SetTracking(ctx context.Context, repoID string, enabled bool) error {
	if err := manifest.ValidateRepoID(repoID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE repositories SET tracking_enabled = ? WHERE repo_id = ?`, enabled, repoID)
	if err != nil {
		return fmt.Errorf("set tracking %s: %w", repoID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set tracking %s: %w", repoID, err)
	}
	if affected == 0 {
		return manifest.ErrNotFound
	}
	return nil
}

// ListTracked returns manifests with tracking enabled, without file records.
func (s *Store) ListTracked(ctx context.Context) ([]manifest.RepositoryManifest, error) {
	return s.list(ctx, true)
}

// List returns all manifests, without file records.
func (s *Store) List(ctx context.Context) ([]manifest.RepositoryManifest, error) {
	return s.list(ctx, false)
}

func (s *Store) list(ctx context.Context, trackedOnly bool) ([]manifest.RepositoryManifest, error) {
	query := `SELECT repo_id, branch, tracking_enabled, status, last_updated
                  FROM repositories`
	if trackedOnly {
		query += ` WHERE tracking_enabled = 1`
	}
	query += ` ORDER BY repo_id`

	var rows []repoRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	out := make([]manifest.RepositoryManifest, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toManifest())
	}
	return out, nil
}

// Delete removes the manifest and all its file records.
func (s *Store) Delete(ctx context.Context, repoID string) error {
	if err := manifest.ValidateRepoID(repoID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM repositories WHERE repo_id = ?`, repoID)
	if err != nil {
		return fmt.Errorf("delete repository %s: %w", repoID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete repository %s: %w", repoID, err)
	}
	if affected == 0 {
		return manifest.ErrNotFound
	}
	return nil
}

var _ manifest.Store = (*Store)(nil)
