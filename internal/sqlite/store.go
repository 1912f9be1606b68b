// File path: internal/sqlite/store.go

// Package sqlite persists repository manifests in a single SQLite database.
// It is the only implementation of manifest.Store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store wraps a pooled sqlx.DB connection to the SQLite manifest database.
type Store struct {
	db *sqlx.DB
}

// Open constructs a Store backed by the SQLite database at the provided path.
// The schema is migrated on first use.
func Open(path string) (*Store, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		cfg.Path = trimmed
	}
	return OpenWithConfig(cfg)
}

// OpenWithConfig constructs a Store using the provided configuration.
func OpenWithConfig(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path required")
	}
	cfg.applyDefaults()
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve sqlite path: %w", err)
	}
	busy := int(cfg.BusyTimeout / time.Millisecond)
	if busy <= 0 {
		busy = 5000
	}
	// journal_mode cannot be switched inside a transaction, so WAL is set
	// through the DSN; that also applies it to every pooled connection.
	// _txlock=immediate makes write transactions take the lock up front so
	// the busy timeout applies; a deferred read→write upgrade would get
	// SQLITE_BUSY immediately under concurrent merges.
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_pragma=busy_timeout(%d)&_pragma=journal_mode(wal)&_pragma=foreign_keys(1)", abs, busy)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingTimeout := cfg.BusyTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying sqlx.DB for advanced callers.
func (s *Store) DB() *sqlx.DB {
	if s == nil {
		return nil
	}
	return s.db
}

func (s *Store) migrate(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store not initialised")
	}
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS repositories (
                repo_id TEXT PRIMARY KEY,
                branch TEXT NOT NULL DEFAULT 'main',
                tracking_enabled INTEGER NOT NULL DEFAULT 1,
                status TEXT NOT NULL DEFAULT 'complete',
                last_updated DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS manifest_files (
                repo_id TEXT NOT NULL,
                path TEXT NOT NULL,
                content_hash TEXT NOT NULL,
                status TEXT NOT NULL DEFAULT 'ingested',
                last_ingested DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                PRIMARY KEY (repo_id, path),
                FOREIGN KEY(repo_id) REFERENCES repositories(repo_id) ON DELETE CASCADE
        );`,
	`CREATE INDEX IF NOT EXISTS idx_manifest_files_repo ON manifest_files(repo_id);`,
	`CREATE INDEX IF NOT EXISTS idx_manifest_files_status ON manifest_files(repo_id, status);`,
	`CREATE INDEX IF NOT EXISTS idx_repositories_tracking ON repositories(tracking_enabled, repo_id);`,
}
