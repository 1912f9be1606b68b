// File path: internal/data/orchestrator/config.go
package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config controls the construction of the orchestrator and its scheduled
// reconciliation loop.
type Config struct {
	SQLitePath   string
	SyncInterval time.Duration
	SyncTimeout  time.Duration
	MaxParallel  int
}

// DefaultConfig returns the baseline configuration used when no overrides
// are supplied.
func DefaultConfig() Config {
	return Config{
		SQLitePath:   filepath.Join("data", "manifests.db"),
		SyncInterval: 24 * time.Hour,
		SyncTimeout:  time.Hour,
		MaxParallel:  3,
	}
}

// LoadConfig builds a Config from defaults and environment variables.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if value := strings.TrimSpace(os.Getenv("DOCSYNC_DB_PATH")); value != "" {
		cfg.SQLitePath = value
	}
	if value := strings.TrimSpace(os.Getenv("DOCSYNC_SYNC_INTERVAL")); value != "" {
		dur, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse DOCSYNC_SYNC_INTERVAL: %w", err)
		}
		cfg.SyncInterval = dur
	}
	if value := strings.TrimSpace(os.Getenv("DOCSYNC_SYNC_TIMEOUT")); value != "" {
		dur, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse DOCSYNC_SYNC_TIMEOUT: %w", err)
		}
		cfg.SyncTimeout = dur
	}
	if value := strings.TrimSpace(os.Getenv("DOCSYNC_MAX_PARALLEL")); value != "" {
		parallel, err := strconv.Atoi(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse DOCSYNC_MAX_PARALLEL: %w", err)
		}
		if parallel > 0 {
			cfg.MaxParallel = parallel
		}
	}
	return applyDefaults(cfg), nil
}

func applyDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if strings.TrimSpace(cfg.SQLitePath) == "" {
		cfg.SQLitePath = defaults.SQLitePath
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = defaults.SyncInterval
	}
	if cfg.SyncTimeout <= 0 {
		cfg.SyncTimeout = defaults.SyncTimeout
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = defaults.MaxParallel
	}
	return cfg
}

func (c Config) validate() error {
	if strings.TrimSpace(c.SQLitePath) == "" {
		return fmt.Errorf("sqlite path required")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync interval must be positive")
	}
	if c.SyncTimeout <= 0 {
		return fmt.Errorf("sync timeout must be positive")
	}
	if c.MaxParallel <= 0 {
		return fmt.Errorf("max parallel must be positive")
	}
	return nil
}
