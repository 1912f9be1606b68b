// File path: internal/sqlite/config.go
package sqlite

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config sizes the connection pool for the manifest database. The path
// usually comes from the orchestrator; the pool knobs are SQLITE_* variables
// for operators who need them.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	BusyTimeout     time.Duration
}

// DefaultConfig returns pool settings suited to one embedded SQLite file.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    8,
		MaxIdleConns:    8,
		ConnMaxLifetime: 15 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		BusyTimeout:     5 * time.Second,
	}
}

// LoadConfig layers SQLITE_* environment variables over the defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if v := strings.TrimSpace(os.Getenv("SQLITE_PATH")); v != "" {
		cfg.Path = v
	}
	var err error
	if cfg.MaxOpenConns, err = intEnv("SQLITE_MAX_OPEN_CONNS", cfg.MaxOpenConns); err != nil {
		return Config{}, err
	}
	if cfg.MaxIdleConns, err = intEnv("SQLITE_MAX_IDLE_CONNS", cfg.MaxIdleConns); err != nil {
		return Config{}, err
	}
	if cfg.ConnMaxLifetime, err = durationEnv("SQLITE_CONN_MAX_LIFETIME", cfg.ConnMaxLifetime); err != nil {
		return Config{}, err
	}
	if cfg.ConnMaxIdleTime, err = durationEnv("SQLITE_CONN_MAX_IDLE_TIME", cfg.ConnMaxIdleTime); err != nil {
		return Config{}, err
	}
	if cfg.BusyTimeout, err = durationEnv("SQLITE_BUSY_TIMEOUT", cfg.BusyTimeout); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = def.MaxOpenConns
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = def.ConnMaxLifetime
	}
	if c.ConnMaxIdleTime <= 0 {
		c.ConnMaxIdleTime = def.ConnMaxIdleTime
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = def.BusyTimeout
	}
}

func intEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if parsed <= 0 {
		return fallback, nil
	}
	return parsed, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if parsed <= 0 {
		return fallback, nil
	}
	return parsed, nil
}
