// File path: internal/index/config.go
package index

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config locates the ChromaDB server and names the collection that holds the
// documentation chunks. Everything is settable through CHROMADB_* variables;
// transport tuning keeps fixed defaults sized for a handful of concurrent
// reconciliation pipelines.
type Config struct {
	Scheme     string
	Host       string
	Port       string
	Collection string
	APIKey     string
	Timeout    time.Duration

	HTTPMaxIdleConns    int
	HTTPMaxIdlePerHost  int
	HTTPMaxConnsPerHost int
	HTTPIdleConnTimeout time.Duration
}

// DefaultConfig targets a local ChromaDB on its stock port.
func DefaultConfig() Config {
	return Config{
		Scheme:              "http",
		Host:                "localhost",
		Port:                "8000",
		Collection:          "docsync_docs",
		Timeout:             10 * time.Second,
		HTTPMaxIdleConns:    64,
		HTTPMaxIdlePerHost:  16,
		HTTPIdleConnTimeout: 90 * time.Second,
	}
}

// LoadConfig layers CHROMADB_* environment variables over the defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if v := strings.TrimSpace(os.Getenv("CHROMADB_SCHEME")); v != "" {
		cfg.Scheme = v
	}
	if v := strings.TrimSpace(os.Getenv("CHROMADB_HOST")); v != "" {
		cfg.Host = v
	}
	if v := strings.TrimSpace(os.Getenv("CHROMADB_PORT")); v != "" {
		cfg.Port = v
	}
	if v := strings.TrimSpace(os.Getenv("CHROMADB_COLLECTION")); v != "" {
		cfg.Collection = v
	}
	if v := strings.TrimSpace(os.Getenv("CHROMADB_API_KEY")); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("CHROMADB_TIMEOUT")); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse CHROMADB_TIMEOUT: %w", err)
		}
		if parsed > 0 {
			cfg.Timeout = parsed
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if strings.TrimSpace(c.Scheme) == "" {
		c.Scheme = def.Scheme
	}
	if strings.TrimSpace(c.Host) == "" {
		c.Host = def.Host
	}
	if strings.TrimSpace(c.Port) == "" {
		c.Port = def.Port
	}
	if strings.TrimSpace(c.Collection) == "" {
		c.Collection = def.Collection
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.HTTPMaxIdleConns <= 0 {
		c.HTTPMaxIdleConns = def.HTTPMaxIdleConns
	}
	if c.HTTPMaxIdlePerHost <= 0 {
		c.HTTPMaxIdlePerHost = def.HTTPMaxIdlePerHost
	}
	if c.HTTPIdleConnTimeout <= 0 {
		c.HTTPIdleConnTimeout = def.HTTPIdleConnTimeout
	}
}
