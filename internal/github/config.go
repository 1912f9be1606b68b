// File path: internal/github/config.go
package github

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls the GitHub client. Values come from the environment with
// documented defaults; the token is optional (public repositories work
// unauthenticated at a lower rate limit).
type Config struct {
	BaseURL string
	Token   string

	Timeout time.Duration
	Retries int
	Workers int

	// Extensions filters tree listings to documentation files.
	Extensions []string
}

// DefaultConfig returns the baseline client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "https://api.github.com",
		Timeout:    30 * time.Second,
		Retries:    3,
		Workers:    10,
		Extensions: []string{".md", ".mdx", ".txt", ".rst"},
	}
}

// LoadConfig builds a Config from defaults and environment variables.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if value := strings.TrimSpace(os.Getenv("GITHUB_API_BASE_URL")); value != "" {
		cfg.BaseURL = strings.TrimRight(value, "/")
	}
	if value := strings.TrimSpace(os.Getenv("GITHUB_API_KEY")); value != "" {
		cfg.Token = value
	} else if value := strings.TrimSpace(os.Getenv("GITHUB_TOKEN")); value != "" {
		cfg.Token = value
	}
	if value := strings.TrimSpace(os.Getenv("GITHUB_TIMEOUT")); value != "" {
		dur, err := parseDurationOrSeconds(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse GITHUB_TIMEOUT: %w", err)
		}
		cfg.Timeout = dur
	}
	if value := strings.TrimSpace(os.Getenv("GITHUB_RETRIES")); value != "" {
		retries, err := strconv.Atoi(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse GITHUB_RETRIES: %w", err)
		}
		if retries >= 0 {
			cfg.Retries = retries
		}
	}
	if value := strings.TrimSpace(os.Getenv("GITHUB_CONCURRENT_REQUESTS")); value != "" {
		workers, err := strconv.Atoi(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse GITHUB_CONCURRENT_REQUESTS: %w", err)
		}
		if workers > 0 {
			cfg.Workers = workers
		}
	}
	if value := strings.TrimSpace(os.Getenv("DOCSYNC_FILE_EXTENSIONS")); value != "" {
		cfg.Extensions = parseExtensions(value)
	}
	return applyDefaults(cfg), nil
}

func applyDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = defaults.Retries
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = defaults.Extensions
	}
	return cfg
}

// parseDurationOrSeconds accepts either a Go duration ("30s") or a bare
// integer second count, which the original deployment environment used.
func parseDurationOrSeconds(value string) (time.Duration, error) {
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("timeout must be positive: %d", secs)
		}
		return time.Duration(secs) * time.Second, nil
	}
	dur, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if dur <= 0 {
		return 0, fmt.Errorf("timeout must be positive: %s", value)
	}
	return dur, nil
}

func parseExtensions(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		out = append(out, trimmed)
	}
	return out
}
