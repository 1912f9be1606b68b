// File path: internal/github/parser.go
package github

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var repoPartPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ParseRepoURL extracts the canonical "owner/name" id from the forms users
// actually paste: a bare "owner/name", "github.com/owner/name", or a full
// https URL with optional .git suffix and trailing path segments.
func ParseRepoURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("empty repository url")
	}

	candidate := trimmed
	if strings.Contains(candidate, "://") {
		parsed, err := url.Parse(candidate)
		if err != nil {
			return "", fmt.Errorf("parse repository url %q: %w", raw, err)
		}
		host := strings.ToLower(parsed.Host)
		if host != "github.com" && host != "www.github.com" {
			return "", fmt.Errorf("unsupported repository host %q", parsed.Host)
		}
		candidate = strings.TrimPrefix(parsed.Path, "/")
	} else {
		candidate = strings.TrimPrefix(candidate, "www.")
		candidate = strings.TrimPrefix(candidate, "github.com/")
	}

	candidate = strings.TrimSuffix(candidate, "/")
	parts := strings.Split(candidate, "/")
	if len(parts) < 2 {
		return "", fmt.Errorf("repository url %q missing owner or name", raw)
	}
	owner := parts[0]
	name := strings.TrimSuffix(parts[1], ".git")
	if !repoPartPattern.MatchString(owner) || !repoPartPattern.MatchString(name) {
		return "", fmt.Errorf("repository url %q has invalid owner or name", raw)
	}
	return owner + "/" + name, nil
}

// BuildWebURL returns the browser URL for a file at a branch, used as the
// citation link carried into index metadata.
func BuildWebURL(repoID, branch, path string) string {
	return fmt.Sprintf("https://github.com/%s/blob/%s/%s", repoID, branch, path)
}
