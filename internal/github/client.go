// File path: internal/github/client.go

// Package github implements the source contracts against the GitHub REST
// API: recursive tree listings and per-path content retrieval with bounded
// concurrency.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/docsync-dev/docsync/internal/common"
	"github.com/docsync-dev/docsync/internal/source"
)

const apiVersion = "2022-11-28"

// Client talks to the GitHub REST API. It implements source.TreeFetcher and
// source.ContentFetcher.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient builds a client from the given configuration, filling defaults
// for any zero values.
func NewClient(cfg Config) *Client {
	cfg = applyDefaults(cfg)
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type treeResponse struct {
	SHA       string      `json:"sha"`
	Truncated bool        `json:"truncated"`
	Tree      []treeEntry `json:"tree"`
}

type treeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
}

// FetchTree lists the repository tree at ref recursively and keeps only blob
// entries whose extension is configured as documentation. A truncated
// listing is rejected: a partial tree would make every missing path look
// removed.
func (c *Client) FetchTree(ctx context.Context, repoID, ref string) ([]source.TreeEntry, error) {
	logger := common.Logger()
	endpoint := fmt.Sprintf("%s/repos/%s/git/trees/%s?recursive=1", c.cfg.BaseURL, repoID, url.PathEscape(ref))
	body, err := c.get(ctx, endpoint, true)
	if err != nil {
		return nil, fmt.Errorf("github: fetch tree %s@%s: %w", repoID, ref, err)
	}

	var resp treeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("github: decode tree %s@%s: %w: %v", repoID, ref, source.ErrProtocol, err)
	}
	if resp.Truncated {
		return nil, fmt.Errorf("github: tree %s@%s truncated by host: %w", repoID, ref, source.ErrProtocol)
	}

	entries := make([]source.TreeEntry, 0, len(resp.Tree))
	for _, entry := range resp.Tree {
		if entry.Type != "blob" || !c.isDocPath(entry.Path) {
			continue
		}
		if entry.Path == "" || entry.SHA == "" {
			return nil, fmt.Errorf("github: tree %s@%s entry missing path or sha: %w", repoID, ref, source.ErrProtocol)
		}
		entries = append(entries, source.TreeEntry{Path: entry.Path, Hash: entry.SHA})
	}
	logger.Debug("github: tree fetched", "repo", repoID, "ref", ref, "docs", len(entries), "total", len(resp.Tree))
	return entries, nil
}

func (c *Client) isDocPath(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range c.cfg.Extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// get performs one GET and maps failure onto the source error taxonomy.
// treeScope widens transient upstream failures to ErrUnavailable, since a
// failed tree listing fails the whole run rather than a single path.
func (c *Client) get(ctx context.Context, endpoint string, treeScope bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrProtocol, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if treeScope {
			return nil, fmt.Errorf("%w: %v", source.ErrUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %v", source.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, classifyStatus(resp, treeScope)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if treeScope {
			return nil, fmt.Errorf("%w: read body: %v", source.ErrUnavailable, err)
		}
		return nil, fmt.Errorf("%w: read body: %v", source.ErrTransient, err)
	}
	return body, nil
}

// classifyStatus maps a non-200 response onto the source sentinels. A 403
// only counts as rate limiting when the quota headers say so; otherwise it
// is an authorization problem.
func classifyStatus(resp *http.Response, treeScope bool) error {
	status := resp.StatusCode
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", source.ErrRateLimited, status)
	case status == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		return fmt.Errorf("%w: quota exhausted", source.ErrRateLimited)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", source.ErrUnavailable, status)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", source.ErrNotFound, status)
	case status >= 500:
		if treeScope {
			return fmt.Errorf("%w: status %d", source.ErrUnavailable, status)
		}
		return fmt.Errorf("%w: status %d", source.ErrTransient, status)
	default:
		return fmt.Errorf("%w: unexpected status %d", source.ErrProtocol, status)
	}
}
