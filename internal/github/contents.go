// File path: internal/github/contents.go
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/docsync-dev/docsync/internal/common"
	"github.com/docsync-dev/docsync/internal/source"
)

type contentResponse struct {
	Path        string `json:"path"`
	SHA         string `json:"sha"`
	Size        int64  `json:"size"`
	Encoding    string `json:"encoding"`
	Content     string `json:"content"`
	DownloadURL string `json:"download_url"`
	HTMLURL     string `json:"html_url"`
}

// FetchContents retrieves the full content of each requested path at ref.
// Paths are fetched concurrently, capped at the configured worker count.
// One failing path never fails the batch: errors come back per path, and
// transient failures get a bounded in-call retry before giving up.
func (c *Client) FetchContents(ctx context.Context, repoID, ref string, paths []string) ([]source.FileContent, []source.PathError) {
	logger := common.Logger()
	if len(paths) == 0 {
		return nil, nil
	}

	var (
		mu      sync.Mutex
		fetched []source.FileContent
		failed  []source.PathError
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.cfg.Workers)
	for _, path := range paths {
		path := path
		group.Go(func() error {
			content, err := c.fetchOne(groupCtx, repoID, ref, path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, source.PathError{Path: path, Err: err})
				return nil
			}
			fetched = append(fetched, content)
			return nil
		})
	}
	_ = group.Wait()

	if len(failed) > 0 {
		logger.Warn("github: content fetch finished with failures",
			"repo", repoID, "ref", ref, "fetched", len(fetched), "failed", len(failed))
	}
	return fetched, failed
}

// fetchOne retries transient failures up to the configured attempt budget
// with a short fixed backoff; every other failure class returns immediately.
func (c *Client) fetchOne(ctx context.Context, repoID, ref, path string) (source.FileContent, error) {
	attempts := c.cfg.Retries
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		content, err := c.fetchContent(ctx, repoID, ref, path)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !errors.Is(err, source.ErrTransient) {
			return source.FileContent{}, err
		}
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return source.FileContent{}, fmt.Errorf("%w: %v", source.ErrTransient, ctx.Err())
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}
	}
	return source.FileContent{}, lastErr
}

func (c *Client) fetchContent(ctx context.Context, repoID, ref, path string) (source.FileContent, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/contents/%s?ref=%s",
		c.cfg.BaseURL, repoID, escapePath(path), url.QueryEscape(ref))
	body, err := c.get(ctx, endpoint, false)
	if err != nil {
		return source.FileContent{}, err
	}

	var resp contentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return source.FileContent{}, fmt.Errorf("%w: decode contents: %v", source.ErrProtocol, err)
	}

	text, err := c.decodeContent(ctx, &resp)
	if err != nil {
		return source.FileContent{}, err
	}

	webURL := resp.HTMLURL
	if webURL == "" {
		webURL = BuildWebURL(repoID, ref, path)
	}
	return source.FileContent{
		Path:   path,
		Hash:   resp.SHA,
		Text:   text,
		WebURL: webURL,
		Size:   resp.Size,
	}, nil
}

// decodeContent handles the two shapes the contents endpoint returns:
// inline base64 for regular files, and an empty body with a download URL for
// blobs above the inline size cap.
func (c *Client) decodeContent(ctx context.Context, resp *contentResponse) (string, error) {
	switch resp.Encoding {
	case "base64":
		raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(resp.Content, "\n", ""))
		if err != nil {
			return "", fmt.Errorf("%w: decode base64 content: %v", source.ErrProtocol, err)
		}
		return string(raw), nil
	case "none", "":
		if resp.DownloadURL == "" {
			return "", fmt.Errorf("%w: no inline content and no download url", source.ErrProtocol)
		}
		body, err := c.get(ctx, resp.DownloadURL, false)
		if err != nil {
			return "", err
		}
		return string(body), nil
	default:
		return "", fmt.Errorf("%w: unsupported content encoding %q", source.ErrProtocol, resp.Encoding)
	}
}

// escapePath escapes each segment while preserving the slashes GitHub
// expects in the contents route.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
