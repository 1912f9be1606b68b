// File path: internal/source/source.go

// Package source defines the contracts between the reconciliation pipeline
// and the repository host it syncs from. Implementations live elsewhere
// (internal/github); the pipeline depends only on these interfaces.
package source

import (
	"context"
	"errors"
)

// Failure taxonomy for source operations. Implementations wrap these
// sentinels so callers can classify with errors.Is regardless of transport
// detail.
var (
	// ErrUnavailable covers network and authentication failures; the whole
	// run is retryable on the next scheduled cycle.
	ErrUnavailable = errors.New("source unavailable")
	// ErrRateLimited means the host asked us to back off.
	ErrRateLimited = errors.New("source rate limited")
	// ErrProtocol means the host returned something we cannot interpret;
	// fatal for the current run.
	ErrProtocol = errors.New("source protocol error")
	// ErrNotFound means a requested path vanished upstream between the tree
	// listing and the content fetch; soft failure, skip the path.
	ErrNotFound = errors.New("path not found")
	// ErrTransient marks failures worth a bounded retry within the same
	// call before the path is marked failed.
	ErrTransient = errors.New("transient source error")
)

// TreeEntry is one blob in a repository tree listing. Hash is an opaque
// equality token (the host's blob hash); it is never decoded or compared
// beyond equality.
type TreeEntry struct {
	Path string
	Hash string
}

// FileContent is the fully fetched content of one path.
type FileContent struct {
	Path string
	Hash string
	Text string
	// WebURL points at the host's human-readable view of the file; carried
	// into index metadata so search results can cite their origin.
	WebURL string
	Size   int64
}

// PathError records a per-path fetch failure without aborting the batch.
type PathError struct {
	Path string
	Err  error
}

// TreeFetcher lists the current file tree of a repository at a ref,
// restricted to blob entries. Read-only, no side effects.
type TreeFetcher interface {
	FetchTree(ctx context.Context, repoID, ref string) ([]TreeEntry, error)
}

// ContentFetcher retrieves full content for a set of paths with bounded
// fan-out. One failing path never aborts the others: failures come back in
// the second return value, and the fetched slice holds at most one entry per
// requested path.
type ContentFetcher interface {
	FetchContents(ctx context.Context, repoID, ref string, paths []string) ([]FileContent, []PathError)
}
