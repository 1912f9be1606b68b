// File path: internal/data/orchestrator/options.go
package orchestrator

import (
	"github.com/docsync-dev/docsync/internal/embed"
	"github.com/docsync-dev/docsync/internal/index"
	"github.com/docsync-dev/docsync/internal/source"
)

type Option func(*options)

type options struct {
	disableScheduler bool
	index            index.Store
	embedder         embed.Embedder
	trees            source.TreeFetcher
	contents         source.ContentFetcher
}

// WithSchedulerDisabled prevents the orchestrator from starting the interval
// loop. Primarily used in tests.
func WithSchedulerDisabled() Option {
	return func(o *options) {
		o.disableScheduler = true
	}
}

// WithIndexStore injects a vector index implementation.
func WithIndexStore(store index.Store) Option {
	return func(o *options) {
		o.index = store
	}
}

// WithEmbedder injects an embedding provider.
func WithEmbedder(embedder embed.Embedder) Option {
	return func(o *options) {
		o.embedder = embedder
	}
}

// WithTreeFetcher injects a source tree fetcher.
func WithTreeFetcher(trees source.TreeFetcher) Option {
	return func(o *options) {
		o.trees = trees
	}
}

// WithContentFetcher injects a source content fetcher.
func WithContentFetcher(contents source.ContentFetcher) Option {
	return func(o *options) {
		o.contents = contents
	}
}
