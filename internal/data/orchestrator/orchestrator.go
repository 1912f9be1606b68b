// File path: internal/data/orchestrator/orchestrator.go

// Package orchestrator wires together the persistent stores, source
// fetchers, and the reconciliation pipeline that back the docsync daemon,
// and owns the interval scheduler.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/docsync-dev/docsync/internal/embed"
	"github.com/docsync-dev/docsync/internal/github"
	"github.com/docsync-dev/docsync/internal/index"
	"github.com/docsync-dev/docsync/internal/manifest"
	"github.com/docsync-dev/docsync/internal/recon"
	"github.com/docsync-dev/docsync/internal/source"
	"github.com/docsync-dev/docsync/internal/sqlite"
)

type closer interface {
	Close() error
}

// Orchestrator owns the wired components and exposes accessors for the API
// layer.
type Orchestrator struct {
	cfg Config

	manifests  *sqlite.Store
	idx        index.Store
	embedder   embed.Embedder
	pipeline   *recon.Pipeline
	controller *recon.Controller
	scheduler  *recon.Scheduler

	closers []closer
}

// New constructs an orchestrator from the provided configuration and
// optional overrides.
func New(ctx context.Context, cfg Config, opts ...Option) (*Orchestrator, error) {
	cfg = applyDefaults(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	settings := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&settings)
		}
	}

	manifests, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("init sqlite store: %w", err)
	}

	var trees source.TreeFetcher = settings.trees
	var contents source.ContentFetcher = settings.contents
	if trees == nil || contents == nil {
		ghCfg, err := github.LoadConfig()
		if err != nil {
			manifests.Close()
			return nil, fmt.Errorf("init github client: %w", err)
		}
		client := github.NewClient(ghCfg)
		if trees == nil {
			trees = client
		}
		if contents == nil {
			contents = client
		}
	}

	var idx index.Store = settings.index
	if idx == nil {
		client, err := index.NewFromEnv(ctx)
		if err != nil {
			manifests.Close()
			return nil, fmt.Errorf("init index client: %w", err)
		}
		idx = client
	}

	embedder := settings.embedder
	if embedder == nil {
		embedder = embed.NewFromEnv()
	}

	chunker, err := index.NewChunkerFromEnv()
	if err != nil {
		manifests.Close()
		return nil, fmt.Errorf("init chunker: %w", err)
	}

	pipeline := recon.NewPipeline(manifests, trees, contents, idx, embedder, chunker)
	controller := recon.NewController(pipeline, manifests, cfg.MaxParallel)

	orch := &Orchestrator{
		cfg:        cfg,
		manifests:  manifests,
		idx:        idx,
		embedder:   embedder,
		pipeline:   pipeline,
		controller: controller,
	}
	orch.closers = append(orch.closers, manifests)
	if c, ok := idx.(closer); ok {
		orch.closers = append(orch.closers, c)
	}

	if !settings.disableScheduler {
		orch.scheduler = recon.NewScheduler(controller, cfg.SyncInterval, cfg.SyncTimeout)
		orch.scheduler.Start(ctx)
	}
	return orch, nil
}

// Manifests exposes the manifest store.
func (o *Orchestrator) Manifests() manifest.Store {
	if o == nil {
		return nil
	}
	return o.manifests
}

// Index exposes the vector index.
func (o *Orchestrator) Index() index.Store {
	if o == nil {
		return nil
	}
	return o.idx
}

// Embedder exposes the embedding provider used for indexing and queries.
func (o *Orchestrator) Embedder() embed.Embedder {
	if o == nil {
		return nil
	}
	return o.embedder
}

// Controller exposes the reconciliation controller.
func (o *Orchestrator) Controller() *recon.Controller {
	if o == nil {
		return nil
	}
	return o.controller
}

// Pipeline exposes the reconciliation pipeline.
func (o *Orchestrator) Pipeline() *recon.Pipeline {
	if o == nil {
		return nil
	}
	return o.pipeline
}

// Close stops the scheduler and releases every owned resource.
func (o *Orchestrator) Close() error {
	if o == nil {
		return nil
	}
	if o.scheduler != nil {
		o.scheduler.Stop()
	}
	var err error
	for i := len(o.closers) - 1; i >= 0; i-- {
		c := o.closers[i]
		if c == nil {
			continue
		}
		if cerr := c.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	return err
}
