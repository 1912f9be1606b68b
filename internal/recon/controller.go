// File path: internal/recon/controller.go
package recon

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/docsync-dev/docsync/internal/common"
	"github.com/docsync-dev/docsync/internal/manifest"
)

const maxRecentOutcomes = 100

// Controller fans reconciliation out over the tracked repositories and keeps
// the recent outcomes for the API. One repository's failure never stops the
// others.
type Controller struct {
	pipeline  *Pipeline
	manifests manifest.Store
	parallel  int

	mu       sync.Mutex
	outcomes []Outcome
}

// NewController builds a controller running at most parallel repositories at
// once; non-positive means 3.
func NewController(pipeline *Pipeline, store manifest.Store, parallel int) *Controller {
	if parallel <= 0 {
		parallel = 3
	}
	return &Controller{pipeline: pipeline, manifests: store, parallel: parallel}
}

// RunOne reconciles a single repository and records its outcome. Guard
// errors (in-flight, tracking disabled) pass through without an outcome.
func (c *Controller) RunOne(ctx context.Context, repoID string) (Outcome, error) {
	outcome, err := c.pipeline.Run(ctx, repoID)
	if errors.Is(err, ErrRunInFlight) || errors.Is(err, ErrTrackingDisabled) {
		return Outcome{}, err
	}
	c.record(outcome)
	return outcome, err
}

// RunAll reconciles every tracked repository. Errors are absorbed into the
// outcomes: a scheduled cycle must never abort on one bad repository.
func (c *Controller) RunAll(ctx context.Context) []Outcome {
	logger := common.Logger()
	tracked, err := c.manifests.ListTracked(ctx)
	if err != nil {
		logger.Error("recon: list tracked repositories failed", "error", err)
		return nil
	}
	if len(tracked) == 0 {
		logger.Info("recon: no tracked repositories")
		return nil
	}
	logger.Info("recon: cycle started", "repos", len(tracked), "parallel", c.parallel)

	results := make([]Outcome, len(tracked))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.parallel)
	for i, man := range tracked {
		i, repoID := i, man.RepoID
		group.Go(func() error {
			outcome, err := c.pipeline.Run(groupCtx, repoID)
			if errors.Is(err, ErrRunInFlight) {
				logger.Warn("recon: skipped, run already in flight", "repo", repoID)
				return nil
			}
			if errors.Is(err, ErrTrackingDisabled) {
				return nil
			}
			results[i] = outcome
			c.record(outcome)
			return nil
		})
	}
	_ = group.Wait()

	out := make([]Outcome, 0, len(results))
	for _, outcome := range results {
		if outcome.RepoID != "" {
			out = append(out, outcome)
		}
	}
	logger.Info("recon: cycle finished", "ran", len(out))
	return out
}

// Outcomes returns the most recent run reports, newest first.
func (c *Controller) Outcomes() []Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Outcome, len(c.outcomes))
	for i, outcome := range c.outcomes {
		out[len(c.outcomes)-1-i] = outcome
	}
	return out
}

func (c *Controller) record(outcome Outcome) {
	if outcome.RepoID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, outcome)
	if len(c.outcomes) > maxRecentOutcomes {
		c.outcomes = c.outcomes[len(c.outcomes)-maxRecentOutcomes:]
	}
}
