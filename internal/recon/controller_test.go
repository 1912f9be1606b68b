// File path: internal/recon/controller_test.go
package recon

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docsync-dev/docsync/internal/source"
)

func TestRunAllIsolatesRepositoryFailures(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	for _, repo := range []string{"o/a", "o/b", "o/c"} {
		require.NoError(t, fx.store.Register(ctx, repo, "main"))
	}
	fx.trees.set("o/a", source.TreeEntry{Path: "a.md", Hash: "hash-A"})
	fx.trees.set("o/c", source.TreeEntry{Path: "c.md", Hash: "hash-C"})
	fx.trees.errs = map[string]error{"o/b": fmt.Errorf("down: %w", source.ErrUnavailable)}
	fx.contents.texts["a.md"] = "A"
	fx.contents.texts["c.md"] = "C"

	controller := NewController(fx.pipeline, fx.store, 2)
	outcomes := controller.RunAll(ctx)
	require.Len(t, outcomes, 3)

	byRepo := make(map[string]Outcome)
	for _, outcome := range outcomes {
		byRepo[outcome.RepoID] = outcome
	}
	require.Equal(t, OutcomeSuccess, byRepo["o/a"].Status)
	require.Equal(t, OutcomeFailed, byRepo["o/b"].Status)
	require.Equal(t, OutcomeSuccess, byRepo["o/c"].Status)
}

func TestRunAllSkipsUntrackedRepos(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.store.Register(ctx, "o/a", "main"))
	require.NoError(t, fx.store.Register(ctx, "o/b", "main"))
	require.NoError(t, fx.store.SetTracking(ctx, "o/b", false))
	fx.trees.set("o/a", source.TreeEntry{Path: "a.md", Hash: "hash-A"})
	fx.contents.texts["a.md"] = "A"

	controller := NewController(fx.pipeline, fx.store, 0)
	outcomes := controller.RunAll(ctx)
	require.Len(t, outcomes, 1)
	require.Equal(t, "o/a", outcomes[0].RepoID)
}

func TestControllerKeepsRecentOutcomesNewestFirst(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.store.Register(ctx, "o/a", "main"))
	fx.trees.set("o/a", source.TreeEntry{Path: "a.md", Hash: "hash-A"})
	fx.contents.texts["a.md"] = "A"

	controller := NewController(fx.pipeline, fx.store, 1)
	first, err := controller.RunOne(ctx, "o/a")
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, first.Status)

	second, err := controller.RunOne(ctx, "o/a")
	require.NoError(t, err)
	require.Equal(t, OutcomeNoChanges, second.Status)

	outcomes := controller.Outcomes()
	require.Len(t, outcomes, 2)
	require.Equal(t, OutcomeNoChanges, outcomes[0].Status)
	require.Equal(t, OutcomeSuccess, outcomes[1].Status)
}

func TestRunOnePassesThroughGuardErrors(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.store.Register(ctx, "o/a", "main"))
	require.NoError(t, fx.store.SetTracking(ctx, "o/a", false))

	controller := NewController(fx.pipeline, fx.store, 1)
	_, err := controller.RunOne(ctx, "o/a")
	require.ErrorIs(t, err, ErrTrackingDisabled)
	require.Empty(t, controller.Outcomes())
}
