// File path: internal/recon/pipeline.go

// Package recon implements the reconciliation pipeline: manifest diff,
// bounded content fetch, index update, and the final manifest merge. One run
// per repository at a time; overlapping triggers are rejected.
package recon

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/docsync-dev/docsync/internal/common"
	"github.com/docsync-dev/docsync/internal/diff"
	"github.com/docsync-dev/docsync/internal/embed"
	"github.com/docsync-dev/docsync/internal/index"
	"github.com/docsync-dev/docsync/internal/manifest"
	"github.com/docsync-dev/docsync/internal/source"
	"github.com/docsync-dev/docsync/internal/telemetry"
)

var (
	// ErrRunInFlight rejects a trigger while the same repository is being
	// reconciled.
	ErrRunInFlight = errors.New("reconciliation already running")
	// ErrTrackingDisabled rejects runs for repositories whose tracking gate
	// is off.
	ErrTrackingDisabled = errors.New("tracking disabled")
)

// OutcomeStatus classifies a finished run.
type OutcomeStatus string

const (
	OutcomeSuccess   OutcomeStatus = "success"
	OutcomeNoChanges OutcomeStatus = "no_changes"
	OutcomePartial   OutcomeStatus = "partial"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Outcome is the per-run report surfaced through the API and logs.
type Outcome struct {
	RepoID    string        `json:"repo_id"`
	Branch    string        `json:"branch"`
	Status    OutcomeStatus `json:"status"`
	Added     int           `json:"added"`
	Modified  int           `json:"modified"`
	Removed   int           `json:"removed"`
	Unchanged int           `json:"unchanged"`
	Failed    int           `json:"failed"`
	Chunks    int           `json:"chunks_indexed"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Pipeline wires the stores and fetchers into one reconciliation unit.
type Pipeline struct {
	manifests manifest.Store
	trees     source.TreeFetcher
	contents  source.ContentFetcher
	idx       index.Store
	embedder  embed.Embedder
	chunker   *index.Chunker

	mu       sync.Mutex
	inflight map[string]struct{}

	colMu           sync.Mutex
	collectionReady bool
}

// NewPipeline constructs a pipeline. All dependencies are required except
// the chunker, which defaults to the environment-configured one.
func NewPipeline(store manifest.Store, trees source.TreeFetcher, contents source.ContentFetcher, idx index.Store, embedder embed.Embedder, chunker *index.Chunker) *Pipeline {
	if chunker == nil {
		chunker = index.NewChunker(0, -1)
	}
	return &Pipeline{
		manifests: store,
		trees:     trees,
		contents:  contents,
		idx:       idx,
		embedder:  embedder,
		chunker:   chunker,
		inflight:  make(map[string]struct{}),
	}
}

// DocID is the stable index identity of one file within a repository branch;
// every chunk of the file carries it so purges hit the whole file. The branch
// is part of the identity: after a branch switch the old branch's documents
// are purged and the new branch indexes under fresh ids.
func DocID(repoID, branch, path string) string {
	return repoID + ":" + branch + ":" + path
}

// Run reconciles one repository end to end. A second trigger for the same
// repository while a run is in flight returns ErrRunInFlight. The returned
// outcome is valid even when err is non-nil, except for the guard errors.
func (p *Pipeline) Run(ctx context.Context, repoID string) (Outcome, error) {
	p.mu.Lock()
	if _, running := p.inflight[repoID]; running {
		p.mu.Unlock()
		return Outcome{}, ErrRunInFlight
	}
	p.inflight[repoID] = struct{}{}
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.inflight, repoID)
		p.mu.Unlock()
	}()

	logger := common.Logger()
	start := time.Now()
	outcome := Outcome{RepoID: repoID, StartedAt: start}

	man, err := p.manifests.Get(ctx, repoID)
	if err != nil {
		return p.fail(outcome, start, fmt.Errorf("load manifest: %w", err))
	}
	outcome.Branch = man.Branch
	if !man.TrackingEnabled {
		return Outcome{}, ErrTrackingDisabled
	}

	logger.Info("recon: run started", "repo", repoID, "branch", man.Branch, "known_files", len(man.Files))

	tree, err := p.trees.FetchTree(ctx, repoID, man.Branch)
	if err != nil {
		p.recordSourceError(err)
		p.stampFailed(ctx, repoID)
		return p.fail(outcome, start, fmt.Errorf("fetch tree: %w", err))
	}

	changes, err := diff.Compute(man.Files, tree)
	if err != nil {
		p.stampFailed(ctx, repoID)
		return p.fail(outcome, start, fmt.Errorf("compute changeset: %w", err))
	}
	outcome.Added = len(changes.Added)
	outcome.Modified = len(changes.Modified)
	outcome.Removed = len(changes.Removed)
	outcome.Unchanged = len(changes.Unchanged)
	logger.Info("recon: changeset computed", "repo", repoID, "summary", changes.Summary())

	// A run with nothing to do terminates here without writing anything;
	// the manifest stays byte-for-byte identical and only the outcome
	// reports that the check happened.
	if !changes.HasChanges() {
		outcome.Status = OutcomeNoChanges
		outcome.Duration = time.Since(start)
		telemetry.RecordRun(string(outcome.Status), outcome.Duration)
		return outcome, nil
	}

	fetched, fetchErrs := p.contents.FetchContents(ctx, repoID, man.Branch, changes.FetchPaths())
	for _, pe := range fetchErrs {
		p.recordSourceError(pe.Err)
		logger.Warn("recon: content fetch failed", "repo", repoID, "path", pe.Path, "error", pe.Err)
	}

	// Purge before insert: stale chunks of modified and removed files must
	// never coexist with their replacements.
	oldHashes := man.HashesByPath()
	purgeFailed := make(map[string]error)
	for _, ch := range changes.Modified {
		if _, err := p.idx.DeleteByDocID(ctx, DocID(repoID, man.Branch, ch.Path)); err != nil {
			purgeFailed[ch.Path] = err
			logger.Warn("recon: purge failed", "repo", repoID, "path", ch.Path, "error", err)
		}
	}
	removedOK := make([]string, 0, len(changes.Removed))
	for _, path := range changes.Removed {
		if _, err := p.idx.DeleteByDocID(ctx, DocID(repoID, man.Branch, path)); err != nil {
			purgeFailed[path] = err
			logger.Warn("recon: purge failed", "repo", repoID, "path", path, "error", err)
			continue
		}
		removedOK = append(removedOK, path)
	}

	indexed, indexFailed := p.indexFiles(ctx, repoID, man.Branch, fetched, purgeFailed, &outcome)

	// A path is failed when its content fetch, purge, or index write failed.
	failedPaths := make(map[string]error, len(fetchErrs)+len(indexFailed)+len(purgeFailed))
	for _, pe := range fetchErrs {
		failedPaths[pe.Path] = pe.Err
	}
	for path, err := range indexFailed {
		failedPaths[path] = err
	}
	for path, err := range purgeFailed {
		if _, removed := contains(changes.Removed, path); !removed {
			failedPaths[path] = err
		}
	}
	outcome.Failed = len(failedPaths) + (len(changes.Removed) - len(removedOK))

	records := make([]manifest.FileRecord, 0, len(indexed)+len(failedPaths))
	now := time.Now().UTC()
	for _, path := range indexed {
		hash, _ := changes.HashFor(path)
		records = append(records, manifest.FileRecord{
			Path:         path,
			ContentHash:  hash,
			Status:       manifest.FileIngested,
			LastIngested: now,
		})
	}
	// Failed modified paths keep their old hash so the next run re-offers
	// them as modified. Failed added paths are omitted and come back as
	// added.
	for path := range failedPaths {
		if oldHash, known := oldHashes[path]; known {
			records = append(records, manifest.FileRecord{
				Path:         path,
				ContentHash:  oldHash,
				Status:       manifest.FileFailed,
				LastIngested: now,
			})
		}
	}

	status := manifest.StatusComplete
	if outcome.Failed > 0 {
		status = manifest.StatusPartial
	}

	// Tracking may have been disabled while the run was in flight; the
	// manifest must not move forward in that case.
	current, err := p.manifests.Get(ctx, repoID)
	if err != nil {
		return p.fail(outcome, start, fmt.Errorf("revalidate manifest: %w", err))
	}
	if !current.TrackingEnabled {
		return p.fail(outcome, start, fmt.Errorf("tracking disabled during run"))
	}

	if err := p.manifests.Merge(ctx, repoID, records, removedOK, status); err != nil {
		return p.fail(outcome, start, fmt.Errorf("merge manifest: %w", err))
	}

	if outcome.Failed > 0 {
		outcome.Status = OutcomePartial
	} else {
		outcome.Status = OutcomeSuccess
	}
	outcome.Duration = time.Since(start)
	telemetry.RecordRun(string(outcome.Status), outcome.Duration)
	telemetry.RecordFiles(outcome.Added, outcome.Modified, len(removedOK), outcome.Failed)
	telemetry.RecordChunks(outcome.Chunks)
	logger.Info("recon: run finished",
		"repo", repoID, "status", outcome.Status, "summary", changes.Summary(),
		"failed", outcome.Failed, "chunks", outcome.Chunks, "duration", outcome.Duration)
	return outcome, nil
}

// indexFiles chunks, embeds, and upserts each fetched file. Files whose
// purge failed are skipped so stale chunks are never joined by new ones.
// Returns the successfully indexed paths and the per-path failures.
func (p *Pipeline) indexFiles(ctx context.Context, repoID, branch string, files []source.FileContent, purgeFailed map[string]error, outcome *Outcome) ([]string, map[string]error) {
	logger := common.Logger()
	indexed := make([]string, 0, len(files))
	failed := make(map[string]error)

	for _, file := range files {
		if _, skip := purgeFailed[file.Path]; skip {
			continue
		}
		docID := DocID(repoID, branch, file.Path)
		metadata := map[string]interface{}{
			"repo":      repoID,
			"branch":    branch,
			"hash":      file.Hash,
			"web_url":   file.WebURL,
			"file_name": path.Base(file.Path),
			"extension": path.Ext(file.Path),
			"directory": path.Dir(file.Path),
		}
		docs, err := p.chunker.Split(docID, file.Path, file.Text, metadata)
		if err != nil {
			failed[file.Path] = err
			continue
		}
		if len(docs) == 0 {
			// Whitespace-only files are tracked but index nothing.
			indexed = append(indexed, file.Path)
			continue
		}
		texts := make([]string, len(docs))
		for i, doc := range docs {
			texts[i] = doc.Text
		}
		vectors, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			failed[file.Path] = fmt.Errorf("embed: %w", err)
			continue
		}
		if err := p.ensureCollection(ctx, index.VectorDimension(vectors)); err != nil {
			failed[file.Path] = fmt.Errorf("ensure collection: %w", err)
			continue
		}
		if err := p.idx.Upsert(ctx, docs, vectors); err != nil {
			failed[file.Path] = fmt.Errorf("index write: %w", err)
			continue
		}
		outcome.Chunks += len(docs)
		indexed = append(indexed, file.Path)
		logger.Debug("recon: file indexed", "repo", repoID, "path", file.Path, "chunks", len(docs))
	}
	return indexed, failed
}

func (p *Pipeline) ensureCollection(ctx context.Context, dim int) error {
	p.colMu.Lock()
	defer p.colMu.Unlock()
	if p.collectionReady {
		return nil
	}
	if err := p.idx.EnsureCollection(ctx, dim); err != nil {
		return err
	}
	p.collectionReady = true
	return nil
}

// PurgeRepo removes every indexed chunk belonging to the repository's
// manifest, used when a repository is deleted.
func (p *Pipeline) PurgeRepo(ctx context.Context, man *manifest.RepositoryManifest) error {
	var firstErr error
	for _, rec := range man.Files {
		if _, err := p.idx.DeleteByDocID(ctx, DocID(man.RepoID, man.Branch, rec.Path)); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("purge %s: %w", rec.Path, err)
		}
	}
	return firstErr
}

func (p *Pipeline) fail(outcome Outcome, start time.Time, err error) (Outcome, error) {
	outcome.Status = OutcomeFailed
	outcome.Error = err.Error()
	outcome.Duration = time.Since(start)
	telemetry.RecordRun(string(OutcomeFailed), outcome.Duration)
	common.Logger().Error("recon: run failed", "repo", outcome.RepoID, "error", err)
	return outcome, err
}

func (p *Pipeline) stampFailed(ctx context.Context, repoID string) {
	if err := p.manifests.Merge(ctx, repoID, nil, nil, manifest.StatusFailed); err != nil {
		common.Logger().Warn("recon: could not stamp failed status", "repo", repoID, "error", err)
	}
}

func (p *Pipeline) recordSourceError(err error) {
	switch {
	case errors.Is(err, source.ErrRateLimited):
		telemetry.RecordSourceError("rate_limited")
	case errors.Is(err, source.ErrProtocol):
		telemetry.RecordSourceError("protocol")
	case errors.Is(err, source.ErrNotFound):
		telemetry.RecordSourceError("not_found")
	case errors.Is(err, source.ErrTransient):
		telemetry.RecordSourceError("transient")
	default:
		telemetry.RecordSourceError("unavailable")
	}
}

func contains(paths []string, target string) (int, bool) {
	for i, p := range paths {
		if p == target {
			return i, true
		}
	}
	return -1, false
}
