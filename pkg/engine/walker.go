package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Sumatoshi-tech/gitsong/pkg/counter"
	"github.com/Sumatoshi-tech/gitsong/pkg/gitcli"
	"github.com/Sumatoshi-tech/gitsong/pkg/observability"
	"github.com/Sumatoshi-tech/gitsong/pkg/session"
)

// Walker checks out every commit of a branch in chronological order and
// counts the working tree at each one. The walk is single-threaded: the
// working directory is shared mutable state and the counter tool scans it
// between checkouts.
type Walker struct {
	repo    *gitcli.Repository
	adapter *counter.Adapter
	logger  *slog.Logger
	metrics *observability.EngineMetrics
	report  Reporter
}

// NewWalker creates a walker over repo using adapter for counting. A nil
// reporter and nil metrics are valid and become no-ops.
func NewWalker(
	repo *gitcli.Repository,
	adapter *counter.Adapter,
	logger *slog.Logger,
	metrics *observability.EngineMetrics,
	report Reporter,
) *Walker {
	if logger == nil {
		logger = slog.Default()
	}

	if report == nil {
		report = nopReporter
	}

	return &Walker{
		repo:    repo,
		adapter: adapter,
		logger:  logger,
		metrics: metrics,
		report:  report,
	}
}

// Walk analyzes every commit on branch strictly after afterHash (all commits
// when afterHash is empty) and returns one record per commit, oldest first.
// A commit whose counting fails still yields a record, with empty languages;
// only git failures abort the walk.
func (w *Walker) Walk(ctx context.Context, branch, afterHash string) ([]session.CommitRecord, error) {
	commits, err := w.repo.Log(ctx, branch, afterHash)
	if err != nil {
		return nil, fmt.Errorf("enumerate commits: %w", err)
	}

	if len(commits) == 0 {
		return nil, nil
	}

	records := make([]session.CommitRecord, 0, len(commits))

	for i, commit := range commits {
		checkoutErr := w.repo.Checkout(ctx, commit.Hash)
		if checkoutErr != nil {
			return nil, fmt.Errorf("commit %d of %d: %w", i+1, len(commits), checkoutErr)
		}

		stats, meta, failed := w.adapter.Count(ctx, w.repo.Dir())
		if failed {
			w.metrics.RecordCounterFailure(ctx, meta.Tool)
		}

		w.metrics.RecordCommit(ctx, meta.Tool, time.Duration(meta.ElapsedSeconds*float64(time.Second)))

		record := session.NewCommitRecord(commit.Hash, commit.Date, commit.Message, stats, meta)
		records = append(records, record)

		percent := (i + 1) * 100 / len(commits)
		w.report(StageAnalyzing, percent, fmt.Sprintf("analyzed commit %d of %d", i+1, len(commits)), map[string]any{
			"commit":    commit.Hash,
			"languages": len(stats),
		})

		w.logger.DebugContext(ctx, "commit analyzed",
			"commit", commit.Hash,
			"languages", len(stats),
			"lines", record.TotalLines,
			"elapsed_s", meta.ElapsedSeconds)
	}

	return records, nil
}
