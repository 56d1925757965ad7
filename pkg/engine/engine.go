// Package engine orchestrates a full analysis run: repository acquisition,
// prior-session gating, the commit walk, session assembly and atomic
// persistence, with progress reported stage by stage.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/gitsong/pkg/counter"
	"github.com/Sumatoshi-tech/gitsong/pkg/gitcli"
	"github.com/Sumatoshi-tech/gitsong/pkg/observability"
	"github.com/Sumatoshi-tech/gitsong/pkg/persist"
	"github.com/Sumatoshi-tech/gitsong/pkg/session"
)

// tracerName is the default OTel tracer name for the engine package.
const tracerName = "gitsong"

// scpLikeRemote matches scp-style git URIs such as git@host:path.
var scpLikeRemote = regexp.MustCompile(`^[A-Za-z]\w*@[A-Za-z0-9][\w.]*:`)

// Options configures a single analysis run.
type Options struct {
	// Source is a remote clone URL or a local repository path.
	Source string

	// Branch is the requested branch name; resolution may substitute
	// master or the remote default when it does not exist.
	Branch string

	// Tool selects the line counter backend ("scc" or "cloc").
	Tool string

	// Backend, when non-nil, is used instead of constructing a backend
	// from Tool. Tool still labels the session document.
	Backend counter.Backend

	// OutputPath is where the session document is persisted and where a
	// prior one is looked for.
	OutputPath string

	// CounterTimeout bounds a single counter invocation.
	CounterTimeout time.Duration

	Logger   *slog.Logger
	Tracer   trace.Tracer
	Metrics  *observability.EngineMetrics
	Reporter Reporter
}

// Result summarizes a completed run.
type Result struct {
	Session    *session.AnalysisSession
	NewCommits int

	// Resumed is true when a prior session passed all gates and seeded
	// the walk.
	Resumed bool

	// UpToDate is true when a resumed walk found no new commits.
	UpToDate bool
}

// Engine runs analyses. One Engine instance serves one Options value; Run may
// be called repeatedly, each call is independent.
type Engine struct {
	opts      Options
	adapter   *counter.Adapter
	merger    *session.Merger
	persister *persist.Persister[session.AnalysisSession]
	logger    *slog.Logger
	report    Reporter
}

// New validates opts and builds an engine. The counter backend is constructed
// here, so an unknown tool fails before any git work happens.
func New(opts Options) (*Engine, error) {
	backend := opts.Backend

	if backend == nil {
		var err error

		backend, err = counter.NewBackend(opts.Tool)
		if err != nil {
			return nil, fmt.Errorf("create counter backend: %w", err)
		}
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Reporter == nil {
		opts.Reporter = nopReporter
	}

	if opts.CounterTimeout <= 0 {
		opts.CounterTimeout = counter.DefaultTimeout
	}

	return &Engine{
		opts:      opts,
		adapter:   counter.NewAdapter(backend, opts.CounterTimeout, opts.Logger),
		merger:    session.NewMerger(opts.Source, opts.Tool, opts.Logger),
		persister: persist.NewPersister[session.AnalysisSession](opts.OutputPath, persist.NewJSONCodec()),
		logger:    opts.Logger,
		report:    opts.Reporter,
	}, nil
}

// tracer returns the configured tracer, falling back to the global provider.
func (e *Engine) tracer() trace.Tracer {
	if e.opts.Tracer != nil {
		return e.opts.Tracer
	}

	return otel.Tracer(tracerName)
}

// Run executes the full analysis. On any error the failed stage is reported
// and acquired resources (clone directory, worktree) are cleaned up.
func (e *Engine) Run(ctx context.Context) (result *Result, err error) {
	ctx, rootSpan := e.tracer().Start(ctx, "gitsong.run")
	defer rootSpan.End()

	defer func() {
		if err != nil {
			e.report(StageFailed, 0, err.Error(), nil)
		}
	}()

	prior := e.loadPrior(ctx)

	if !isRemote(e.opts.Source) {
		source := gitcli.Open(e.opts.Source)

		validateErr := source.Validate(ctx)
		if validateErr != nil {
			return nil, validateErr
		}

		// A local repository without commits cannot host a worktree; it
		// still yields a valid, empty session.
		if !source.HasCommits(ctx) {
			return e.finish(ctx, nil, nil, false)
		}
	}

	repo, cleanup, acquireErr := e.acquireRepository(ctx)
	if acquireErr != nil {
		return nil, acquireErr
	}
	defer cleanup()

	if !repo.HasCommits(ctx) {
		return e.finish(ctx, nil, nil, false)
	}

	branch, branchErr := repo.ResolveBranch(ctx, e.opts.Branch)
	if branchErr != nil {
		return nil, branchErr
	}

	e.logger.InfoContext(ctx, "branch resolved", "requested", e.opts.Branch, "using", branch)

	resumeHash := e.resumePoint(ctx, repo, prior)
	if resumeHash == "" {
		prior = nil
	}

	records, walkErr := e.walk(ctx, repo, branch, resumeHash)
	if walkErr != nil {
		return nil, walkErr
	}

	return e.finish(ctx, prior, records, resumeHash != "")
}

// loadPrior reads and gates a previously persisted session. Any failure to
// read, validate or pass the gates degrades to a full run.
func (e *Engine) loadPrior(ctx context.Context) *session.AnalysisSession {
	ctx, span := e.tracer().Start(ctx, "gitsong.validate")
	defer span.End()

	e.report(StageValidating, 0, "checking for prior session", nil)

	if !e.persister.Exists() {
		e.logger.InfoContext(ctx, "no prior session, running full analysis", "path", e.persister.Path())

		return nil
	}

	prior, loadErr := e.persister.Load(session.ValidateDocument)
	if loadErr != nil {
		e.logger.WarnContext(ctx, "discarding prior session: unreadable or invalid",
			"path", e.persister.Path(), "error", loadErr)

		return nil
	}

	if !e.merger.Compatible(prior) {
		return nil
	}

	e.report(StageValidating, 100, "prior session accepted", map[string]any{
		"commits": len(prior.Results),
	})

	return prior
}

// acquireRepository produces the repository whose working tree the walk will
// mutate. Remote sources are cloned into a temp directory; local sources get
// a detached worktree so the caller's checkout is never touched. The returned
// cleanup always runs, releasing whichever was created.
func (e *Engine) acquireRepository(ctx context.Context) (*gitcli.Repository, func(), error) {
	ctx, span := e.tracer().Start(ctx, "gitsong.acquire")
	defer span.End()

	tmpDir, tmpErr := os.MkdirTemp("", "gitsong-*")
	if tmpErr != nil {
		return nil, nil, fmt.Errorf("create temp dir: %w", tmpErr)
	}

	workDir := filepath.Join(tmpDir, "repo")

	if isRemote(e.opts.Source) {
		e.report(StageCloning, 0, "cloning "+e.opts.Source, nil)

		repo, cloneErr := gitcli.Clone(ctx, e.opts.Source, workDir)
		if cloneErr != nil {
			_ = os.RemoveAll(tmpDir)

			return nil, nil, cloneErr
		}

		e.report(StageCloning, 100, "clone complete", nil)

		return repo, func() { _ = os.RemoveAll(tmpDir) }, nil
	}

	source := gitcli.Open(strings.TrimSuffix(e.opts.Source, string(os.PathSeparator)))

	worktree, wtErr := source.AddWorktree(ctx, workDir)
	if wtErr != nil {
		_ = os.RemoveAll(tmpDir)

		return nil, nil, wtErr
	}

	cleanup := func() {
		removeErr := worktree.Remove(context.WithoutCancel(ctx))
		if removeErr != nil {
			e.logger.Warn("worktree removal failed", "dir", worktree.Dir(), "error", removeErr)
		}

		_ = os.RemoveAll(tmpDir)
	}

	return worktree.Repo(), cleanup, nil
}

// resumePoint returns the hash bounding an incremental walk, or empty for a
// full walk. A resume pointer naming a commit unknown to the repository (a
// rewritten branch, typically) discards the prior session entirely.
func (e *Engine) resumePoint(ctx context.Context, repo *gitcli.Repository, prior *session.AnalysisSession) string {
	hash := e.merger.ResumeHash(prior)
	if hash == "" {
		return ""
	}

	if !repo.CommitExists(ctx, hash) {
		e.logger.WarnContext(ctx, "discarding prior session: resume commit not found, history was likely rewritten",
			"commit", hash)

		return ""
	}

	return hash
}

// walk runs the commit walk under its own span.
func (e *Engine) walk(ctx context.Context, repo *gitcli.Repository, branch, resumeHash string) ([]session.CommitRecord, error) {
	ctx, span := e.tracer().Start(ctx, "gitsong.walk")
	defer span.End()

	e.report(StageAnalyzing, 0, "walking commit history", map[string]any{"branch": branch})

	walker := NewWalker(repo, e.adapter, e.logger, e.opts.Metrics, e.report)

	return walker.Walk(ctx, branch, resumeHash)
}

// finish merges, assembles and persists the session document.
func (e *Engine) finish(
	ctx context.Context,
	prior *session.AnalysisSession,
	records []session.CommitRecord,
	resumed bool,
) (*Result, error) {
	ctx, span := e.tracer().Start(ctx, "gitsong.generate")
	defer span.End()

	e.report(StageGenerating, 0, "assembling session document", nil)

	var priorResults []session.CommitRecord
	if prior != nil {
		priorResults = prior.Results
	}

	merged := session.MergeResults(priorResults, records)
	doc := session.Build(merged, e.opts.Source, e.opts.Tool, time.Now().UTC())

	saveErr := e.persister.Save(doc)
	if saveErr != nil {
		return nil, fmt.Errorf("persist session: %w", saveErr)
	}

	result := &Result{
		Session:    doc,
		NewCommits: len(records),
		Resumed:    resumed,
		UpToDate:   resumed && len(records) == 0,
	}

	message := fmt.Sprintf("analyzed %d commits", len(merged))
	if result.UpToDate {
		message = "already up to date"
	}

	e.report(StageComplete, 100, message, map[string]any{
		"commits":   len(merged),
		"new":       len(records),
		"languages": len(doc.AllLanguages),
		"output":    e.persister.Path(),
	})

	e.logger.InfoContext(ctx, "analysis complete",
		"commits", len(merged),
		"new_commits", len(records),
		"languages", len(doc.AllLanguages),
		"output", e.persister.Path())

	return result, nil
}

// isRemote reports whether source is a clone URL rather than a local path.
// Both scheme URLs and scp-style user@host:path forms count as remote.
func isRemote(source string) bool {
	return strings.Contains(source, "://") || scpLikeRemote.MatchString(source)
}
