package counter

import (
	"context"
	"log/slog"
	"time"
)

// DefaultTimeout bounds a single counting invocation.
const DefaultTimeout = 120 * time.Second

// Adapter wraps one Backend with wall-clock timing, a per-invocation timeout
// and failure containment. A failed, timed-out or garbled invocation degrades
// to an empty statistics set tagged with the attempted tool; it never
// propagates an error, so one bad commit cannot abort a walk.
type Adapter struct {
	backend Backend
	timeout time.Duration
	logger  *slog.Logger
}

// NewAdapter creates an adapter around the given backend.
// A zero timeout falls back to DefaultTimeout.
func NewAdapter(backend Backend, timeout time.Duration, logger *slog.Logger) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Adapter{
		backend: backend,
		timeout: timeout,
		logger:  logger,
	}
}

// Tool returns the wrapped backend's tool name.
func (a *Adapter) Tool() string { return a.backend.Name() }

// Count scans dir with the wrapped backend. ElapsedSeconds and FilesPerSecond
// in the returned Meta are computed here from wall clock, because cloc's
// self-reported timing has no scc counterpart. The failed flag reports an
// absorbed invocation failure; the stats are then empty and zero-valued.
func (a *Adapter) Count(ctx context.Context, dir string) (stats map[string]LanguageStats, meta Meta, failed bool) {
	countCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	stats, meta, err := a.backend.Count(countCtx, dir)
	elapsed := time.Since(start)

	meta.ElapsedSeconds = elapsed.Seconds()

	if err != nil {
		a.logger.WarnContext(ctx, "counter invocation failed, recording empty stats",
			"tool", a.backend.Name(), "dir", dir, "error", err)

		zeroMeta := Meta{
			Tool:           a.backend.Name(),
			ElapsedSeconds: elapsed.Seconds(),
		}

		return map[string]LanguageStats{}, zeroMeta, true
	}

	totalFiles := 0
	for _, ls := range stats {
		totalFiles += ls.Files
	}

	if elapsed > 0 {
		meta.FilesPerSecond = float64(totalFiles) / elapsed.Seconds()
	}

	return stats, meta, false
}
