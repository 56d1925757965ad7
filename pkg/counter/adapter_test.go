package counter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// errBackendBroken simulates a counter tool that cannot run.
var errBackendBroken = errors.New("tool exploded")

// stubBackend is a scriptable Backend for adapter tests.
type stubBackend struct {
	name  string
	stats map[string]LanguageStats
	meta  Meta
	err   error
	delay time.Duration
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) Count(ctx context.Context, _ string) (map[string]LanguageStats, Meta, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, s.meta, ctx.Err()
		}
	}

	return s.stats, s.meta, s.err
}

func TestAdapter_Count(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{
		name: "fake",
		stats: map[string]LanguageStats{
			"Go":     {Files: 4, Code: 100},
			"Python": {Files: 1, Code: 20},
		},
		meta: Meta{Tool: "fake", ToolVersion: "9.9"},
	}

	adapter := NewAdapter(backend, time.Second, nil)
	stats, meta, failed := adapter.Count(context.Background(), t.TempDir())

	require.False(t, failed)
	require.Len(t, stats, 2)
	assert.Equal(t, "fake", meta.Tool)
	assert.Equal(t, "9.9", meta.ToolVersion)
	assert.Positive(t, meta.ElapsedSeconds)
	assert.Positive(t, meta.FilesPerSecond)
}

func TestAdapter_Count_AbsorbsFailure(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{name: "fake", err: errBackendBroken}

	adapter := NewAdapter(backend, time.Second, nil)
	stats, meta, failed := adapter.Count(context.Background(), t.TempDir())

	// Degrade, never propagate: empty stats tagged with the attempted tool.
	require.True(t, failed)
	require.NotNil(t, stats)
	assert.Empty(t, stats)
	assert.Equal(t, "fake", meta.Tool)
	assert.Empty(t, meta.ToolVersion)
	assert.Zero(t, meta.FilesPerSecond)
}

func TestAdapter_Count_Timeout(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{
		name:  "slow",
		stats: map[string]LanguageStats{"Go": {Files: 1, Code: 1}},
		delay: time.Second,
	}

	adapter := NewAdapter(backend, 10*time.Millisecond, nil)
	stats, meta, failed := adapter.Count(context.Background(), t.TempDir())

	assert.True(t, failed)
	assert.Empty(t, stats)
	assert.Equal(t, "slow", meta.Tool)
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	scc, err := NewBackend(ToolScc)
	require.NoError(t, err)
	assert.Equal(t, ToolScc, scc.Name())

	cloc, err := NewBackend(ToolCloc)
	require.NoError(t, err)
	assert.Equal(t, ToolCloc, cloc.Name())

	_, err = NewBackend("wc")
	require.ErrorIs(t, err, ErrUnknownTool)
}
