package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCommitsTotal         = "gitsong.analysis.commits.total"
	metricCounterFailuresTotal = "gitsong.analysis.counter.failures.total"
	metricCountDuration        = "gitsong.analysis.count.duration.seconds"

	attrTool = "tool"
)

// countDurationBuckets are explicit histogram boundaries for a single
// counter-tool invocation, in seconds.
var countDurationBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}

// EngineMetrics holds OTel instruments for the analysis engine.
type EngineMetrics struct {
	commitsTotal    metric.Int64Counter
	counterFailures metric.Int64Counter
	countDuration   metric.Float64Histogram
}

// metricBuilder accumulates OTel instrument creation errors,
// enabling batch construction with a single error check.
type metricBuilder struct {
	meter metric.Meter
	err   error
}

func newMetricBuilder(mt metric.Meter) *metricBuilder {
	return &metricBuilder{meter: mt}
}

func (b *metricBuilder) counter(name, desc, unit string) metric.Int64Counter {
	c, err := b.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	b.setErr(name, err)

	return c
}

func (b *metricBuilder) histogram(name, desc, unit string, bounds ...float64) metric.Float64Histogram {
	opts := []metric.Float64HistogramOption{
		metric.WithDescription(desc),
		metric.WithUnit(unit),
	}

	if len(bounds) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(bounds...))
	}

	h, err := b.meter.Float64Histogram(name, opts...)
	b.setErr(name, err)

	return h
}

func (b *metricBuilder) setErr(name string, err error) {
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("create instrument %s: %w", name, err)
	}
}

// NewEngineMetrics creates engine metric instruments from the given meter.
func NewEngineMetrics(mt metric.Meter) (*EngineMetrics, error) {
	b := newMetricBuilder(mt)

	em := &EngineMetrics{
		commitsTotal:    b.counter(metricCommitsTotal, "Total commits analyzed", "{commit}"),
		counterFailures: b.counter(metricCounterFailuresTotal, "Counter tool invocations absorbed as failures", "{failure}"),
		countDuration:   b.histogram(metricCountDuration, "Per-commit counting duration in seconds", "s", countDurationBuckets...),
	}

	if b.err != nil {
		return nil, b.err
	}

	return em, nil
}

// RecordCommit records one analyzed commit and its counting duration.
// Safe to call on a nil receiver (no-op).
func (em *EngineMetrics) RecordCommit(ctx context.Context, tool string, elapsed time.Duration) {
	if em == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrTool, tool))
	em.commitsTotal.Add(ctx, 1, attrs)
	em.countDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordCounterFailure records one absorbed counter-tool failure.
// Safe to call on a nil receiver (no-op).
func (em *EngineMetrics) RecordCounterFailure(ctx context.Context, tool string) {
	if em == nil {
		return
	}

	em.counterFailures.Add(ctx, 1, metric.WithAttributes(attribute.String(attrTool, tool)))
}
