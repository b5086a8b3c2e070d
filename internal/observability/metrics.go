// metrics.go - OTel instruments for materialization sessions.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricSteps           = "gridmat.steps.total"
	metricGaps            = "gridmat.gaps.total"
	metricDeferrals       = "gridmat.deferrals.total"
	metricRowsAbsorbed    = "gridmat.rows.absorbed.total"
	metricSessions        = "gridmat.sessions.total"
	metricSessionDuration = "gridmat.session.duration.seconds"

	attrReason  = "reason"
	attrOutcome = "outcome"
)

// sessionBuckets spans a small grid (a few steps) to tens of minutes.
var sessionBuckets = []float64{1, 2.5, 5, 10, 30, 60, 120, 300, 600, 1800}

// MaterializeMetrics records driver events. It satisfies materialize.Recorder.
type MaterializeMetrics struct {
	steps     metric.Int64Counter
	gaps      metric.Int64Counter
	deferrals metric.Int64Counter
	rows      metric.Int64Counter
	sessions  metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewMaterializeMetrics creates the instruments on mt.
func NewMaterializeMetrics(mt metric.Meter) (*MaterializeMetrics, error) {
	var (
		m   MaterializeMetrics
		err error
	)
	counters := []struct {
		name, desc, unit string
		dst              *metric.Int64Counter
	}{
		{metricSteps, "Scroll steps taken", "{step}", &m.steps},
		{metricGaps, "Index gaps detected", "{gap}", &m.gaps},
		{metricDeferrals, "Deferred steps", "{step}", &m.deferrals},
		{metricRowsAbsorbed, "Rows newly registered", "{row}", &m.rows},
		{metricSessions, "Finished sessions", "{session}", &m.sessions},
	}
	for _, c := range counters {
		*c.dst, err = mt.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", c.name, err)
		}
	}

	m.duration, err = mt.Float64Histogram(metricSessionDuration,
		metric.WithDescription("Session duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(sessionBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricSessionDuration, err)
	}
	return &m, nil
}

// StepTaken counts one scroll step.
func (m *MaterializeMetrics) StepTaken(ctx context.Context) { m.steps.Add(ctx, 1) }

// GapDetected counts one gap.
func (m *MaterializeMetrics) GapDetected(ctx context.Context) { m.gaps.Add(ctx, 1) }

// Deferred counts one deferral by reason.
func (m *MaterializeMetrics) Deferred(ctx context.Context, reason string) {
	m.deferrals.Add(ctx, 1, metric.WithAttributes(attribute.String(attrReason, reason)))
}

// RowsAbsorbed adds n newly registered rows.
func (m *MaterializeMetrics) RowsAbsorbed(ctx context.Context, n int) {
	if n > 0 {
		m.rows.Add(ctx, int64(n))
	}
}

// SessionFinished records the outcome and duration of a session.
func (m *MaterializeMetrics) SessionFinished(ctx context.Context, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String(attrOutcome, outcome))
	m.sessions.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}
