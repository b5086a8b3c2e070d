package observability_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/dev-console/gridmat/internal/materialize"
	"github.com/dev-console/gridmat/internal/observability"
)

var _ materialize.Recorder = (*observability.MaterializeMetrics)(nil)

func setupTestMeter(t *testing.T) (*observability.MaterializeMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := observability.NewMaterializeMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for i := range rm.ScopeMetrics {
		for j := range rm.ScopeMetrics[i].Metrics {
			if rm.ScopeMetrics[i].Metrics[j].Name == name {
				return &rm.ScopeMetrics[i].Metrics[j]
			}
		}
	}
	return nil
}

func sumOf(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMaterializeMetrics_Counters(t *testing.T) {
	t.Parallel()
	m, reader := setupTestMeter(t)
	ctx := context.Background()

	m.StepTaken(ctx)
	m.StepTaken(ctx)
	m.GapDetected(ctx)
	m.Deferred(ctx, "no indexed rows")
	m.RowsAbsorbed(ctx, 20)
	m.RowsAbsorbed(ctx, 0)
	m.SessionFinished(ctx, materialize.OutcomeComplete, 12*time.Second)

	rm := collectMetrics(t, reader)
	assert.EqualValues(t, 2, sumOf(t, findMetric(rm, "gridmat.steps.total")))
	assert.EqualValues(t, 1, sumOf(t, findMetric(rm, "gridmat.gaps.total")))
	assert.EqualValues(t, 1, sumOf(t, findMetric(rm, "gridmat.deferrals.total")))
	assert.EqualValues(t, 20, sumOf(t, findMetric(rm, "gridmat.rows.absorbed.total")))
	assert.EqualValues(t, 1, sumOf(t, findMetric(rm, "gridmat.sessions.total")))

	hist := findMetric(rm, "gridmat.session.duration.seconds")
	require.NotNil(t, hist)
	data, ok := hist.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, data.DataPoints, 1)
	assert.InDelta(t, 12.0, data.DataPoints[0].Sum, 1e-9)
}

func TestInit_ServesPrometheusMetrics(t *testing.T) {
	t.Parallel()

	p, err := observability.Init(observability.Config{ServiceVersion: "test", Tracing: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	m, err := observability.NewMaterializeMetrics(p.Meter)
	require.NoError(t, err)
	m.StepTaken(context.Background())

	_, span := p.Tracer.Start(context.Background(), "probe")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	rec := httptest.NewRecorder()
	p.MetricsHandler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	body := rec.Body.String()
	assert.Contains(t, body, "target_info")
	assert.Contains(t, body, "gridmat_steps_total")
	assert.Contains(t, body, "go_goroutines")
}
