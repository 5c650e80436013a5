package telemetry

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chazu/facet/pkg/config"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestLoggerLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(&buf, config.LogConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	l = Component(l, "evaluate")

	l.Info().Msg("dropped")
	assert.Zero(t, buf.Len())
	l.Warn().Str("op", "union").Msg("kept")
	assert.Contains(t, buf.String(), `"component":"evaluate"`)
	assert.Contains(t, buf.String(), `"op":"union"`)

	_, err = newLogger(&buf, config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestMetrics(t *testing.T) {
	m, err := NewMetrics(config.MetricsConfig{Enabled: true, Namespace: "test"})
	require.NoError(t, err)

	m.ObserveCacheFetch(false, 1)
	m.ObserveCacheFetch(true, 1)
	m.ObserveCacheFetch(true, 1)
	m.ObserveKernelOp("bsp", "union", time.Millisecond, nil)
	m.ObserveKernelOp("bsp", "union", time.Millisecond, errors.New("boom"))
	m.ObserveNode("union", time.Millisecond, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheFetches.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheEntries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.kernelOps.WithLabelValues("bsp", "union", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.nodesReduced.WithLabelValues("union", "ok")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "test_cache_fetches_total")
}

func TestDisabledMetricsAreNoOps(t *testing.T) {
	m, err := NewMetrics(config.MetricsConfig{})
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		m.ObserveCacheFetch(true, 3)
		m.ObserveKernelOp("bsp", "union", time.Second, nil)
		m.ObserveNode("hull", time.Second, nil)
	})
	assert.Nil(t, m.Registry())

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.ObserveNode("hull", 0, nil) })
}

func TestTracerProvider(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := NewTracerProvider(config.TracingConfig{Enabled: true, ServiceName: "facet"}, rec)
	_, span := tp.Tracer(TracerName).Start(context.Background(), "reduce")
	span.End()
	require.Len(t, rec.Ended(), 1)
	assert.Equal(t, "reduce", rec.Ended()[0].Name())

	off := tracetest.NewSpanRecorder()
	tp = NewTracerProvider(config.TracingConfig{ServiceName: "facet"}, off)
	_, span = tp.Tracer(TracerName).Start(context.Background(), "reduce")
	span.End()
	assert.Empty(t, off.Ended())
}
