package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/config"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/logger"
)

func TestRecordJob(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	o, err := newWithMeterProvider(mp, "test", logger.NewTestLogger(t))
	require.NoError(t, err)

	ctx := context.Background()
	o.RecordJob(ctx, "match-rfq-suppliers", "completed", 120*time.Millisecond)
	o.RecordJob(ctx, "match-rfq-suppliers", "failed", 30*time.Millisecond)
	o.RecordMatchResults(ctx, 7)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := map[string]bool{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		names[m.Name] = true
		if m.Name == "jobs.processed" {
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			assert.Len(t, sum.DataPoints, 2)
		}
	}
	assert.True(t, names["jobs.processed"])
	assert.True(t, names["jobs.duration"])
	assert.True(t, names["rfq.match.results"])

	require.NoError(t, o.Shutdown(ctx))
}

func TestNilObservabilityIsSafe(t *testing.T) {
	var o *Observability
	assert.NotPanics(t, func() {
		o.RecordJob(context.Background(), "x", "completed", time.Second)
		o.RecordMatchResults(context.Background(), 1)
		_ = o.Shutdown(context.Background())
	})
}

func TestNewTracerProvider_RejectsBadRatio(t *testing.T) {
	_, err := newTracerProvider(config.ObservabilityConfig{
		ServiceName:    "svc",
		JaegerEndpoint: "http://localhost:14268/api/traces",
		SampleRatio:    2,
	})
	assert.Error(t, err)
}
