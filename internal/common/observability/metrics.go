// Package observability wires OpenTelemetry metrics (exported through the
// Prometheus registry) and, when an endpoint is configured, Jaeger tracing.
package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/config"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/logger"
)

type Observability struct {
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
	matchResults   otelmetric.Int64Histogram
	logger         logger.Logger
}

// New installs the global meter provider and, if cfg.JaegerEndpoint is set,
// the global tracer provider.
func New(cfg config.ObservabilityConfig, log logger.Logger) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(mp)

	o, err := newWithMeterProvider(mp, cfg.ServiceName, log)
	if err != nil {
		return nil, err
	}

	if cfg.JaegerEndpoint != "" {
		tp, err := newTracerProvider(cfg)
		if err != nil {
			_ = mp.Shutdown(context.Background())
			return nil, err
		}
		otel.SetTracerProvider(tp)
		o.tracerProvider = tp
		log.Info("tracing enabled", map[string]interface{}{
			"endpoint":    cfg.JaegerEndpoint,
			"sampleRatio": cfg.SampleRatio,
		})
	}
	return o, nil
}

func newWithMeterProvider(mp *sdkmetric.MeterProvider, serviceName string, log logger.Logger) (*Observability, error) {
	meter := mp.Meter(serviceName)

	jobCounter, err := meter.Int64Counter("jobs.processed",
		otelmetric.WithDescription("Jobs processed by task type and status"))
	if err != nil {
		return nil, err
	}
	jobDuration, err := meter.Float64Histogram("jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	matchResults, err := meter.Int64Histogram("rfq.match.results",
		otelmetric.WithDescription("Ranked results returned per RFQ"))
	if err != nil {
		return nil, err
	}

	return &Observability{
		meterProvider: mp,
		jobCounter:    jobCounter,
		jobDuration:   jobDuration,
		matchResults:  matchResults,
		logger:        log,
	}, nil
}

func (o *Observability) RecordJob(ctx context.Context, taskType, status string, d time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	)
	o.jobCounter.Add(ctx, 1, attrs)
	o.jobDuration.Record(ctx, float64(d.Milliseconds()), attrs)
}

func (o *Observability) RecordMatchResults(ctx context.Context, count int) {
	if o == nil {
		return
	}
	o.matchResults.Record(ctx, int64(count))
}

// Shutdown flushes pending spans and metrics.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	var errs []error
	if o.tracerProvider != nil {
		errs = append(errs, o.tracerProvider.Shutdown(ctx))
	}
	if o.meterProvider != nil {
		errs = append(errs, o.meterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
