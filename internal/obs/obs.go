// Package obs wires OpenTelemetry tracing and RED metrics (rate, errors,
// duration) for the ingestion engine. No OTLP collector is in scope for a
// personal-finance ledger, so the SDK providers export through a small
// slog-backed exporter; the SDK's batching, sampling, and aggregation
// still run normally.
package obs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "ledgerly.ingest"

// Config configures the OpenTelemetry providers. A zero Config with
// Enabled left false yields a no-op Provider — the common case for tests
// and one-off CLI invocations.
type Config struct {
	ServiceVersion string
	Environment    string
	SampleRate     float64
	BatchTimeout   time.Duration
	Enabled        bool
}

// DefaultConfig returns sane local defaults with telemetry export disabled.
func DefaultConfig() Config {
	return Config{
		ServiceVersion: "0.1.0",
		Environment:    "development",
		SampleRate:     1.0,
		BatchTimeout:   5 * time.Second,
		Enabled:        false,
	}
}

// Provider is the batch ingestion's single source of spans and metrics.
type Provider struct {
	config         Config
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	tracer         trace.Tracer
	meter          metric.Meter
	logger         *slog.Logger

	batchesCounter metric.Int64Counter
	txnsCounter    metric.Int64Counter
	dupesCounter   metric.Int64Counter
	errorCounter   metric.Int64Counter
	batchDuration  metric.Float64Histogram
	activeBatches  metric.Int64UpDownCounter
}

// New creates a Provider. With config.Enabled false it still returns real
// spans and meters (OpenTelemetry's global no-op implementations), so
// instrumented code never needs a nil check either way.
func New(ctx context.Context, config Config) (*Provider, error) {
	p := &Provider{
		config: config,
		logger: slog.Default().With("component", "obs"),
	}

	if !config.Enabled {
		p.tracer = otel.Tracer(instrumentationName)
		p.meter = otel.Meter(instrumentationName)
		if err := p.initInstruments(); err != nil {
			return nil, fmt.Errorf("obs: init instruments: %w", err)
		}
		return p, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", "ledgerly"),
			attribute.String("service.version", config.ServiceVersion),
			attribute.String("deployment.environment", config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("obs: resource: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case config.SampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case config.SampleRate <= 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(config.SampleRate)
	}

	p.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(&slogSpanExporter{logger: p.logger}, sdktrace.WithBatchTimeout(config.BatchTimeout)),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(p.tracerProvider)

	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(&slogMetricExporter{logger: p.logger}, sdkmetric.WithInterval(15*time.Second))),
	)
	otel.SetMeterProvider(p.meterProvider)

	p.tracer = otel.Tracer(instrumentationName, trace.WithInstrumentationVersion(config.ServiceVersion))
	p.meter = otel.Meter(instrumentationName, metric.WithInstrumentationVersion(config.ServiceVersion))

	if err := p.initInstruments(); err != nil {
		return nil, fmt.Errorf("obs: init instruments: %w", err)
	}

	p.logger.InfoContext(ctx, "observability initialized", "environment", config.Environment)
	return p, nil
}

func (p *Provider) initInstruments() error {
	var err error

	p.batchesCounter, err = p.meter.Int64Counter("ledgerly.ingest.batches",
		metric.WithDescription("Total number of ingestion batches run"), metric.WithUnit("{batch}"))
	if err != nil {
		return err
	}
	p.txnsCounter, err = p.meter.Int64Counter("ledgerly.ingest.transactions_imported",
		metric.WithDescription("Total transactions imported"), metric.WithUnit("{transaction}"))
	if err != nil {
		return err
	}
	p.dupesCounter, err = p.meter.Int64Counter("ledgerly.ingest.duplicates_suppressed",
		metric.WithDescription("Total duplicate imports suppressed by the identity hash"), metric.WithUnit("{transaction}"))
	if err != nil {
		return err
	}
	p.errorCounter, err = p.meter.Int64Counter("ledgerly.ingest.errors",
		metric.WithDescription("Total fatal ingestion batch errors"), metric.WithUnit("{error}"))
	if err != nil {
		return err
	}
	p.batchDuration, err = p.meter.Float64Histogram("ledgerly.ingest.batch.duration",
		metric.WithDescription("Batch ingestion duration in seconds"), metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60))
	if err != nil {
		return err
	}
	p.activeBatches, err = p.meter.Int64UpDownCounter("ledgerly.ingest.batches.active",
		metric.WithDescription("Batches currently in flight"), metric.WithUnit("{batch}"))
	if err != nil {
		return err
	}
	return nil
}

// Shutdown flushes and tears down any configured exporters. Safe to call
// on a no-op (Enabled=false) Provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			p.logger.ErrorContext(ctx, "shutdown trace provider", "error", err)
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			p.logger.ErrorContext(ctx, "shutdown metric provider", "error", err)
		}
	}
	return nil
}

func (p *Provider) Tracer() trace.Tracer { return p.tracer }
func (p *Provider) Meter() metric.Meter  { return p.meter }

// StartSpan starts a span under this Provider's tracer.
func (p *Provider) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, name, opts...)
}

// TrackBatch starts a span plus the active-batches gauge for one ingestion
// batch and returns a function to call with the final error (nil on
// success) when the batch completes.
func (p *Provider) TrackBatch(ctx context.Context, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := p.StartSpan(ctx, "ingest.batch", trace.WithSpanKind(trace.SpanKindInternal), trace.WithAttributes(attrs...))

	p.activeBatches.Add(ctx, 1, metric.WithAttributes(attrs...))
	p.batchesCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

	return ctx, func(err error) {
		p.activeBatches.Add(ctx, -1, metric.WithAttributes(attrs...))
		p.batchDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attrs...))
		if err != nil {
			p.RecordError(ctx, err, attrs...)
			span.RecordError(err)
		}
		span.End()
	}
}

// RecordTransactionsImported adds n to the imported-transaction counter.
func (p *Provider) RecordTransactionsImported(ctx context.Context, n int64, attrs ...attribute.KeyValue) {
	if n > 0 {
		p.txnsCounter.Add(ctx, n, metric.WithAttributes(attrs...))
	}
}

// RecordDuplicatesSuppressed adds n to the suppressed-duplicate counter.
func (p *Provider) RecordDuplicatesSuppressed(ctx context.Context, n int64, attrs ...attribute.KeyValue) {
	if n > 0 {
		p.dupesCounter.Add(ctx, n, metric.WithAttributes(attrs...))
	}
}

// RecordError increments the error counter, tagging it with the error's
// concrete type.
func (p *Provider) RecordError(ctx context.Context, err error, attrs ...attribute.KeyValue) {
	allAttrs := append(append([]attribute.KeyValue(nil), attrs...), attribute.String("error.type", fmt.Sprintf("%T", err)))
	p.errorCounter.Add(ctx, 1, metric.WithAttributes(allAttrs...))
}

// slogSpanExporter is the minimal sdktrace.SpanExporter this module needs:
// no collector is in scope, so completed spans are logged instead of
// shipped over OTLP.
type slogSpanExporter struct {
	logger *slog.Logger
}

func (e *slogSpanExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		e.logger.DebugContext(ctx, "span", "name", s.Name(), "duration", s.EndTime().Sub(s.StartTime()))
	}
	return nil
}

func (e *slogSpanExporter) Shutdown(ctx context.Context) error { return nil }

// slogMetricExporter is the minimal sdkmetric.Exporter this module needs,
// for the same reason as slogSpanExporter above.
type slogMetricExporter struct {
	logger *slog.Logger
}

func (e *slogMetricExporter) Temporality(sdkmetric.InstrumentKind) metricdata.Temporality {
	return metricdata.CumulativeTemporality
}

func (e *slogMetricExporter) Aggregation(kind sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(kind)
}

func (e *slogMetricExporter) Export(ctx context.Context, rm *metricdata.ResourceMetrics) error {
	for _, sm := range rm.ScopeMetrics {
		e.logger.DebugContext(ctx, "metrics scope", "scope", sm.Scope.Name, "count", len(sm.Metrics))
	}
	return nil
}

func (e *slogMetricExporter) ForceFlush(ctx context.Context) error { return nil }
func (e *slogMetricExporter) Shutdown(ctx context.Context) error   { return nil }
