package observability

import (
	"context"
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Observability bundles the OpenTelemetry meter and tracer used around
// collaborator calls. A nil *Observability is valid and records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	callCounter    otelmetric.Int64Counter
	callDuration   otelmetric.Float64Histogram
}

type options struct {
	registerer     promclient.Registerer
	spanProcessors []sdktrace.SpanProcessor
	global         bool
}

type Option func(*options)

// WithRegisterer sends exported metrics to reg instead of the default registry.
func WithRegisterer(reg promclient.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithSpanProcessor attaches a span processor, e.g. a tracetest.SpanRecorder.
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) { o.spanProcessors = append(o.spanProcessors, sp) }
}

// AsGlobal installs the providers as the otel globals.
func AsGlobal() Option {
	return func(o *options) { o.global = true }
}

func New(serviceName string, opts ...Option) (*Observability, error) {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var exporterOpts []prometheus.Option
	if cfg.registerer != nil {
		exporterOpts = append(exporterOpts, prometheus.WithRegisterer(cfg.registerer))
	}
	exporter, err := prometheus.New(exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	meterProvider := metric.NewMeterProvider(metric.WithReader(exporter))

	tpOpts := make([]sdktrace.TracerProviderOption, 0, len(cfg.spanProcessors))
	for _, sp := range cfg.spanProcessors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
	}
	tracerProvider := sdktrace.NewTracerProvider(tpOpts...)

	if cfg.global {
		otel.SetMeterProvider(meterProvider)
		otel.SetTracerProvider(tracerProvider)
	}

	meter := meterProvider.Meter(serviceName)

	callCounter, err := meter.Int64Counter(
		"collaborator_calls",
		otelmetric.WithDescription("Number of collaborator calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("create call counter: %w", err)
	}

	callDuration, err := meter.Float64Histogram(
		"collaborator_duration",
		otelmetric.WithDescription("Collaborator call duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create call histogram: %w", err)
	}

	return &Observability{
		meterProvider:  meterProvider,
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer(serviceName),
		callCounter:    callCounter,
		callDuration:   callDuration,
	}, nil
}

// StartSpan opens a span; callers must End it.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// RecordCall counts one collaborator call and its duration.
func (o *Observability) RecordCall(ctx context.Context, collaborator, outcome string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("collaborator", collaborator),
		attribute.String("outcome", outcome),
	)
	o.callCounter.Add(ctx, 1, attrs)
	o.callDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	var firstErr error
	if err := o.tracerProvider.Shutdown(ctx); err != nil {
		firstErr = err
	}
	if err := o.meterProvider.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
