// Package tracing sets up the OpenTelemetry tracer provider.
//
// Tracing is off by default. When disabled the provider is a no-op, so the
// HTTP layer can always ask for a tracer without checking configuration.
// When enabled, spans are batched and exported over OTLP/HTTP.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName is the instrumentation scope used by the dev server.
const TracerName = "github.com/Haleralex/ticketing-devserver"

// Config holds tracing configuration
type Config struct {
	Enabled        bool
	Endpoint       string // host:port of the OTLP/HTTP collector
	Insecure       bool
	ServiceName    string
	ServiceVersion string
	SampleRatio    float64
}

// Provider owns the tracer provider and its shutdown.
type Provider struct {
	tp       trace.TracerProvider
	shutdown func(context.Context) error
	enabled  bool
}

// Setup builds a Provider from cfg and installs it as the global provider.
func Setup(ctx context.Context, cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{
			tp:       noop.NewTracerProvider(),
			shutdown: func(context.Context) error { return nil },
		}, nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	p := newSDKProvider(cfg, sdktrace.WithBatcher(exporter))

	otel.SetTracerProvider(p.tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return p, nil
}

// NewWithExporter builds an enabled Provider that exports synchronously to
// exporter. It does not touch the global provider.
func NewWithExporter(cfg Config, exporter sdktrace.SpanExporter) *Provider {
	return newSDKProvider(cfg, sdktrace.WithSyncer(exporter))
}

func newSDKProvider(cfg Config, export sdktrace.TracerProviderOption) *Provider {
	name := cfg.ServiceName
	if name == "" {
		name = "ticketing-devserver"
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", name),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	tp := sdktrace.NewTracerProvider(
		export,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)

	return &Provider{
		tp:       tp,
		shutdown: tp.Shutdown,
		enabled:  true,
	}
}

// TracerProvider returns the underlying provider.
func (p *Provider) TracerProvider() trace.TracerProvider {
	return p.tp
}

// Tracer returns the dev server tracer.
func (p *Provider) Tracer() trace.Tracer {
	return p.tp.Tracer(TracerName)
}

// Enabled reports whether spans are actually recorded and exported.
func (p *Provider) Enabled() bool {
	return p.enabled
}

// Shutdown flushes pending spans and releases the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.shutdown(ctx)
}
