// Package observability provides OpenTelemetry integration for distributed
// tracing.
//
// Spans are exported over OTLP HTTP to a local collector agent rather than
// directly to a tracing backend: the agent handles buffering, retry and
// authentication, and localhost export keeps request latency out of the
// hot path.
//
// Setup degrades gracefully. If the exporter cannot be created, tracing is
// disabled with a warning and the application keeps running; a trace
// pipeline is never worth failing artifact materialization over.
//
// Configuration lives under the otlp section of the config file:
//
//	otlp:
//	  enabled: true
//	  endpoint: "localhost:4318"
//	  environment: "dev"
//	  service_name: "filesmith"
package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config for OTLP trace export.
type Config struct {
	// Endpoint is the collector's OTLP HTTP endpoint (default: localhost:4318)
	Endpoint string
	// Environment is the deployment environment (dev, staging, prod)
	Environment string
	// ServiceName is the service name attached to exported spans
	ServiceName string
}

// Defaults applied when Config fields are empty.
const (
	DefaultEndpoint    = "localhost:4318"
	DefaultServiceName = "filesmith"
)

// Setup registers a global tracer provider exporting to the configured
// OTLP collector.
//
// Returns a shutdown function that flushes pending spans. Never returns an
// error for an unreachable collector; export failures are silent and the
// pipeline degrades to no-op.
func Setup(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	// Local collector, no TLS.
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		slog.Warn("failed to create trace exporter, tracing disabled", "error", err)
		return func(context.Context) error { return nil }, nil
	}

	attrs := []attribute.KeyValue{
		attribute.String("service.name", serviceName),
	}
	if cfg.Environment != "" {
		attrs = append(attrs, attribute.String("deployment.environment", cfg.Environment))
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attrs...)),
	)
	otel.SetTracerProvider(provider)

	slog.Debug("tracing enabled",
		"endpoint", endpoint,
		"service", serviceName,
		"environment", cfg.Environment,
	)

	return provider.Shutdown, nil
}
