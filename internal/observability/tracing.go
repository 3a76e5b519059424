// Package observability sets up OpenTelemetry tracing for the process.
package observability

import (
	"context"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	// Endpoint is the OTLP/HTTP collector. Empty writes spans to Output.
	Endpoint string
	Output   io.Writer
}

// ShutdownFunc flushes pending spans.
type ShutdownFunc func(context.Context) error

// InitTracing installs the global tracer provider and W3C propagators. With
// tracing disabled only the propagators are installed, so trace context is
// still forwarded to downstream services.
func InitTracing(ctx context.Context, cfg TracingConfig, logger *log.Entry) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(attribute.String("service.name", cfg.ServiceName)),
	)
	if err != nil {
		return nil, err
	}

	exporter, err := newSpanExporter(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)
	logger.WithField("endpoint", cfg.Endpoint).Info("tracing enabled")
	return provider.Shutdown, nil
}

func newSpanExporter(ctx context.Context, cfg TracingConfig, logger *log.Entry) (sdktrace.SpanExporter, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint != "" {
		var opt otlptracehttp.Option
		if strings.Contains(endpoint, "://") {
			opt = otlptracehttp.WithEndpointURL(endpoint)
		} else {
			opt = otlptracehttp.WithEndpoint(endpoint)
		}
		exporter, err := otlptracehttp.New(ctx, opt, otlptracehttp.WithInsecure())
		if err == nil {
			return exporter, nil
		}
		logger.WithError(err).Warn("failed to initialize OTLP trace exporter, falling back to stdout")
	}
	opts := []stdouttrace.Option{}
	if cfg.Output != nil {
		opts = append(opts, stdouttrace.WithWriter(cfg.Output))
	}
	return stdouttrace.New(opts...)
}
