package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ServiceName is the tracer and resource name used across the service.
const ServiceName = "media-gallery"

var (
	providerMu sync.Mutex
	provider   *sdktrace.TracerProvider
)

// InitTracer installs a global tracer provider that writes spans as JSON to w.
// A provider installed by an earlier call is shut down first.
func InitTracer(serviceName string, w io.Writer) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	providerMu.Lock()
	prev := provider
	provider = tp
	providerMu.Unlock()

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	if prev != nil {
		shutdown(context.Background(), prev)
	}
	return tp, nil
}

// ShutdownTracer flushes pending spans and stops the provider installed by
// InitTracer. It does nothing when no provider is running.
func ShutdownTracer(ctx context.Context) {
	providerMu.Lock()
	tp := provider
	provider = nil
	providerMu.Unlock()

	if tp != nil {
		shutdown(ctx, tp)
	}
}

func shutdown(ctx context.Context, tp *sdktrace.TracerProvider) {
	if err := tp.Shutdown(ctx); err != nil {
		slog.Error("error shutting down tracer provider", "error", err)
	}
}
