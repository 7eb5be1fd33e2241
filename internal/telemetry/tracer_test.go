package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestInitTracerExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	if _, err := InitTracer("gallery-test", &buf); err != nil {
		t.Fatalf("InitTracer() error = %v", err)
	}

	_, span := otel.Tracer(ServiceName).Start(context.Background(), "unit-span")
	span.End()

	ShutdownTracer(context.Background())

	if !strings.Contains(buf.String(), "unit-span") {
		t.Errorf("exported spans do not contain %q: %s", "unit-span", buf.String())
	}
}

func TestShutdownTracerIsIdempotent(t *testing.T) {
	ShutdownTracer(context.Background())

	var buf bytes.Buffer
	if _, err := InitTracer("gallery-test", &buf); err != nil {
		t.Fatalf("InitTracer() error = %v", err)
	}
	ShutdownTracer(context.Background())
	ShutdownTracer(context.Background())
}

func TestInitTracerReplacesPrevious(t *testing.T) {
	var first, second bytes.Buffer
	if _, err := InitTracer("gallery-test", &first); err != nil {
		t.Fatalf("InitTracer() error = %v", err)
	}
	if _, err := InitTracer("gallery-test", &second); err != nil {
		t.Fatalf("InitTracer() error = %v", err)
	}

	_, span := otel.Tracer(ServiceName).Start(context.Background(), "after-replace")
	span.End()
	ShutdownTracer(context.Background())

	if strings.Contains(first.String(), "after-replace") {
		t.Error("span exported by the replaced provider")
	}
	if !strings.Contains(second.String(), "after-replace") {
		t.Errorf("span missing from the current provider: %s", second.String())
	}
}
