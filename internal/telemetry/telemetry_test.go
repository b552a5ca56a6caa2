package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestNewWithoutEndpointIsNoop(t *testing.T) {
	t.Parallel()

	instr, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, span := instr.Start(context.Background(), RequestStart{Method: "GET"})
	span.End(RequestResult{StatusCode: 200})
	if err := instr.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func newRecordedInstrumenter(t *testing.T) (Instrumenter, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	instr, err := New(Config{ServiceName: "vortex-test"}, WithSpanProcessor(recorder))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return instr, recorder
}

func TestRequestSpanAttributes(t *testing.T) {
	t.Parallel()

	instr, recorder := newRecordedInstrumenter(t)
	ctx := context.Background()

	_, span := instr.Start(ctx, RequestStart{
		RequestName: "Get Users",
		Collection:  "My API",
		Environment: "staging",
		Method:      "GET",
		URL:         "https://example.com/users",
		Unresolved:  []string{"missing"},
	})
	span.End(RequestResult{StatusCode: 200})

	if err := instr.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans = %d", len(spans))
	}
	ended := spans[0]
	if ended.Name() != "Get Users" {
		t.Fatalf("span name = %q", ended.Name())
	}
	if ended.SpanKind() != trace.SpanKindClient {
		t.Fatalf("span kind = %v", ended.SpanKind())
	}

	attrs := map[string]string{}
	for _, kv := range ended.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs["vortex.collection"] != "My API" || attrs["vortex.environment"] != "staging" {
		t.Fatalf("attributes = %v", attrs)
	}
}

func TestRequestSpanErrorStatus(t *testing.T) {
	t.Parallel()

	instr, recorder := newRecordedInstrumenter(t)
	ctx := context.Background()

	_, span := instr.Start(ctx, RequestStart{Method: "GET", URL: "https://example.com"})
	span.End(RequestResult{Err: errors.New("connection refused")})

	_, span = instr.Start(ctx, RequestStart{Method: "GET", URL: "https://example.com"})
	span.End(RequestResult{StatusCode: 503})

	if err := instr.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("spans = %d", len(spans))
	}
	for i, ended := range spans {
		if ended.Status().Code.String() != "Error" {
			t.Fatalf("span %d status = %v", i, ended.Status())
		}
	}
	if len(spans[0].Events()) == 0 {
		t.Fatalf("error span should record the error event")
	}
}

func TestShutdownIdempotent(t *testing.T) {
	t.Parallel()

	instr, _ := newRecordedInstrumenter(t)
	ctx := context.Background()
	if err := instr.Shutdown(ctx); err != nil {
		t.Fatalf("first shutdown: %v", err)
	}
	if err := instr.Shutdown(ctx); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
}
