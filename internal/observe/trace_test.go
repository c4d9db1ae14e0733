package observe

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newTestTracerProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, exp
}

func useGlobalTracer(t *testing.T, tp trace.TracerProvider) {
	t.Helper()
	orig := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(orig) })
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(orig) })
	return &buf
}

func TestCorrelationID_EmptyWithoutSpan(t *testing.T) {
	t.Parallel()
	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID(background) = %q, want empty", got)
	}
}

func TestStartProviderSpan(t *testing.T) {
	tp, exp := newTestTracerProvider(t)
	useGlobalTracer(t, tp)

	_, span := StartProviderSpan(context.Background(), KindTranscription, "whisper")
	EndSpan(span, errors.New("connection refused"))

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	got := spans[0]
	if got.Name != "transcription whisper" {
		t.Errorf("span name = %q, want %q", got.Name, "transcription whisper")
	}
	if got.SpanKind != trace.SpanKindClient {
		t.Errorf("span kind = %v, want client", got.SpanKind)
	}
	if got.Status.Code != codes.Error {
		t.Errorf("status = %v, want error", got.Status.Code)
	}
	if len(got.Events) == 0 {
		t.Error("error was not recorded as a span event")
	}
}

func TestEndSpan_NilErrorLeavesStatusUnset(t *testing.T) {
	tp, exp := newTestTracerProvider(t)
	useGlobalTracer(t, tp)

	_, span := StartSpan(context.Background(), "ok-op")
	EndSpan(span, nil)

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Unset {
		t.Errorf("status = %v, want unset", spans[0].Status.Code)
	}
}

func TestLogger_IncludesTraceID(t *testing.T) {
	buf := captureLogs(t)
	tp, _ := newTestTracerProvider(t)

	ctx, span := tp.Tracer("test").Start(context.Background(), "log-test")
	defer span.End()

	Logger(ctx).Info("scored")

	out := buf.String()
	if !strings.Contains(out, "trace_id="+CorrelationID(ctx)) {
		t.Errorf("log output missing trace_id, got: %s", out)
	}
	if !strings.Contains(out, "span_id=") {
		t.Errorf("log output missing span_id, got: %s", out)
	}
}

func TestLogger_NoSpan(t *testing.T) {
	buf := captureLogs(t)

	Logger(context.Background()).Info("scored")

	if out := buf.String(); strings.Contains(out, "trace_id") {
		t.Errorf("log output should not contain trace_id, got: %s", out)
	}
}
