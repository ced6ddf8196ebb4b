package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/shellpal/internal/config"
)

func setupTestTracer(t *testing.T) (trace.Tracer, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	return provider.Tracer("test-tracer"), exporter
}

func attrValue(span tracetest.SpanStub, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(config.TracingConfig{Enabled: false})
	require.NoError(t, err)
	require.False(t, p.Enabled())

	_, span := p.Tracer().Start(context.Background(), "noop")
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_FileExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")
	p, err := NewProvider(config.TracingConfig{Enabled: true, Exporter: "file", FilePath: path, SampleRate: 1})
	require.NoError(t, err)
	require.True(t, p.Enabled())

	_, span := StartRequest(context.Background(), p.Tracer(), RequestInfo{ID: "req-1", Provider: "openai", Model: "gpt-4o", Turns: 2})
	require.True(t, span.SpanContext().IsValid())
	EndRequest(span, 3, 12, "", nil)

	require.NoError(t, p.Shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), SpanConversationRequest)
	require.Contains(t, string(data), "req-1")
}

func TestNewProvider_UnknownExporter(t *testing.T) {
	_, err := NewProvider(config.TracingConfig{Enabled: true, Exporter: "zipkin"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported exporter type")
}

func TestEndRequest_Success(t *testing.T) {
	tracer, exporter := setupTestTracer(t)

	_, span := StartRequest(context.Background(), tracer, RequestInfo{ID: "abc", Provider: "anthropic", Model: "claude", Turns: 4})
	EndRequest(span, 5, 40, "", nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	got := spans[0]
	require.Equal(t, SpanConversationRequest, got.Name)
	require.Equal(t, trace.SpanKindClient, got.SpanKind)
	require.Equal(t, codes.Ok, got.Status.Code)

	v, ok := attrValue(got, AttrRequestID)
	require.True(t, ok)
	require.Equal(t, "abc", v.AsString())
	v, ok = attrValue(got, AttrFragments)
	require.True(t, ok)
	require.Equal(t, int64(5), v.AsInt64())
	_, ok = attrValue(got, AttrErrorKind)
	require.False(t, ok)
}

func TestEndRequest_Error(t *testing.T) {
	tracer, exporter := setupTestTracer(t)

	_, span := StartRequest(context.Background(), tracer, RequestInfo{ID: "x"})
	EndRequest(span, 1, 3, "stream", errors.New("connection reset"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, codes.Error, spans[0].Status.Code)
	require.Equal(t, "connection reset", spans[0].Status.Description)
	v, ok := attrValue(spans[0], AttrErrorKind)
	require.True(t, ok)
	require.Equal(t, "stream", v.AsString())
}

func TestFileExporter_WritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "traces.jsonl")
	exp, err := NewFileExporter(path)
	require.NoError(t, err)

	now := time.Now()
	stubs := []tracetest.SpanStub{
		{Name: "one", StartTime: now, EndTime: now.Add(50 * time.Millisecond), Status: sdktrace.Status{Code: codes.Ok}},
		{Name: "two", StartTime: now, EndTime: now.Add(time.Millisecond), Attributes: []attribute.KeyValue{attribute.String(AttrModel, "gpt-4o")}},
	}
	require.NoError(t, exp.ExportSpans(context.Background(), tracetest.SpanStubs(stubs).Snapshots()))
	require.NoError(t, exp.Shutdown(context.Background()))
	require.NoError(t, exp.Shutdown(context.Background()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []SpanRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var r SpanRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &r))
		records = append(records, r)
	}
	require.Len(t, records, 2)
	require.Equal(t, "one", records[0].Name)
	require.Equal(t, "OK", records[0].Status)
	require.InDelta(t, 50.0, records[0].DurationMs, 0.001)
	require.Equal(t, "gpt-4o", records[1].Attributes[AttrModel])
}

func TestFileExporter_ExportAfterShutdown(t *testing.T) {
	exp, err := NewFileExporter(filepath.Join(t.TempDir(), "t.jsonl"))
	require.NoError(t, err)
	require.NoError(t, exp.Shutdown(context.Background()))

	stub := tracetest.SpanStub{Name: "late"}
	err = exp.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()})
	require.Error(t, err)
}
