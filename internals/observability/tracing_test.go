package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracing_NoEndpoint(t *testing.T) {
	ctx := context.Background()
	tp, err := InitTracing(ctx, &TracingConfig{ServiceName: "test"})
	require.NoError(t, err)
	require.NotNil(t, tp.Tracer())
	require.NoError(t, tp.Shutdown(ctx))
}

func TestInitTracing_WithEndpoint(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	// The gRPC exporter connects lazily, so no collector is needed here.
	tp, err := InitTracing(context.Background(), &TracingConfig{
		ServiceName:    "baobab-test",
		ServiceVersion: "1.2.3",
		OTLPEndpoint:   "localhost:4317",
		SampleRate:     0.5,
	})
	require.NoError(t, err)
	require.NotNil(t, tp.provider)
	require.NotNil(t, tp.Tracer())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = tp.Shutdown(ctx)
}

func TestInitTracing_NilConfig(t *testing.T) {
	tp, err := InitTracing(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, tp)
}

func TestStartLLMSpan_RecordsUsageAndError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer provider.Shutdown(context.Background())

	_, span := StartLLMSpan(context.Background(), provider.Tracer("test"), "claude-test")
	RecordLLMUsage(span, 12, 34, 50*time.Millisecond)
	RecordError(span, errors.New("boom"))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	require.Equal(t, "llm.complete", ended[0].Name())
	require.Equal(t, codes.Error, ended[0].Status().Code)

	attrs := map[string]any{}
	for _, kv := range ended[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	require.Equal(t, "claude-test", attrs["llm.model"])
	require.Equal(t, int64(12), attrs["llm.input_tokens"])
	require.Equal(t, int64(34), attrs["llm.output_tokens"])
}

func TestSampler(t *testing.T) {
	require.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	require.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	require.Contains(t, sampler(0.5).Description(), "TraceIDRatioBased")
}
