package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newRecordingTracer() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return recorder, provider
}

func TestTracedOperationRecordsError(t *testing.T) {
	recorder, provider := newRecordingTracer()
	tracer := provider.Tracer("test")

	_, err := TracedOperation(context.Background(), tracer, "activity.AllocatePackages", func(context.Context) (string, error) {
		return "", errors.New("write failed")
	})
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "activity.AllocatePackages", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestTracedOperationReturnsResult(t *testing.T) {
	recorder, provider := newRecordingTracer()
	tracer := provider.Tracer("test")

	got, err := TracedOperation(context.Background(), tracer, "find", func(ctx context.Context) (string, error) {
		assert.True(t, trace.SpanContextFromContext(ctx).HasTraceID())
		return "sup-1", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "sup-1", got)
	assert.Equal(t, codes.Ok, recorder.Ended()[0].Status().Code)
}

func TestInjectExtractRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	_, provider := newRecordingTracer()

	ctx, span := provider.Tracer("test").Start(context.Background(), "publish")
	defer span.End()

	carrier := MapCarrier{}
	InjectTraceContext(ctx, carrier)
	require.Contains(t, carrier.Keys(), "traceparent")

	extracted := ExtractTraceContext(context.Background(), carrier)
	assert.Equal(t, trace.SpanContextFromContext(ctx).TraceID(), trace.SpanContextFromContext(extracted).TraceID())
}

func TestInitializeDisabled(t *testing.T) {
	tp, err := Initialize(context.Background(), DefaultConfig("fbs-supply"))
	require.NoError(t, err)
	assert.NotNil(t, tp.Tracer())
	assert.NoError(t, tp.Shutdown(context.Background()))
}
