package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func bufferedLogger() (*zap.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(&buf), zapcore.DebugLevel)
	return zap.New(core), &buf
}

func TestWithContext(t *testing.T) {
	logger, err := NewForEnvironment("development")
	require.NoError(t, err)

	ctxWithLogger := WithContext(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctxWithLogger))
}

func TestFromContext_NotFound(t *testing.T) {
	logger := FromContext(context.Background())
	assert.NotNil(t, logger)
}

func TestFromContext_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), LoggerKey, "not a logger")
	logger := FromContext(ctx)

	assert.NotNil(t, logger)
	logger.Info("test")
}

func TestContextEnrichment(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	ctx, logger = WithRequestID(ctx, logger, "req-1")
	ctx, logger = WithStoreID(ctx, logger, 3)
	ctx, logger = WithEventID(ctx, logger, "evt-9")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	storeID, ok := GetStoreID(ctx)
	assert.True(t, ok)
	assert.Equal(t, 3, storeID)
	assert.Equal(t, "evt-9", GetEventID(ctx))
	assert.Same(t, logger, FromContext(ctx))
}

func TestGetters_NotFound(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetEventID(ctx))
	_, ok := GetStoreID(ctx)
	assert.False(t, ok)
}

func TestGetTraceID(t *testing.T) {
	t.Run("no span", func(t *testing.T) {
		assert.Empty(t, GetTraceID(context.Background()))
	})

	t.Run("valid span context", func(t *testing.T) {
		traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
		spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
		sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
		ctx := trace.ContextWithSpanContext(context.Background(), sc)

		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", GetTraceID(ctx))
	})
}

// =============================================================================
// ContextLogger
// =============================================================================

func TestContextLogger_EnrichesWithContextFields(t *testing.T) {
	base, buf := bufferedLogger()

	ctx := context.Background()
	ctx, _ = WithRequestID(ctx, base, "req-123")
	ctx, _ = WithStoreID(ctx, base, 7)
	ctx, _ = WithEventID(ctx, base, "evt-456")
	ctx = WithContext(ctx, base)

	L(ctx).Info("reconciled", zap.String("extra_field", "extra_value"))

	output := buf.String()
	assert.Contains(t, output, `"request_id":"req-123"`)
	assert.Contains(t, output, `"store_id":7`)
	assert.Contains(t, output, `"event_id":"evt-456"`)
	assert.Contains(t, output, `"extra_field":"extra_value"`)
	assert.Contains(t, output, `"msg":"reconciled"`)
}

func TestContextLogger_WithTraceFields(t *testing.T) {
	base, buf := bufferedLogger()

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	WithLogger(ctx, base).Warn("remote call failed")

	output := buf.String()
	assert.Contains(t, output, `"trace_id":"4bf92f3577b34da6a3ce929d0e0e4736"`)
	assert.Contains(t, output, `"span_id":"00f067aa0ba902b7"`)
}

func TestContextLogger_EmptyContextFields(t *testing.T) {
	base, buf := bufferedLogger()

	WithLogger(context.Background(), base).Info("test")

	output := buf.String()
	assert.Contains(t, output, `"msg":"test"`)
	assert.NotContains(t, output, `"request_id"`)
	assert.NotContains(t, output, `"store_id"`)
	assert.NotContains(t, output, `"event_id"`)
	assert.NotContains(t, output, `"trace_id"`)
}

func TestContextLogger_NilLogger(t *testing.T) {
	cl := &ContextLogger{ctx: context.Background()}

	assert.NotPanics(t, func() {
		cl.Debug("debug")
		cl.Info("info")
		cl.Warn("warn")
		cl.Error("error")
	})
}

func TestContextLogger_WithChaining(t *testing.T) {
	base, buf := bufferedLogger()

	WithLogger(context.Background(), base).
		With(zap.String("field1", "value1")).
		With(zap.String("field2", "value2")).
		Info("chained")

	output := buf.String()
	assert.Contains(t, output, `"field1":"value1"`)
	assert.Contains(t, output, `"field2":"value2"`)
}
