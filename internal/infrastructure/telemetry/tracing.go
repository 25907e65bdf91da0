package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of every span started here.
const TracerName = "ledgersync"

// Span attribute keys shared by the gateway and the reconciliation engine.
const (
	SpanAttrRemotePath   = "moloni.path"
	SpanAttrRemoteStatus = "moloni.status"
	SpanAttrEventType    = "event.type"
	SpanAttrAggregateID  = "event.aggregate_id"
	SpanAttrStoreID      = "store.id"
	SpanAttrLocalID      = "local.id"
	SpanAttrRemoteID     = "remote.id"
)

// StartSpan starts an internal span. The caller must End it.
//
//	ctx, span := telemetry.StartSpan(ctx, "sync.product_inserted",
//	    telemetry.SpanAttrAggregateID, productID)
//	defer span.End()
func StartSpan(ctx context.Context, name string, keyValues ...any) (context.Context, trace.Span) {
	return start(ctx, name, trace.SpanKindInternal, keyValues)
}

// StartClientSpan starts a span for an outbound call.
func StartClientSpan(ctx context.Context, name string, keyValues ...any) (context.Context, trace.Span) {
	return start(ctx, name, trace.SpanKindClient, keyValues)
}

func start(ctx context.Context, name string, kind trace.SpanKind, keyValues []any) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{trace.WithSpanKind(kind)}
	if attrs := toAttributes(keyValues); len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, name, opts...)
}

// SetAttributes adds key/value pairs to the span. Non-string keys are skipped.
func SetAttributes(span trace.Span, keyValues ...any) {
	if span == nil {
		return
	}
	span.SetAttributes(toAttributes(keyValues)...)
}

// RecordError records err on the span and marks it failed.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// MarkFailed sets an error status without an error value, for outcomes
// reported through sentinels instead of errors.
func MarkFailed(span trace.Span, description string) {
	if span == nil {
		return
	}
	span.SetStatus(codes.Error, description)
}

func toAttributes(keyValues []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, toAttribute(key, keyValues[i+1]))
	}
	return attrs
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
