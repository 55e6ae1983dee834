package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "jessica/companion-api"

// GetTracer returns the tracer for the companion service.
func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartTurnSpan starts the root span of a chat turn.
func StartTurnSpan(ctx context.Context, conversationID string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "turn.handle",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("conversation.id", conversationID)),
	)
}

// StartToolSpan starts a span around a single tool call.
func StartToolSpan(ctx context.Context, toolName, callID string, sequence int) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "tool."+toolName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("tool.name", toolName),
			attribute.String("tool.call_id", callID),
			attribute.Int("tool.sequence", sequence),
		),
	)
}

// AddStateTransition records a turn state change on the span.
func AddStateTransition(span trace.Span, from, to string) {
	span.AddEvent("state.transition",
		trace.WithAttributes(
			attribute.String("state.from", from),
			attribute.String("state.to", to),
		),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error, severity string) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("error.severity", severity))
}

// StartSpan starts an internal span for a turn stage.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}
