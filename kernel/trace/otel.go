package trace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// OtelEmitter turns each Event into a finished OpenTelemetry span named
// after its Msg — one span per node activation, not a long-lived span
// per node (the kernel has no notion of activation duration beyond
// what the step loop itself takes).
type OtelEmitter struct {
	tracer oteltrace.Tracer
}

// NewOtelEmitter returns an OtelEmitter using tracer.
func NewOtelEmitter(tracer oteltrace.Tracer) *OtelEmitter {
	return &OtelEmitter{tracer: tracer}
}

func (o *OtelEmitter) Emit(e Event) {
	_, span := o.tracer.Start(context.Background(), e.Msg)
	o.annotate(span, e)
	span.End()
}

func (o *OtelEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, e := range events {
		_, span := o.tracer.Start(ctx, e.Msg)
		o.annotate(span, e)
		span.End()
	}
	return nil
}

func (o *OtelEmitter) annotate(span oteltrace.Span, e Event) {
	span.SetAttributes(
		attribute.String("kernel.run_id", e.RunID),
		attribute.Int("kernel.step", e.Step),
		attribute.String("kernel.node_id", e.NodeID),
		attribute.String("kernel.priority", e.Priority),
	)
	for k, v := range e.Meta {
		switch val := v.(type) {
		case string:
			span.SetAttributes(attribute.String(k, val))
		case int:
			span.SetAttributes(attribute.Int(k, val))
		case bool:
			span.SetAttributes(attribute.Bool(k, val))
		}
	}
}

// Flush force-flushes the global tracer provider if it supports it
// (the SDK provider does; the default no-op provider does not).
func (o *OtelEmitter) Flush(ctx context.Context) error {
	type flusher interface{ ForceFlush(context.Context) error }
	if f, ok := otel.GetTracerProvider().(flusher); ok {
		return f.ForceFlush(ctx)
	}
	return nil
}
