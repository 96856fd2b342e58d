package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Operation tracks one traced container operation (a resolve, a construct
// call, a build or a close).
type Operation struct {
	Name      string
	StartTime time.Time
	span      trace.Span
}

// StartOperation starts a span named name on tracer and returns the derived
// context with the operation.
func StartOperation(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, *Operation) {
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, &Operation{Name: name, StartTime: time.Now(), span: span}
}

// SetAttributes adds attributes to the operation span.
func (op *Operation) SetAttributes(attrs ...attribute.KeyValue) {
	op.span.SetAttributes(attrs...)
}

// End records err (with its code) if any and ends the span.
func (op *Operation) End(err error, code string) {
	SetSpanError(op.span, err, code)
	op.span.End()
}

// Duration returns the elapsed time since the operation started.
func (op *Operation) Duration() time.Duration {
	return time.Since(op.StartTime)
}
