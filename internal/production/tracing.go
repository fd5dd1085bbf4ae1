package production

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/comalice/tickfsm"
)

// Span names emitted by SpanObserver.
const (
	SpanTransition = "tickfsm.transition"
	SpanReset      = "tickfsm.reset"
)

// SpanObserver emits one OpenTelemetry span per transition and per reset.
// Ticks without a transition produce no span.
type SpanObserver[K tickfsm.StateKey] struct {
	tracer  trace.Tracer
	machine attribute.KeyValue
}

// NewSpanObserver returns an observer creating spans with tracer.
func NewSpanObserver[K tickfsm.StateKey](tracer trace.Tracer, machine string) *SpanObserver[K] {
	return &SpanObserver[K]{
		tracer:  tracer,
		machine: attribute.String("tickfsm.machine", machine),
	}
}

func (o *SpanObserver[K]) OnTick(K, tickfsm.Timestamp, time.Duration) {}

func (o *SpanObserver[K]) OnTransition(t tickfsm.Transition[K]) {
	_, span := o.tracer.Start(context.Background(), SpanTransition,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			o.machine,
			attribute.String("tickfsm.from", t.From.String()),
			attribute.String("tickfsm.to", t.To.String()),
			attribute.Int64("tickfsm.time_in_state_ns", int64(t.TimeInState)),
			attribute.Int64("tickfsm.at_ns", int64(t.At)),
		))
	span.End()
}

func (o *SpanObserver[K]) OnReset(from, initial K, now tickfsm.Timestamp) {
	_, span := o.tracer.Start(context.Background(), SpanReset,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			o.machine,
			attribute.String("tickfsm.from", from.String()),
			attribute.String("tickfsm.to", initial.String()),
			attribute.Int64("tickfsm.at_ns", int64(now)),
		))
	span.End()
}
