package tickfsm

import (
	"time"

	"go.uber.org/zap"
)

// Hook names a State lifecycle callback.
type Hook string

const (
	HookEnter  Hook = "on_enter"
	HookExit   Hook = "on_exit"
	HookAction Hook = "do_state_action"
)

// Tracer receives the low-level records emitted by BaseState hooks. It is
// purely diagnostic and never influences control flow.
type Tracer interface {
	Trace(state string, hook Hook, now Timestamp, timeInState time.Duration)
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(state string, hook Hook, now Timestamp, timeInState time.Duration)

func (f TracerFunc) Trace(state string, hook Hook, now Timestamp, timeInState time.Duration) {
	f(state, hook, now, timeInState)
}

type zapTracer struct {
	log *zap.Logger
}

// NewZapTracer returns a Tracer writing Debug records to log.
func NewZapTracer(log *zap.Logger) Tracer {
	if log == nil {
		log = zap.NewNop()
	}
	return &zapTracer{log: log}
}

func (t *zapTracer) Trace(state string, hook Hook, now Timestamp, timeInState time.Duration) {
	if ce := t.log.Check(zap.DebugLevel, string(hook)); ce != nil {
		ce.Write(
			zap.String("state", state),
			zap.Uint64("now", uint64(now)),
			zap.Duration("time_in_state", timeInState),
		)
	}
}
