package testutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/comalice/tickfsm"
)

// Call is one recorded hook invocation.
type Call struct {
	State       string
	Hook        tickfsm.Hook
	Now         tickfsm.Timestamp
	TimeInState time.Duration
}

func (c Call) String() string {
	if c.Hook == tickfsm.HookEnter {
		return fmt.Sprintf("%s(%s)", c.Hook, c.State)
	}
	return fmt.Sprintf("%s(%s, %s)", c.Hook, c.State, c.TimeInState)
}

// Recorder is a tickfsm.Tracer that keeps every record it receives.
type Recorder struct {
	calls []Call
}

func (r *Recorder) Trace(state string, hook tickfsm.Hook, now tickfsm.Timestamp, timeInState time.Duration) {
	r.calls = append(r.calls, Call{State: state, Hook: hook, Now: now, TimeInState: timeInState})
}

// Calls returns the recorded calls.
func (r *Recorder) Calls() []Call {
	return r.calls
}

// Take returns the recorded calls and clears the recorder.
func (r *Recorder) Take() []Call {
	calls := r.calls
	r.calls = nil
	return calls
}

// Strings renders the recorded calls, e.g. "on_enter(idle)".
func (r *Recorder) Strings() []string {
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.String()
	}
	return out
}

// Count returns how many times hook ran for state.
func (r *Recorder) Count(state string, hook tickfsm.Hook) int {
	n := 0
	for _, c := range r.calls {
		if c.State == state && c.Hook == hook {
			n++
		}
	}
	return n
}

func (r *Recorder) String() string {
	return strings.Join(r.Strings(), "\n")
}

// RecordingState returns a state whose hooks only report to rec.
func RecordingState[C any, K tickfsm.StateKey](key K, rec *Recorder) *tickfsm.BaseState[C, K] {
	s := tickfsm.NewBaseState[C](key, rec)
	return &s
}
