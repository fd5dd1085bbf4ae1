package tickfsm

import (
	"fmt"
	"math"
	"time"
)

// StateKey identifies a state. Keys are small copyable values (string
// enums, int enums with a String method) and two keys are equal iff they
// name the same state.
type StateKey interface {
	comparable
	fmt.Stringer
}

// Timestamp is a monotonic clock reading in nanoseconds. Callers must supply
// non-decreasing timestamps to a given machine.
type Timestamp uint64

// FromDuration converts an offset from the clock origin into a Timestamp.
// Negative durations map to zero.
func FromDuration(d time.Duration) Timestamp {
	if d < 0 {
		return 0
	}
	return Timestamp(d)
}

// Since returns the time elapsed between start and t. The result saturates:
// a t before start yields 0 and a gap wider than time.Duration can hold
// yields math.MaxInt64.
func (t Timestamp) Since(start Timestamp) time.Duration {
	if t <= start {
		return 0
	}
	diff := uint64(t - start)
	if diff > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(diff)
}

func (t Timestamp) String() string {
	return time.Duration(t).String()
}

// State is implemented once per concrete state. The hooks are invoked only
// by the machine the state is registered with; C is the caller's context
// type, handed to every hook by pointer so hooks may mutate it.
type State[C any, K StateKey] interface {
	// Key returns the identifier the state is registered under. It must
	// return the same value for the lifetime of the state.
	Key() K

	// OnEnter runs on the first tick after the state became current.
	OnEnter(c *C, now Timestamp)

	// OnExit runs when a transition leaves the state or the machine is reset.
	OnExit(c *C, now Timestamp, timeInState time.Duration)

	// DoStateAction runs once per tick while the state is current.
	DoStateAction(c *C, now Timestamp, timeInState time.Duration)
}

// BaseState is embedded by concrete states that only need to override some
// hooks. Its hooks do nothing besides emitting a record to Tracer when one
// is set.
//
//	type Idle struct {
//		tickfsm.BaseState[Robot, Key]
//	}
//
//	func (s *Idle) DoStateAction(r *Robot, now tickfsm.Timestamp, d time.Duration) { r.Motor = 0 }
type BaseState[C any, K StateKey] struct {
	StateKey K
	Tracer   Tracer
}

// NewBaseState returns a BaseState registered under key.
func NewBaseState[C any, K StateKey](key K, tracer Tracer) BaseState[C, K] {
	return BaseState[C, K]{StateKey: key, Tracer: tracer}
}

func (s *BaseState[C, K]) Key() K {
	return s.StateKey
}

func (s *BaseState[C, K]) OnEnter(_ *C, now Timestamp) {
	if s.Tracer != nil {
		s.Tracer.Trace(s.StateKey.String(), HookEnter, now, 0)
	}
}

func (s *BaseState[C, K]) OnExit(_ *C, now Timestamp, timeInState time.Duration) {
	if s.Tracer != nil {
		s.Tracer.Trace(s.StateKey.String(), HookExit, now, timeInState)
	}
}

func (s *BaseState[C, K]) DoStateAction(_ *C, now Timestamp, timeInState time.Duration) {
	if s.Tracer != nil {
		s.Tracer.Trace(s.StateKey.String(), HookAction, now, timeInState)
	}
}

// Request is the user-requested destination consumed by a tick. It is empty
// when no request was pending.
type Request[K StateKey] struct {
	key     K
	present bool
}

// RequestFor returns a Request carrying key.
func RequestFor[K StateKey](key K) Request[K] {
	return Request[K]{key: key, present: true}
}

// Key returns the requested key and whether a request was pending.
func (r Request[K]) Key() (K, bool) {
	return r.key, r.present
}

// Is reports whether a request for key was pending.
func (r Request[K]) Is(key K) bool {
	return r.present && r.key == key
}

// Present reports whether any request was pending.
func (r Request[K]) Present() bool {
	return r.present
}

func (r Request[K]) String() string {
	if !r.present {
		return "<none>"
	}
	return r.key.String()
}

// TransitionCondition decides whether the current state should be left. It
// receives the request consumed by this tick and the time spent in the
// current state, and returns the destination key with ok set when it fires.
// Conditions may read and write the context but never see the machine.
type TransitionCondition[C any, K StateKey] func(c *C, requested Request[K], timeInState time.Duration) (next K, ok bool)
