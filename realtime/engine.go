package realtime

import (
	"time"

	"github.com/comalice/tickfsm"
)

// Engine is the surface of a machine a Driver needs. *bounded.Machine
// implements it; wrap a *tickfsm.Machine with Dynamic.
type Engine[C any, K tickfsm.StateKey] interface {
	CheckTransitionAndDoAction(c *C, now tickfsm.Timestamp) error
	Reset(c *C, now tickfsm.Timestamp) error
	RequestTransitionFromUser(key K)
	CurrentState() K
}

// Dynamic adapts the dynamic engine to Engine.
func Dynamic[C any, K tickfsm.StateKey](m *tickfsm.Machine[C, K]) Engine[C, K] {
	return dynamicEngine[C, K]{m: m}
}

type dynamicEngine[C any, K tickfsm.StateKey] struct {
	m *tickfsm.Machine[C, K]
}

func (e dynamicEngine[C, K]) CheckTransitionAndDoAction(c *C, now tickfsm.Timestamp) error {
	e.m.CheckTransitionAndDoAction(c, now)
	return nil
}

func (e dynamicEngine[C, K]) Reset(c *C, now tickfsm.Timestamp) error {
	e.m.Reset(c, now)
	return nil
}

func (e dynamicEngine[C, K]) RequestTransitionFromUser(key K) { e.m.RequestTransitionFromUser(key) }
func (e dynamicEngine[C, K]) CurrentState() K                 { return e.m.CurrentState() }

// Clock supplies monotonic, non-decreasing timestamps.
type Clock interface {
	Now() tickfsm.Timestamp
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() tickfsm.Timestamp

func (f ClockFunc) Now() tickfsm.Timestamp { return f() }

// MonotonicClock reads the runtime's monotonic clock relative to the moment
// it was created.
type MonotonicClock struct {
	origin time.Time
}

// NewMonotonicClock returns a clock whose zero is now.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{origin: time.Now()}
}

func (c *MonotonicClock) Now() tickfsm.Timestamp {
	return tickfsm.FromDuration(time.Since(c.origin))
}

// ManualClock is a Clock advanced explicitly, for tests and replays. It is
// not safe for concurrent use.
type ManualClock struct {
	now tickfsm.Timestamp
}

func (c *ManualClock) Now() tickfsm.Timestamp { return c.now }

// Set moves the clock to t.
func (c *ManualClock) Set(t tickfsm.Timestamp) { c.now = t }

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) { c.now += tickfsm.FromDuration(d) }
