// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"strconv"
	"time"

	"github.com/comalice/tickfsm"
	"github.com/comalice/tickfsm/bounded"
)

// StateID is an integer state key.
type StateID int

func (s StateID) String() string { return "s" + strconv.Itoa(int(s)) }

// Counter is the context handed to benchmark hooks.
type Counter struct {
	Enters  int
	Actions int
}

// Engine is the setup and tick surface both engines share once the dynamic
// engine is wrapped.
type Engine interface {
	AddState(s tickfsm.State[Counter, StateID]) error
	AddTransitionCondition(from StateID, cond tickfsm.TransitionCondition[Counter, StateID]) error
	CheckTransitionAndDoAction(c *Counter, now tickfsm.Timestamp) error
}

type dynamic struct {
	*tickfsm.Machine[Counter, StateID]
}

func (d dynamic) CheckTransitionAndDoAction(c *Counter, now tickfsm.Timestamp) error {
	d.Machine.CheckTransitionAndDoAction(c, now)
	return nil
}

// NewState returns a state that counts its hooks.
func NewState(id StateID) *tickfsm.FuncState[Counter, StateID] {
	return &tickfsm.FuncState[Counter, StateID]{
		ID:     id,
		Enter:  func(c *Counter, _ tickfsm.Timestamp) { c.Enters++ },
		Action: func(c *Counter, _ tickfsm.Timestamp, _ time.Duration) { c.Actions++ },
	}
}

// Always fires to on every tick.
func Always(to StateID) tickfsm.TransitionCondition[Counter, StateID] {
	return func(*Counter, tickfsm.Request[StateID], time.Duration) (StateID, bool) { return to, true }
}

// Never does not fire.
func Never() tickfsm.TransitionCondition[Counter, StateID] {
	return func(*Counter, tickfsm.Request[StateID], time.Duration) (StateID, bool) { return 0, false }
}

// NewEngine creates an empty engine of the given kind ("dynamic" or
// "bounded") sized for states states and perState conditions each.
func NewEngine(kind string, states, perState int) Engine {
	if kind == "bounded" {
		m, err := bounded.New[Counter, StateID](NewState(0), states, perState)
		if err != nil {
			panic(err)
		}
		return m
	}
	return dynamic{tickfsm.NewMachine[Counter, StateID](NewState(0))}
}

// Kinds lists the engine kinds accepted by NewEngine.
var Kinds = []string{"dynamic", "bounded"}

// GenRing builds n states where each tick moves to the next one.
func GenRing(kind string, n int) Engine {
	if n < 1 {
		n = 1
	}
	e := NewEngine(kind, n, 1)
	for i := 1; i < n; i++ {
		must(e.AddState(NewState(StateID(i))))
	}
	for i := 0; i < n; i++ {
		must(e.AddTransitionCondition(StateID(i), Always(StateID((i+1)%n))))
	}
	return e
}

// GenWide builds one state with n conditions of which only the last fires,
// and it fires back into the same state.
func GenWide(kind string, n int) Engine {
	if n < 1 {
		n = 1
	}
	e := NewEngine(kind, 1, n)
	for i := 0; i < n-1; i++ {
		must(e.AddTransitionCondition(0, Never()))
	}
	must(e.AddTransitionCondition(0, Always(0)))
	return e
}

// GenIdle builds a single state with one condition that never fires.
func GenIdle(kind string) Engine {
	e := NewEngine(kind, 1, 1)
	must(e.AddTransitionCondition(0, Never()))
	return e
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
