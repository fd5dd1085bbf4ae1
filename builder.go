package tickfsm

import (
	"errors"
	"time"
)

// Builder provides a fluent API for the setup phase of a Machine. Setup
// errors are collected and reported together by Build.
type Builder[C any, K StateKey] struct {
	m    *Machine[C, K]
	errs []error
}

// NewBuilder starts a machine whose initial state is initial.
func NewBuilder[C any, K StateKey](initial State[C, K], opts ...Option[K]) *Builder[C, K] {
	return &Builder[C, K]{m: NewMachine(initial, opts...)}
}

// State registers states in order.
func (b *Builder[C, K]) State(states ...State[C, K]) *Builder[C, K] {
	for _, s := range states {
		if err := b.m.AddState(s); err != nil {
			b.errs = append(b.errs, err)
		}
	}
	return b
}

// Transition adds cond to from.
func (b *Builder[C, K]) Transition(from K, cond TransitionCondition[C, K]) *Builder[C, K] {
	if err := b.m.AddTransitionCondition(from, cond); err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// TransitionFrom adds cond to every key in from, recording an error for each
// unknown key instead of stopping at the first one.
func (b *Builder[C, K]) TransitionFrom(from []K, cond TransitionCondition[C, K]) *Builder[C, K] {
	for _, key := range from {
		b.Transition(key, cond)
	}
	return b
}

// Build returns the machine, or the joined setup errors.
func (b *Builder[C, K]) Build() (*Machine[C, K], error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	return b.m, nil
}

// FuncState is a State assembled from optional hook functions; nil hooks do
// nothing.
type FuncState[C any, K StateKey] struct {
	ID     K
	Enter  func(c *C, now Timestamp)
	Exit   func(c *C, now Timestamp, timeInState time.Duration)
	Action func(c *C, now Timestamp, timeInState time.Duration)
}

func (s *FuncState[C, K]) Key() K { return s.ID }

func (s *FuncState[C, K]) OnEnter(c *C, now Timestamp) {
	if s.Enter != nil {
		s.Enter(c, now)
	}
}

func (s *FuncState[C, K]) OnExit(c *C, now Timestamp, timeInState time.Duration) {
	if s.Exit != nil {
		s.Exit(c, now, timeInState)
	}
}

func (s *FuncState[C, K]) DoStateAction(c *C, now Timestamp, timeInState time.Duration) {
	if s.Action != nil {
		s.Action(c, now, timeInState)
	}
}
