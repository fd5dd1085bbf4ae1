// Package testutil provides helpers for running the same scenario against
// both engines and recording the hooks they invoke.
package testutil

import (
	"github.com/comalice/tickfsm"
	"github.com/comalice/tickfsm/bounded"
	"github.com/comalice/tickfsm/realtime"
)

// Engine is the setup and tick surface shared by the dynamic and bounded
// engines. The dynamic engine's tick and reset never fail.
type Engine[C any, K tickfsm.StateKey] interface {
	realtime.Engine[C, K]
	AddState(s tickfsm.State[C, K]) error
	AddTransitionCondition(from K, cond tickfsm.TransitionCondition[C, K]) error
	AddTransitionConditionBulk(from []K, cond tickfsm.TransitionCondition[C, K]) error
}

// Factory creates an Engine around an initial state.
type Factory[C any, K tickfsm.StateKey] struct {
	Name string
	New  func(initial tickfsm.State[C, K], opts ...tickfsm.Option[K]) (Engine[C, K], error)
}

// DynamicFactory builds tickfsm.Machine engines.
func DynamicFactory[C any, K tickfsm.StateKey]() Factory[C, K] {
	return Factory[C, K]{
		Name: "dynamic",
		New: func(initial tickfsm.State[C, K], opts ...tickfsm.Option[K]) (Engine[C, K], error) {
			return DynamicAdapter[C, K]{tickfsm.NewMachine(initial, opts...)}, nil
		},
	}
}

// BoundedFactory builds bounded.Machine engines with the given capacities.
func BoundedFactory[C any, K tickfsm.StateKey](maxStates, maxTransitionsPerState int) Factory[C, K] {
	return Factory[C, K]{
		Name: "bounded",
		New: func(initial tickfsm.State[C, K], opts ...tickfsm.Option[K]) (Engine[C, K], error) {
			m, err := bounded.New(initial, maxStates, maxTransitionsPerState, opts...)
			if err != nil {
				return nil, err
			}
			return m, nil
		},
	}
}

// Factories returns one factory per engine; the bounded one gets room for
// maxStates states with maxTransitionsPerState conditions each.
func Factories[C any, K tickfsm.StateKey](maxStates, maxTransitionsPerState int) []Factory[C, K] {
	return []Factory[C, K]{
		DynamicFactory[C, K](),
		BoundedFactory[C, K](maxStates, maxTransitionsPerState),
	}
}

// DynamicAdapter wraps the dynamic engine so its tick and reset match Engine.
type DynamicAdapter[C any, K tickfsm.StateKey] struct {
	*tickfsm.Machine[C, K]
}

func (a DynamicAdapter[C, K]) CheckTransitionAndDoAction(c *C, now tickfsm.Timestamp) error {
	a.Machine.CheckTransitionAndDoAction(c, now)
	return nil
}

func (a DynamicAdapter[C, K]) Reset(c *C, now tickfsm.Timestamp) error {
	a.Machine.Reset(c, now)
	return nil
}
