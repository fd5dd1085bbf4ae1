// Package bounded provides the fixed-capacity engine for targets where
// tick-time allocation is unavailable or undesirable.
//
// Capacities are fixed by New: the state table and every per-state
// transition list are allocated there and never grow, so only setup calls
// can fail on capacity. States are borrowed: the machine stores the State
// value it is given (normally a pointer to a caller-owned struct) and the
// caller keeps that object alive and unshared for as long as the machine is
// in use.
//
// The tick algorithm is the one of tickfsm.Machine. Where the dynamic
// engine panics on a broken invariant, this one returns an error wrapping
// tickfsm.ErrStateMissing.
package bounded

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/comalice/tickfsm"
	"github.com/comalice/tickfsm/internal/fixedmap"
)

type entry[C any, K tickfsm.StateKey] struct {
	state       tickfsm.State[C, K]
	transitions fixedmap.Vec[tickfsm.TransitionCondition[C, K]]
}

// Machine is the bounded engine. It is not safe for concurrent use and must
// not be re-entered from a hook or condition.
type Machine[C any, K tickfsm.StateKey] struct {
	initial   K
	current   K
	table     *fixedmap.IndexMap[K, entry[C, K]]
	lists     []fixedmap.Vec[tickfsm.TransitionCondition[C, K]]
	startTime tickfsm.Timestamp
	firstTick bool
	requested tickfsm.Request[K]

	log      *zap.Logger
	observer tickfsm.Observer[K]
}

// New creates a machine for at most maxStates states with at most
// maxTransitionsPerState conditions each, and registers initial.
func New[C any, K tickfsm.StateKey](
	initial tickfsm.State[C, K],
	maxStates, maxTransitionsPerState int,
	opts ...tickfsm.Option[K],
) (*Machine[C, K], error) {
	if maxStates < 1 || maxTransitionsPerState < 0 {
		return nil, fmt.Errorf("bounded: invalid capacity (states=%d, transitions per state=%d): %w",
			maxStates, maxTransitionsPerState, tickfsm.ErrStackBufferFull)
	}

	settings := tickfsm.ApplyOptions(opts...)
	hash := settings.Hasher
	if hash == nil {
		hash = fixedmap.StringHash[K]
	}

	key := initial.Key()
	m := &Machine[C, K]{
		initial:   key,
		current:   key,
		table:     fixedmap.New[K, entry[C, K]](maxStates, hash),
		lists:     fixedmap.Pool[tickfsm.TransitionCondition[C, K]](maxStates, maxTransitionsPerState),
		firstTick: true,
		log:       settings.Logger,
		observer:  settings.Observer,
	}
	if err := m.AddState(initial); err != nil {
		return nil, fmt.Errorf("bounded: register initial state: %w", err)
	}
	return m, nil
}

// AddState registers s. It fails with ErrStateAlreadyRegistered for a known
// key and ErrStackBufferFull when the state table is full.
func (m *Machine[C, K]) AddState(s tickfsm.State[C, K]) error {
	key := s.Key()
	if m.table.Contains(key) {
		return tickfsm.NewKeyError(tickfsm.ErrStateAlreadyRegistered, key)
	}
	if m.table.Len() == m.table.Cap() {
		return tickfsm.NewKeyError(tickfsm.ErrStackBufferFull, key)
	}
	if _, err := m.table.Insert(key, entry[C, K]{state: s, transitions: m.lists[m.table.Len()]}); err != nil {
		return tickfsm.NewKeyError(tickfsm.ErrStackBufferFull, key)
	}
	return nil
}

// AddTransitionCondition appends cond to the conditions of from. It fails
// with ErrTransitionStartStateNotRegistered for an unknown key and
// ErrStackAllocationError when from already holds the maximum number of
// conditions.
func (m *Machine[C, K]) AddTransitionCondition(from K, cond tickfsm.TransitionCondition[C, K]) error {
	e := m.table.Ptr(from)
	if e == nil {
		return tickfsm.NewKeyError(tickfsm.ErrTransitionStartStateNotRegistered, from)
	}
	if err := e.transitions.Push(cond); err != nil {
		return tickfsm.NewKeyError(tickfsm.ErrStackAllocationError, from)
	}
	return nil
}

// AddTransitionConditionBulk adds cond for every key in from. It stops at
// the first error and keeps the conditions already added.
func (m *Machine[C, K]) AddTransitionConditionBulk(from []K, cond tickfsm.TransitionCondition[C, K]) error {
	for _, key := range from {
		if err := m.AddTransitionCondition(key, cond); err != nil {
			return err
		}
	}
	return nil
}

// RequestTransitionFromUser stores key for the next tick, replacing any
// unconsumed request.
func (m *Machine[C, K]) RequestTransitionFromUser(key K) {
	m.requested = tickfsm.RequestFor(key)
}

// Reset exits the current state and makes the initial state current again,
// deferring its OnEnter to the next tick. The machine is left unchanged if
// the current state cannot be found.
func (m *Machine[C, K]) Reset(c *C, now tickfsm.Timestamp) error {
	e := m.table.Ptr(m.current)
	if e == nil {
		return tickfsm.NewKeyError(tickfsm.ErrStateMissing, m.current)
	}
	from := m.current
	e.state.OnExit(c, now, m.elapsed(now))

	m.startTime = now
	m.current = m.initial
	m.firstTick = true

	if ce := m.log.Check(zap.DebugLevel, "state machine reset"); ce != nil {
		ce.Write(zap.Stringer("from", from), zap.Stringer("initial", m.initial), zap.Uint64("now", uint64(now)))
	}
	m.observer.OnReset(from, m.initial, now)
	return nil
}

// CurrentState returns the key of the current state.
func (m *Machine[C, K]) CurrentState() K {
	return m.current
}

// InitialState returns the key the machine was created with.
func (m *Machine[C, K]) InitialState() K {
	return m.initial
}

// HasState reports whether key is registered.
func (m *Machine[C, K]) HasState(key K) bool {
	return m.table.Contains(key)
}

// Len returns the number of registered states.
func (m *Machine[C, K]) Len() int { return m.table.Len() }

// Cap returns the maximum number of states.
func (m *Machine[C, K]) Cap() int { return m.table.Cap() }

// CheckTransitionAndDoAction runs one tick at now with the semantics of
// tickfsm.Machine.CheckTransitionAndDoAction. A condition naming an
// unregistered destination yields an error wrapping ErrStateMissing; it is
// reported before the current state's OnExit, so the machine stays in the
// current state.
func (m *Machine[C, K]) CheckTransitionAndDoAction(c *C, now tickfsm.Timestamp) error {
	current := m.table.Ptr(m.current)
	if current == nil {
		return tickfsm.NewKeyError(tickfsm.ErrStateMissing, m.current)
	}
	timeInState := m.elapsed(now)

	if m.firstTick {
		current.state.OnEnter(c, now)
		m.firstTick = false
	}

	requested := m.requested
	m.requested = tickfsm.Request[K]{}

	for _, cond := range current.transitions.Items() {
		next, ok := cond(c, requested, timeInState)
		if !ok {
			continue
		}

		target := m.table.Ptr(next)
		if target == nil {
			return tickfsm.NewKeyError(tickfsm.ErrStateMissing, next)
		}
		t := tickfsm.Transition[K]{From: m.current, To: next, At: now, TimeInState: timeInState}

		current.state.OnExit(c, now, timeInState)
		m.startTime = now
		m.current = next
		timeInState = 0
		current = target
		current.state.OnEnter(c, now)

		if ce := m.log.Check(zap.DebugLevel, "state transition"); ce != nil {
			ce.Write(zap.Stringer("from", t.From), zap.Stringer("to", t.To), zap.Duration("time_in_state", t.TimeInState))
		}
		m.observer.OnTransition(t)
		break
	}

	current.state.DoStateAction(c, now, timeInState)
	m.observer.OnTick(m.current, now, timeInState)
	return nil
}

func (m *Machine[C, K]) elapsed(now tickfsm.Timestamp) time.Duration {
	if now < m.startTime {
		if ce := m.log.Check(zap.WarnLevel, "timestamp went backwards, clamping time in state to zero"); ce != nil {
			ce.Write(zap.Uint64("now", uint64(now)), zap.Uint64("state_start", uint64(m.startTime)))
		}
	}
	return now.Since(m.startTime)
}
