package tickfsm

import (
	"time"

	"go.uber.org/zap"
)

// Machine is the dynamically allocated engine. It owns its states and keeps
// growable per-state transition lists.
//
// A Machine is not safe for concurrent use and must not be re-entered from
// a State hook or TransitionCondition. See the realtime package for a
// driver that serialises access.
type Machine[C any, K StateKey] struct {
	initial     K
	current     K
	states      map[K]State[C, K]
	transitions map[K][]TransitionCondition[C, K]
	startTime   Timestamp
	firstTick   bool
	requested   Request[K]

	log      *zap.Logger
	observer Observer[K]
}

// NewMachine creates a machine whose only registered state is initial.
// The first tick will run initial's OnEnter.
func NewMachine[C any, K StateKey](initial State[C, K], opts ...Option[K]) *Machine[C, K] {
	settings := ApplyOptions(opts...)
	key := initial.Key()

	return &Machine[C, K]{
		initial:     key,
		current:     key,
		states:      map[K]State[C, K]{key: initial},
		transitions: make(map[K][]TransitionCondition[C, K]),
		firstTick:   true,
		log:         settings.Logger,
		observer:    settings.Observer,
	}
}

// AddState registers s. A state already registered under the same key is
// left untouched and ErrStateAlreadyRegistered is returned.
func (m *Machine[C, K]) AddState(s State[C, K]) error {
	key := s.Key()
	if _, exists := m.states[key]; exists {
		return NewKeyError(ErrStateAlreadyRegistered, key)
	}
	m.states[key] = s
	return nil
}

// AddTransitionCondition appends cond to the conditions evaluated while from
// is current. Conditions fire in the order they were added.
func (m *Machine[C, K]) AddTransitionCondition(from K, cond TransitionCondition[C, K]) error {
	if _, exists := m.states[from]; !exists {
		return NewKeyError(ErrTransitionStartStateNotRegistered, from)
	}
	list, ok := m.transitions[from]
	if !ok {
		list = make([]TransitionCondition[C, K], 0, 4)
	}
	m.transitions[from] = append(list, cond)
	return nil
}

// AddTransitionConditionBulk adds cond for every key in from, in order. It is
// not atomic: on the first error it stops and keeps what was already added.
func (m *Machine[C, K]) AddTransitionConditionBulk(from []K, cond TransitionCondition[C, K]) error {
	for _, key := range from {
		if err := m.AddTransitionCondition(key, cond); err != nil {
			return err
		}
	}
	return nil
}

// RequestTransitionFromUser stores key for the next tick, replacing any
// request that has not been consumed yet.
func (m *Machine[C, K]) RequestTransitionFromUser(key K) {
	m.requested = RequestFor(key)
}

// Reset exits the current state and makes the initial state current again.
// The initial state's OnEnter is deferred to the next tick.
func (m *Machine[C, K]) Reset(c *C, now Timestamp) {
	from := m.current
	m.mustState(from).OnExit(c, now, m.elapsed(now))

	m.startTime = now
	m.current = m.initial
	m.firstTick = true

	m.log.Debug("state machine reset",
		zap.Stringer("from", from),
		zap.Stringer("initial", m.initial),
		zap.Uint64("now", uint64(now)))
	m.observer.OnReset(from, m.initial, now)
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
	_, ok := m.states[key]
	return ok
}

// Len returns the number of registered states.
func (m *Machine[C, K]) Len() int {
	return len(m.states)
}

// CheckTransitionAndDoAction runs one tick at now:
//  1. the pending OnEnter of the current state, if any
//  2. the current state's conditions in registration order, taking the
//     first one that fires (at most one transition per tick)
//  3. DoStateAction of whichever state is current afterwards
//
// The pending user request is consumed whether or not a condition used it.
// A condition returning an unregistered key panics with a *KeyError
// wrapping ErrStateMissing before any hook runs for the transition.
func (m *Machine[C, K]) CheckTransitionAndDoAction(c *C, now Timestamp) {
	current := m.mustState(m.current)
	timeInState := m.elapsed(now)

	if m.firstTick {
		current.OnEnter(c, now)
		m.firstTick = false
	}

	requested := m.requested
	m.requested = Request[K]{}

	for _, cond := range m.transitions[m.current] {
		next, ok := cond(c, requested, timeInState)
		if !ok {
			continue
		}

		target := m.mustState(next)
		t := Transition[K]{From: m.current, To: next, At: now, TimeInState: timeInState}

		current.OnExit(c, now, timeInState)
		m.startTime = now
		m.current = next
		timeInState = 0
		current = target
		current.OnEnter(c, now)

		m.log.Debug("state transition",
			zap.Stringer("from", t.From),
			zap.Stringer("to", t.To),
			zap.Duration("time_in_state", t.TimeInState))
		m.observer.OnTransition(t)
		break
	}

	current.DoStateAction(c, now, timeInState)
	m.observer.OnTick(m.current, now, timeInState)
}

func (m *Machine[C, K]) mustState(key K) State[C, K] {
	s, ok := m.states[key]
	if !ok {
		panic(NewKeyError(ErrStateMissing, key))
	}
	return s
}

func (m *Machine[C, K]) elapsed(now Timestamp) time.Duration {
	if now < m.startTime {
		m.log.Warn("timestamp went backwards, clamping time in state to zero",
			zap.Uint64("now", uint64(now)),
			zap.Uint64("state_start", uint64(m.startTime)))
	}
	return now.Since(m.startTime)
}
