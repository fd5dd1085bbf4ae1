// Package builder provides reusable transition conditions.
package builder

import (
	"time"

	"github.com/comalice/tickfsm"
)

// Condition shortcut
type Condition[C any, K tickfsm.StateKey] = tickfsm.TransitionCondition[C, K]

// After fires to once the current state has been active for at least d.
func After[C any, K tickfsm.StateKey](d time.Duration, to K) Condition[C, K] {
	return func(_ *C, _ tickfsm.Request[K], timeInState time.Duration) (K, bool) {
		if timeInState >= d {
			return to, true
		}
		var zero K
		return zero, false
	}
}

// OnRequest fires to when the consumed user request equals to.
func OnRequest[C any, K tickfsm.StateKey](to K) Condition[C, K] {
	return func(_ *C, requested tickfsm.Request[K], _ time.Duration) (K, bool) {
		if requested.Is(to) {
			return to, true
		}
		var zero K
		return zero, false
	}
}

// AnyRequest fires to whatever key the user requested.
func AnyRequest[C any, K tickfsm.StateKey]() Condition[C, K] {
	return func(_ *C, requested tickfsm.Request[K], _ time.Duration) (K, bool) {
		return requested.Key()
	}
}

// When fires to when pred holds for the context.
func When[C any, K tickfsm.StateKey](pred func(c *C) bool, to K) Condition[C, K] {
	return func(c *C, _ tickfsm.Request[K], _ time.Duration) (K, bool) {
		if pred(c) {
			return to, true
		}
		var zero K
		return zero, false
	}
}

// Any returns the result of the first condition that fires. Conditions
// after it are not evaluated.
func Any[C any, K tickfsm.StateKey](conds ...Condition[C, K]) Condition[C, K] {
	return func(c *C, requested tickfsm.Request[K], timeInState time.Duration) (K, bool) {
		for _, cond := range conds {
			if next, ok := cond(c, requested, timeInState); ok {
				return next, true
			}
		}
		var zero K
		return zero, false
	}
}

// Guard wraps cond so it only runs while pred holds.
func Guard[C any, K tickfsm.StateKey](pred func(c *C) bool, cond Condition[C, K]) Condition[C, K] {
	return func(c *C, requested tickfsm.Request[K], timeInState time.Duration) (K, bool) {
		if !pred(c) {
			var zero K
			return zero, false
		}
		return cond(c, requested, timeInState)
	}
}
