package tickfsm

import (
	"errors"
	"fmt"
)

var (
	// ErrStateAlreadyRegistered is returned by AddState for a duplicate key.
	ErrStateAlreadyRegistered = errors.New("state already registered")
	// ErrTransitionStartStateNotRegistered is returned when a transition is
	// added for a source state the machine does not know.
	ErrTransitionStartStateNotRegistered = errors.New("transition start state not registered")
	// ErrStackBufferFull is returned by a bounded machine whose state
	// capacity is exhausted.
	ErrStackBufferFull = errors.New("state buffer full")
	// ErrStackAllocationError is returned by a bounded machine whose
	// per-state transition capacity is exhausted.
	ErrStackAllocationError = errors.New("transition buffer full")
	// ErrStateMissing signals a broken internal invariant: a key the tick
	// algorithm needs is absent from the state table.
	ErrStateMissing = errors.New("state missing from state table")
)

// KeyError ties one of the sentinel errors to the key that caused it.
type KeyError[K StateKey] struct {
	Err error
	Key K
}

// NewKeyError wraps err with key.
func NewKeyError[K StateKey](err error, key K) *KeyError[K] {
	return &KeyError[K]{Err: err, Key: key}
}

func (e *KeyError[K]) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Key.String())
}

func (e *KeyError[K]) Unwrap() error {
	return e.Err
}

// IsStateMissing reports whether err is an internal-invariant failure
// rather than a caller-facing setup error.
func IsStateMissing(err error) bool {
	return errors.Is(err, ErrStateMissing)
}

// IsCapacityError reports whether err was caused by a bounded machine
// running out of room.
func IsCapacityError(err error) bool {
	return errors.Is(err, ErrStackBufferFull) || errors.Is(err, ErrStackAllocationError)
}
