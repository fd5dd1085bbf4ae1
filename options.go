package tickfsm

import (
	"go.uber.org/zap"
)

// Settings holds the optional collaborators of a machine. Both the dynamic
// Machine and the bounded machine are configured through it.
type Settings[K StateKey] struct {
	Logger   *zap.Logger
	Observer Observer[K]
	// Hasher replaces the key hash of fixed-capacity storage. Machines
	// backed by Go maps ignore it.
	Hasher func(K) uint64
}

// Option applies configuration to a machine via the functional options pattern.
type Option[K StateKey] func(*Settings[K])

// WithLogger configures the machine with a zap logger for transition and
// reset diagnostics.
func WithLogger[K StateKey](log *zap.Logger) Option[K] {
	return func(s *Settings[K]) {
		if log != nil {
			s.Logger = log
		}
	}
}

// WithObserver configures the machine with an Observer. Several calls
// accumulate observers in order.
func WithObserver[K StateKey](o Observer[K]) Option[K] {
	return func(s *Settings[K]) {
		if o == nil {
			return
		}
		if s.Observer == nil {
			s.Observer = o
			return
		}
		s.Observer = Observers(s.Observer, o)
	}
}

// WithHasher configures the key hash used by fixed-capacity storage.
func WithHasher[K StateKey](h func(K) uint64) Option[K] {
	return func(s *Settings[K]) {
		s.Hasher = h
	}
}

// ApplyOptions resolves opts into Settings with defaults filled in.
func ApplyOptions[K StateKey](opts ...Option[K]) Settings[K] {
	s := Settings[K]{}
	for _, opt := range opts {
		opt(&s)
	}
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	if s.Observer == nil {
		s.Observer = NopObserver[K]{}
	}
	return s
}
