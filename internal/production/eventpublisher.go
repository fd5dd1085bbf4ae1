package production

import (
	"sync/atomic"
	"time"

	"github.com/comalice/tickfsm"
)

// RecordKind distinguishes published records.
type RecordKind string

const (
	RecordTransition RecordKind = "transition"
	RecordReset      RecordKind = "reset"
)

// Record is one published machine event.
type Record[K tickfsm.StateKey] struct {
	Machine     string
	Kind        RecordKind
	From        K
	To          K
	At          tickfsm.Timestamp
	TimeInState time.Duration
}

// ChannelPublisher forwards transitions and resets to a Go channel.
// Publishing never blocks the tick: records are dropped when the channel is
// full.
type ChannelPublisher[K tickfsm.StateKey] struct {
	machine string
	ch      chan<- Record[K]
	dropped atomic.Uint64
	closed  atomic.Bool
}

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
func NewChannelPublisher[K tickfsm.StateKey](machine string, ch chan<- Record[K]) *ChannelPublisher[K] {
	return &ChannelPublisher[K]{machine: machine, ch: ch}
}

func (p *ChannelPublisher[K]) OnTick(K, tickfsm.Timestamp, time.Duration) {}

func (p *ChannelPublisher[K]) OnTransition(t tickfsm.Transition[K]) {
	p.publish(Record[K]{
		Machine:     p.machine,
		Kind:        RecordTransition,
		From:        t.From,
		To:          t.To,
		At:          t.At,
		TimeInState: t.TimeInState,
	})
}

func (p *ChannelPublisher[K]) OnReset(from, initial K, now tickfsm.Timestamp) {
	p.publish(Record[K]{
		Machine: p.machine,
		Kind:    RecordReset,
		From:    from,
		To:      initial,
		At:      now,
	})
}

// Dropped returns the number of records lost to backpressure or after Close.
func (p *ChannelPublisher[K]) Dropped() uint64 {
	return p.dropped.Load()
}

// Close closes the output channel. It must not race with a running tick.
func (p *ChannelPublisher[K]) Close() error {
	if p.closed.CompareAndSwap(false, true) {
		close(p.ch)
	}
	return nil
}

func (p *ChannelPublisher[K]) publish(r Record[K]) {
	if p.closed.Load() {
		p.dropped.Add(1)
		return
	}
	select {
	case p.ch <- r:
	default:
		p.dropped.Add(1) // Non-blocking drop
	}
}
