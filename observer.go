package tickfsm

import "time"

// Transition describes one state change performed by a tick.
type Transition[K StateKey] struct {
	From        K
	To          K
	At          Timestamp
	TimeInState time.Duration // time spent in From
}

// Observer is notified by a machine as it runs. Callbacks happen
// synchronously inside the tick and must not call back into the machine.
type Observer[K StateKey] interface {
	// OnTick runs at the end of every tick with the state whose action ran.
	OnTick(current K, now Timestamp, timeInState time.Duration)
	// OnTransition runs after the new state's OnEnter.
	OnTransition(t Transition[K])
	// OnReset runs after a reset returned the machine to initial.
	OnReset(from, initial K, now Timestamp)
}

type observers[K StateKey] []Observer[K]

// Observers fans one set of notifications out to several observers in order.
func Observers[K StateKey](obs ...Observer[K]) Observer[K] {
	return observers[K](obs)
}

func (o observers[K]) OnTick(current K, now Timestamp, timeInState time.Duration) {
	for _, ob := range o {
		ob.OnTick(current, now, timeInState)
	}
}

func (o observers[K]) OnTransition(t Transition[K]) {
	for _, ob := range o {
		ob.OnTransition(t)
	}
}

func (o observers[K]) OnReset(from, initial K, now Timestamp) {
	for _, ob := range o {
		ob.OnReset(from, initial, now)
	}
}

// NopObserver ignores every notification.
type NopObserver[K StateKey] struct{}

func (NopObserver[K]) OnTick(K, Timestamp, time.Duration) {}
func (NopObserver[K]) OnTransition(Transition[K])         {}
func (NopObserver[K]) OnReset(K, K, Timestamp)            {}
