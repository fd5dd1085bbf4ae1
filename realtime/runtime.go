package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/comalice/tickfsm"
)

var (
	// ErrAlreadyStarted is returned by Start on a running driver.
	ErrAlreadyStarted = errors.New("driver already started")
	// ErrTickPanic wraps a panic recovered from a tick or reset.
	ErrTickPanic = errors.New("panic during tick")
)

// Config configures a Driver.
type Config struct {
	Name     string        // instance name used in logs; a UUID when empty
	TickRate time.Duration // fixed tick rate (default 10ms)
	Clock    Clock         // default NewMonotonicClock()
	Logger   *zap.Logger   // default zap.NewNop()
	// OnError is called from the tick loop, without the driver lock held,
	// for every failed tick. It must not call Stop.
	OnError func(error)
}

// Driver runs an Engine at a fixed tick rate and is the synchronisation
// point for everything else that touches the engine or its context.
type Driver[C any, K tickfsm.StateKey] struct {
	name     string
	engine   Engine[C, K]
	data     *C
	clock    Clock
	tickRate time.Duration
	log      *zap.Logger
	onError  func(error)

	mu       sync.Mutex
	tickNum  uint64
	failures uint64

	runMu   sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewDriver creates a driver for engine acting on data.
func NewDriver[C any, K tickfsm.StateKey](engine Engine[C, K], data *C, cfg Config) *Driver[C, K] {
	if cfg.Name == "" {
		cfg.Name = uuid.NewString()
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = 10 * time.Millisecond
	}
	if cfg.Clock == nil {
		cfg.Clock = NewMonotonicClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Driver[C, K]{
		name:     cfg.Name,
		engine:   engine,
		data:     data,
		clock:    cfg.Clock,
		tickRate: cfg.TickRate,
		log:      cfg.Logger.With(zap.String("machine", cfg.Name)),
		onError:  cfg.OnError,
	}
}

// Name returns the driver's instance name.
func (d *Driver[C, K]) Name() string {
	return d.name
}

// Start begins ticking until ctx is cancelled or Stop is called.
func (d *Driver[C, K]) Start(ctx context.Context) error {
	d.runMu.Lock()
	defer d.runMu.Unlock()

	if d.cancel != nil {
		return ErrAlreadyStarted
	}

	tickCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.stopped = make(chan struct{})

	d.log.Info("driver started", zap.Duration("tick_rate", d.tickRate))
	go d.tickLoop(tickCtx, d.stopped)
	return nil
}

// Stop halts the tick loop and waits for the running tick to finish. It is
// safe to call on a driver that was never started.
func (d *Driver[C, K]) Stop() error {
	d.runMu.Lock()
	defer d.runMu.Unlock()

	if d.cancel == nil {
		return nil
	}
	d.cancel()
	<-d.stopped
	d.cancel = nil
	d.log.Info("driver stopped", zap.Uint64("ticks", d.TickNumber()))
	return nil
}

// Request forwards a user transition request to the engine. It is consumed
// by the next tick.
func (d *Driver[C, K]) Request(key K) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.engine.RequestTransitionFromUser(key)
}

// Reset returns the engine to its initial state at the current clock reading.
func (d *Driver[C, K]) Reset() (err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	defer d.recoverInto(&err)
	return d.engine.Reset(d.data, d.clock.Now())
}

// Do runs f with exclusive access to the context.
func (d *Driver[C, K]) Do(f func(c *C)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	f(d.data)
}

// CurrentState returns the engine's current state.
func (d *Driver[C, K]) CurrentState() K {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.CurrentState()
}

// TickNumber returns the number of ticks run so far, failed ones included.
func (d *Driver[C, K]) TickNumber() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tickNum
}

// Failures returns the number of ticks that returned an error or panicked.
func (d *Driver[C, K]) Failures() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.failures
}
