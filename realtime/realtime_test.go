package realtime

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/comalice/tickfsm"
	"github.com/comalice/tickfsm/bounded"
)

type key string

func (k key) String() string { return string(k) }

const (
	idle    key = "idle"
	running key = "running"
	done    key = "done"
)

type motor struct {
	rpm     int
	actions int
}

func newMachine(t *testing.T) *tickfsm.Machine[motor, key] {
	t.Helper()
	action := func(m *motor, _ tickfsm.Timestamp, _ time.Duration) { m.actions++ }
	m, err := tickfsm.NewBuilder[motor, key](&tickfsm.FuncState[motor, key]{ID: idle, Action: action}).
		State(
			&tickfsm.FuncState[motor, key]{ID: running, Action: action},
			&tickfsm.FuncState[motor, key]{ID: done, Action: action},
		).
		Transition(idle, func(_ *motor, _ tickfsm.Request[key], d time.Duration) (key, bool) {
			return running, d >= time.Second
		}).
		Transition(running, func(_ *motor, r tickfsm.Request[key], _ time.Duration) (key, bool) {
			return done, r.Is(done)
		}).
		Build()
	require.NoError(t, err)
	return m
}

func broken(t *testing.T) *bounded.Machine[motor, key] {
	t.Helper()
	m, err := bounded.New[motor, key](&tickfsm.FuncState[motor, key]{ID: idle}, 1, 1)
	require.NoError(t, err)
	require.NoError(t, m.AddTransitionCondition(idle, func(*motor, tickfsm.Request[key], time.Duration) (key, bool) {
		return "nowhere", true
	}))
	return m
}

func TestNewDriverDefaults(t *testing.T) {
	d := NewDriver(Dynamic(newMachine(t)), &motor{}, Config{})

	_, err := uuid.Parse(d.Name())
	assert.NoError(t, err, "default name should be a UUID")
	assert.Equal(t, 10*time.Millisecond, d.tickRate)
	assert.IsType(t, &MonotonicClock{}, d.clock)

	named := NewDriver(Dynamic(newMachine(t)), &motor{}, Config{Name: "pump"})
	assert.Equal(t, "pump", named.Name())
}

func TestDriverStep(t *testing.T) {
	clock := &ManualClock{}
	var m motor
	d := NewDriver(Dynamic(newMachine(t)), &m, Config{Clock: clock})

	require.NoError(t, d.Step())
	assert.Equal(t, idle, d.CurrentState())

	clock.Advance(time.Second)
	require.NoError(t, d.Step())
	assert.Equal(t, running, d.CurrentState())

	d.Request(done)
	clock.Advance(time.Millisecond)
	require.NoError(t, d.Step())
	assert.Equal(t, done, d.CurrentState())

	assert.Equal(t, uint64(3), d.TickNumber())
	assert.Zero(t, d.Failures())
	d.Do(func(m *motor) { assert.Equal(t, 3, m.actions) })
}

func TestDriverReset(t *testing.T) {
	clock := &ManualClock{}
	d := NewDriver(Dynamic(newMachine(t)), &motor{}, Config{Clock: clock})

	require.NoError(t, d.Step())
	clock.Set(tickfsm.FromDuration(2 * time.Second))
	require.NoError(t, d.Step())
	require.Equal(t, running, d.CurrentState())

	require.NoError(t, d.Reset())
	assert.Equal(t, idle, d.CurrentState())

	// Time in state restarts at the reset.
	clock.Advance(500 * time.Millisecond)
	require.NoError(t, d.Step())
	assert.Equal(t, idle, d.CurrentState())
}

func TestDriverStepRecoversPanic(t *testing.T) {
	m := tickfsm.NewMachine[motor, key](&tickfsm.FuncState[motor, key]{ID: idle})
	require.NoError(t, m.AddTransitionCondition(idle, func(*motor, tickfsm.Request[key], time.Duration) (key, bool) {
		return "nowhere", true
	}))
	d := NewDriver(Dynamic(m), &motor{}, Config{Clock: &ManualClock{}})

	err := d.Step()
	require.ErrorIs(t, err, ErrTickPanic)
	assert.True(t, tickfsm.IsStateMissing(err))
	assert.Equal(t, uint64(1), d.TickNumber())
	assert.Equal(t, uint64(1), d.Failures())

	// The driver lock was released.
	d.Request(done)
}

func TestDriverRecoversNonErrorPanic(t *testing.T) {
	m := tickfsm.NewMachine[motor, key](&tickfsm.FuncState[motor, key]{
		ID:    idle,
		Enter: func(*motor, tickfsm.Timestamp) { panic("sensor offline") },
	})
	d := NewDriver(Dynamic(m), &motor{}, Config{Clock: &ManualClock{}})

	err := d.Step()
	require.ErrorIs(t, err, ErrTickPanic)
	assert.Contains(t, err.Error(), "sensor offline")
}

func TestDriverBoundedError(t *testing.T) {
	d := NewDriver[motor, key](broken(t), &motor{}, Config{Clock: &ManualClock{}})

	err := d.Step()
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTickPanic), "bounded engines report errors without panicking")
	assert.True(t, tickfsm.IsStateMissing(err))
	assert.Equal(t, uint64(1), d.Failures())
}

func TestDriverStartStop(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	d := NewDriver(Dynamic(newMachine(t)), &motor{}, Config{
		TickRate: time.Millisecond,
		Logger:   zap.New(core),
	})

	ctx := context.Background()
	require.NoError(t, d.Start(ctx))
	assert.ErrorIs(t, d.Start(ctx), ErrAlreadyStarted)

	require.Eventually(t, func() bool { return d.TickNumber() >= 3 }, time.Second, time.Millisecond)

	require.NoError(t, d.Stop())
	stopped := d.TickNumber()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, stopped, d.TickNumber(), "no ticks after Stop")
	assert.NoError(t, d.Stop(), "Stop is idempotent")

	assert.Equal(t, 1, logs.FilterMessage("driver started").Len())
	assert.Equal(t, 1, logs.FilterMessage("driver stopped").Len())

	// A stopped driver can be started again.
	require.NoError(t, d.Start(ctx))
	require.NoError(t, d.Stop())
}

func TestDriverStopsWithContext(t *testing.T) {
	d := NewDriver(Dynamic(newMachine(t)), &motor{}, Config{TickRate: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.Start(ctx))
	require.Eventually(t, func() bool { return d.TickNumber() > 0 }, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, d.Stop())
}

func TestDriverOnError(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	var failures atomic.Int32

	d := NewDriver[motor, key](broken(t), &motor{}, Config{
		TickRate: time.Millisecond,
		Logger:   zap.New(core),
		OnError: func(err error) {
			if tickfsm.IsStateMissing(err) {
				failures.Add(1)
			}
		},
	})

	require.NoError(t, d.Start(context.Background()))
	require.Eventually(t, func() bool { return failures.Load() >= 2 }, time.Second, time.Millisecond)
	require.NoError(t, d.Stop())

	assert.GreaterOrEqual(t, logs.FilterMessage("tick failed").Len(), 2)
	assert.Equal(t, d.TickNumber(), d.Failures())
}

func TestDriverConcurrentRequest(t *testing.T) {
	d := NewDriver(Dynamic(newMachine(t)), &motor{}, Config{TickRate: time.Millisecond})
	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()

	d.Do(func(m *motor) { m.rpm = 1200 })
	require.NoError(t, d.Reset())

	// idle hands over to running after one second of wall time.
	require.Eventually(t, func() bool { return d.CurrentState() == running }, 3*time.Second, 5*time.Millisecond)

	go d.Request(done)
	require.Eventually(t, func() bool { return d.CurrentState() == done }, time.Second, time.Millisecond)

	d.Do(func(m *motor) {
		assert.Equal(t, 1200, m.rpm)
		assert.Positive(t, m.actions)
	})
}

func TestClocks(t *testing.T) {
	var c ManualClock
	c.Set(5)
	c.Advance(10 * time.Nanosecond)
	assert.Equal(t, tickfsm.Timestamp(15), c.Now())

	f := ClockFunc(func() tickfsm.Timestamp { return 42 })
	assert.Equal(t, tickfsm.Timestamp(42), f.Now())

	mono := NewMonotonicClock()
	a := mono.Now()
	time.Sleep(time.Millisecond)
	assert.Greater(t, mono.Now(), a)
}
