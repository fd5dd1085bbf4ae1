package tickfsm_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/comalice/tickfsm"
)

func TestBuilderTrafficLight(t *testing.T) {
	const (
		green  key = "green"
		yellow key = "yellow"
		red    key = "red"
	)
	after := func(d time.Duration, to key) TransitionCondition[robot, key] {
		return func(_ *robot, _ Request[key], in time.Duration) (key, bool) {
			return to, in >= d
		}
	}

	m, err := NewBuilder[robot, key](trackedState(green)).
		State(trackedState(yellow), trackedState(red)).
		Transition(green, after(3*time.Second, yellow)).
		Transition(yellow, after(time.Second, red)).
		Transition(red, after(2*time.Second, green)).
		Build()
	require.NoError(t, err)

	var r robot
	var now time.Duration
	tick := func(d time.Duration) key {
		now += d
		m.CheckTransitionAndDoAction(&r, FromDuration(now))
		return m.CurrentState()
	}

	assert.Equal(t, green, tick(0))
	assert.Equal(t, green, tick(2*time.Second))
	assert.Equal(t, yellow, tick(time.Second))
	assert.Equal(t, red, tick(time.Second))
	assert.Equal(t, green, tick(2*time.Second))
	assert.Equal(t, []key{green, yellow, red, green}, r.entered)
}

func TestBuilderCollectsErrors(t *testing.T) {
	noop := func(*robot, Request[key], time.Duration) (key, bool) { return "", false }

	m, err := NewBuilder[robot, key](trackedState(idle)).
		State(trackedState(running), trackedState(running)).
		TransitionFrom([]key{"a", idle, "b"}, noop).
		Build()

	require.Error(t, err)
	assert.Nil(t, m)
	assert.ErrorIs(t, err, ErrStateAlreadyRegistered)
	assert.ErrorIs(t, err, ErrTransitionStartStateNotRegistered)
	assert.Contains(t, err.Error(), `"a"`)
	assert.Contains(t, err.Error(), `"b"`)

	var joined interface{ Unwrap() []error }
	require.True(t, errors.As(err, &joined))
	assert.Len(t, joined.Unwrap(), 3)
}

func TestFuncStateNilHooks(t *testing.T) {
	s := &FuncState[robot, key]{ID: idle}
	var r robot
	s.OnEnter(&r, 0)
	s.DoStateAction(&r, 0, 0)
	s.OnExit(&r, 0, 0)
	assert.Equal(t, idle, s.Key())
}
