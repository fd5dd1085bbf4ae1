package production

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/comalice/tickfsm"
)

type key string

func (k key) String() string { return string(k) }

const (
	idle    key = "idle"
	running key = "running"
	done    key = "done"
)

type light struct{}

// drive runs the idle -> running -> done scenario through a machine
// observed by obs and finishes with a reset.
func drive(t *testing.T, obs tickfsm.Observer[key]) {
	t.Helper()

	m := tickfsm.NewMachine[light, key](&tickfsm.FuncState[light, key]{ID: idle}, tickfsm.WithObserver(obs))
	require.NoError(t, m.AddState(&tickfsm.FuncState[light, key]{ID: running}))
	require.NoError(t, m.AddState(&tickfsm.FuncState[light, key]{ID: done}))
	require.NoError(t, m.AddTransitionCondition(idle, func(_ *light, _ tickfsm.Request[key], d time.Duration) (key, bool) {
		return running, d >= time.Second
	}))
	require.NoError(t, m.AddTransitionCondition(running, func(_ *light, r tickfsm.Request[key], _ time.Duration) (key, bool) {
		return done, r.Is(done)
	}))

	var l light
	m.CheckTransitionAndDoAction(&l, 0)
	m.CheckTransitionAndDoAction(&l, 1_200_000_000)
	m.RequestTransitionFromUser(done)
	m.CheckTransitionAndDoAction(&l, 1_300_000_000)
	m.Reset(&l, 1_400_000_000)
}
