package main

import (
	"time"

	"github.com/comalice/tickfsm"
	"github.com/comalice/tickfsm/builder"
)

// Phase is the state key of the demo job machine.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseRunning Phase = "running"
	PhaseDone    Phase = "done"
)

func (p Phase) String() string { return string(p) }

// Job is the context the demo machine acts on.
type Job struct {
	Runs     int
	Progress int
	LastRun  time.Duration
}

type idleState struct {
	tickfsm.BaseState[Job, Phase]
}

func (s *idleState) OnEnter(j *Job, now tickfsm.Timestamp) {
	s.BaseState.OnEnter(j, now)
	j.Progress = 0
}

type runningState struct {
	tickfsm.BaseState[Job, Phase]
}

func (s *runningState) OnEnter(j *Job, now tickfsm.Timestamp) {
	s.BaseState.OnEnter(j, now)
	j.Runs++
}

func (s *runningState) DoStateAction(j *Job, now tickfsm.Timestamp, timeInState time.Duration) {
	s.BaseState.DoStateAction(j, now, timeInState)
	j.Progress++
}

func (s *runningState) OnExit(j *Job, now tickfsm.Timestamp, timeInState time.Duration) {
	s.BaseState.OnExit(j, now, timeInState)
	j.LastRun = timeInState
}

// registrar is the setup surface both engines share.
type registrar interface {
	AddState(s tickfsm.State[Job, Phase]) error
	AddTransitionCondition(from Phase, cond tickfsm.TransitionCondition[Job, Phase]) error
}

// register adds running and done to r, whose initial state is idle:
//
//	idle --(idleTimeout)--> running --(request done)--> done --(idleTimeout)--> idle
//
// A request for idle aborts a running job.
func register(r registrar, tracer tickfsm.Tracer, idleTimeout time.Duration) error {
	states := []tickfsm.State[Job, Phase]{
		&runningState{tickfsm.NewBaseState[Job](PhaseRunning, tracer)},
		&tickfsm.BaseState[Job, Phase]{StateKey: PhaseDone, Tracer: tracer},
	}
	for _, s := range states {
		if err := r.AddState(s); err != nil {
			return err
		}
	}

	transitions := []struct {
		from Phase
		cond tickfsm.TransitionCondition[Job, Phase]
	}{
		{PhaseIdle, builder.After[Job](idleTimeout, PhaseRunning)},
		{PhaseRunning, builder.Any[Job, Phase](
			builder.OnRequest[Job](PhaseDone),
			builder.OnRequest[Job](PhaseIdle),
		)},
		{PhaseDone, builder.After[Job](idleTimeout, PhaseIdle)},
	}
	for _, t := range transitions {
		if err := r.AddTransitionCondition(t.from, t.cond); err != nil {
			return err
		}
	}
	return nil
}
