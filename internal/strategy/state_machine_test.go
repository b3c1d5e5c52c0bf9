package strategy

import "testing"

func TestStateMachineTransitions(t *testing.T) {
	sm := NewStateMachine()
	if sm.State != StateIdle {
		t.Fatalf("expected %s, got %s", StateIdle, sm.State)
	}
	steps := []struct {
		event Event
		want  State
	}{
		{EventCheck, StateChecking},
		{EventProfitable, StateProfitable},
		{EventExecute, StateExecuting},
		{EventConfirmed, StateConfirmed},
		{EventSleep, StateSleeping},
		{EventCheck, StateChecking},
		{EventNotProfitable, StateNotProfitable},
		{EventSleep, StateSleeping},
		{EventCheck, StateChecking},
		{EventProfitable, StateProfitable},
		{EventExecute, StateExecuting},
		{EventFailed, StateFailed},
		{EventSleep, StateSleeping},
	}
	for i, step := range steps {
		if got := sm.Apply(step.event); got != step.want {
			t.Fatalf("step %d: %s expected %s, got %s", i, step.event, step.want, got)
		}
	}
}

func TestStateMachineInvalidTransition(t *testing.T) {
	sm := NewStateMachine()
	if sm.Apply(EventConfirmed) != StateIdle {
		t.Fatalf("invalid transition should not change state")
	}
	sm.Apply(EventCheck)
	if sm.Apply(EventExecute) != StateChecking {
		t.Fatalf("cannot execute before profitability is known")
	}
}

func TestStateMachineSkipReturnsToSleep(t *testing.T) {
	sm := NewStateMachine()
	sm.Apply(EventCheck)
	sm.Apply(EventProfitable)
	sm.Apply(EventExecute)
	if sm.Apply(EventSleep) != StateSleeping {
		t.Fatalf("expected skipped execution to sleep")
	}
}

func TestStateMachineStopIsTerminal(t *testing.T) {
	sm := NewStateMachine()
	sm.Apply(EventCheck)
	if sm.Apply(EventStop) != StateStopped {
		t.Fatalf("expected %s", StateStopped)
	}
	if sm.Apply(EventCheck) != StateStopped || sm.Current() != StateStopped {
		t.Fatalf("stopped must be terminal")
	}
}
