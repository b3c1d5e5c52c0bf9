package strategy

import "sync"

type StateMachine struct {
	mu    sync.Mutex
	State State
}

func NewStateMachine() *StateMachine {
	return &StateMachine{State: StateIdle}
}

func (s *StateMachine) Apply(event Event) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State = nextState(s.State, event)
	return s.State
}

func (s *StateMachine) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.State
}

// Stop is accepted from every state except Stopped itself, which is
// terminal. Unknown transitions leave the state unchanged.
func nextState(current State, event Event) State {
	if current == StateStopped {
		return current
	}
	if event == EventStop {
		return StateStopped
	}
	switch current {
	case StateIdle, StateSleeping:
		if event == EventCheck {
			return StateChecking
		}
	case StateChecking:
		switch event {
		case EventNotProfitable:
			return StateNotProfitable
		case EventProfitable:
			return StateProfitable
		case EventFailed:
			return StateFailed
		}
	case StateProfitable:
		switch event {
		case EventExecute:
			return StateExecuting
		case EventFailed:
			return StateFailed
		}
	case StateExecuting:
		switch event {
		case EventConfirmed:
			return StateConfirmed
		case EventFailed:
			return StateFailed
		case EventSleep:
			// gas price ceiling skip
			return StateSleeping
		}
	case StateNotProfitable, StateConfirmed, StateFailed:
		if event == EventSleep {
			return StateSleeping
		}
	}
	return current
}
