package strategy

type State string

type Event string

const (
	StateIdle          State = "IDLE"
	StateChecking      State = "CHECKING"
	StateNotProfitable State = "NOT_PROFITABLE"
	StateProfitable    State = "PROFITABLE"
	StateExecuting     State = "EXECUTING"
	StateConfirmed     State = "CONFIRMED"
	StateFailed        State = "FAILED"
	StateSleeping      State = "SLEEPING"
	StateStopped       State = "STOPPED"
)

const (
	EventCheck         Event = "CHECK"
	EventNotProfitable Event = "NOT_PROFITABLE"
	EventProfitable    Event = "PROFITABLE"
	EventExecute       Event = "EXECUTE"
	EventConfirmed     Event = "CONFIRMED"
	EventFailed        Event = "FAILED"
	EventSleep         Event = "SLEEP"
	EventStop          Event = "STOP"
)
