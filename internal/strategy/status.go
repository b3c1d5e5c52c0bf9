package strategy

import (
	"sync"
	"time"
)

// Status is one strategy's live counters. Each Status has its own lock so
// strategies never contend with each other.
type Status struct {
	mu        sync.RWMutex
	name      string
	running   bool
	ready     bool
	err       string
	state     State
	lastCheck time.Time
	success   uint64
	failure   uint64
	skipped   uint64
	lastTx    string
}

type Snapshot struct {
	Name         string    `json:"name"`
	Running      bool      `json:"running"`
	Ready        bool      `json:"ready"`
	Error        string    `json:"error,omitempty"`
	State        State     `json:"state"`
	LastCheck    time.Time `json:"last_check"`
	SuccessCount uint64    `json:"successful_arbs"`
	FailureCount uint64    `json:"failed_arbs"`
	SkippedCount uint64    `json:"skipped_arbs"`
	LastTxHash   string    `json:"last_tx_hash,omitempty"`
}

func NewStatus(name string) *Status {
	return &Status{name: name, ready: true, state: StateIdle}
}

// NotReady marks a strategy that could not start.
func NotReady(name string, err error) *Status {
	s := &Status{name: name, state: StateStopped}
	if err != nil {
		s.err = err.Error()
	}
	return s
}

func (s *Status) Name() string {
	return s.name
}

func (s *Status) SetRunning(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = running
}

func (s *Status) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *Status) MarkChecked(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCheck = at
}

func (s *Status) RecordSuccess(txHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.success++
	if txHash != "" {
		s.lastTx = txHash
	}
}

func (s *Status) RecordFailure(txHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure++
	if txHash != "" {
		s.lastTx = txHash
	}
}

func (s *Status) RecordSkip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped++
}

func (s *Status) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Name:         s.name,
		Running:      s.running,
		Ready:        s.ready,
		Error:        s.err,
		State:        s.state,
		LastCheck:    s.lastCheck,
		SuccessCount: s.success,
		FailureCount: s.failure,
		SkippedCount: s.skipped,
		LastTxHash:   s.lastTx,
	}
}
