// internal/analyzer/state.go
package analyzer

import (
	"sync"

	"go.uber.org/zap"
)

// State is the phase of one analysis.
type State int

const (
	StateIdle State = iota
	StateSending
	StateRetrying
	StateDecoding
	StateDone
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateRetrying:
		return "retrying"
	case StateDecoding:
		return "decoding"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateCancelled
}

// Transition is reported to observers on every state change.
type Transition struct {
	From    State
	To      State
	Attempt int
	Err     error
}

// machine tracks one analysis. Once terminal it ignores further
// transitions, so a retry loop abandoned by the timeout cannot report late.
type machine struct {
	mu       sync.Mutex
	state    State
	attempt  int
	observer func(Transition)
	logger   *zap.Logger
}

func newMachine(observer func(Transition), logger *zap.Logger) *machine {
	return &machine{state: StateIdle, observer: observer, logger: logger}
}

func (m *machine) to(next State, err error) {
	m.mu.Lock()
	if m.state.Terminal() {
		m.mu.Unlock()
		return
	}
	if next == StateSending || next == StateRetrying {
		m.attempt++
	}
	t := Transition{From: m.state, To: next, Attempt: m.attempt, Err: err}
	m.state = next
	m.mu.Unlock()

	fields := []zap.Field{
		zap.Stringer("from", t.From),
		zap.Stringer("to", t.To),
		zap.Int("attempt", t.Attempt),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	m.logger.Debug("analysis state", fields...)
	if m.observer != nil {
		m.observer(t)
	}
}

func (m *machine) current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}
