package workflow

import (
	"sync"
	"time"
)

// State names a position in the engine's run state machine.
type State string

const (
	StateIdle       State = "idle"
	StateParsing    State = "parsing"
	StateDetecting  State = "detecting"
	StateGenerating State = "generating"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateCancelled  State = "cancelled"
)

// String implements fmt.Stringer
func (s State) String() string { return string(s) }

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Outcome classifies how a stage ended.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailure   Outcome = "failure"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeSkipped   Outcome = "skipped"
)

// EngineEvent records one stage transition outcome.
type EngineEvent struct {
	Stage     State
	Outcome   Outcome
	Timestamp time.Time
	Detail    string
}

// eventHistory is an append-only, bounded event log. When the cap is
// reached the oldest events are trimmed; order stays newest-last.
type eventHistory struct {
	mu     sync.Mutex
	limit  int
	events []EngineEvent
}

func newEventHistory(limit int) *eventHistory {
	return &eventHistory{limit: limit}
}

func (h *eventHistory) append(event EngineEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.events = append(h.events, event)
	if len(h.events) > h.limit {
		h.events = h.events[len(h.events)-h.limit:]
	}
}

// snapshot returns a copy; callers never see the live slice.
func (h *eventHistory) snapshot() []EngineEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]EngineEvent(nil), h.events...)
}
