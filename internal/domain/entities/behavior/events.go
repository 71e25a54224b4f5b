package behavior

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Neutral defaults substituted for missing optional event fields. These are
// fixed constants, never sampled: a zero scroll velocity marks the velocity
// as unmeasured and excludes the event from the scroll family rather than
// fabricating a reading.
const (
	DefaultDurationSeconds = 1.0
	UnmeasuredVelocity     = 0.0
)

// InteractionEvent is one recorded interaction. Immutable once appended to a
// window.
type InteractionEvent struct {
	ID              string            `json:"id"`
	Timestamp       time.Time         `json:"timestamp"`
	Action          string            `json:"action"`
	Target          string            `json:"target"`
	DurationSeconds float64           `json:"durationSeconds"`
	ScrollVelocity  float64           `json:"scrollVelocity,omitempty"`
	DwellSeconds    float64           `json:"dwellTimeSeconds,omitempty"`
	SessionID       string            `json:"sessionId"`
	Context         map[string]string `json:"context,omitempty"`
}

// Normalize fills missing optional fields with their documented neutral
// defaults and stamps an ID. It never invents measurements: dwell falls back
// to the event duration, velocity stays unmeasured.
func (e *InteractionEvent) Normalize(sessionID string, now time.Time) {
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
	if e.DurationSeconds <= 0 {
		e.DurationSeconds = DefaultDurationSeconds
	}
	if e.DwellSeconds <= 0 {
		e.DwellSeconds = e.DurationSeconds
	}
	if e.ScrollVelocity < 0 {
		e.ScrollVelocity = UnmeasuredVelocity
	}
	if e.SessionID == "" {
		e.SessionID = sessionID
	}
	if e.Context == nil {
		e.Context = map[string]string{}
	}
}

// EventWindow is an ordered, bounded sequence of events for one user. Oldest
// events are evicted once either bound is exceeded. The window is owned by
// the per-user state and must not be shared across users.
type EventWindow struct {
	events    []InteractionEvent
	maxEvents int
	maxAge    time.Duration
}

// NewEventWindow creates a window bounded by event count and age. Non-positive
// bounds disable the respective limit.
func NewEventWindow(maxEvents int, maxAge time.Duration) *EventWindow {
	return &EventWindow{maxEvents: maxEvents, maxAge: maxAge}
}

// Append adds an event in insertion order and evicts past-bound events.
func (w *EventWindow) Append(e InteractionEvent) {
	w.events = append(w.events, e)
	w.evict(e.Timestamp)
}

func (w *EventWindow) evict(newest time.Time) {
	if w.maxAge > 0 {
		cutoff := newest.Add(-w.maxAge)
		idx := 0
		for idx < len(w.events) && w.events[idx].Timestamp.Before(cutoff) {
			idx++
		}
		if idx > 0 {
			w.events = append(w.events[:0], w.events[idx:]...)
		}
	}
	if w.maxEvents > 0 && len(w.events) > w.maxEvents {
		w.events = append(w.events[:0], w.events[len(w.events)-w.maxEvents:]...)
	}
}

// Len reports the number of retained events.
func (w *EventWindow) Len() int { return len(w.events) }

// Events returns a copy of the retained events in insertion order.
func (w *EventWindow) Events() []InteractionEvent {
	out := make([]InteractionEvent, len(w.events))
	copy(out, w.events)
	return out
}

// Recent returns a copy of the newest n events, oldest first.
func (w *EventWindow) Recent(n int) []InteractionEvent {
	if n <= 0 || n >= len(w.events) {
		return w.Events()
	}
	out := make([]InteractionEvent, n)
	copy(out, w.events[len(w.events)-n:])
	return out
}

// RecentActions returns the action names of the newest n events.
func RecentActions(events []InteractionEvent, n int) []string {
	events = tail(events, n)
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Action
	}
	return out
}

// RecentTargets returns the targets of the newest n events.
func RecentTargets(events []InteractionEvent, n int) []string {
	events = tail(events, n)
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Target
	}
	return out
}

func tail(events []InteractionEvent, n int) []InteractionEvent {
	if n > 0 && n < len(events) {
		return events[len(events)-n:]
	}
	return events
}
