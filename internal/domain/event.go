package domain

import "time"

// EventKind is a discrete feedback event emitted by an engine.
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventStopped   EventKind = "stopped"
	EventCompleted EventKind = "completed"
	EventTick      EventKind = "tick"
	EventLap       EventKind = "lap"
)

// IsBoundary reports whether the event marks a state transition or a lap,
// as opposed to a periodic tick.
func (k EventKind) IsBoundary() bool {
	return k != EventTick
}

// Source names the engine an event came from.
type Source string

const (
	SourceStopwatch Source = "stopwatch"
	SourceTimer     Source = "timer"
)

type Event struct {
	Kind   EventKind     `json:"kind"`
	Source Source        `json:"source"`
	Value  time.Duration `json:"value"`
	// Display is Value rendered in the engine's precision.
	Display string    `json:"display"`
	At      time.Time `json:"at"`
}
