package domain

import "time"

// StopwatchSnapshot is an immutable read model of a stopwatch.
type StopwatchSnapshot struct {
	Running   bool            `json:"running"`
	Elapsed   time.Duration   `json:"elapsed"`
	Displayed time.Duration   `json:"displayed"`
	Display   string          `json:"display"`
	Laps      []string        `json:"laps"`
	LapTimes  []time.Duration `json:"lapTimes"`
}

// TimerSnapshot is an immutable read model of a countdown timer.
type TimerSnapshot struct {
	Running   bool          `json:"running"`
	Setting   TimerSetting  `json:"setting"`
	Remaining time.Duration `json:"remaining"`
	Display   string        `json:"display"`
	// Completed is set by an auto-stop and cleared by the next start or reset.
	Completed bool `json:"completed"`
}

// ClockSnapshot is everything a clock UI renders for one session.
type ClockSnapshot struct {
	Session   Session           `json:"session"`
	Stopwatch StopwatchSnapshot `json:"stopwatch"`
	Timer     TimerSnapshot     `json:"timer"`
}
