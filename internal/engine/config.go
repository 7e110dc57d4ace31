package engine

import (
	"fmt"
	"time"

	"github.com/hperssn/clockd/internal/domain"
	"github.com/hperssn/clockd/internal/tick"
)

// DisplayMode controls when a stopwatch's displayed value follows elapsed.
type DisplayMode int

const (
	// DisplayContinuous updates the display on every tick.
	DisplayContinuous DisplayMode = iota
	// DisplayOnStop only updates the display when the stopwatch stops.
	DisplayOnStop
)

func (m DisplayMode) String() string {
	if m == DisplayOnStop {
		return "on-stop"
	}
	return "continuous"
}

func ParseDisplayMode(s string) (DisplayMode, error) {
	switch s {
	case "", "continuous":
		return DisplayContinuous, nil
	case "on-stop":
		return DisplayOnStop, nil
	}
	return DisplayContinuous, fmt.Errorf("unknown display mode %q", s)
}

// Config is shared by both engines. Display is ignored by the timer.
type Config struct {
	TickInterval time.Duration
	// FeedbackEnabled switches the haptic/audio device sinks attached to the
	// engine. Stream, metrics and journal sinks see every event regardless.
	FeedbackEnabled bool
	Precision       domain.Precision
	Display         DisplayMode
}

func DefaultStopwatchConfig() Config {
	return Config{
		TickInterval:    100 * time.Millisecond,
		FeedbackEnabled: true,
		Precision:       domain.PrecisionCentiseconds,
		Display:         DisplayContinuous,
	}
}

func DefaultTimerConfig() Config {
	return Config{
		TickInterval:    time.Second,
		FeedbackEnabled: true,
		Precision:       domain.PrecisionSeconds,
		Display:         DisplayContinuous,
	}
}

func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("engine config: %w (got %v)", tick.ErrInvalidInterval, c.TickInterval)
	}
	return nil
}
