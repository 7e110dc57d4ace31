package httpapi

import (
	"errors"
	"fmt"

	"github.com/hperssn/clockd/internal/domain"
	"github.com/hperssn/clockd/internal/runner"
)

var ErrUnknownCommand = errors.New("unknown command")

const (
	ActionStart     = "start"
	ActionStop      = "stop"
	ActionReset     = "reset"
	ActionLap       = "lap"
	ActionToggle    = "toggle"
	ActionConfigure = "configure"
)

// Command is one UI action aimed at an engine of a clock session.
type Command struct {
	Target  domain.Source `json:"target"`
	Action  string        `json:"action"`
	Hours   int           `json:"hours,omitempty"`
	Minutes int           `json:"minutes,omitempty"`
	Seconds int           `json:"seconds,omitempty"`
}

// Dispatch applies cmd to the session's engines.
func Dispatch(c *runner.Clock, cmd Command) error {
	switch cmd.Target {
	case domain.SourceStopwatch:
		sw := c.Stopwatch()
		switch cmd.Action {
		case ActionStart:
			return sw.Start()
		case ActionStop:
			sw.Stop()
			return nil
		case ActionReset:
			sw.Reset()
			return nil
		case ActionLap:
			_, err := sw.Lap()
			return err
		case ActionToggle:
			return sw.Toggle()
		}

	case domain.SourceTimer:
		tm := c.Timer()
		switch cmd.Action {
		case ActionConfigure:
			return tm.Configure(cmd.Hours, cmd.Minutes, cmd.Seconds)
		case ActionStart:
			return tm.Start()
		case ActionStop:
			tm.Stop()
			return nil
		case ActionReset:
			tm.Reset()
			return nil
		case ActionToggle:
			return tm.Toggle()
		}
	}

	return fmt.Errorf("%w: %s %s", ErrUnknownCommand, cmd.Target, cmd.Action)
}
