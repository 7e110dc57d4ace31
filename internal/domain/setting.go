package domain

import (
	"errors"
	"fmt"
	"time"
)

const (
	MaxHours   = 24
	MaxMinutes = 59
	MaxSeconds = 59
)

var ErrSettingOutOfRange = errors.New("timer setting out of range")

// TimerSetting is the user-authored countdown length.
type TimerSetting struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

func (s TimerSetting) Validate() error {
	switch {
	case s.Hours < 0 || s.Hours > MaxHours:
		return fmt.Errorf("%w: hours=%d, want [0,%d]", ErrSettingOutOfRange, s.Hours, MaxHours)
	case s.Minutes < 0 || s.Minutes > MaxMinutes:
		return fmt.Errorf("%w: minutes=%d, want [0,%d]", ErrSettingOutOfRange, s.Minutes, MaxMinutes)
	case s.Seconds < 0 || s.Seconds > MaxSeconds:
		return fmt.Errorf("%w: seconds=%d, want [0,%d]", ErrSettingOutOfRange, s.Seconds, MaxSeconds)
	}
	return nil
}

func (s TimerSetting) Duration() time.Duration {
	total := s.Hours*3600 + s.Minutes*60 + s.Seconds
	return time.Duration(total) * time.Second
}

func (s TimerSetting) IsZero() bool {
	return s.Duration() == 0
}
