package engine

import "errors"

var (
	ErrInvalidState   = errors.New("invalid operation in current state")
	ErrInvalidSetting = errors.New("invalid timer setting")
	ErrZeroDuration   = errors.New("timer duration is zero")
	ErrNoScheduler    = errors.New("engine requires a tick scheduler")
)
