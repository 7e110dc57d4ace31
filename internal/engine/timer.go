package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hperssn/clockd/internal/domain"
	"github.com/hperssn/clockd/internal/tick"
)

// Timer counts a configured duration down to zero and stops itself there.
//
// A zero setting cannot be started: Start returns ErrZeroDuration and leaves
// the timer untouched.
type Timer struct {
	mu sync.Mutex

	cfg    Config
	sub    subscription
	out    emitter
	logger *log.Logger

	setting   domain.TimerSetting
	total     time.Duration
	ticks     int64
	running   bool
	completed bool
}

func NewTimer(cfg Config, sched tick.Scheduler, sink FeedbackSink, logger *log.Logger) (*Timer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, ErrNoScheduler
	}
	logger = orDiscard(logger).With("engine", domain.SourceTimer)

	return &Timer{
		cfg: cfg,
		sub: subscription{sched: sched, interval: cfg.TickInterval},
		out: emitter{
			source:  domain.SourceTimer,
			cfg:     cfg,
			sink:    orNop(sink),
			logger:  logger,
			nowFunc: time.Now,
		},
		logger: logger,
	}, nil
}

// Configure stores the countdown length used by the next Start. It is only
// allowed while the timer is idle.
func (t *Timer) Configure(hours, minutes, seconds int) error {
	setting := domain.TimerSetting{Hours: hours, Minutes: minutes, Seconds: seconds}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("configure: %w", ErrInvalidState)
	}
	if err := setting.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSetting, err)
	}

	t.setting = setting
	return nil
}

// Start loads the configured duration and subscribes to the scheduler.
// Starting a running timer does nothing.
func (t *Timer) Start() error {
	defer t.out.flush()

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.startLocked()
}

// Stop is a user-initiated stop. Stopping an idle timer does nothing.
func (t *Timer) Stop() {
	defer t.out.flush()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked(domain.EventStopped)
}

// Toggle starts an idle timer and stops a running one.
func (t *Timer) Toggle() error {
	defer t.out.flush()

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		t.stopLocked(domain.EventStopped)
		return nil
	}
	return t.startLocked()
}

// Reset stops the timer if needed and clears the setting and the remaining
// time.
func (t *Timer) Reset() {
	defer t.out.flush()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked(domain.EventStopped)
	t.setting = domain.TimerSetting{}
	t.total = 0
	t.ticks = 0
	t.completed = false
	t.logger.Debug("reset")
}

func (t *Timer) Snapshot() domain.TimerSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	remaining := t.remainingLocked()
	return domain.TimerSnapshot{
		Running:   t.running,
		Setting:   t.setting,
		Remaining: remaining,
		Display:   domain.FormatDuration(remaining, t.cfg.Precision),
		Completed: t.completed,
	}
}

func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *Timer) onTick(gen uint64) {
	defer t.out.flush()

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running || !t.sub.current(gen) {
		return
	}

	if t.remainingLocked() > 0 {
		t.ticks++
		t.out.send(domain.EventTick, t.remainingLocked())
	}
	if t.remainingLocked() == 0 {
		t.completed = true
		t.stopLocked(domain.EventCompleted)
	}
}

func (t *Timer) startLocked() error {
	if t.running {
		return nil
	}
	if t.setting.IsZero() {
		return fmt.Errorf("timer start: %w", ErrZeroDuration)
	}
	if err := t.sub.acquire(t.onTick); err != nil {
		return fmt.Errorf("timer start: %w", err)
	}

	t.total = t.setting.Duration()
	t.ticks = 0
	t.running = true
	t.completed = false
	t.logger.Debug("started", "duration", t.total)
	t.out.send(domain.EventStarted, t.total)
	return nil
}

// stopLocked moves a running timer to idle, reporting the transition as
// kind: stopped for the user, completed for the auto-stop.
func (t *Timer) stopLocked(kind domain.EventKind) {
	if !t.running {
		return
	}

	t.running = false
	t.sub.release()
	t.logger.Debug(string(kind), "remaining", t.remainingLocked())
	t.out.send(kind, t.remainingLocked())
}

// remainingLocked is max(0, total - ticks*interval).
func (t *Timer) remainingLocked() time.Duration {
	left := t.total - time.Duration(t.ticks)*t.cfg.TickInterval
	if left < 0 {
		return 0
	}
	return left
}
