package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hperssn/clockd/internal/domain"
	"github.com/hperssn/clockd/internal/tick"
)

// Stopwatch counts up in whole tick intervals and records laps.
//
// Elapsed time is kept as an integer tick count and only multiplied by the
// interval when read, so N ticks are always exactly N intervals.
type Stopwatch struct {
	mu sync.Mutex

	cfg    Config
	sub    subscription
	out    emitter
	logger *log.Logger

	running        bool
	ticks          int64
	displayedTicks int64
	laps           []int64
}

func NewStopwatch(cfg Config, sched tick.Scheduler, sink FeedbackSink, logger *log.Logger) (*Stopwatch, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, ErrNoScheduler
	}
	logger = orDiscard(logger).With("engine", domain.SourceStopwatch)

	return &Stopwatch{
		cfg: cfg,
		sub: subscription{sched: sched, interval: cfg.TickInterval},
		out: emitter{
			source:  domain.SourceStopwatch,
			cfg:     cfg,
			sink:    orNop(sink),
			logger:  logger,
			nowFunc: time.Now,
		},
		logger: logger,
	}, nil
}

// Start subscribes to the scheduler. Starting a running stopwatch does
// nothing.
func (s *Stopwatch) Start() error {
	defer s.out.flush()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.startLocked()
}

// Stop releases the subscription and freezes the display at the current
// elapsed time. Stopping an idle stopwatch does nothing.
func (s *Stopwatch) Stop() {
	defer s.out.flush()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
}

// Toggle starts an idle stopwatch and stops a running one.
func (s *Stopwatch) Toggle() error {
	defer s.out.flush()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.stopLocked()
		return nil
	}
	return s.startLocked()
}

// Reset stops the stopwatch if needed, then zeroes elapsed, display and
// laps.
func (s *Stopwatch) Reset() {
	defer s.out.flush()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.ticks = 0
	s.displayedTicks = 0
	s.laps = nil
	s.logger.Debug("reset")
}

// Lap records the current elapsed time. It fails with ErrInvalidState when
// the stopwatch is not running.
func (s *Stopwatch) Lap() (time.Duration, error) {
	defer s.out.flush()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return 0, fmt.Errorf("lap: %w", ErrInvalidState)
	}

	s.laps = append(s.laps, s.ticks)
	lap := s.elapsedLocked()
	s.out.send(domain.EventLap, lap)
	return lap, nil
}

func (s *Stopwatch) Snapshot() domain.StopwatchSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	displayed := s.duration(s.displayedTicks)
	snap := domain.StopwatchSnapshot{
		Running:   s.running,
		Elapsed:   s.elapsedLocked(),
		Displayed: displayed,
		Display:   domain.FormatDuration(displayed, s.cfg.Precision),
		Laps:      make([]string, len(s.laps)),
		LapTimes:  make([]time.Duration, len(s.laps)),
	}
	for i, n := range s.laps {
		snap.LapTimes[i] = s.duration(n)
		snap.Laps[i] = domain.FormatDuration(snap.LapTimes[i], s.cfg.Precision)
	}
	return snap
}

func (s *Stopwatch) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Stopwatch) onTick(gen uint64) {
	defer s.out.flush()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || !s.sub.current(gen) {
		return
	}

	s.ticks++
	if s.cfg.Display == DisplayContinuous {
		s.displayedTicks = s.ticks
	}
	s.out.send(domain.EventTick, s.elapsedLocked())
}

func (s *Stopwatch) startLocked() error {
	if s.running {
		return nil
	}
	if err := s.sub.acquire(s.onTick); err != nil {
		return fmt.Errorf("stopwatch start: %w", err)
	}

	s.running = true
	s.logger.Debug("started", "elapsed", s.elapsedLocked())
	s.out.send(domain.EventStarted, s.elapsedLocked())
	return nil
}

func (s *Stopwatch) stopLocked() {
	if !s.running {
		return
	}

	s.running = false
	s.sub.release()
	s.displayedTicks = s.ticks
	s.logger.Debug("stopped", "elapsed", s.elapsedLocked())
	s.out.send(domain.EventStopped, s.elapsedLocked())
}

func (s *Stopwatch) elapsedLocked() time.Duration {
	return s.duration(s.ticks)
}

func (s *Stopwatch) duration(ticks int64) time.Duration {
	return time.Duration(ticks) * s.cfg.TickInterval
}
