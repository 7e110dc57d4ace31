package runner

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru"

	"github.com/hperssn/clockd/internal/domain"
	"github.com/hperssn/clockd/internal/engine"
	"github.com/hperssn/clockd/internal/tick"
)

var (
	ErrSessionExists   = errors.New("session already exists")
	ErrSessionNotFound = errors.New("session not found")
	ErrManagerClosed   = errors.New("session manager closed")
)

// SinkFactory builds an extra feedback sink for a new session. It may
// return nil to opt out.
type SinkFactory func(s *domain.Session) engine.FeedbackSink

type Options struct {
	Scheduler tick.Scheduler
	Stopwatch engine.Config
	Timer     engine.Config

	// MaxSessions bounds the sessions held in memory; the least recently
	// used one is torn down to make room.
	MaxSessions int
	// IdleTimeout tears down sessions no command touched for this long.
	// Zero disables the cleanup loop.
	IdleTimeout     time.Duration
	CleanupInterval time.Duration

	// Sinks see every engine event of a session.
	Sinks []SinkFactory
	// Feedback builds the haptic/audio device sinks. They are attached to an
	// engine only when its config has FeedbackEnabled set.
	Feedback []SinkFactory
	Metrics  *Metrics
	Logger   *log.Logger
}

func DefaultOptions() Options {
	return Options{
		Stopwatch:       engine.DefaultStopwatchConfig(),
		Timer:           engine.DefaultTimerConfig(),
		MaxSessions:     1024,
		IdleTimeout:     time.Hour,
		CleanupInterval: 5 * time.Minute,
	}
}

type SessionManager struct {
	opts     Options
	sessions *lru.Cache

	closeOnce sync.Once
	done      chan struct{}
}

func NewSessionManager(opts Options) (*SessionManager, error) {
	if opts.Scheduler == nil {
		return nil, engine.ErrNoScheduler
	}
	if err := opts.Stopwatch.Validate(); err != nil {
		return nil, fmt.Errorf("stopwatch: %w", err)
	}
	if err := opts.Timer.Validate(); err != nil {
		return nil, fmt.Errorf("timer: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultOptions().MaxSessions
	}

	m := &SessionManager{
		opts: opts,
		done: make(chan struct{}),
	}

	cache, err := lru.NewWithEvict(opts.MaxSessions, m.onEvict)
	if err != nil {
		return nil, err
	}
	m.sessions = cache

	if opts.IdleTimeout > 0 {
		interval := opts.CleanupInterval
		if interval <= 0 {
			interval = DefaultOptions().CleanupInterval
		}
		go m.cleanupLoop(interval)
	}

	return m, nil
}

func (m *SessionManager) onEvict(key, value any) {
	c := value.(*Clock)
	c.close()
	m.opts.Metrics.sessionClosed()
	m.opts.Logger.Info("session torn down", "session", key)
}

func (m *SessionManager) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanupIdleSessions()
		case <-m.done:
			return
		}
	}
}

func (m *SessionManager) cleanupIdleSessions() {
	cutoff := time.Now().Add(-m.opts.IdleTimeout)

	for _, key := range m.sessions.Keys() {
		value, ok := m.sessions.Peek(key)
		if !ok {
			continue
		}
		c := value.(*Clock)
		if c.IdleSince().Before(cutoff) && !c.stopwatch.Running() && !c.timer.Running() {
			m.sessions.Remove(key)
		}
	}
}

// StartSession creates the clock session described by s. The engines start
// idle and zeroed.
func (m *SessionManager) StartSession(s *domain.Session) (*Clock, error) {
	if m.isClosed() {
		return nil, ErrManagerClosed
	}
	if m.sessions.Contains(s.ID) {
		return nil, ErrSessionExists
	}

	c, err := newClock(s, &m.opts)
	if err != nil {
		return nil, err
	}

	if ok, _ := m.sessions.ContainsOrAdd(s.ID, c); ok {
		return nil, ErrSessionExists
	}
	m.opts.Metrics.sessionOpened()
	m.opts.Logger.Info("session created", "session", s.ID, "user", s.UserID)

	return c, nil
}

// GetSession returns the session with id if it belongs to userID. Sessions
// with no owner are visible to everyone.
func (m *SessionManager) GetSession(id, userID string) (*Clock, error) {
	value, ok := m.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}

	c := value.(*Clock)
	if c.session.UserID != "" && c.session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return c, nil
}

// StopSession tears the session down, stopping both engines.
func (m *SessionManager) StopSession(id, userID string) error {
	if _, err := m.GetSession(id, userID); err != nil {
		return err
	}

	m.sessions.Remove(id)
	return nil
}

func (m *SessionManager) Len() int {
	return m.sessions.Len()
}

// Close tears down every session and stops the cleanup loop.
func (m *SessionManager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
		m.sessions.Purge()
	})
}

func (m *SessionManager) isClosed() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}
