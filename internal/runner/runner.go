package runner

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hperssn/clockd/internal/domain"
	"github.com/hperssn/clockd/internal/engine"
)

const subscriberBuffer = 64

// Clock is one live clock session: a stopwatch, a timer and the streams
// watching them.
type Clock struct {
	session   *domain.Session
	stopwatch *engine.Stopwatch
	timer     *engine.Timer
	metrics   *Metrics
	logger    *log.Logger

	mu          sync.Mutex
	lastActive  time.Time
	subscribers map[int]chan domain.Event
	nextSub     int
	closed      bool
}

func newClock(s *domain.Session, opts *Options) (*Clock, error) {
	c := &Clock{
		session:     s,
		metrics:     opts.Metrics,
		logger:      opts.Logger.With("session", s.ID),
		lastActive:  time.Now(),
		subscribers: make(map[int]chan domain.Event),
	}

	always := append([]engine.FeedbackSink{engine.SinkFunc(c.publish)}, buildSinks(s, opts.Sinks)...)
	devices := buildSinks(s, opts.Feedback)

	var err error
	c.stopwatch, err = engine.NewStopwatch(opts.Stopwatch, opts.Scheduler, c.engineSink(opts.Stopwatch, always, devices), c.logger)
	if err != nil {
		return nil, err
	}
	c.timer, err = engine.NewTimer(opts.Timer, opts.Scheduler, c.engineSink(opts.Timer, always, devices), c.logger)
	if err != nil {
		return nil, err
	}

	return c, nil
}

func buildSinks(s *domain.Session, factories []SinkFactory) []engine.FeedbackSink {
	var sinks []engine.FeedbackSink
	for _, factory := range factories {
		if sink := factory(s); sink != nil {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}

// engineSink fans an engine's events out to the always-on sinks and, when
// the engine has feedback enabled, to the device sinks.
func (c *Clock) engineSink(cfg engine.Config, always, devices []engine.FeedbackSink) engine.FeedbackSink {
	sinks := append([]engine.FeedbackSink(nil), always...)
	if cfg.FeedbackEnabled {
		sinks = append(sinks, devices...)
	}
	return engine.NewMultiSink(c.logger, sinks...)
}

func (c *Clock) Session() domain.Session {
	return *c.session
}

func (c *Clock) Stopwatch() *engine.Stopwatch {
	c.touch()
	return c.stopwatch
}

func (c *Clock) Timer() *engine.Timer {
	c.touch()
	return c.timer
}

func (c *Clock) Snapshot() domain.ClockSnapshot {
	return domain.ClockSnapshot{
		Session:   *c.session,
		Stopwatch: c.stopwatch.Snapshot(),
		Timer:     c.timer.Snapshot(),
	}
}

// Subscribe returns a stream of the session's engine events and a function
// that ends the subscription. The channel is closed when either the
// subscription is cancelled or the session is torn down. Events are dropped
// for subscribers that fall behind.
func (c *Clock) Subscribe() (<-chan domain.Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan domain.Event, subscriberBuffer)
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if sub, ok := c.subscribers[id]; ok {
			delete(c.subscribers, id)
			close(sub)
		}
	}
}

// IdleSince reports the last time a command touched the session.
func (c *Clock) IdleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

func (c *Clock) touch() {
	c.mu.Lock()
	c.lastActive = time.Now()
	c.mu.Unlock()
}

func (c *Clock) publish(ev domain.Event) {
	c.metrics.observe(ev)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	for _, ch := range c.subscribers {
		select {
		case ch <- ev:
		default:
			c.metrics.drop()
		}
	}
}

// close tears the session down. The engines are reset first, without the
// session lock, because resetting publishes a stopped event.
func (c *Clock) close() {
	c.stopwatch.Reset()
	c.timer.Reset()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	for id, ch := range c.subscribers {
		delete(c.subscribers, id)
		close(ch)
	}
	c.logger.Debug("session closed")
}
