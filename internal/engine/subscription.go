package engine

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hperssn/clockd/internal/domain"
	"github.com/hperssn/clockd/internal/tick"
)

// subscription is an engine's exclusive claim on a scheduler handle.
//
// Each acquire bumps a generation number that is baked into the callback,
// so a tick delivered for an already released handle can be recognized and
// dropped. Not safe for concurrent use; engines call it under their lock.
type subscription struct {
	sched    tick.Scheduler
	interval time.Duration

	handle tick.Handle
	gen    uint64
	active bool
}

func (s *subscription) acquire(onTick func(gen uint64)) error {
	if s.active {
		return nil
	}

	s.gen++
	gen := s.gen
	h, err := s.sched.Subscribe(s.interval, func() { onTick(gen) })
	if err != nil {
		return err
	}

	s.handle = h
	s.active = true
	return nil
}

func (s *subscription) release() {
	if !s.active {
		return
	}
	s.sched.Unsubscribe(s.handle)
	s.handle = 0
	s.active = false
}

// current reports whether gen belongs to the live subscription.
func (s *subscription) current(gen uint64) bool {
	return s.active && gen == s.gen
}

// emitter stamps and delivers events for one engine.
//
// Engines queue events under their own lock and flush after releasing it.
// The queue keeps delivery in the order the engine produced the events even
// when a tick goroutine and a command flush at the same time: whichever
// goroutine is already delivering also delivers what the other queued.
type emitter struct {
	source  domain.Source
	cfg     Config
	sink    FeedbackSink
	logger  *log.Logger
	nowFunc func() time.Time

	mu       sync.Mutex
	queue    []domain.Event
	draining bool
}

// send queues an event. Call with the engine lock held.
func (e *emitter) send(kind domain.EventKind, value time.Duration) {
	ev := domain.Event{
		Kind:    kind,
		Source:  e.source,
		Value:   value,
		Display: domain.FormatDuration(value, e.cfg.Precision),
		At:      e.nowFunc(),
	}

	e.mu.Lock()
	e.queue = append(e.queue, ev)
	e.mu.Unlock()
}

// flush delivers queued events in order. It must be called without the
// engine lock held, so a sink may call back into the engine.
func (e *emitter) flush() {
	e.mu.Lock()
	if e.draining {
		e.mu.Unlock()
		return
	}
	e.draining = true

	for len(e.queue) > 0 {
		batch := e.queue
		e.queue = nil
		e.mu.Unlock()

		for _, ev := range batch {
			deliver(e.logger, e.sink, ev)
		}

		e.mu.Lock()
	}

	e.draining = false
	e.mu.Unlock()
}

func orDiscard(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.New(io.Discard)
	}
	return logger
}

func orNop(sink FeedbackSink) FeedbackSink {
	if sink == nil {
		return NopSink{}
	}
	return sink
}
