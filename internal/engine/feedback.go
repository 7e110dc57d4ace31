package engine

import (
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/hperssn/clockd/internal/domain"
)

// FeedbackSink receives engine events and turns them into haptics, sound
// or anything else. Engines never wait on a sink.
type FeedbackSink interface {
	Notify(ev domain.Event)
}

// SinkFunc adapts a function to a FeedbackSink.
type SinkFunc func(ev domain.Event)

func (f SinkFunc) Notify(ev domain.Event) { f(ev) }

type NopSink struct{}

func (NopSink) Notify(domain.Event) {}

// MultiSink fans an event out to several sinks. A panicking sink does not
// keep the event from the others.
type MultiSink struct {
	sinks  []FeedbackSink
	logger *log.Logger
}

func NewMultiSink(logger *log.Logger, sinks ...FeedbackSink) *MultiSink {
	return &MultiSink{sinks: sinks, logger: orDiscard(logger)}
}

func (m *MultiSink) Notify(ev domain.Event) {
	for _, s := range m.sinks {
		deliver(m.logger, s, ev)
	}
}

// ThrottledSink forwards boundary events as-is and drops tick events that
// arrive faster than the limiter allows.
type ThrottledSink struct {
	next    FeedbackSink
	limiter *rate.Limiter
}

func NewThrottledSink(next FeedbackSink, tickRate rate.Limit, burst int) *ThrottledSink {
	return &ThrottledSink{
		next:    next,
		limiter: rate.NewLimiter(tickRate, burst),
	}
}

func (t *ThrottledSink) Notify(ev domain.Event) {
	if ev.Kind == domain.EventTick && !t.limiter.Allow() {
		return
	}
	t.next.Notify(ev)
}

// deliver hands ev to sink, containing any panic at the sink boundary.
func deliver(logger *log.Logger, sink FeedbackSink, ev domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("feedback sink panicked", "kind", ev.Kind, "source", ev.Source, "panic", r)
		}
	}()
	sink.Notify(ev)
}

// LogSink reports events to a logger, standing in for a device that would
// buzz or beep.
type LogSink struct {
	logger *log.Logger
}

func NewLogSink(logger *log.Logger) *LogSink {
	return &LogSink{logger: orDiscard(logger)}
}

func (s *LogSink) Notify(ev domain.Event) {
	if ev.Kind == domain.EventCompleted {
		s.logger.Info("timer completed", "source", ev.Source)
		return
	}
	s.logger.Debug("feedback", "source", ev.Source, "kind", ev.Kind, "value", ev.Display)
}
