package engine_test

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"github.com/hperssn/clockd/internal/domain"
	"github.com/hperssn/clockd/internal/engine"
)

func TestThrottledSink_DropsOnlyTicks(t *testing.T) {
	rec := &recordingSink{}
	sink := engine.NewThrottledSink(rec, rate.Limit(0), 1)

	sink.Notify(domain.Event{Kind: domain.EventStarted})
	for i := 0; i < 10; i++ {
		sink.Notify(domain.Event{Kind: domain.EventTick})
	}
	sink.Notify(domain.Event{Kind: domain.EventLap})
	sink.Notify(domain.Event{Kind: domain.EventCompleted})

	assert.Equal(t,
		[]domain.EventKind{domain.EventStarted, domain.EventTick, domain.EventLap, domain.EventCompleted},
		rec.kinds())
}

func TestThrottledSink_InfiniteRatePassesEverything(t *testing.T) {
	rec := &recordingSink{}
	sink := engine.NewThrottledSink(rec, rate.Inf, 1)

	for i := 0; i < 10; i++ {
		sink.Notify(domain.Event{Kind: domain.EventTick})
	}

	assert.Equal(t, 10, rec.count(domain.EventTick))
}

func TestMultiSink_IsolatesPanics(t *testing.T) {
	first, last := &recordingSink{}, &recordingSink{}
	bad := engine.SinkFunc(func(domain.Event) { panic("boom") })
	sink := engine.NewMultiSink(nil, first, bad, last)

	assert.NotPanics(t, func() {
		sink.Notify(domain.Event{Kind: domain.EventStopped})
	})
	assert.Equal(t, []domain.EventKind{domain.EventStopped}, first.kinds())
	assert.Equal(t, []domain.EventKind{domain.EventStopped}, last.kinds())
}

func TestParseDisplayMode(t *testing.T) {
	for _, m := range []engine.DisplayMode{engine.DisplayContinuous, engine.DisplayOnStop} {
		got, err := engine.ParseDisplayMode(m.String())
		assert.NoError(t, err)
		assert.Equal(t, m, got)
	}

	_, err := engine.ParseDisplayMode("sometimes")
	assert.Error(t, err)
}

func TestLogSink_WritesEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)
	sink := engine.NewLogSink(logger)

	sink.Notify(domain.Event{Kind: domain.EventLap, Source: domain.SourceStopwatch, Display: "00:01.20"})
	sink.Notify(domain.Event{Kind: domain.EventCompleted, Source: domain.SourceTimer})

	out := buf.String()
	assert.Contains(t, out, "00:01.20")
	assert.Contains(t, out, "timer completed")
}
