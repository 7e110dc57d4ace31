package runner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hperssn/clockd/internal/domain"
)

type Metrics struct {
	events   *prometheus.CounterVec
	dropped  prometheus.Counter
	sessions prometheus.Gauge
}

// NewMetrics registers the runner's collectors with reg. A nil reg leaves
// them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clockd",
			Name:      "engine_events_total",
			Help:      "Feedback events emitted by the engines.",
		}, []string{"source", "kind"}),
		dropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "clockd",
			Name:      "stream_events_dropped_total",
			Help:      "Events not delivered to a slow stream subscriber.",
		}),
		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "clockd",
			Name:      "sessions_active",
			Help:      "Clock sessions currently held in memory.",
		}),
	}
}

func (m *Metrics) observe(ev domain.Event) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(string(ev.Source), string(ev.Kind)).Inc()
}

func (m *Metrics) drop() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

func (m *Metrics) sessionOpened() {
	if m == nil {
		return
	}
	m.sessions.Inc()
}

func (m *Metrics) sessionClosed() {
	if m == nil {
		return
	}
	m.sessions.Dec()
}

// Events returns the event counter for one source and kind.
func (m *Metrics) Events(source, kind string) prometheus.Counter {
	return m.events.WithLabelValues(source, kind)
}

func (m *Metrics) Sessions() prometheus.Gauge {
	return m.sessions
}
