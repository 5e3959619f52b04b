// Package metrics exposes prometheus instrumentation of the fault workflow.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/fault-tracker/internal/core/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the workflow counters and the summary latency histogram.
type Metrics struct {
	FaultsCreated    *prometheus.CounterVec // role of the reporter
	FaultTransitions *prometheus.CounterVec // from, to, role
	FaultRejections  *prometheus.CounterVec // error kind
	FaultsDeleted    prometheus.Counter
	SummaryDuration  prometheus.Histogram
	registry         *prometheus.Registry
}

// NewMetrics registers every collector on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	return &Metrics{
		FaultsCreated: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "faults_created_total",
			Help: "Faults reported, by role of the reporter.",
		}, []string{"role"}),
		FaultTransitions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "fault_transitions_total",
			Help: "Accepted fault mutations, by state before and after.",
		}, []string{"from", "to", "role"}),
		FaultRejections: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "fault_transition_rejections_total",
			Help: "Refused fault mutations, by error kind.",
		}, []string{"kind"}),
		FaultsDeleted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "faults_deleted_total",
			Help: "Faults removed by a chief.",
		}),
		SummaryDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "fault_summary_duration_seconds",
			Help:    "Time spent building an uncached summary.",
			Buckets: prometheus.DefBuckets,
		}),
		registry: reg,
	}
}

// Subscribe feeds the counters from the bus.
func (m *Metrics) Subscribe(bus *events.EventBus) {
	bus.SubscribeMany(events.FaultEventTypes, m.HandleEvent)
	bus.Subscribe(events.EventTypeFaultRejected, m.HandleEvent)
}

func (m *Metrics) HandleEvent(_ context.Context, e events.Event) error {
	switch ev := e.(type) {
	case *events.FaultCreatedEvent:
		m.FaultsCreated.WithLabelValues(ev.ActorRole).Inc()
	case *events.FaultTransitionedEvent:
		m.FaultTransitions.WithLabelValues(ev.FromState, ev.ToState, ev.ActorRole).Inc()
	case *events.FaultRejectedEvent:
		m.FaultRejections.WithLabelValues(ev.Kind).Inc()
	case *events.FaultDeletedEvent:
		m.FaultsDeleted.Inc()
	}
	return nil
}

func (m *Metrics) ObserveSummary(d time.Duration) {
	m.SummaryDuration.Observe(d.Seconds())
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
