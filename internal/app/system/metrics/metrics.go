// Package metrics holds the Prometheus collectors for background work:
// side-effect dispatch, realtime fan-out, and scheduled jobs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Side-effect item kinds used as the "kind" label.
const (
	KindActivity     = "activity"
	KindNotification = "notification"
)

// Metrics is a private registry plus the collectors registered on it.
// Each call to New builds an independent set, so tests never collide on
// the global registry.
type Metrics struct {
	Registry *prometheus.Registry

	DispatchEnqueued  *prometheus.CounterVec
	DispatchDropped   *prometheus.CounterVec
	DispatchFailed    *prometheus.CounterVec
	DispatchSucceeded *prometheus.CounterVec
	DispatchAbandoned prometheus.Counter
	DispatchDuration  *prometheus.HistogramVec

	RealtimePublished prometheus.Counter
	RealtimeFailed    prometheus.Counter

	JobRuns *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		DispatchEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crmhub", Subsystem: "dispatch", Name: "enqueued_total",
			Help: "Side-effect items accepted by the worker pool.",
		}, []string{"kind"}),
		DispatchDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crmhub", Subsystem: "dispatch", Name: "dropped_total",
			Help: "Side-effect items dropped because the queue was full or closed.",
		}, []string{"kind"}),
		DispatchFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crmhub", Subsystem: "dispatch", Name: "failed_total",
			Help: "Side-effect items whose write failed.",
		}, []string{"kind"}),
		DispatchSucceeded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crmhub", Subsystem: "dispatch", Name: "succeeded_total",
			Help: "Side-effect items written successfully.",
		}, []string{"kind"}),
		DispatchAbandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crmhub", Subsystem: "dispatch", Name: "abandoned_total",
			Help: "Queued side-effect items discarded when the drain window closed.",
		}),
		DispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "crmhub", Subsystem: "dispatch", Name: "duration_seconds",
			Help:    "Time spent writing one side-effect item.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		RealtimePublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crmhub", Subsystem: "realtime", Name: "published_total",
			Help: "Notifications published to the realtime channel.",
		}),
		RealtimeFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crmhub", Subsystem: "realtime", Name: "failed_total",
			Help: "Notifications that could not be published to the realtime channel.",
		}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crmhub", Subsystem: "jobs", Name: "runs_total",
			Help: "Scheduled job runs by job and result.",
		}, []string{"job", "result"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.DispatchEnqueued,
		m.DispatchDropped,
		m.DispatchFailed,
		m.DispatchSucceeded,
		m.DispatchAbandoned,
		m.DispatchDuration,
		m.RealtimePublished,
		m.RealtimeFailed,
		m.JobRuns,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
