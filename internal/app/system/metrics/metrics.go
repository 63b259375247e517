// internal/app/system/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector exported at /metrics. A private registry
// keeps tests from tripping over the global default one.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// ChatSessionsCreated counts sessions created by GetOrCreateSession.
	ChatSessionsCreated = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "consultancy",
		Subsystem: "chat",
		Name:      "sessions_created_total",
		Help:      "Chat sessions created.",
	})

	// ChatMessages counts messages stored, by sender ("visitor" or "admin").
	ChatMessages = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "consultancy",
		Subsystem: "chat",
		Name:      "messages_total",
		Help:      "Chat messages stored.",
	}, []string{"sender"})

	// RealtimeSubscribers is the number of open hub subscriptions.
	RealtimeSubscribers = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "consultancy",
		Subsystem: "realtime",
		Name:      "subscribers",
		Help:      "Open realtime subscriptions.",
	})

	// RealtimeEvents counts events published on the hub, by kind.
	RealtimeEvents = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "consultancy",
		Subsystem: "realtime",
		Name:      "events_published_total",
		Help:      "Realtime events published.",
	}, []string{"kind"})

	// RealtimeDropped counts events dropped because a subscriber buffer was full.
	RealtimeDropped = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "consultancy",
		Subsystem: "realtime",
		Name:      "events_dropped_total",
		Help:      "Realtime events dropped for slow subscribers.",
	}, []string{"kind"})

	// SagaCompensationFailures counts compensations that failed, leaving
	// an orphaned file or record behind.
	SagaCompensationFailures = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "consultancy",
		Subsystem: "saga",
		Name:      "compensation_failures_total",
		Help:      "Failed compensation steps (possible orphans).",
	}, []string{"saga"})

	// RateLimited counts requests rejected by a rate limiter.
	RateLimited = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "consultancy",
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by rate limiting.",
	}, []string{"limiter"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
