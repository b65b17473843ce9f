// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// EventsAppendedTotal tracks session events appended by type and backend.
	EventsAppendedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_events_appended_total",
			Help: "Total session events appended",
		},
		[]string{"type", "backend"},
	)

	// EventsSkippedTotal tracks records skipped by projections because they
	// did not decode as a known event.
	EventsSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "interview_events_skipped_total",
			Help: "Stored records skipped by projections as undecodable",
		},
	)

	// EventsTruncatedTotal tracks records truncated to the size ceiling.
	EventsTruncatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "interview_events_truncated_total",
			Help: "Session records truncated to the record size ceiling",
		},
	)

	// RestoresTotal tracks restore calls by outcome.
	RestoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_restores_total",
			Help: "Session restore attempts",
		},
		[]string{"outcome"},
	)

	// RestoredStepsTotal tracks replayed restore steps.
	RestoredStepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "interview_restored_steps_total",
			Help: "Total restore steps replayed into session logs",
		},
	)

	// TTLRefreshedKeysTotal tracks keys whose expiry was extended.
	TTLRefreshedKeysTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "interview_ttl_refreshed_keys_total",
			Help: "Session storage keys whose TTL was extended",
		},
	)

	// EventsMirroredTotal tracks events mirrored to the NATS stream.
	EventsMirroredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_events_mirrored_total",
			Help: "Session events mirrored to the event stream",
		},
		[]string{"outcome"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordAppend records a successful event append.
func RecordAppend(eventType, backend string) {
	EventsAppendedTotal.WithLabelValues(eventType, backend).Inc()
}

// RecordRestore records a restore attempt outcome and its step count.
func RecordRestore(outcome string, steps int) {
	RestoresTotal.WithLabelValues(outcome).Inc()
	if steps > 0 {
		RestoredStepsTotal.Add(float64(steps))
	}
}
