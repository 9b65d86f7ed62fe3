package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the backend
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec

	// Listen telemetry
	ListensRecorded prometheus.Counter
	ListensDeduped  prometheus.Counter

	// Reaction engine
	ReactionsToggled prometheus.CounterVec
	TagVotesToggled  prometheus.CounterVec

	// Soft-delete
	NotesDeleted    prometheus.Counter
	RepliesCascaded prometheus.Counter
	CascadePartial  prometheus.Counter
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			ListensRecorded: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "listens_recorded_total",
					Help: "Listen events appended to the telemetry log",
				},
			),
			ListensDeduped: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "listens_deduped_total",
					Help: "Listen events dropped by session-token dedupe",
				},
			),
			ReactionsToggled: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "reactions_toggled_total",
					Help: "Reaction toggle transitions by operation",
				},
				[]string{"operation"},
			),
			TagVotesToggled: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tag_votes_toggled_total",
					Help: "Tag vote toggle transitions by operation",
				},
				[]string{"operation"},
			),
			NotesDeleted: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "voice_notes_deleted_total",
					Help: "Voice notes soft-deleted",
				},
			),
			RepliesCascaded: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "replies_cascaded_total",
					Help: "Replies soft-deleted by cascade",
				},
			),
			CascadePartial: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "delete_cascade_partial_total",
					Help: "Deletes whose cascade finished partially",
				},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it if needed
func Get() *Metrics {
	return Initialize()
}
