package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kanso_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kanso_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CheckinsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kanso_checkins_submitted_total",
			Help: "Committed check-in writes by status",
		},
		[]string{"status"},
	)

	BatchEntriesSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kanso_batch_entries_skipped_total",
			Help: "Batch check-in entries skipped for missing or foreign habits",
		},
	)

	StreakRecomputes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kanso_streak_recomputes_total",
			Help: "Streak recomputations performed",
		},
	)

	UnitOfWorkFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kanso_unit_of_work_failures_total",
			Help: "Units of work rolled back, by operation",
		},
		[]string{"operation"},
	)
)

var registerOnce sync.Once

// Register adds every collector to reg. Safe to call more than once.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(
			HTTPRequests,
			HTTPDuration,
			CheckinsSubmitted,
			BatchEntriesSkipped,
			StreakRecomputes,
			UnitOfWorkFailures,
		)
	})
}
