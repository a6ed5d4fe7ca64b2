// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optical_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "optical_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	MeasurementsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "optical_measurements_submitted_total",
			Help: "Total number of persisted measurements",
		},
	)

	AnalysisResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optical_analysis_results_total",
			Help: "Analysis results by kind and source (ai or fallback)",
		},
		[]string{"kind", "source"},
	)

	SessionLogins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optical_session_logins_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optical_notifications_sent_total",
			Help: "Notifications by channel and status",
		},
		[]string{"channel", "status"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optical_cache_lookups_total",
			Help: "Cache lookups by cache name and result",
		},
		[]string{"cache", "result"},
	)
)
