// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FormSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_form_submissions_total",
			Help: "Total number of form submissions by outcome",
		},
		[]string{"form", "outcome"},
	)

	FormSubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_form_submission_duration_seconds",
			Help:    "Duration of form submissions in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"form"},
	)

	SubmissionsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gateway_submissions_in_flight",
			Help: "Number of submissions currently waiting on upstream",
		},
		[]string{"form"},
	)

	GuardRedirects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_guard_redirects_total",
			Help: "Total number of redirects issued by route guards",
		},
		[]string{"guard"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_upstream_requests_total",
			Help: "Total number of requests sent to the marketplace API",
		},
		[]string{"method", "status"},
	)
)
