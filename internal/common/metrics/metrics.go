// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP request handling in seconds",
		},
		[]string{"method", "route"},
	)

	ApplicationsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "applications_submitted_total",
			Help: "Total number of accepted form submissions",
		},
	)

	DuplicatesBlocked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "applications_duplicates_blocked_total",
			Help: "Total number of submissions rejected by the duplicate guard",
		},
	)

	ValidationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "applications_validation_failures_total",
			Help: "Total number of submissions rejected by field validation",
		},
	)

	SheetsSyncFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sheets_sync_failures_total",
			Help: "Total number of failed Google Sheets appends",
		},
	)

	NotificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Total number of failed admin email notifications",
		},
	)
)
