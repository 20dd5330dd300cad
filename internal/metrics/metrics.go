// Package metrics holds the Prometheus collectors of the map portal. They are
// registered with the default registry and served on /metrics when enabled.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RatingSubmissionsTotal counts accepted ratings by outcome (created or updated).
	RatingSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapportal_rating_submissions_total",
			Help: "Total number of accepted rating submissions",
		},
		[]string{"outcome"},
	)

	// DownloadsTotal counts map downloads that incremented a download counter.
	DownloadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mapportal_downloads_total",
			Help: "Total number of map downloads",
		},
	)

	// UploadsTotal counts stored map uploads.
	UploadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mapportal_uploads_total",
			Help: "Total number of map uploads",
		},
	)

	// ListQueriesTotal counts catalog listings by sort key.
	ListQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapportal_list_queries_total",
			Help: "Total number of catalog listing queries",
		},
		[]string{"sort_by"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapportal_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mapportal_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// RateLimitedTotal counts requests rejected by the write rate limiter.
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mapportal_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)

func RecordRating(created bool) {
	outcome := "updated"
	if created {
		outcome = "created"
	}
	RatingSubmissionsTotal.WithLabelValues(outcome).Inc()
}

func RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
