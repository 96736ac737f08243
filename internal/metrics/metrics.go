// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AdjustmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "points_adjustments_total",
			Help: "Total number of point adjustment operations",
		},
		[]string{"target_type", "action"},
	)

	PointsAdjusted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "points_adjusted_sum",
			Help: "Total points moved by adjustment operations",
		},
		[]string{"target_type", "action"},
	)

	RequestReviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "request_reviews_total",
			Help: "Total number of reviewed task requests",
		},
		[]string{"status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
