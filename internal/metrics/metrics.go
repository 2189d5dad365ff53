// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const prefix = "foodlink"

var (
	// HTTP request metrics, labeled by route pattern rather than raw path
	// to keep cardinality bounded.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_failures_total",
			Help: "Total number of failed authentication attempts",
		},
	)

	OrdersCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_orders_created_total",
			Help: "Total number of orders placed",
		},
	)

	OrderStatusChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_order_status_changes_total",
			Help: "Total number of order status transitions",
		},
		[]string{"status"},
	)

	RatingsSubmittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_ratings_submitted_total",
			Help: "Total number of supplier ratings submitted",
		},
	)
)
