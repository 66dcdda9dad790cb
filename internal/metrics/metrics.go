// Package metrics defines Prometheus metrics for antennadesk.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "antennadesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "antennadesk_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "antennadesk_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)

	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "antennadesk_rate_limited_total",
			Help: "Requests refused by a rate limiter",
		},
		[]string{"limiter"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "antennadesk_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "antennadesk_websocket_connections",
			Help: "Active WebSocket connections",
		},
	)

	WSJoins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "antennadesk_websocket_joins_total",
			Help: "WebSocket join requests by outcome",
		},
		[]string{"outcome"},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "antennadesk_notifications_total",
			Help: "Notification dispatches by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	RequestsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "antennadesk_requests_created_total",
			Help: "Requests created by type",
		},
		[]string{"type"},
	)

	RequestTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "antennadesk_request_transitions_total",
			Help: "Persisted request status transitions",
		},
		[]string{"from", "to"},
	)

	ActionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "antennadesk_action_failures_total",
			Help: "Equipment actions that failed and aborted a completion",
		},
		[]string{"type"},
	)

	DBConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "antennadesk_db_connections",
			Help: "Database pool connections by state",
		},
		[]string{"state"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, HTTPInFlight, RateLimited, ErrorsTotal,
		WSConnections, WSJoins, NotificationsTotal,
		RequestsCreated, RequestTransitions, ActionFailures,
		DBConnections,
	)
}
