// Package metrics defines Prometheus metrics for auditdesk.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auditdesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditdesk_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditdesk_errors_total",
			Help: "Total error responses by type",
		},
		[]string{"type"},
	)

	AuthFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditdesk_auth_failures_total",
			Help: "Rejected requests by the auth gateway, by reason",
		},
		[]string{"reason"},
	)

	ActivityDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auditdesk_activity_dropped_total",
			Help: "Activity entries dropped because the queue was full",
		},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "auditdesk_websocket_connections",
			Help: "Active session-event WebSocket connections",
		},
	)

	DBConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "auditdesk_db_connections",
			Help: "Database pool connections by state",
		},
		[]string{"state"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		AuthFailuresTotal, ActivityDropped,
		WSConnections, DBConnections,
	)
}
