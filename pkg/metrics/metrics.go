package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure|locked|disabled).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carenet_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// GatewayDecisions counts edge gateway outcomes (pass|unauthenticated|forbidden|redirect).
	GatewayDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carenet_gateway_decisions_total",
			Help: "Total number of request gateway decisions",
		},
		[]string{"outcome"},
	)

	// PermissionChecks counts permission evaluations and their outcome (allow|deny).
	PermissionChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carenet_permission_checks_total",
			Help: "Total number of permission checks",
		},
		[]string{"permission", "result"},
	)

	// QuotaDecisions counts quota ledger outcomes per service type (consumed|rejected).
	QuotaDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carenet_quota_decisions_total",
			Help: "Total number of quota ledger decisions",
		},
		[]string{"service", "result"},
	)

	// ActiveSessions tracks active sessions (not expired/revoked).
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "carenet_active_sessions",
			Help: "Number of active sessions",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "carenet_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
