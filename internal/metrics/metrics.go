package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the service
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authorization
	AuthzDecisions *prometheus.CounterVec

	// Quota
	PointsDeducted     *prometheus.CounterVec
	DeductionsRejected *prometheus.CounterVec

	// Sessions
	SessionsRevoked prometheus.Counter
}

// New registers all collectors on reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthzDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authz_decisions_total",
				Help: "Authorization decisions by resource and outcome",
			},
			[]string{"resource", "outcome"}, // outcome: permitted, denied
		),
		PointsDeducted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quota_points_deducted_total",
				Help: "Points deducted from balances",
			},
			[]string{"owner_kind", "feature_type"},
		),
		DeductionsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quota_deductions_rejected_total",
				Help: "Deductions rejected before any balance change",
			},
			[]string{"reason"}, // quota_exceeded, inactive, invalid_unit, validation
		),
		SessionsRevoked: factory.NewCounter(prometheus.CounterOpts{
			Name: "auth_sessions_revoked_total",
			Help: "Sessions revoked through logout",
		}),
	}
}

// RegisterPoolStats exposes database pool usage. acquired and total are called at scrape time.
func RegisterPoolStats(reg prometheus.Registerer, acquired, total func() int32) {
	factory := promauto.With(reg)
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "db_connections_acquired",
		Help: "Database connections currently checked out of the pool",
	}, func() float64 { return float64(acquired()) })
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "db_connections_total",
		Help: "Database connections currently open",
	}, func() float64 { return float64(total()) })
}

// RecordDecision counts one authorization outcome
func (m *Metrics) RecordDecision(resource string, allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "permitted"
	}
	m.AuthzDecisions.WithLabelValues(resource, outcome).Inc()
}

// RecordDeduction adds points charged to a balance
func (m *Metrics) RecordDeduction(ownerKind, featureType string, points int64) {
	m.PointsDeducted.WithLabelValues(ownerKind, featureType).Add(float64(points))
}

// RecordRejection counts a refused deduction
func (m *Metrics) RecordRejection(reason string) {
	m.DeductionsRejected.WithLabelValues(reason).Inc()
}
