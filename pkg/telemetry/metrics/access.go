package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AccessMetrics tracks record and door access decisions.
//
// Metrics:
//   - wardgate_access_decisions_total: decisions by role and audit action
//   - wardgate_access_decision_duration_seconds: decision latency by role
//   - wardgate_zone_decisions_total: door interactions by outcome
type AccessMetrics struct {
	decisionsTotal   *prometheus.CounterVec
	decisionDuration *prometheus.HistogramVec
	zoneTotal        *prometheus.CounterVec
}

// NewAccessMetrics creates and registers access metrics.
func NewAccessMetrics(registry *prometheus.Registry) *AccessMetrics {
	am := &AccessMetrics{
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "access",
				Name:      "decisions_total",
				Help:      "Total number of patient record access decisions",
			},
			[]string{"role", "action"},
		),

		decisionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "access",
				Name:      "decision_duration_seconds",
				Help:      "Duration of an access decision including the record lookups",
				// One to three SQLite reads plus an audit enqueue.
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 100µs to ~800ms
			},
			[]string{"role"},
		),

		zoneTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "zone",
				Name:      "decisions_total",
				Help:      "Total number of ward door interactions",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(am.decisionsTotal, am.decisionDuration, am.zoneTotal)

	return am
}

// RecordDecision records one access decision.
func (am *AccessMetrics) RecordDecision(role, action string, duration time.Duration) {
	am.decisionsTotal.WithLabelValues(role, action).Inc()
	am.decisionDuration.WithLabelValues(role).Observe(duration.Seconds())
}

// RecordZone records one door interaction.
func (am *AccessMetrics) RecordZone(outcome string) {
	am.zoneTotal.WithLabelValues(outcome).Inc()
}
