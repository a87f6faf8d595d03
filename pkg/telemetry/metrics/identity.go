package metrics

import "github.com/prometheus/client_golang/prometheus"

// IdentityMetrics tracks logins and patient registrations.
//
// Metrics:
//   - wardgate_identity_logins_total: authentication attempts by result
//   - wardgate_onboarding_registrations_total: registrations by outcome
type IdentityMetrics struct {
	loginsTotal        *prometheus.CounterVec
	registrationsTotal *prometheus.CounterVec
}

// NewIdentityMetrics creates and registers identity metrics.
func NewIdentityMetrics(registry *prometheus.Registry) *IdentityMetrics {
	im := &IdentityMetrics{
		loginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "identity",
				Name:      "logins_total",
				Help:      "Total number of console authentication attempts",
			},
			[]string{"result"},
		),

		registrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "onboarding",
				Name:      "registrations_total",
				Help:      "Total number of patient registration attempts",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(im.loginsTotal, im.registrationsTotal)

	return im
}

// RecordLogin records one authentication attempt.
func (im *IdentityMetrics) RecordLogin(result string) {
	im.loginsTotal.WithLabelValues(result).Inc()
}

// RecordOnboarding records one registration attempt.
func (im *IdentityMetrics) RecordOnboarding(outcome string) {
	im.registrationsTotal.WithLabelValues(outcome).Inc()
}
