// Package metrics provides observability for the account module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks registration, login, and access-check outcomes.
type Metrics struct {
	UsersRegistered prometheus.Counter
	LoginSuccess    prometheus.Counter
	LoginFailure    prometheus.Counter
	Lockouts        prometheus.Counter
	AccessGranted   prometheus.Counter
	AccessDenied    *prometheus.CounterVec
	LoginDuration   prometheus.Histogram
}

// New creates and registers all account module metrics.
func New() *Metrics {
	return &Metrics{
		UsersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agegate_users_registered_total",
			Help: "Total number of users registered",
		}),
		LoginSuccess: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agegate_logins_success_total",
			Help: "Total number of successful logins",
		}),
		LoginFailure: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agegate_logins_failure_total",
			Help: "Total number of failed login attempts",
		}),
		Lockouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agegate_lockouts_total",
			Help: "Total number of login attempts rejected by the lockout policy",
		}),
		AccessGranted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agegate_access_granted_total",
			Help: "Total number of age-gated access checks that passed",
		}),
		AccessDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agegate_access_denied_total",
			Help: "Total number of age-gated access checks that failed, by reason",
		}, []string{"reason"}),
		LoginDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "agegate_login_duration_seconds",
			Help:    "Duration of login operations (bcrypt dominates)",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// ObserveLogin records the duration of a login operation.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveLogin(start time.Time) {
	m.LoginDuration.Observe(time.Since(start).Seconds())
}
