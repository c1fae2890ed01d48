package incident

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the incident subsystem.
type Metrics struct {
	CreatedTotal       prometheus.Counter
	UpdatedTotal       *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	DispatchTotal      *prometheus.CounterVec
}

// NewMetrics registers and returns incident metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(
		m.CreatedTotal,
		m.UpdatedTotal,
		m.ValidationFailures,
		m.DispatchTotal,
	)
	return m
}

// NopMetrics returns unregistered metrics for tests and callers that do not
// care about instrumentation.
func NopMetrics() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "incidentd_incidents_created_total",
			Help: "Total incidents created.",
		}),
		UpdatedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "incidentd_incidents_updated_total",
			Help: "Total incident update attempts by outcome.",
		}, []string{"outcome"}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "incidentd_validation_failures_total",
			Help: "Total request validation failures by operation.",
		}, []string{"op"}),
		DispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "incidentd_notify_dispatch_total",
			Help: "Total notification job enqueues by job name and outcome.",
		}, []string{"job", "outcome"}),
	}
}
