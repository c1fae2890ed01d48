package jobs

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the job subsystem.
type Metrics struct {
	EnqueuedTotal *prometheus.CounterVec
	JobsTotal     *prometheus.CounterVec
	JobDuration   *prometheus.HistogramVec
}

// NewMetrics registers and returns job metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(
		m.EnqueuedTotal,
		m.JobsTotal,
		m.JobDuration,
	)
	return m
}

// NopMetrics returns unregistered metrics for tests.
func NopMetrics() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		EnqueuedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "incidentd_jobs_enqueued_total",
			Help: "Total jobs placed on the broker by job name.",
		}, []string{"job"}),
		JobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "incidentd_jobs_total",
			Help: "Total jobs executed by name and terminal status.",
		}, []string{"job", "status"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "incidentd_job_duration_seconds",
			Help:    "Duration of job executions in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 0.1s .. ~200s
		}, []string{"job"}),
	}
}
