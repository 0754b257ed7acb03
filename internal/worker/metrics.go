package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "judge0",
		Subsystem: "worker",
		Name:      "jobs_executed_total",
		Help:      "Jobs driven to a terminal status, by status.",
	}, []string{"status"})

	jobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "judge0",
		Subsystem: "worker",
		Name:      "job_duration_seconds",
		Help:      "Wall-clock time from claim to commit.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	})
)

func observeJob(status string, d time.Duration) {
	jobsExecuted.WithLabelValues(status).Inc()
	jobDuration.Observe(d.Seconds())
}
