package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "judge0",
	Subsystem: "api",
	Name:      "submissions_total",
	Help:      "Accepted submissions, by language.",
}, []string{"language"})

func observeSubmission(lang string) {
	submissionsTotal.WithLabelValues(lang).Inc()
}
