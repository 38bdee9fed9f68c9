// Package services – distribution metrics.
//
// Prometheus instrumentation for the routing decision itself, complementing
// the HTTP-level metrics emitted by the middleware layer. Label cardinality
// is bounded: source codes are operator-configured and few, and the outcome
// label has exactly two values.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// distributionsTotal counts routing decisions by source and outcome
	// ("assigned" or "unassigned").
	distributionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_distributions_total",
			Help: "Total number of contact distribution decisions.",
		},
		[]string{"source", "outcome"},
	)

	// distributionCandidates records how many under-capacity candidates were
	// available at pick time. A sustained drift toward zero signals
	// saturation before unassigned contacts start piling up.
	distributionCandidates = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contact_distribution_candidates",
			Help:    "Available (under-capacity) operators per distribution.",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(distributionsTotal, distributionCandidates)
}

// observeDistribution records one routing decision.
func observeDistribution(sourceCode string, assigned bool, available int) {
	outcome := "unassigned"
	if assigned {
		outcome = "assigned"
	}
	distributionsTotal.WithLabelValues(sourceCode, outcome).Inc()
	distributionCandidates.WithLabelValues(sourceCode).Observe(float64(available))
}
