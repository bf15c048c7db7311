// Package metrics holds the Prometheus collectors for the risk engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Evaluations counts engine evaluations by subject kind.
	Evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "risk_evaluations_total",
		Help: "Number of rule evaluation passes, by subject kind.",
	}, []string{"subject"})

	// Incidents counts created incidents by rule type and severity.
	Incidents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "risk_incidents_total",
		Help: "Number of incidents created, by rule type and severity.",
	}, []string{"rule_type", "severity"})

	// ActionFailures counts remediation handler failures by action type.
	ActionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "risk_action_failures_total",
		Help: "Number of failed remediation action executions, by action type.",
	}, []string{"action_type"})

	// SweepDuration observes how long one full account sweep takes.
	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "risk_sweep_duration_seconds",
		Help:    "Duration of one periodic account sweep.",
		Buckets: prometheus.DefBuckets,
	})

	// SweepFailures counts accounts whose sweep evaluation failed.
	SweepFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "risk_sweep_account_failures_total",
		Help: "Number of accounts that failed evaluation during a sweep.",
	})
)
