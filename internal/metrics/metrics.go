// Package metrics provides Prometheus observability metrics for the
// escalation engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for the engine.
var Registry = prometheus.NewRegistry()

// factory allows us to register metrics to our custom Registry directly
var factory = promauto.With(Registry)

// SweepsTotal counts completed evaluation passes.
var SweepsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "escalation",
	Name:      "sweeps_total",
	Help:      "Total evaluation passes over pending broadcasts",
})

// RecordsEvaluatedTotal counts pending broadcasts examined across sweeps.
var RecordsEvaluatedTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "escalation",
	Name:      "records_evaluated_total",
	Help:      "Total pending broadcasts examined by the sweeper",
})

// RulesAppliedTotal counts applied escalation rules by action kind.
var RulesAppliedTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "escalation",
	Name:      "rules_applied_total",
	Help:      "Total escalation rules applied, by action",
}, []string{"action"})

// VersionConflictsTotal counts lost compare-and-swap races. A non-zero
// value under a single sweeper instance points at concurrent manual
// actions, which is expected; sustained growth means contention.
var VersionConflictsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "escalation",
	Name:      "version_conflicts_total",
	Help:      "Total broadcast updates lost to optimistic-concurrency races",
})

// RecordsExpiredTotal counts broadcasts expired by the overdue check.
var RecordsExpiredTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "escalation",
	Name:      "records_expired_total",
	Help:      "Total broadcasts transitioned to expired past their response deadline",
})

// PendingBroadcasts tracks the pending set size seen by the latest sweep.
var PendingBroadcasts = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "escalation",
	Name:      "pending_broadcasts",
	Help:      "Pending broadcasts observed by the most recent sweep",
})

// SweepDurationSeconds tracks time spent per evaluation pass.
var SweepDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "escalation",
	Name:      "sweep_duration_seconds",
	Help:      "Time taken by one evaluation pass",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
})
