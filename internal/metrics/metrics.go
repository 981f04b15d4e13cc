// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MutationsTotal counts ledger mutations by operation and outcome.
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pennywise_ledger_mutations_total",
		Help: "Ledger mutations by operation (add, update, delete, delete_batch) and status (ok, error).",
	}, []string{"operation", "status"})

	// ConflictRetries counts optimistic-concurrency retries on account totals.
	ConflictRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pennywise_ledger_conflict_retries_total",
		Help: "Aggregate update attempts retried after losing a version race.",
	})

	// ProjectionFailures counts swallowed cache/index projection errors.
	// The primary mutation still succeeded whenever this increments.
	ProjectionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pennywise_projection_failures_total",
		Help: "Best-effort projection failures by target (cache, search).",
	}, []string{"target"})
)
