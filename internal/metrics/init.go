package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initOperationMetrics() {
	r.OperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "causal_operations_total",
			Help: "Total number of engine operations by outcome",
		},
		[]string{"operation", "status"},
	)

	r.OperationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "causal_operation_duration_seconds",
			Help:    "Engine operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"operation"},
	)

	r.GraphNodes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "causal_graph_nodes",
			Help:    "Number of nodes per hydrated graph",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500},
		},
	)

	r.PathTruncations = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "causal_path_truncations_total",
			Help: "Queries whose path enumeration hit the path cap",
		},
		[]string{"operation"},
	)
}

func (r *Registry) initDisagreementMetrics() {
	r.DisagreementAtomsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "causal_disagreement_atoms_total",
			Help: "Disagreement atoms emitted by type and severity",
		},
		[]string{"type", "severity"},
	)

	r.DisagreementScore = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "causal_disagreement_score",
			Help:    "Normalized disagreement score per comparison",
			Buckets: []float64{0, 0.1, 0.25, 0.5, 0.75, 1.0},
		},
	)

	r.AlignmentCoverage = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "causal_alignment_coverage",
			Help:    "Share of referenced variables aligned across both models",
			Buckets: []float64{0.5, 0.75, 0.9, 0.95, 1.0},
		},
	)
}

func (r *Registry) initPromotionMetrics() {
	r.PromotionDecisionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "causal_promotion_decisions_total",
			Help: "Promotion decisions by result and reason",
		},
		[]string{"result", "reason"},
	)

	r.PromotionOverridesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "causal_promotion_overrides_total",
			Help: "Promotions allowed through a manual override",
		},
	)

	r.AutopsyRootCauses = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "causal_autopsy_root_causes",
			Help:    "Root causes reported per autopsy",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		},
	)
}

func (r *Registry) initPersistenceMetrics() {
	r.PersistenceFailuresTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "causal_persistence_failures_total",
			Help: "Records the sink failed to persist",
		},
		[]string{"record"},
	)
}
