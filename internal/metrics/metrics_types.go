// Package metrics exposes Prometheus counters and histograms for the
// causal engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the engine
type Registry struct {
	// Operation Metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	GraphNodes        prometheus.Histogram
	PathTruncations   *prometheus.CounterVec

	// Disagreement Metrics
	DisagreementAtomsTotal *prometheus.CounterVec
	DisagreementScore      prometheus.Histogram
	AlignmentCoverage      prometheus.Histogram

	// Promotion Metrics
	PromotionDecisionsTotal *prometheus.CounterVec
	PromotionOverridesTotal prometheus.Counter

	// Autopsy Metrics
	AutopsyRootCauses prometheus.Histogram

	// Persistence Metrics
	PersistenceFailuresTotal *prometheus.CounterVec

	registry *prometheus.Registry
	mu       sync.Mutex
}

// NewRegistry creates a registry with every metric registered. Registries
// share nothing, so each engine or test run counts on its own.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initOperationMetrics()
	r.initDisagreementMetrics()
	r.initPromotionMetrics()
	r.initPersistenceMetrics()
	return r
}

// Prometheus returns the underlying registry, for gathering or serving.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.registry
}
