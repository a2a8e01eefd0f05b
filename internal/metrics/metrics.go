package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/common/expfmt"

	"github.com/roach88/causalcore/internal/ir"
)

// Operation status labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// RecordOperation records an engine operation with its duration
func (r *Registry) RecordOperation(operation string, err error, duration time.Duration) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	r.OperationsTotal.WithLabelValues(operation, status).Inc()
	r.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordGraph records the size of a hydrated graph
func (r *Registry) RecordGraph(nodes int) {
	r.GraphNodes.Observe(float64(nodes))
}

// RecordTruncation counts a query that hit the path cap
func (r *Registry) RecordTruncation(operation string) {
	r.PathTruncations.WithLabelValues(operation).Inc()
}

// RecordDisagreement records the atoms, score and coverage of a report
func (r *Registry) RecordDisagreement(report ir.DisagreementReport) {
	for _, a := range report.Atoms {
		r.DisagreementAtomsTotal.WithLabelValues(string(a.Type), string(a.Severity)).Inc()
	}
	r.DisagreementScore.Observe(report.Score)
	r.AlignmentCoverage.Observe(report.AlignmentQuality.Coverage)
}

// RecordPromotion records a promotion decision
func (r *Registry) RecordPromotion(d ir.PromotionDecision) {
	result := "blocked"
	if d.Allowed {
		result = "allowed"
	}
	r.PromotionDecisionsTotal.WithLabelValues(result, d.Reason).Inc()
	if d.OverrideUsed {
		r.PromotionOverridesTotal.Inc()
	}
}

// RecordAutopsy records the outcome of an autopsy
func (r *Registry) RecordAutopsy(report ir.AutopsyReport) {
	r.AutopsyRootCauses.Observe(float64(len(report.RootCauses)))
	if report.Truncated {
		r.RecordTruncation("autopsy")
	}
}

// RecordPersistenceFailure counts a record the sink could not write
func (r *Registry) RecordPersistenceFailure(record string) {
	r.PersistenceFailuresTotal.WithLabelValues(record).Inc()
}

// WriteText writes every gathered metric family in the Prometheus text
// exposition format.
func (r *Registry) WriteText(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
