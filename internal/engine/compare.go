package engine

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/causalcore/internal/disagree"
	"github.com/roach88/causalcore/internal/ir"
)

// CompareRequest names the two model versions to diff.
type CompareRequest struct {
	Left          ir.ModelRef `json:"left"`
	Right         ir.ModelRef `json:"right"`
	OutcomeVar    string      `json:"outcome_var"`
	Interventions []string    `json:"interventions,omitempty"`
}

// Compare diffs two model versions and persists the report.
//
// Both sides are resolved concurrently. The report is cross-domain when the
// two models belong to different domains.
func (e *Engine) Compare(ctx context.Context, req CompareRequest) (report ir.DisagreementReport, err error) {
	defer func(start time.Time) { e.observe(OpCompare, start, err) }(time.Now())

	left, right, err := e.resolveSides(ctx, req.Left, req.Right)
	if err != nil {
		return ir.DisagreementReport{}, err
	}
	return e.compareSides(ctx, left, right, req.OutcomeVar, req.Interventions)
}

// resolveSides looks up both references in parallel.
func (e *Engine) resolveSides(ctx context.Context, leftRef, rightRef ir.ModelRef) (left, right disagree.Side, err error) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		left, err = e.side(ctx, leftRef)
		return err
	})
	g.Go(func() error {
		var err error
		right, err = e.side(ctx, rightRef)
		return err
	})
	if err := g.Wait(); err != nil {
		return disagree.Side{}, disagree.Side{}, err
	}
	return left, right, nil
}

func (e *Engine) side(ctx context.Context, ref ir.ModelRef) (disagree.Side, error) {
	model, version, err := e.registry.GetModelVersion(ctx, ref)
	if err != nil {
		return disagree.Side{}, err
	}
	return disagree.Side{
		Ref:    ir.ModelRef{ModelKey: model.ModelKey, Version: version.Version, SpecHash: version.SpecHash},
		Domain: model.Domain,
		Spec:   version.Spec,
	}, nil
}

// compareSides runs the comparison, stamps the report and persists it.
func (e *Engine) compareSides(ctx context.Context, left, right disagree.Side, outcome string, interventions []string) (ir.DisagreementReport, error) {
	report, err := disagree.Compare(disagree.Input{
		Left:          left,
		Right:         right,
		OutcomeVar:    outcome,
		Interventions: interventions,
	}, e.aligner, e.compareOpts)
	if err != nil {
		return ir.DisagreementReport{}, err
	}
	report.ID = e.ids.Generate()
	e.metrics.RecordDisagreement(report)

	e.persist(ctx, ir.RecordDisagreementReport, report.ID, func(ctx context.Context) error {
		return e.sink.WriteDisagreementReport(ctx, report)
	})
	return report, nil
}
