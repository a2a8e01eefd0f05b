package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/causalcore/internal/disagree"
	"github.com/roach88/causalcore/internal/ir"
	"github.com/roach88/causalcore/internal/promotion"
)

// PromoteRequest asks to make CandidateVersion the current version of
// ModelKey.
type PromoteRequest struct {
	ModelKey         string       `json:"model_key"`
	CandidateVersion string       `json:"candidate_version"`
	OutcomeVar       string       `json:"outcome_var"`
	Interventions    []string     `json:"interventions,omitempty"`
	Override         *ir.Override `json:"override,omitempty"`

	// CrossDomain forces the cross-domain coverage rule. It is also applied
	// when either spec declares nodes from a domain other than the model's.
	CrossDomain bool `json:"cross_domain,omitempty"`
}

// PromotionResult is the outcome of Promote.
type PromotionResult struct {
	Decision ir.PromotionDecision  `json:"decision"`
	Report   ir.DisagreementReport `json:"report"`
	Audit    ir.PromotionAudit     `json:"audit"`
}

// Promote compares the candidate with the current version, applies the
// promotion policy and, when allowed, makes the candidate current. An
// audit record is written for every evaluated attempt.
//
// A blocked promotion is a decision, not an error. Returns INVALID_CLAIM if
// the candidate is already current, NOT_FOUND for unknown models or
// versions, and the registry error if the current-version flip fails.
func (e *Engine) Promote(ctx context.Context, req PromoteRequest) (res PromotionResult, err error) {
	defer func(start time.Time) { e.observe(OpPromote, start, err) }(time.Now())

	current, candidate, err := e.resolveSides(ctx,
		ir.ModelRef{ModelKey: req.ModelKey},
		ir.ModelRef{ModelKey: req.ModelKey, Version: req.CandidateVersion},
	)
	if err != nil {
		return PromotionResult{}, err
	}
	if current.Ref.Version == candidate.Ref.Version {
		return PromotionResult{}, ir.NewError(ir.ErrCodeInvalidClaim,
			"version %s is already current", candidate.Ref).WithDetail("model", req.ModelKey)
	}

	integrity, err := e.integrityStatus(ctx)
	if err != nil {
		return PromotionResult{}, err
	}

	report, err := e.compareSides(ctx, current, candidate, req.OutcomeVar, req.Interventions)
	if err != nil {
		return PromotionResult{}, err
	}

	decision := e.gate.Evaluate(promotion.Request{
		Report:           report,
		CrossDomain:      req.CrossDomain || spansDomains(current) || spansDomains(candidate),
		Override:         req.Override,
		Integrity:        integrity,
		CandidateVersion: req.CandidateVersion,
	})
	e.metrics.RecordPromotion(decision)

	audit := ir.PromotionAudit{
		ModelKey:         req.ModelKey,
		CurrentVersion:   current.Ref.Version,
		CandidateVersion: candidate.Ref.Version,
		ReportID:         report.ID,
		Decision:         decision,
		Override:         req.Override,
	}

	var flipErr error
	if decision.Allowed {
		flipErr = e.registry.SetCurrentVersion(ctx, req.ModelKey, req.CandidateVersion)
		audit.Promoted = flipErr == nil
	}

	e.persist(ctx, ir.RecordPromotionAudit, report.ID, func(ctx context.Context) error {
		return e.sink.WritePromotionAudit(ctx, audit)
	})

	res = PromotionResult{Decision: decision, Report: report, Audit: audit}
	if flipErr != nil {
		return res, fmt.Errorf("promote %s to %s: %w", req.ModelKey, req.CandidateVersion, flipErr)
	}

	slog.Info("promotion evaluated",
		"model", req.ModelKey,
		"candidate", req.CandidateVersion,
		"allowed", decision.Allowed,
		"reason", decision.Reason,
	)
	return res, nil
}

func (e *Engine) integrityStatus(ctx context.Context) (ir.IntegrityStatus, error) {
	if e.integrity == nil {
		return ir.IntegrityStatus{}, nil
	}
	status, err := e.integrity.GetStatus(ctx)
	if err != nil {
		return ir.IntegrityStatus{}, fmt.Errorf("integrity status: %w", err)
	}
	return status, nil
}

// spansDomains reports whether the side declares a node from a domain other
// than its model's.
func spansDomains(side disagree.Side) bool {
	for _, n := range side.Spec.Nodes {
		if n.Domain != "" && n.Domain != side.Domain {
			return true
		}
	}
	return false
}
