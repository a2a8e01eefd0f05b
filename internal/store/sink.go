package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/causalcore/internal/ir"
)

// persistenceError wraps a sink failure in the core taxonomy.
func persistenceError(record string, err error) error {
	e := ir.NewError(ir.ErrCodePersistenceFailure, "write %s", record).WithDetail("record", record)
	e.Err = err
	return e
}

// WriteDisagreementReport stores a report by ID.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - reports are immutable.
func (s *Store) WriteDisagreementReport(ctx context.Context, r ir.DisagreementReport) error {
	data, err := json.Marshal(r)
	if err != nil {
		return persistenceError(ir.RecordDisagreementReport, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO disagreement_reports (id, left_ref, right_ref, outcome_var, score, report, seq)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM disagreement_reports))
		ON CONFLICT(id) DO NOTHING
	`, r.ID, r.Left.String(), r.Right.String(), r.OutcomeVar, r.Score, string(data))
	if err != nil {
		return persistenceError(ir.RecordDisagreementReport, err)
	}
	return nil
}

// WriteCounterfactualTrace stores a trace by TraceID.
func (s *Store) WriteCounterfactualTrace(ctx context.Context, t ir.CounterfactualTrace) error {
	data, err := json.Marshal(t)
	if err != nil {
		return persistenceError(ir.RecordCounterfactual, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO counterfactual_traces (trace_id, model_ref, trace, seq)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM counterfactual_traces))
		ON CONFLICT(trace_id) DO NOTHING
	`, t.TraceID, t.Model.String(), string(data))
	if err != nil {
		return persistenceError(ir.RecordCounterfactual, err)
	}
	return nil
}

// WriteAutopsyReport stores an autopsy report by ID.
func (s *Store) WriteAutopsyReport(ctx context.Context, r ir.AutopsyReport) error {
	data, err := json.Marshal(r)
	if err != nil {
		return persistenceError(ir.RecordAutopsyReport, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO autopsy_reports (id, model_ref, report, seq)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM autopsy_reports))
		ON CONFLICT(id) DO NOTHING
	`, r.ID, r.Model.String(), string(data))
	if err != nil {
		return persistenceError(ir.RecordAutopsyReport, err)
	}
	return nil
}

// WritePromotionAudit appends a promotion audit record.
func (s *Store) WritePromotionAudit(ctx context.Context, a ir.PromotionAudit) error {
	data, err := json.Marshal(a)
	if err != nil {
		return persistenceError(ir.RecordPromotionAudit, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO promotion_audits
		(model_key, current_version, candidate_version, report_id, allowed, reason, audit, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM promotion_audits))
	`, a.ModelKey, a.CurrentVersion, a.CandidateVersion, a.ReportID, a.Decision.Allowed, a.Decision.Reason, string(data))
	if err != nil {
		return persistenceError(ir.RecordPromotionAudit, err)
	}
	return nil
}

// ReadDisagreementReport returns a stored report.
// Returns NOT_FOUND if no report has the ID.
func (s *Store) ReadDisagreementReport(ctx context.Context, id string) (ir.DisagreementReport, error) {
	var r ir.DisagreementReport
	if err := s.readJSON(ctx, &r, `SELECT report FROM disagreement_reports WHERE id = ?`, id); err != nil {
		return ir.DisagreementReport{}, fmt.Errorf("read disagreement report %s: %w", id, err)
	}
	return r, nil
}

// ReadCounterfactualTrace returns a stored trace.
// Returns NOT_FOUND if no trace has the ID.
func (s *Store) ReadCounterfactualTrace(ctx context.Context, traceID string) (ir.CounterfactualTrace, error) {
	var t ir.CounterfactualTrace
	if err := s.readJSON(ctx, &t, `SELECT trace FROM counterfactual_traces WHERE trace_id = ?`, traceID); err != nil {
		return ir.CounterfactualTrace{}, fmt.Errorf("read counterfactual trace %s: %w", traceID, err)
	}
	return t, nil
}

// ReadAutopsyReport returns a stored autopsy report.
// Returns NOT_FOUND if no report has the ID.
func (s *Store) ReadAutopsyReport(ctx context.Context, id string) (ir.AutopsyReport, error) {
	var r ir.AutopsyReport
	if err := s.readJSON(ctx, &r, `SELECT report FROM autopsy_reports WHERE id = ?`, id); err != nil {
		return ir.AutopsyReport{}, fmt.Errorf("read autopsy report %s: %w", id, err)
	}
	return r, nil
}

// ListPromotionAudits returns the audits of a model in write order.
// Returns an empty slice (not nil) if none exist.
func (s *Store) ListPromotionAudits(ctx context.Context, modelKey string) ([]ir.PromotionAudit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT audit
		FROM promotion_audits
		WHERE model_key = ?
		ORDER BY seq ASC
	`, modelKey)
	if err != nil {
		return nil, fmt.Errorf("query promotion audits: %w", err)
	}
	defer rows.Close()

	audits := []ir.PromotionAudit{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan promotion audit: %w", err)
		}
		var a ir.PromotionAudit
		if err := json.Unmarshal([]byte(data), &a); err != nil {
			return nil, fmt.Errorf("unmarshal promotion audit: %w", err)
		}
		audits = append(audits, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate promotion audits: %w", err)
	}
	return audits, nil
}

func (s *Store) readJSON(ctx context.Context, dest any, query string, id string) error {
	var data string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.NewError(ir.ErrCodeNotFound, "record %q not found", id)
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}
