package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/causalcore/internal/ir"
)

// SetIntegrityCheck inserts or replaces an integrity check by name.
func (s *Store) SetIntegrityCheck(ctx context.Context, c ir.IntegrityCheck) error {
	if strings.TrimSpace(c.Name) == "" {
		return ir.NewError(ir.ErrCodeInvalidClaim, "integrity check name is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO integrity_checks (name, passing, blocking, detail)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			passing = excluded.passing,
			blocking = excluded.blocking,
			detail = excluded.detail
	`, c.Name, c.Passing, c.Blocking, c.Detail)
	if err != nil {
		return fmt.Errorf("set integrity check %s: %w", c.Name, err)
	}
	return nil
}

// ClearIntegrityCheck removes a check. Removing an unknown check is a no-op.
func (s *Store) ClearIntegrityCheck(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM integrity_checks WHERE name = ?`, name); err != nil {
		return fmt.Errorf("clear integrity check %s: %w", name, err)
	}
	return nil
}

// GetStatus returns every integrity check ordered by name. Promotion is
// frozen while any blocking check is failing.
func (s *Store) GetStatus(ctx context.Context) (ir.IntegrityStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, passing, blocking, detail
		FROM integrity_checks
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return ir.IntegrityStatus{}, fmt.Errorf("query integrity checks: %w", err)
	}
	defer rows.Close()

	status := ir.IntegrityStatus{Checks: []ir.IntegrityCheck{}}
	for rows.Next() {
		var c ir.IntegrityCheck
		if err := rows.Scan(&c.Name, &c.Passing, &c.Blocking, &c.Detail); err != nil {
			return ir.IntegrityStatus{}, fmt.Errorf("scan integrity check: %w", err)
		}
		if c.Blocking && !c.Passing {
			status.FreezePromotion = true
		}
		status.Checks = append(status.Checks, c)
	}
	if err := rows.Err(); err != nil {
		return ir.IntegrityStatus{}, fmt.Errorf("iterate integrity checks: %w", err)
	}
	return status, nil
}
