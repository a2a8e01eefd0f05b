package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/causalcore/internal/ir"
)

// ImportResult reports what ImportModel changed.
type ImportResult struct {
	Version      ir.ModelVersion
	ModelCreated bool
	Created      bool // false when the identical version already existed
}

// ImportModel registers a model definition as a new immutable version.
//
// The model row is created on first import; later imports update its
// status but never its domain. The first version of a model becomes
// current. Re-importing a version with the same spec hash is a no-op;
// re-importing it with different content returns an error.
func (s *Store) ImportModel(ctx context.Context, def ir.ModelDefinition) (ImportResult, error) {
	hash, err := ir.SpecHash(def.Spec)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import model %s: %w", def.ModelKey, err)
	}
	specJSON, err := json.Marshal(def.Spec)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import model %s: marshal spec: %w", def.ModelKey, err)
	}
	status := def.Status
	if status == "" {
		status = ir.StatusDraft
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import model: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var result ImportResult
	var modelID int64
	var domain string
	err = tx.QueryRowContext(ctx, `SELECT id, domain FROM models WHERE model_key = ?`, def.ModelKey).Scan(&modelID, &domain)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx, `INSERT INTO models (model_key, domain, status) VALUES (?, ?, ?)`,
			def.ModelKey, def.Domain, string(status))
		if err != nil {
			return ImportResult{}, fmt.Errorf("import model %s: %w", def.ModelKey, err)
		}
		if modelID, err = res.LastInsertId(); err != nil {
			return ImportResult{}, fmt.Errorf("import model %s: %w", def.ModelKey, err)
		}
		result.ModelCreated = true
	case err != nil:
		return ImportResult{}, fmt.Errorf("import model %s: %w", def.ModelKey, err)
	default:
		if domain != def.Domain {
			return ImportResult{}, ir.NewError(ir.ErrCodeInvalidClaim,
				"model %s belongs to domain %q, not %q", def.ModelKey, domain, def.Domain)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE models SET status = ? WHERE id = ?`, string(status), modelID); err != nil {
			return ImportResult{}, fmt.Errorf("import model %s: update status: %w", def.ModelKey, err)
		}
	}

	var existingHash string
	var isCurrent bool
	err = tx.QueryRowContext(ctx, `SELECT spec_hash, is_current FROM model_versions WHERE model_id = ? AND version = ?`,
		modelID, def.Version).Scan(&existingHash, &isCurrent)
	switch {
	case err == nil:
		if existingHash != hash {
			return ImportResult{}, ir.NewError(ir.ErrCodeInvalidClaim,
				"version %s@%s already exists with different content", def.ModelKey, def.Version).
				WithDetail("spec_hash", existingHash)
		}
	case errors.Is(err, sql.ErrNoRows):
		var currentCount int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM model_versions WHERE model_id = ? AND is_current = 1`,
			modelID).Scan(&currentCount); err != nil {
			return ImportResult{}, fmt.Errorf("import model %s: %w", def.ModelKey, err)
		}
		isCurrent = currentCount == 0

		_, err = tx.ExecContext(ctx, `
			INSERT INTO model_versions (model_id, version, spec, spec_hash, is_current, seq)
			VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM model_versions))
		`, modelID, def.Version, string(specJSON), hash, isCurrent)
		if err != nil {
			return ImportResult{}, fmt.Errorf("import model %s: insert version: %w", def.ModelKey, err)
		}
		result.Created = true
	default:
		return ImportResult{}, fmt.Errorf("import model %s: %w", def.ModelKey, err)
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, fmt.Errorf("import model: commit: %w", err)
	}

	result.Version = ir.ModelVersion{
		ModelKey:  def.ModelKey,
		Version:   def.Version,
		Spec:      def.Spec,
		SpecHash:  hash,
		IsCurrent: isCurrent,
	}
	return result, nil
}

// GetModel returns a registered model.
// Returns NOT_FOUND if the key is unknown.
func (s *Store) GetModel(ctx context.Context, modelKey string) (ir.Model, error) {
	var m ir.Model
	var status string
	err := s.db.QueryRowContext(ctx, `SELECT id, model_key, domain, status FROM models WHERE model_key = ?`,
		modelKey).Scan(&m.ID, &m.ModelKey, &m.Domain, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Model{}, ir.NewError(ir.ErrCodeNotFound, "model %q not found", modelKey).WithDetail("model", modelKey)
	}
	if err != nil {
		return ir.Model{}, fmt.Errorf("get model %s: %w", modelKey, err)
	}
	m.Status = ir.ModelStatus(status)
	return m, nil
}

// ListModels returns every registered model ordered by key.
// Returns an empty slice (not nil) if none exist.
func (s *Store) ListModels(ctx context.Context) ([]ir.Model, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, model_key, domain, status
		FROM models
		ORDER BY model_key COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query models: %w", err)
	}
	defer rows.Close()

	models := []ir.Model{}
	for rows.Next() {
		var m ir.Model
		var status string
		if err := rows.Scan(&m.ID, &m.ModelKey, &m.Domain, &status); err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		m.Status = ir.ModelStatus(status)
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate models: %w", err)
	}
	return models, nil
}

// GetModelVersion resolves a model reference. An empty ref.Version
// selects the current version.
// Returns NOT_FOUND if the model or version does not exist.
func (s *Store) GetModelVersion(ctx context.Context, ref ir.ModelRef) (ir.Model, ir.ModelVersion, error) {
	model, err := s.GetModel(ctx, ref.ModelKey)
	if err != nil {
		return ir.Model{}, ir.ModelVersion{}, err
	}

	query := `SELECT version, spec, spec_hash, is_current FROM model_versions WHERE model_id = ? AND version = ?`
	args := []any{model.ID, ref.Version}
	if ref.Version == "" {
		query = `SELECT version, spec, spec_hash, is_current FROM model_versions WHERE model_id = ? AND is_current = 1`
		args = args[:1]
	}

	v, err := scanVersion(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Model{}, ir.ModelVersion{}, ir.NewError(ir.ErrCodeNotFound,
			"model version %s not found", ref).WithDetail("model", ref.ModelKey)
	}
	if err != nil {
		return ir.Model{}, ir.ModelVersion{}, fmt.Errorf("get model version %s: %w", ref, err)
	}
	v.ModelKey = model.ModelKey

	if ref.SpecHash != "" && ref.SpecHash != v.SpecHash {
		return ir.Model{}, ir.ModelVersion{}, ir.NewError(ir.ErrCodeNotFound,
			"model version %s has spec hash %s, not %s", ref, v.SpecHash, ref.SpecHash)
	}
	return model, v, nil
}

// ListVersions returns the versions of a model in import order.
func (s *Store) ListVersions(ctx context.Context, modelKey string) ([]ir.ModelVersion, error) {
	model, err := s.GetModel(ctx, modelKey)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT version, spec, spec_hash, is_current
		FROM model_versions
		WHERE model_id = ?
		ORDER BY seq ASC
	`, model.ID)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	versions := []ir.ModelVersion{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		v.ModelKey = modelKey
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	return versions, nil
}

// SetCurrentVersion makes version the current version of a model.
// The previous current row is cleared and the new one set in a single
// transaction, so readers never observe zero or two current versions.
// Returns NOT_FOUND if the model or version does not exist.
func (s *Store) SetCurrentVersion(ctx context.Context, modelKey, version string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set current version: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var versionID, modelID int64
	err = tx.QueryRowContext(ctx, `
		SELECT v.id, v.model_id
		FROM model_versions v
		JOIN models m ON m.id = v.model_id
		WHERE m.model_key = ? AND v.version = ?
	`, modelKey, version).Scan(&versionID, &modelID)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.NewError(ir.ErrCodeNotFound, "model version %s@%s not found", modelKey, version).
			WithDetail("model", modelKey)
	}
	if err != nil {
		return fmt.Errorf("set current version: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE model_versions SET is_current = 0 WHERE model_id = ? AND is_current = 1`, modelID); err != nil {
		return fmt.Errorf("set current version: clear: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE model_versions SET is_current = 1 WHERE id = ?`, versionID); err != nil {
		return fmt.Errorf("set current version: set: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set current version: commit: %w", err)
	}
	return nil
}

// SetModelStatus changes the lifecycle status of a model.
func (s *Store) SetModelStatus(ctx context.Context, modelKey string, status ir.ModelStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE models SET status = ? WHERE model_key = ?`, string(status), modelKey)
	if err != nil {
		return fmt.Errorf("set model status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ir.NewError(ir.ErrCodeNotFound, "model %q not found", modelKey).WithDetail("model", modelKey)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (ir.ModelVersion, error) {
	var v ir.ModelVersion
	var specJSON string
	if err := row.Scan(&v.Version, &specJSON, &v.SpecHash, &v.IsCurrent); err != nil {
		return ir.ModelVersion{}, err
	}
	if err := json.Unmarshal([]byte(specJSON), &v.Spec); err != nil {
		return ir.ModelVersion{}, fmt.Errorf("unmarshal spec: %w", err)
	}
	return v, nil
}
