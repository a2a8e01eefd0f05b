package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/roach88/causalcore/internal/ir"
)

// Memory is an in-process Registry, IntegrityService and Sink.
// Used by tests and by embedders that need no persistence; it follows the
// same rules as the SQLite store: the first version of a model becomes current and
// versions are immutable.
//
// Thread-safety: all methods are safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	models   map[string]ir.Model
	versions map[string][]ir.ModelVersion // model key -> versions in import order
	checks   map[string]ir.IntegrityCheck

	reports []ir.DisagreementReport
	traces  []ir.CounterfactualTrace
	autops  []ir.AutopsyReport
	audits  []ir.PromotionAudit
}

// NewMemory creates an empty Memory.
func NewMemory() *Memory {
	return &Memory{
		models:   make(map[string]ir.Model),
		versions: make(map[string][]ir.ModelVersion),
		checks:   make(map[string]ir.IntegrityCheck),
	}
}

// Import registers a model definition as a new version.
//
// Returns INVALID_CLAIM if the model exists under another domain or the
// version exists with different content.
func (m *Memory) Import(def ir.ModelDefinition) (ir.ModelVersion, error) {
	hash, err := ir.SpecHash(def.Spec)
	if err != nil {
		return ir.ModelVersion{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	model, ok := m.models[def.ModelKey]
	if ok && model.Domain != def.Domain {
		return ir.ModelVersion{}, ir.NewError(ir.ErrCodeInvalidClaim,
			"model %s belongs to domain %q, not %q", def.ModelKey, model.Domain, def.Domain)
	}
	if !ok {
		model = ir.Model{ID: int64(len(m.models) + 1), ModelKey: def.ModelKey, Domain: def.Domain}
	}
	model.Status = def.Status
	if model.Status == "" {
		model.Status = ir.StatusDraft
	}

	for _, v := range m.versions[def.ModelKey] {
		if v.Version != def.Version {
			continue
		}
		if v.SpecHash != hash {
			return ir.ModelVersion{}, ir.NewError(ir.ErrCodeInvalidClaim,
				"version %s@%s already exists with different content", def.ModelKey, def.Version)
		}
		m.models[def.ModelKey] = model
		return v, nil
	}

	v := ir.ModelVersion{
		ModelKey:  def.ModelKey,
		Version:   def.Version,
		Spec:      def.Spec,
		SpecHash:  hash,
		IsCurrent: len(m.versions[def.ModelKey]) == 0,
	}
	m.models[def.ModelKey] = model
	m.versions[def.ModelKey] = append(m.versions[def.ModelKey], v)
	return v, nil
}

// GetModelVersion implements Registry.
func (m *Memory) GetModelVersion(_ context.Context, ref ir.ModelRef) (ir.Model, ir.ModelVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	model, ok := m.models[ref.ModelKey]
	if !ok {
		return ir.Model{}, ir.ModelVersion{}, ir.NewError(ir.ErrCodeNotFound, "model %q not found", ref.ModelKey).
			WithDetail("model", ref.ModelKey)
	}
	for _, v := range m.versions[ref.ModelKey] {
		if (ref.Version == "" && v.IsCurrent) || (ref.Version != "" && v.Version == ref.Version) {
			if ref.SpecHash != "" && ref.SpecHash != v.SpecHash {
				return ir.Model{}, ir.ModelVersion{}, ir.NewError(ir.ErrCodeNotFound,
					"model version %s has spec hash %s, not %s", ref, v.SpecHash, ref.SpecHash)
			}
			return model, v, nil
		}
	}
	return ir.Model{}, ir.ModelVersion{}, ir.NewError(ir.ErrCodeNotFound, "model version %s not found", ref).
		WithDetail("model", ref.ModelKey)
}

// ListModels implements Registry. Models are ordered by key.
func (m *Memory) ListModels(context.Context) ([]ir.Model, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ir.Model, 0, len(m.models))
	for _, model := range m.models {
		out = append(out, model)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModelKey < out[j].ModelKey })
	return out, nil
}

// SetCurrentVersion implements Registry.
func (m *Memory) SetCurrentVersion(_ context.Context, modelKey, version string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	versions := m.versions[modelKey]
	idx := -1
	for i, v := range versions {
		if v.Version == version {
			idx = i
		}
	}
	if idx < 0 {
		return ir.NewError(ir.ErrCodeNotFound, "model version %s@%s not found", modelKey, version).
			WithDetail("model", modelKey)
	}
	for i := range versions {
		versions[i].IsCurrent = i == idx
	}
	return nil
}

// SetIntegrityCheck inserts or replaces a check by name.
func (m *Memory) SetIntegrityCheck(c ir.IntegrityCheck) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[c.Name] = c
}

// GetStatus implements IntegrityService.
func (m *Memory) GetStatus(context.Context) (ir.IntegrityStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := ir.IntegrityStatus{Checks: make([]ir.IntegrityCheck, 0, len(m.checks))}
	for _, c := range m.checks {
		if c.Blocking && !c.Passing {
			status.FreezePromotion = true
		}
		status.Checks = append(status.Checks, c)
	}
	sort.Slice(status.Checks, func(i, j int) bool { return status.Checks[i].Name < status.Checks[j].Name })
	return status, nil
}

// WriteDisagreementReport implements Sink.
func (m *Memory) WriteDisagreementReport(_ context.Context, r ir.DisagreementReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, r)
	return nil
}

// WriteCounterfactualTrace implements Sink.
func (m *Memory) WriteCounterfactualTrace(_ context.Context, t ir.CounterfactualTrace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.traces = append(m.traces, t)
	return nil
}

// WriteAutopsyReport implements Sink.
func (m *Memory) WriteAutopsyReport(_ context.Context, r ir.AutopsyReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autops = append(m.autops, r)
	return nil
}

// WritePromotionAudit implements Sink.
func (m *Memory) WritePromotionAudit(_ context.Context, a ir.PromotionAudit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, a)
	return nil
}

// Reports returns the written disagreement reports in write order.
func (m *Memory) Reports() []ir.DisagreementReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ir.DisagreementReport{}, m.reports...)
}

// Traces returns the written counterfactual traces in write order.
func (m *Memory) Traces() []ir.CounterfactualTrace {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ir.CounterfactualTrace{}, m.traces...)
}

// AutopsyReports returns the written autopsy reports in write order.
func (m *Memory) AutopsyReports() []ir.AutopsyReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ir.AutopsyReport{}, m.autops...)
}

// Audits returns the written promotion audits in write order.
func (m *Memory) Audits() []ir.PromotionAudit {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ir.PromotionAudit{}, m.audits...)
}
