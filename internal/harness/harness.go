package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/causalcore/internal/align"
	"github.com/roach88/causalcore/internal/compiler"
	"github.com/roach88/causalcore/internal/disagree"
	"github.com/roach88/causalcore/internal/engine"
	"github.com/roach88/causalcore/internal/identify"
	"github.com/roach88/causalcore/internal/ir"
	"github.com/roach88/causalcore/internal/metrics"
	"github.com/roach88/causalcore/internal/store"
	"github.com/roach88/causalcore/internal/testutil"
)

// IDPrefix prefixes every record ID a scenario run generates:
// "scenario-0001", "scenario-0002", ...
const IDPrefix = "scenario"

// Harness runs one scenario against a private store and engine.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with sequential record
// IDs, so the same scenario always produces the same trace.
//
// Execution flow:
//  1. Create fresh in-memory database
//  2. Compile, validate and import the model specs
//  3. Import the alias table and seed integrity checks
//  4. Execute flow steps with expect validation
//  5. Evaluate assertions against the trace and the store
//
// The returned error covers setup failures only. Step and assertion
// failures are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h, err := setup(ctx, st, scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range scenario.Flow {
		h.executeStep(ctx, i, step, result)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, &AssertionContext{Store: st, Ctx: ctx}) {
		result.AddError(msg)
	}
	return result, nil
}

func setup(ctx context.Context, st *store.Store, scenario *Scenario) (*Harness, error) {
	defs, err := compiler.LoadPaths(scenario.Specs)
	if err != nil {
		return nil, fmt.Errorf("failed to load specs: %w", err)
	}
	for i := range defs {
		if errs := compiler.Validate(&defs[i]); len(errs) > 0 {
			return nil, fmt.Errorf("model %s@%s: %w", defs[i].ModelKey, defs[i].Version, errs[0])
		}
		if _, err := st.ImportModel(ctx, defs[i]); err != nil {
			return nil, fmt.Errorf("failed to import model: %w", err)
		}
	}

	// A typed nil *align.Table must not reach the engine as an Aligner.
	var aligner disagree.Aligner
	if scenario.Aliases != "" {
		table, err := align.LoadFile(scenario.Aliases)
		if err != nil {
			return nil, fmt.Errorf("failed to load aliases: %w", err)
		}
		if _, err := st.ImportAliases(ctx, table.Entries()); err != nil {
			return nil, fmt.Errorf("failed to import aliases: %w", err)
		}
		if aligner, err = st.AliasTable(ctx); err != nil {
			return nil, fmt.Errorf("failed to read aliases: %w", err)
		}
	}

	for _, c := range scenario.Integrity {
		if err := st.SetIntegrityCheck(ctx, c.toIR()); err != nil {
			return nil, fmt.Errorf("failed to seed integrity check: %w", err)
		}
	}

	eng := engine.New(st, aligner, st, st,
		engine.WithIDGenerator(testutil.NewSequentialIDGenerator(IDPrefix)),
		engine.WithMetrics(metrics.NewRegistry()),
	)
	return &Harness{store: st, engine: eng}, nil
}

func (c CheckStep) toIR() ir.IntegrityCheck {
	return ir.IntegrityCheck{Name: c.Name, Passing: c.Passing, Blocking: c.Blocking, Detail: c.Detail}
}

// executeStep runs one flow step, records it in the trace and validates
// its expect clause.
func (h *Harness) executeStep(ctx context.Context, index int, step FlowStep, result *Result) {
	event, output, err := h.dispatch(ctx, step)
	if err != nil {
		event.Error = string(ir.CodeOf(err))
		if event.Error == "" {
			event.Error = "ERROR"
		}
		output = nil
	}

	generic, convErr := toGeneric(output)
	if convErr != nil {
		result.AddError(fmt.Sprintf("flow[%d]: %v", index, convErr))
	}
	result.AddStep(event, generic)

	expectErr := ""
	if step.Expect != nil {
		expectErr = step.Expect.Error
	}
	switch {
	case err != nil && expectErr == "":
		result.AddError(fmt.Sprintf("flow[%d] %s: unexpected error: %v", index, step.Op, err))
	case err == nil && expectErr != "":
		result.AddError(fmt.Sprintf("flow[%d] %s: expected error %s, got success", index, step.Op, expectErr))
	case err != nil && event.Error != expectErr:
		result.AddError(fmt.Sprintf("flow[%d] %s: expected error %s, got %s", index, step.Op, expectErr, event.Error))
	case err == nil && step.Expect != nil && !matchFields(generic, step.Expect.Result):
		result.AddError(fmt.Sprintf("flow[%d] %s: result mismatch\n  Expected (subset): %v\n  Actual: %v",
			index, step.Op, step.Expect.Result, generic))
	}
}

// dispatch runs the engine operation for step.
func (h *Harness) dispatch(ctx context.Context, step FlowStep) (TraceEvent, any, error) {
	ref := ir.ModelRef{ModelKey: step.Model, Version: step.Version}
	event := TraceEvent{Op: step.Op, Model: ref.String()}

	switch step.Op {
	case OpCheck:
		d, err := h.engine.CheckClaim(ctx, ref, identify.Claim{
			Treatment:        step.Treatment,
			Outcome:          step.Outcome,
			AdjustmentSet:    step.AdjustmentSet,
			KnownConfounders: step.KnownConfounders,
		})
		if err != nil {
			return event, nil, err
		}
		event.Model = d.Model.String()
		event.Outcome = fmt.Sprintf("%s identifiable=%t", d.AllowedOutputClass, d.Identifiable)
		return event, d, nil

	case OpTrace:
		trace, err := h.engine.TraceCounterfactual(ctx, ref, ir.CounterfactualQuery{
			Intervention:  ir.Intervention{Variable: step.Intervene, Value: step.Value},
			Outcome:       step.Outcome,
			ObservedWorld: step.World,
		})
		if err != nil {
			return event, nil, err
		}
		event.Model = trace.Model.String()
		event.ID = trace.TraceID
		event.Outcome = "delta=" + strconv.FormatFloat(trace.Result.Delta, 'g', -1, 64)
		return event, trace, nil

	case OpCompare:
		report, err := h.engine.Compare(ctx, engine.CompareRequest{
			Left:          ref,
			Right:         ir.ModelRef{ModelKey: step.Right, Version: step.RightVersion},
			OutcomeVar:    step.Outcome,
			Interventions: step.Interventions,
		})
		if err != nil {
			return event, nil, err
		}
		event.Model = report.Left.String() + " vs " + report.Right.String()
		event.ID = report.ID
		event.Outcome = fmt.Sprintf("atoms=%d high=%d", len(report.Atoms), report.CountBySeverity()[ir.SeverityHigh])
		return event, report, nil

	case OpPromote:
		event.Model = step.Model + "@" + step.Candidate
		res, err := h.engine.Promote(ctx, engine.PromoteRequest{
			ModelKey:         step.Model,
			CandidateVersion: step.Candidate,
			OutcomeVar:       step.Outcome,
			Interventions:    step.Interventions,
			Override:         step.Override.toIR(),
			CrossDomain:      step.CrossDomain,
		})
		if err != nil {
			return event, nil, err
		}
		event.ID = res.Report.ID
		event.Outcome = fmt.Sprintf("%s promoted=%t", res.Decision.Reason, res.Audit.Promoted)
		return event, res, nil

	case OpAutopsy:
		report, err := h.engine.Autopsy(ctx, ref, ir.FailureEvent{Outcome: step.Outcome, Symptoms: step.Symptoms})
		if err != nil {
			return event, nil, err
		}
		event.Model = report.Model.String()
		event.ID = report.ID
		event.Outcome = "root_causes=" + strings.Join(report.RootCauses, ",")
		return event, report, nil

	case OpIntegrity:
		event.Model = ""
		if err := h.store.SetIntegrityCheck(ctx, step.Check.toIR()); err != nil {
			return event, nil, err
		}
		status, err := h.store.GetStatus(ctx)
		if err != nil {
			return event, nil, err
		}
		event.Outcome = fmt.Sprintf("%s freeze=%t", step.Check.Name, status.FreezePromotion)
		return event, status, nil
	}
	return event, nil, fmt.Errorf("unknown op %q", step.Op)
}

func (o *OverrideStep) toIR() *ir.Override {
	if o == nil {
		return nil
	}
	return &ir.Override{
		Actor:             o.Actor,
		Rationale:         o.Rationale,
		Version:           o.Version,
		AcknowledgedAtoms: o.Acknowledged,
	}
}

// toGeneric converts an engine result into maps, slices and float64 via
// its JSON form, the shape expect clauses are written against.
func toGeneric(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode output: %w", err)
	}
	return out, nil
}
