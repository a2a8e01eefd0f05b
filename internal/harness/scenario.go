package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// A scenario imports model specs, runs a flow of engine operations and
// asserts on the resulting trace and final store state.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists model spec files or directories to compile and import.
	// Paths are relative to the scenario file location.
	Specs []string `yaml:"specs"`

	// Aliases is an optional alias table file used for variable alignment.
	Aliases string `yaml:"aliases,omitempty"`

	// Integrity seeds integrity checks before the flow runs.
	Integrity []CheckStep `yaml:"integrity,omitempty"`

	// Flow contains the operations to run, in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and store state.
	// Supported types: trace_count, trace_order, current_version, row_count
	Assertions []Assertion `yaml:"assertions"`
}

// CheckStep declares one integrity check.
type CheckStep struct {
	Name     string `yaml:"name"`
	Passing  bool   `yaml:"passing"`
	Blocking bool   `yaml:"blocking"`
	Detail   string `yaml:"detail,omitempty"`
}

// OverrideStep is a manual override on a promote step.
type OverrideStep struct {
	Actor        string   `yaml:"actor"`
	Rationale    string   `yaml:"rationale"`
	Version      string   `yaml:"version,omitempty"`
	Acknowledged []string `yaml:"acknowledged,omitempty"`
}

// FlowStep is one engine operation. Which fields apply depends on Op:
//
//	check:     model, version, treatment, outcome, adjustment_set, known_confounders
//	trace:     model, version, intervene, value, outcome, world
//	compare:   model, version, right, right_version, outcome, interventions
//	promote:   model, candidate, outcome, interventions, override, cross_domain
//	autopsy:   model, version, outcome, symptoms
//	integrity: check
type FlowStep struct {
	Op      string `yaml:"op"`
	Model   string `yaml:"model,omitempty"`
	Version string `yaml:"version,omitempty"`

	Treatment        string   `yaml:"treatment,omitempty"`
	Outcome          string   `yaml:"outcome,omitempty"`
	AdjustmentSet    []string `yaml:"adjustment_set,omitempty"`
	KnownConfounders []string `yaml:"known_confounders,omitempty"`

	Intervene string             `yaml:"intervene,omitempty"`
	Value     float64            `yaml:"value,omitempty"`
	World     map[string]float64 `yaml:"world,omitempty"`

	Right         string   `yaml:"right,omitempty"`
	RightVersion  string   `yaml:"right_version,omitempty"`
	Interventions []string `yaml:"interventions,omitempty"`

	Candidate   string        `yaml:"candidate,omitempty"`
	Override    *OverrideStep `yaml:"override,omitempty"`
	CrossDomain bool          `yaml:"cross_domain,omitempty"`

	Symptoms []string `yaml:"symptoms,omitempty"`

	Check *CheckStep `yaml:"check,omitempty"`

	// Expect validates the step outcome. If nil, the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies expected step behavior.
type ExpectClause struct {
	// Error is the expected error code (e.g. "NOT_FOUND"). Empty means the
	// step must succeed.
	Error string `yaml:"error,omitempty"`

	// Result contains expected output fields, matched as a subset against
	// the JSON form of the step output.
	Result map[string]any `yaml:"result,omitempty"`
}

// Assertion validates the trace or the final store state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Op is the flow operation (trace_count).
	Op string `yaml:"op,omitempty"`

	// Ops is the expected operation order (trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Model and Version name the expected current version (current_version).
	Model   string `yaml:"model,omitempty"`
	Version string `yaml:"version,omitempty"`

	// Table and Where select rows (row_count). All fields must match exactly.
	Table string         `yaml:"table,omitempty"`
	Where map[string]any `yaml:"where,omitempty"`

	// Count is the expected number of trace events or rows.
	Count int `yaml:"count,omitempty"`
}

// Flow operations.
const (
	OpCheck     = "check"
	OpTrace     = "trace"
	OpCompare   = "compare"
	OpPromote   = "promote"
	OpAutopsy   = "autopsy"
	OpIntegrity = "integrity"
)

// Assertion type constants.
const (
	AssertTraceCount     = "trace_count"
	AssertTraceOrder     = "trace_order"
	AssertCurrentVersion = "current_version"
	AssertRowCount       = "row_count"
)

// LoadScenario reads and parses a scenario YAML file. Spec and alias paths
// are resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving relative spec and alias paths against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, specPath := range scenario.Specs {
		scenario.Specs[i] = resolvePath(basePath, specPath)
	}
	if scenario.Aliases != "" {
		scenario.Aliases = resolvePath(basePath, scenario.Aliases)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolvePath(base, p string) string {
	if filepath.IsAbs(p) || base == "" {
		return p
	}
	return filepath.Join(base, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Specs) == 0 {
		return fmt.Errorf("specs list is required and must be non-empty")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for _, specPath := range s.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return fmt.Errorf("spec file not found: %s", specPath)
		}
	}
	if s.Aliases != "" {
		if _, err := os.Stat(s.Aliases); os.IsNotExist(err) {
			return fmt.Errorf("alias file not found: %s", s.Aliases)
		}
	}

	for i, c := range s.Integrity {
		if c.Name == "" {
			return fmt.Errorf("integrity[%d]: name is required", i)
		}
	}

	for i := range s.Flow {
		if err := validateStep(i, &s.Flow[i]); err != nil {
			return err
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateStep checks the fields each operation cannot do without.
// Deeper validation is left to the engine so scenarios can expect its errors.
func validateStep(index int, step *FlowStep) error {
	switch step.Op {
	case "":
		return fmt.Errorf("flow[%d]: op is required", index)
	case OpCheck, OpTrace, OpCompare, OpAutopsy:
		if step.Model == "" {
			return fmt.Errorf("flow[%d]: model is required for %s", index, step.Op)
		}
	case OpPromote:
		if step.Model == "" || step.Candidate == "" {
			return fmt.Errorf("flow[%d]: model and candidate are required for promote", index)
		}
	case OpIntegrity:
		if step.Check == nil || step.Check.Name == "" {
			return fmt.Errorf("flow[%d]: check with a name is required for integrity", index)
		}
	default:
		return fmt.Errorf("flow[%d]: unknown op %q", index, step.Op)
	}

	if step.Op == OpCompare && step.Right == "" {
		return fmt.Errorf("flow[%d]: right is required for compare", index)
	}
	if step.Expect != nil && step.Expect.Error != "" && step.Expect.Result != nil {
		return fmt.Errorf("flow[%d].expect: error and result are mutually exclusive", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertCurrentVersion:
		if a.Model == "" || a.Version == "" {
			return fmt.Errorf("assertions[%d]: model and version are required for current_version", index)
		}
	case AssertRowCount:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for row_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
