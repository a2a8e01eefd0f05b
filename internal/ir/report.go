package ir

// AtomType categorizes a disagreement atom.
type AtomType string

const (
	AtomEdgePresence   AtomType = "edge_presence"
	AtomEdgeDirection  AtomType = "edge_direction"
	AtomEdgeSign       AtomType = "edge_sign"
	AtomAssumption     AtomType = "assumption"
	AtomConfounder     AtomType = "confounder"
	AtomIntervention   AtomType = "intervention"
	AtomCounterfactual AtomType = "counterfactual"
)

// Severity ranks a disagreement atom.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Uncertainty qualifies a counterfactual computation.
type Uncertainty string

const (
	UncertaintyLow    Uncertainty = "low"
	UncertaintyMedium Uncertainty = "medium"
	UncertaintyHigh   Uncertainty = "high"
)

// OutputClass is the strongest epistemic claim a control set justifies.
type OutputClass string

const (
	ClassInterventionSupported OutputClass = "intervention_supported"
	ClassInterventionInferred  OutputClass = "intervention_inferred"
	ClassAssociationOnly       OutputClass = "association_only"
)

// EpistemicWeight splits an atom's weight by what it rests on.
// Each component is in [0,1] and the sum is at most 1.
type EpistemicWeight struct {
	DataGrounded       float64 `json:"data_grounded"`
	MechanismGrounded  float64 `json:"mechanism_grounded"`
	AssumptionGrounded float64 `json:"assumption_grounded"`
}

// DisagreementAtom is one discrete difference between two model specs.
type DisagreementAtom struct {
	ID              string          `json:"id"`
	Type            AtomType        `json:"type"`
	Severity        Severity        `json:"severity"`
	Left            string          `json:"left"`
	Right           string          `json:"right"`
	Variable        string          `json:"variable,omitempty"`
	Edge            string          `json:"edge,omitempty"`
	Reason          string          `json:"reason"`
	EpistemicWeight EpistemicWeight `json:"epistemic_weight"`
}

// AlignedVariable maps a left-side name and a right-side name to one
// canonical variable.
type AlignedVariable struct {
	Canonical  string  `json:"canonical"`
	Left       string  `json:"left"`
	Right      string  `json:"right"`
	Confidence float64 `json:"confidence"`
	MatchedBy  string  `json:"matched_by"`
}

// AlignmentQuality summarizes how well two specs could be aligned.
type AlignmentQuality struct {
	Coverage    float64 `json:"coverage"`
	Threshold   float64 `json:"threshold"`
	CrossDomain bool    `json:"cross_domain"`
}

// DisagreementReport is the weighted structural diff of two model specs.
type DisagreementReport struct {
	ID               string             `json:"id"`
	Left             ModelRef           `json:"left"`
	Right            ModelRef           `json:"right"`
	OutcomeVar       string             `json:"outcome_var"`
	Score            float64            `json:"score"`
	Summary          string             `json:"summary"`
	Atoms            []DisagreementAtom `json:"atoms"`
	AlignedVariables []AlignedVariable  `json:"aligned_variables"`
	UnknownVariables []string           `json:"unknown_variables"`
	AlignmentQuality AlignmentQuality   `json:"alignment_quality"`
}

// CountBySeverity returns atom counts keyed by severity.
func (r DisagreementReport) CountBySeverity() map[Severity]int {
	counts := map[Severity]int{SeverityHigh: 0, SeverityMedium: 0, SeverityLow: 0}
	for _, atom := range r.Atoms {
		counts[atom.Severity]++
	}
	return counts
}

// Intervention clamps a variable to a value (do-operator).
type Intervention struct {
	Variable string  `json:"variable" yaml:"variable" validate:"required"`
	Value    float64 `json:"value" yaml:"value"`
}

// CounterfactualQuery is the question a trace answers.
type CounterfactualQuery struct {
	Intervention  Intervention       `json:"intervention"`
	Outcome       string             `json:"outcome"`
	ObservedWorld map[string]float64 `json:"observed_world"`
}

// CounterfactualComputation records how a trace was computed.
type CounterfactualComputation struct {
	Method        string      `json:"method"`
	AffectedPaths [][]string  `json:"affected_paths"`
	Uncertainty   Uncertainty `json:"uncertainty"`
	Truncated     bool        `json:"truncated,omitempty"`
}

// CounterfactualResult is the numeric answer of a trace.
type CounterfactualResult struct {
	ActualOutcome         float64 `json:"actual_outcome"`
	CounterfactualOutcome float64 `json:"counterfactual_outcome"`
	Delta                 float64 `json:"delta"`
}

// CounterfactualTrace is the audit record of one counterfactual query.
type CounterfactualTrace struct {
	TraceID       string                    `json:"trace_id"`
	Model         ModelRef                  `json:"model"`
	Query         CounterfactualQuery       `json:"query"`
	Assumptions   []Assumption              `json:"assumptions"`
	AdjustmentSet []string                  `json:"adjustment_set"`
	Computation   CounterfactualComputation `json:"computation"`
	Result        CounterfactualResult      `json:"result"`
}

// FailureEvent declares an observed failure for autopsy.
type FailureEvent struct {
	Outcome     string   `json:"outcome" yaml:"outcome" validate:"required"`
	Symptoms    []string `json:"symptoms,omitempty" yaml:"symptoms,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// NecessityScore approximates the probability of necessity of a factor.
type NecessityScore struct {
	Factor string  `json:"factor"`
	Score  float64 `json:"score"`
}

// AutopsyReport explains a failure in terms of the causal graph.
type AutopsyReport struct {
	ID                string           `json:"id"`
	Model             ModelRef         `json:"model"`
	FailureEvent      FailureEvent     `json:"failure_event"`
	RootCauses        []string         `json:"root_causes"`
	Symptoms          []string         `json:"symptoms"`
	FailedAssumptions []Assumption     `json:"failed_assumptions"`
	NecessityScores   []NecessityScore `json:"necessity_scores"`
	PreventionPlan    []string         `json:"prevention_plan"`
	Truncated         bool             `json:"truncated,omitempty"`
}

// Override is a human decision to promote despite unresolved atoms.
type Override struct {
	Actor             string   `json:"actor" validate:"required"`
	Rationale         string   `json:"rationale" validate:"required,min=10"`
	Version           string   `json:"version,omitempty"`
	AcknowledgedAtoms []string `json:"acknowledged_atoms,omitempty"`
}

// Promotion decision reasons.
const (
	ReasonIntegrityFrozen        = "integrity_frozen"
	ReasonUnresolvedHighSeverity = "unresolved_high_severity"
	ReasonInsufficientCoverage   = "insufficient_alignment_coverage"
	ReasonOverrideAccepted       = "override_accepted"
	ReasonClear                  = "clear"
)

// PromotionDecision is the outcome of the promotion governance gate,
// with the facts an audit record needs.
type PromotionDecision struct {
	Allowed                     bool             `json:"allowed"`
	Blocked                     bool             `json:"blocked"`
	Reason                      string           `json:"reason"`
	Detail                      string           `json:"detail"`
	RequiresManualOverride      bool             `json:"requires_manual_override"`
	OverrideUsed                bool             `json:"override_used"`
	IntegrityFrozen             bool             `json:"integrity_frozen"`
	CrossDomain                 bool             `json:"cross_domain"`
	AlignmentCoverage           float64          `json:"alignment_coverage"`
	HighSeverityAtoms           int              `json:"high_severity_atoms"`
	UnresolvedHighSeverityAtoms int              `json:"unresolved_high_severity_atoms"`
	AtomCounts                  map[Severity]int `json:"atom_counts"`
}

// PromotionAudit is the durable record of one promotion attempt.
type PromotionAudit struct {
	ModelKey         string            `json:"model_key"`
	CurrentVersion   string            `json:"current_version"`
	CandidateVersion string            `json:"candidate_version"`
	ReportID         string            `json:"report_id"`
	Decision         PromotionDecision `json:"decision"`
	Override         *Override         `json:"override,omitempty"`
	Promoted         bool              `json:"promoted"`
}

// Persisted record kinds, used in persistence errors, logs and metrics.
const (
	RecordDisagreementReport = "disagreement_report"
	RecordCounterfactual     = "counterfactual_trace"
	RecordAutopsyReport      = "autopsy_report"
	RecordPromotionAudit     = "promotion_audit"
)
