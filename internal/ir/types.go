package ir

// NodeKind classifies a causal variable.
type NodeKind string

const (
	KindObservable   NodeKind = "observable"
	KindLatent       NodeKind = "latent"
	KindExogenous    NodeKind = "exogenous"
	KindIntervention NodeKind = "intervention"
)

// ValidNodeKinds defines allowed node kinds.
var ValidNodeKinds = map[NodeKind]bool{
	KindObservable:   true,
	KindLatent:       true,
	KindExogenous:    true,
	KindIntervention: true,
}

// Sign is the declared direction of an edge's effect.
type Sign string

const (
	SignPositive Sign = "positive"
	SignNegative Sign = "negative"
	SignUnknown  Sign = "unknown"
)

// ValidSigns defines allowed edge signs.
var ValidSigns = map[Sign]bool{
	SignPositive: true,
	SignNegative: true,
	SignUnknown:  true,
}

// Provenance tags where a declaration's support comes from.
type Provenance string

const (
	ProvenanceData       Provenance = "data"
	ProvenanceMechanism  Provenance = "mechanism"
	ProvenanceAssumption Provenance = "assumption"
)

// ModelStatus is the lifecycle state of an SCM model.
type ModelStatus string

const (
	StatusDraft      ModelStatus = "draft"
	StatusActive     ModelStatus = "active"
	StatusDeprecated ModelStatus = "deprecated"
)

// NodeSpec declares a named causal variable.
type NodeSpec struct {
	Name        string   `json:"name" yaml:"name" validate:"required"`
	Kind        NodeKind `json:"kind" yaml:"kind" validate:"required,oneof=observable latent exogenous intervention"`
	Domain      string   `json:"domain,omitempty" yaml:"domain,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// EdgeSpec declares a directed causal link between two nodes.
type EdgeSpec struct {
	From       string     `json:"from" yaml:"from" validate:"required"`
	To         string     `json:"to" yaml:"to" validate:"required"`
	Sign       Sign       `json:"sign" yaml:"sign" validate:"required,oneof=positive negative unknown"`
	Reversible bool       `json:"reversible,omitempty" yaml:"reversible,omitempty"`
	Mechanism  string     `json:"mechanism,omitempty" yaml:"mechanism,omitempty"`
	Provenance Provenance `json:"provenance,omitempty" yaml:"provenance,omitempty" validate:"omitempty,oneof=data mechanism assumption"`
}

// DAGSpec is the serialized graph structure of a model version (dag_json).
type DAGSpec struct {
	Nodes []NodeSpec `json:"nodes" yaml:"nodes" validate:"dive"`
	Edges []EdgeSpec `json:"edges" yaml:"edges" validate:"dive"`
}

// Assumption is a declared modelling assumption.
// Variables lists the nodes the assumption is about.
type Assumption struct {
	ID         string     `json:"id,omitempty" yaml:"id,omitempty"`
	Text       string     `json:"text" yaml:"text" validate:"required"`
	Variables  []string   `json:"variables,omitempty" yaml:"variables,omitempty"`
	Provenance Provenance `json:"provenance,omitempty" yaml:"provenance,omitempty" validate:"omitempty,oneof=data mechanism assumption"`
}

// ModelSpec is the full content of a model version.
type ModelSpec struct {
	DAGSpec     `yaml:",inline"`
	Assumptions []Assumption `json:"assumptions,omitempty" yaml:"assumptions,omitempty" validate:"dive"`
	Confounders []string     `json:"confounders,omitempty" yaml:"confounders,omitempty"`
}

// Model is a registered SCM.
type Model struct {
	ID       int64       `json:"id"`
	ModelKey string      `json:"model_key"`
	Domain   string      `json:"domain"`
	Status   ModelStatus `json:"status"`
}

// ModelVersion is an immutable version of a model.
type ModelVersion struct {
	ModelKey  string    `json:"model_key"`
	Version   string    `json:"version"`
	Spec      ModelSpec `json:"spec"`
	SpecHash  string    `json:"spec_hash"`
	IsCurrent bool      `json:"is_current"`
}

// ModelDefinition is a compiled spec file: one model plus one version.
type ModelDefinition struct {
	ModelKey string      `json:"model_key" yaml:"model_key" validate:"required"`
	Domain   string      `json:"domain" yaml:"domain" validate:"required"`
	Status   ModelStatus `json:"status" yaml:"status" validate:"omitempty,oneof=draft active deprecated"`
	Version  string      `json:"version" yaml:"version" validate:"required"`
	Spec     ModelSpec   `json:"spec" yaml:"spec"`
}

// ModelRef identifies a model version. An empty Version means the
// current version.
type ModelRef struct {
	ModelKey string `json:"model_key"`
	Version  string `json:"version,omitempty"`
	SpecHash string `json:"spec_hash,omitempty"`
}

// String renders the reference as key@version.
func (r ModelRef) String() string {
	if r.Version == "" {
		return r.ModelKey
	}
	return r.ModelKey + "@" + r.Version
}

// Alignment is the answer of a variable alignment lookup.
// Canonical is empty when the name is not known to the aligner.
type Alignment struct {
	Canonical  string  `json:"canonical,omitempty"`
	Confidence float64 `json:"confidence"`
	MatchedBy  string  `json:"matched_by"`
}

// IntegrityCheck is one scientific integrity signal.
type IntegrityCheck struct {
	Name     string `json:"name"`
	Passing  bool   `json:"passing"`
	Blocking bool   `json:"blocking"`
	Detail   string `json:"detail,omitempty"`
}

// IntegrityStatus is the read-only integrity state consumed by the
// promotion gate.
type IntegrityStatus struct {
	FreezePromotion bool             `json:"freeze_promotion"`
	Checks          []IntegrityCheck `json:"checks,omitempty"`
}
