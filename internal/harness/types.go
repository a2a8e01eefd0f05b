package harness

// TraceEvent records one executed flow step.
// Only strings and integers appear here so snapshots can use canonical JSON.
type TraceEvent struct {
	Step    int    `json:"step"`
	Op      string `json:"op"`
	Model   string `json:"model"`
	ID      string `json:"id,omitempty"`
	Outcome string `json:"outcome,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion matched.
	Pass bool `json:"pass"`

	// Trace holds one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Outputs holds each step's engine result decoded as generic JSON.
	// nil for steps that failed.
	Outputs []any `json:"outputs,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a trace event and the step output.
func (r *Result) AddStep(event TraceEvent, output any) {
	event.Step = len(r.Trace) + 1
	r.Trace = append(r.Trace, event)
	r.Outputs = append(r.Outputs, output)
}
