package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/causalcore/internal/ir"
)

// TraceOptions holds trace command flags.
type TraceOptions struct {
	Model     string
	Intervene string
	Outcome   string
	Observe   []string
}

type traceOutput struct {
	ir.CounterfactualTrace
}

// RenderText implements TextRenderer.
func (o traceOutput) RenderText(w io.Writer) {
	q := o.Query
	fmt.Fprintf(w, "%s: do(%s=%s) -> %s\n", o.Model, q.Intervention.Variable, formatFloat(q.Intervention.Value), q.Outcome)
	fmt.Fprintf(w, "  actual:         %s\n", formatFloat(o.Result.ActualOutcome))
	fmt.Fprintf(w, "  counterfactual: %s\n", formatFloat(o.Result.CounterfactualOutcome))
	fmt.Fprintf(w, "  delta:          %s\n", formatFloat(o.Result.Delta))
	fmt.Fprintf(w, "  uncertainty:    %s\n", o.Computation.Uncertainty)
	fmt.Fprintf(w, "  paths:          %d\n", len(o.Computation.AffectedPaths))
	for _, p := range o.Computation.AffectedPaths {
		fmt.Fprintf(w, "    %s\n", strings.Join(p, " -> "))
	}
	if o.Computation.Truncated {
		fmt.Fprintln(w, "  (path enumeration truncated)")
	}
	fmt.Fprintf(w, "  trace id:       %s\n", o.TraceID)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Trace a counterfactual through a model",
		Long: `Answer "what would --outcome have been had we set --intervene" against a
registered model, starting from the observed world given with --observe.
The trace is persisted and its ID printed.

Examples:
  causal trace --model Cardio --intervene Exercise=1 --outcome Stroke --observe Exercise=0 --observe Stroke=0.3
  causal trace --model Cardio@v1 --intervene Exercise=0 --outcome Stroke --observe Exercise=1 --observe Stroke=0.2`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Model, "model", "", "model key, optionally key@version")
	cmd.Flags().StringVar(&opts.Intervene, "intervene", "", "intervention as variable=value")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "outcome variable")
	cmd.Flags().StringArrayVar(&opts.Observe, "observe", nil, "observed value as variable=value (repeatable)")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("intervene")
	_ = cmd.MarkFlagRequired("outcome")

	return cmd
}

func runTrace(rootOpts *RootOptions, opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, rootOpts)

	variable, value, err := parseAssignment(opts.Intervene)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidFlag, err.Error(), nil)
		return err
	}
	world, err := parseWorld(opts.Observe)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidFlag, err.Error(), nil)
		return err
	}

	s, err := openSession(cmd, rootOpts)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer s.Close()

	trace, err := s.engine.TraceCounterfactual(cmd.Context(), parseRef(opts.Model), ir.CounterfactualQuery{
		Intervention:  ir.Intervention{Variable: variable, Value: value},
		Outcome:       opts.Outcome,
		ObservedWorld: world,
	})
	if err != nil {
		return formatter.Fail("counterfactual trace failed", err)
	}
	return formatter.SuccessWithID(traceOutput{trace}, trace.TraceID)
}
