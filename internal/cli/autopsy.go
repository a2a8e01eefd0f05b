package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/causalcore/internal/ir"
)

// AutopsyOptions holds autopsy command flags.
type AutopsyOptions struct {
	Model       string
	Outcome     string
	Symptoms    []string
	Description string
}

type autopsyOutput struct {
	ir.AutopsyReport
}

// RenderText implements TextRenderer.
func (o autopsyOutput) RenderText(w io.Writer) {
	fmt.Fprintf(w, "%s: failure of %s\n", o.Model, o.FailureEvent.Outcome)
	fmt.Fprintf(w, "  root causes: %s\n", listOrNone(o.RootCauses))
	fmt.Fprintf(w, "  symptoms:    %s\n", listOrNone(o.Symptoms))
	for _, s := range o.NecessityScores {
		fmt.Fprintf(w, "    %-20s %s\n", s.Factor, formatFloat(s.Score))
	}
	if len(o.FailedAssumptions) > 0 {
		fmt.Fprintln(w, "  failed assumptions:")
		for _, a := range o.FailedAssumptions {
			fmt.Fprintf(w, "    - %s\n", a.Text)
		}
	}
	if len(o.PreventionPlan) > 0 {
		fmt.Fprintln(w, "  prevention plan:")
		for _, step := range o.PreventionPlan {
			fmt.Fprintf(w, "    - %s\n", step)
		}
	}
	if o.Truncated {
		fmt.Fprintln(w, "  (path enumeration truncated)")
	}
	fmt.Fprintf(w, "  report id: %s\n", o.ID)
}

// NewAutopsyCommand creates the autopsy command.
func NewAutopsyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AutopsyOptions{}

	cmd := &cobra.Command{
		Use:   "autopsy",
		Short: "Explain a failure in terms of the causal graph",
		Long: `Rank the causes of a failed --outcome by approximate necessity, list the
assumptions the failure puts in doubt and derive a prevention plan.
The report is persisted and its ID printed.

Examples:
  causal autopsy --model Cardio --outcome Stroke
  causal autopsy --model Cardio --outcome Stroke --symptom BloodPressure`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAutopsy(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Model, "model", "", "model key, optionally key@version")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "failed outcome variable")
	cmd.Flags().StringSliceVar(&opts.Symptoms, "symptom", nil, "observed symptom variables")
	cmd.Flags().StringVar(&opts.Description, "description", "", "free-text description of the failure")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("outcome")

	return cmd
}

func runAutopsy(rootOpts *RootOptions, opts *AutopsyOptions, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, rootOpts)

	s, err := openSession(cmd, rootOpts)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer s.Close()

	report, err := s.engine.Autopsy(cmd.Context(), parseRef(opts.Model), ir.FailureEvent{
		Outcome:     opts.Outcome,
		Symptoms:    opts.Symptoms,
		Description: opts.Description,
	})
	if err != nil {
		return formatter.Fail("autopsy failed", err)
	}
	return formatter.SuccessWithID(autopsyOutput{report}, report.ID)
}
