package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/causalcore/internal/engine"
	"github.com/roach88/causalcore/internal/ir"
)

// CompareOptions holds compare command flags.
type CompareOptions struct {
	Outcome       string
	Interventions []string
}

type reportOutput struct {
	ir.DisagreementReport
}

// RenderText implements TextRenderer.
func (o reportOutput) RenderText(w io.Writer) {
	renderReport(w, o.DisagreementReport)
}

func renderReport(w io.Writer, r ir.DisagreementReport) {
	counts := r.CountBySeverity()
	fmt.Fprintf(w, "%s vs %s\n", r.Left, r.Right)
	fmt.Fprintf(w, "  %s\n", r.Summary)
	fmt.Fprintf(w, "  atoms: %d (high=%d medium=%d low=%d)\n", len(r.Atoms),
		counts[ir.SeverityHigh], counts[ir.SeverityMedium], counts[ir.SeverityLow])
	for _, a := range r.Atoms {
		fmt.Fprintf(w, "    [%s] %s: %s\n", a.Severity, a.ID, a.Reason)
	}
	fmt.Fprintf(w, "  alignment coverage: %s\n", formatFloat(r.AlignmentQuality.Coverage))
	if len(r.UnknownVariables) > 0 {
		fmt.Fprintf(w, "  unknown variables: %s\n", listOrNone(r.UnknownVariables))
	}
	fmt.Fprintf(w, "  report id: %s\n", r.ID)
}

// NewCompareCommand creates the compare command.
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompareOptions{}

	cmd := &cobra.Command{
		Use:   "compare <left> <right>",
		Short: "Diff two model versions into disagreement atoms",
		Long: `Compare two registered model versions and report every structural
disagreement as a weighted atom. Each side is a model key, optionally
key@version; the current version is used when no version is given.

Examples:
  causal compare Cardio@v1 Cardio@v2 --outcome Stroke
  causal compare Cardio Renal --outcome Stroke --intervene Exercise`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(rootOpts, opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "outcome variable counterfactual atoms are computed against")
	cmd.Flags().StringSliceVar(&opts.Interventions, "intervene", nil, "variables to probe with counterfactual traces")

	return cmd
}

func runCompare(rootOpts *RootOptions, opts *CompareOptions, left, right string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, rootOpts)

	s, err := openSession(cmd, rootOpts)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer s.Close()

	report, err := s.engine.Compare(cmd.Context(), engine.CompareRequest{
		Left:          parseRef(left),
		Right:         parseRef(right),
		OutcomeVar:    opts.Outcome,
		Interventions: opts.Interventions,
	})
	if err != nil {
		return formatter.Fail("compare failed", err)
	}
	return formatter.SuccessWithID(reportOutput{report}, report.ID)
}
