package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/causalcore/internal/engine"
	"github.com/roach88/causalcore/internal/identify"
)

// CheckOptions holds check command flags.
type CheckOptions struct {
	Model     string
	Treatment string
	Outcome   string
	Adjust    []string
	Known     []string
}

// claimOutput renders a claim decision.
type claimOutput struct {
	engine.ClaimDecision
}

// RenderText implements TextRenderer.
func (o claimOutput) RenderText(w io.Writer) {
	fmt.Fprintf(w, "%s: %s -> %s\n", o.Model, o.Claim.Treatment, o.Claim.Outcome)
	fmt.Fprintf(w, "  identifiable:  %t\n", o.Identifiable)
	fmt.Fprintf(w, "  output class:  %s\n", o.AllowedOutputClass)
	fmt.Fprintf(w, "  required:      %s\n", listOrNone(o.RequiredConfounders))
	fmt.Fprintf(w, "  missing:       %s\n", listOrNone(o.MissingConfounders))
	if len(o.RejectedConfounders) > 0 {
		fmt.Fprintf(w, "  rejected:      %s\n", strings.Join(o.RejectedConfounders, ", "))
	}
	if o.Note != "" {
		fmt.Fprintf(w, "  note:          %s\n", o.Note)
	}
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a causal claim is identifiable",
		Long: `Decide whether the effect of --treatment on --outcome is identifiable
in a registered model given the controlled variables, and report the
strongest output class the claim may be published under.

Examples:
  causal check --model Cardio --treatment Exercise --outcome Stroke --adjust Age
  causal check --model Cardio@v2 --treatment Exercise --outcome Stroke --known Diet`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Model, "model", "", "model key, optionally key@version")
	cmd.Flags().StringVar(&opts.Treatment, "treatment", "", "treatment variable")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "outcome variable")
	cmd.Flags().StringSliceVar(&opts.Adjust, "adjust", nil, "controlled variables (repeatable or comma-separated)")
	cmd.Flags().StringSliceVar(&opts.Known, "known", nil, "caller-declared confounders")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("treatment")
	_ = cmd.MarkFlagRequired("outcome")

	return cmd
}

func runCheck(rootOpts *RootOptions, opts *CheckOptions, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, rootOpts)

	s, err := openSession(cmd, rootOpts)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer s.Close()

	d, err := s.engine.CheckClaim(cmd.Context(), parseRef(opts.Model), identify.Claim{
		Treatment:        opts.Treatment,
		Outcome:          opts.Outcome,
		AdjustmentSet:    opts.Adjust,
		KnownConfounders: opts.Known,
	})
	if err != nil {
		return formatter.Fail("claim check failed", err)
	}
	return formatter.Success(claimOutput{d})
}
