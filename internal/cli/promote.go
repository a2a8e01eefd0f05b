package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/causalcore/internal/engine"
	"github.com/roach88/causalcore/internal/ir"
)

// PromoteOptions holds promote command flags.
type PromoteOptions struct {
	Outcome       string
	Interventions []string
	Actor         string
	Rationale     string
	Acknowledge   []string
	CrossDomain   bool
}

type promotionOutput struct {
	engine.PromotionResult
}

// RenderText implements TextRenderer.
func (o promotionOutput) RenderText(w io.Writer) {
	d := o.Decision
	target := o.Audit.ModelKey + "@" + o.Audit.CandidateVersion
	switch {
	case o.Audit.Promoted:
		fmt.Fprintf(w, "\u2713 %s promoted (%s)\n", target, d.Reason)
	case d.Allowed:
		fmt.Fprintf(w, "\u2717 %s allowed but not promoted\n", target)
	default:
		fmt.Fprintf(w, "\u2717 %s blocked (%s)\n", target, d.Reason)
	}
	fmt.Fprintf(w, "  %s\n", d.Detail)
	fmt.Fprintf(w, "  current: %s\n", o.Audit.CurrentVersion)
	fmt.Fprintf(w, "  high severity atoms: %d (%d unresolved)\n", d.HighSeverityAtoms, d.UnresolvedHighSeverityAtoms)
	if d.CrossDomain {
		fmt.Fprintf(w, "  alignment coverage: %s\n", formatFloat(d.AlignmentCoverage))
	}
	if d.RequiresManualOverride {
		fmt.Fprintln(w, "  requires manual override (--actor, --rationale)")
	}
	fmt.Fprintln(w)
	renderReport(w, o.Report)
}

// NewPromoteCommand creates the promote command.
func NewPromoteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PromoteOptions{}

	cmd := &cobra.Command{
		Use:   "promote <model-key> <candidate-version>",
		Short: "Promote a candidate version through the governance gate",
		Long: `Compare the candidate version with the current one, apply the promotion
policy and, when allowed, make the candidate current. Every evaluated
attempt is written to the audit log.

A failing blocking integrity check freezes all promotions. Unresolved
high-severity disagreements block promotion unless overridden with
--actor and --rationale.

Exit codes:
  0 - Promoted
  1 - Blocked by policy, or rejected by the engine
  2 - Command error (database, flags)`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPromote(rootOpts, opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "outcome variable for counterfactual atoms")
	cmd.Flags().StringSliceVar(&opts.Interventions, "intervene", nil, "variables to probe with counterfactual traces")
	cmd.Flags().StringVar(&opts.Actor, "actor", "", "override: who takes responsibility")
	cmd.Flags().StringVar(&opts.Rationale, "rationale", "", "override: why the disagreements are acceptable")
	cmd.Flags().StringSliceVar(&opts.Acknowledge, "ack", nil, "override: acknowledged atom IDs")
	cmd.Flags().BoolVar(&opts.CrossDomain, "cross-domain", false, "apply the cross-domain alignment coverage rule")

	return cmd
}

func (o *PromoteOptions) override(candidate string) *ir.Override {
	if o.Actor == "" && o.Rationale == "" {
		return nil
	}
	return &ir.Override{
		Actor:             o.Actor,
		Rationale:         o.Rationale,
		Version:           candidate,
		AcknowledgedAtoms: o.Acknowledge,
	}
}

func runPromote(rootOpts *RootOptions, opts *PromoteOptions, key, candidate string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, rootOpts)

	s, err := openSession(cmd, rootOpts)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer s.Close()

	res, err := s.engine.Promote(cmd.Context(), engine.PromoteRequest{
		ModelKey:         key,
		CandidateVersion: candidate,
		OutcomeVar:       opts.Outcome,
		Interventions:    opts.Interventions,
		Override:         opts.override(candidate),
		CrossDomain:      opts.CrossDomain,
	})
	if err != nil {
		return formatter.Fail("promotion failed", err)
	}

	if res.Audit.Promoted {
		return formatter.SuccessWithID(promotionOutput{res}, res.Report.ID)
	}
	return outputBlocked(formatter, res)
}

// outputBlocked reports a promotion the policy refused.
func outputBlocked(formatter *OutputFormatter, res engine.PromotionResult) error {
	msg := fmt.Sprintf("promotion of %s@%s blocked: %s", res.Audit.ModelKey, res.Audit.CandidateVersion, res.Decision.Reason)

	if formatter.Format == "json" {
		response := CLIResponse{
			Status:  "error",
			Data:    res,
			TraceID: res.Report.ID,
			Error: &CLIError{
				Code:    ErrCodeBlocked,
				Message: res.Decision.Detail,
				Details: map[string]string{"reason": res.Decision.Reason},
			},
		}
		if err := json.NewEncoder(formatter.Writer).Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}

	promotionOutput{res}.RenderText(formatter.Writer)
	return NewExitError(ExitFailure, msg)
}
