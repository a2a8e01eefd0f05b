package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/causalcore/internal/ir"
)

// IntegrityOptions holds integrity set flags.
type IntegrityOptions struct {
	Passing  bool
	Blocking bool
	Detail   string
}

// integrityWriter is the part of the store integrity commands mutate.
type integrityWriter interface {
	SetIntegrityCheck(ctx context.Context, c ir.IntegrityCheck) error
	ClearIntegrityCheck(ctx context.Context, name string) error
}

type integrityOutput struct {
	ir.IntegrityStatus
}

// RenderText implements TextRenderer.
func (o integrityOutput) RenderText(w io.Writer) {
	if o.FreezePromotion {
		fmt.Fprintln(w, "Promotions: FROZEN")
	} else {
		fmt.Fprintln(w, "Promotions: open")
	}
	if len(o.Checks) == 0 {
		fmt.Fprintln(w, "No integrity checks")
		return
	}
	for _, c := range o.Checks {
		state := "pass"
		if !c.Passing {
			state = "FAIL"
		}
		kind := "advisory"
		if c.Blocking {
			kind = "blocking"
		}
		fmt.Fprintf(w, "  %-24s %-4s %s", c.Name, state, kind)
		if c.Detail != "" {
			fmt.Fprintf(w, "  %s", c.Detail)
		}
		fmt.Fprintln(w)
	}
}

// NewIntegrityCommand creates the integrity command group.
func NewIntegrityCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integrity",
		Short: "Manage integrity checks that gate promotion",
		Long: `Integrity checks are global. While any blocking check is failing, every
promotion is frozen regardless of the disagreement report.`,
	}

	opts := &IntegrityOptions{}
	set := &cobra.Command{
		Use:   "set <name>",
		Short: "Record the state of an integrity check",
		Example: `  causal integrity set replication --passing=false --blocking --detail "stale replica"
  causal integrity set replication --passing --blocking`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntegritySet(rootOpts, opts, args[0], cmd)
		},
	}
	set.Flags().BoolVar(&opts.Passing, "passing", true, "whether the check passes")
	set.Flags().BoolVar(&opts.Blocking, "blocking", false, "whether a failure freezes promotion")
	set.Flags().StringVar(&opts.Detail, "detail", "", "free-text detail")

	cmd.AddCommand(set)
	cmd.AddCommand(&cobra.Command{
		Use:           "status",
		Short:         "Show integrity checks and whether promotion is frozen",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntegrity(rootOpts, cmd, nil)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "clear <name>",
		Short:         "Remove an integrity check",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			return runIntegrity(rootOpts, cmd, func(s integrityWriter) error {
				return s.ClearIntegrityCheck(cmd.Context(), name)
			})
		},
	})

	return cmd
}

func runIntegritySet(rootOpts *RootOptions, opts *IntegrityOptions, name string, cmd *cobra.Command) error {
	check := ir.IntegrityCheck{
		Name:     name,
		Passing:  opts.Passing,
		Blocking: opts.Blocking,
		Detail:   opts.Detail,
	}
	return runIntegrity(rootOpts, cmd, func(s integrityWriter) error {
		return s.SetIntegrityCheck(cmd.Context(), check)
	})
}

// runIntegrity applies an optional mutation and prints the resulting status.
func runIntegrity(rootOpts *RootOptions, cmd *cobra.Command, mutate func(integrityWriter) error) error {
	formatter := newFormatter(cmd, rootOpts)

	st, err := openStore(rootOpts)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer st.Close()

	if mutate != nil {
		if err := mutate(st); err != nil {
			return formatter.Fail("failed to update integrity checks", err)
		}
	}

	status, err := st.GetStatus(cmd.Context())
	if err != nil {
		return formatter.Fail("failed to read integrity status", err)
	}
	return formatter.Success(integrityOutput{status})
}
