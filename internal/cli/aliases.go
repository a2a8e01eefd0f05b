package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/causalcore/internal/align"
)

// AliasImportResult is the output of `aliases import`.
type AliasImportResult struct {
	File    string `json:"file"`
	Entries int    `json:"entries"`
	Added   int    `json:"added"`
}

// RenderText implements TextRenderer.
func (r AliasImportResult) RenderText(w io.Writer) {
	fmt.Fprintf(w, "\u2713 %s: %d variable(s), %d new alias row(s)\n", r.File, r.Entries, r.Added)
}

// AliasList is the output of `aliases list`.
type AliasList struct {
	Variables []align.Entry `json:"variables"`
}

// RenderText implements TextRenderer.
func (l AliasList) RenderText(w io.Writer) {
	if len(l.Variables) == 0 {
		fmt.Fprintln(w, "No aliases registered")
		return
	}
	for _, e := range l.Variables {
		fmt.Fprintf(w, "%s: %s\n", e.Canonical, strings.Join(e.Aliases, ", "))
	}
}

// NewAliasesCommand creates the aliases command group.
func NewAliasesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aliases",
		Short: "Manage the variable alias table used for model alignment",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Merge a YAML alias table into the registry",
		Long: `Merge a YAML alias table into the registry:

  variables:
    - canonical: blood_pressure
      aliases: [bp, systolic_bp]

Nothing is stored if any alias already maps to a different variable.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAliasesImport(rootOpts, args[0], cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List registered aliases",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAliasesList(rootOpts, cmd)
		},
	})

	return cmd
}

func runAliasesImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts)

	table, err := align.LoadFile(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	st, err := openStore(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer st.Close()

	entries := table.Entries()
	added, err := st.ImportAliases(cmd.Context(), entries)
	if err != nil {
		return formatter.Fail("failed to import aliases", err)
	}
	return formatter.Success(AliasImportResult{File: path, Entries: len(entries), Added: added})
}

func runAliasesList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts)

	st, err := openStore(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer st.Close()

	entries, err := st.AliasEntries(cmd.Context())
	if err != nil {
		return formatter.Fail("failed to list aliases", err)
	}
	return formatter.Success(AliasList{Variables: entries})
}
