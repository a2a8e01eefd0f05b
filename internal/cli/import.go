package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/causalcore/internal/compiler"
	"github.com/roach88/causalcore/internal/ir"
)

// ImportedVersion reports one imported model version.
type ImportedVersion struct {
	Model        string `json:"model"`
	SpecHash     string `json:"spec_hash"`
	ModelCreated bool   `json:"model_created"`
	Created      bool   `json:"created"`
	IsCurrent    bool   `json:"is_current"`
}

// ImportResult holds the outcome of an import.
type ImportResult struct {
	Imported []ImportedVersion `json:"imported"`
}

// RenderText implements TextRenderer.
func (r ImportResult) RenderText(w io.Writer) {
	for _, v := range r.Imported {
		state := "imported"
		if !v.Created {
			state = "unchanged"
		}
		current := ""
		if v.IsCurrent {
			current = " (current)"
		}
		fmt.Fprintf(w, "%s %s%s\n", v.Model, state, current)
	}
	fmt.Fprintf(w, "\u2713 %d version(s) processed\n", len(r.Imported))
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <spec-path>...",
		Short: "Register model versions from spec files",
		Long: `Compile, validate and register model specs in the registry.

Every spec must pass validation before anything is written. Importing an
identical version again is a no-op; reusing a version string with a
different spec is rejected.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runImport(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts)

	defs, err := compiler.LoadPaths(paths)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	if result := validateDefinitions(defs, formatter); !result.Valid {
		return outputValidationErrors(formatter, result)
	}

	st, err := openStore(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer st.Close()

	result := ImportResult{Imported: make([]ImportedVersion, 0, len(defs))}
	for _, def := range defs {
		res, err := st.ImportModel(cmd.Context(), def)
		if err != nil {
			ref := ir.ModelRef{ModelKey: def.ModelKey, Version: def.Version}
			return formatter.Fail("failed to import "+ref.String(), err)
		}
		formatter.VerboseLog("Imported %s@%s (%s)", def.ModelKey, def.Version, res.Version.SpecHash)
		result.Imported = append(result.Imported, ImportedVersion{
			Model:        ir.ModelRef{ModelKey: def.ModelKey, Version: def.Version}.String(),
			SpecHash:     res.Version.SpecHash,
			ModelCreated: res.ModelCreated,
			Created:      res.Created,
			IsCurrent:    res.Version.IsCurrent,
		})
	}

	return formatter.Success(result)
}
