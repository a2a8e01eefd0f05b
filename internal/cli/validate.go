package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/causalcore/internal/compiler"
	"github.com/roach88/causalcore/internal/ir"
)

// ModelValidation holds the validation errors of one model definition.
type ModelValidation struct {
	Model  string                     `json:"model"`
	Errors []compiler.ValidationError `json:"errors"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Models int               `json:"models"`
	Errors []ModelValidation `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <spec-path>...",
		Short: "Validate model specs without importing them",
		Long: `Validate CUE, YAML or JSON model specs without touching the registry.

Performs schema validation and graph checks (unknown endpoints, cycles,
size limits) on every model definition found. Directories are walked for
spec files.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts)

	defs, err := compiler.LoadPaths(paths)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d model definition(s)", len(defs))

	result := validateDefinitions(defs, formatter)
	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// validateDefinitions runs compiler validation on every definition.
func validateDefinitions(defs []ir.ModelDefinition, formatter *OutputFormatter) ValidationResult {
	result := ValidationResult{Valid: true, Models: len(defs)}
	for i := range defs {
		ref := ir.ModelRef{ModelKey: defs[i].ModelKey, Version: defs[i].Version}
		formatter.VerboseLog("Validating model: %s", ref)
		if errs := compiler.Validate(&defs[i]); len(errs) > 0 {
			result.Valid = false
			result.Errors = append(result.Errors, ModelValidation{Model: ref.String(), Errors: errs})
		}
	}
	return result
}

// outputLoadError reports a spec that could not be read or compiled.
func outputLoadError(formatter *OutputFormatter, err error) error {
	var details any
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		details = map[string]string{"field": compileErr.Field}
	}
	_ = formatter.Error(ErrCodeLoad, err.Error(), details)
	return WrapExitError(ExitCommandError, "failed to load specs", err)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "\u2713 All specs valid (%d model(s))\n", result.Models)
	return nil
}

// outputValidationErrors outputs validation errors grouped by model.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	count := 0
	for _, m := range result.Errors {
		count += len(m.Errors)
	}

	if formatter.Format == "json" {
		first := result.Errors[0].Errors[0]
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    first.Code,
				Message: first.Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", count))
	}

	fmt.Fprintln(formatter.Writer, "\u2717 Validation failed")
	for _, m := range result.Errors {
		fmt.Fprintln(formatter.Writer)
		fmt.Fprintln(formatter.Writer, m.Model)
		for _, e := range m.Errors {
			fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", e.Code, e.Field, e.Message)
		}
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", count))
}
