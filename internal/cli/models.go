package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/causalcore/internal/ir"
)

// ModelList is the output of `models`.
type ModelList struct {
	Models []ir.Model `json:"models"`
}

// RenderText implements TextRenderer.
func (l ModelList) RenderText(w io.Writer) {
	if len(l.Models) == 0 {
		fmt.Fprintln(w, "No models registered")
		return
	}
	for _, m := range l.Models {
		fmt.Fprintf(w, "%-24s %-16s %s\n", m.ModelKey, m.Domain, m.Status)
	}
}

// VersionSummary is one version row of `models show`.
type VersionSummary struct {
	Version   string `json:"version"`
	SpecHash  string `json:"spec_hash"`
	IsCurrent bool   `json:"is_current"`
	Nodes     int    `json:"nodes"`
	Edges     int    `json:"edges"`
}

// ModelDetail is the output of `models show`.
type ModelDetail struct {
	Model    ir.Model         `json:"model"`
	Versions []VersionSummary `json:"versions"`
}

// RenderText implements TextRenderer.
func (d ModelDetail) RenderText(w io.Writer) {
	fmt.Fprintf(w, "%s (domain %s, %s)\n", d.Model.ModelKey, d.Model.Domain, d.Model.Status)
	for _, v := range d.Versions {
		marker := " "
		if v.IsCurrent {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-12s nodes=%d edges=%d\n", marker, v.Version, v.Nodes, v.Edges)
	}
}

// NewModelsCommand creates the models command group.
func NewModelsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "models",
		Short:         "List registered models",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelsList(rootOpts, cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "show <model-key>",
		Short:         "Show a model and its versions",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelsShow(rootOpts, args[0], cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "set-status <model-key> <draft|active|deprecated>",
		Short:         "Change a model's lifecycle status",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelsSetStatus(rootOpts, args[0], args[1], cmd)
		},
	})

	return cmd
}

func runModelsList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts)

	st, err := openStore(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer st.Close()

	models, err := st.ListModels(cmd.Context())
	if err != nil {
		return formatter.Fail("failed to list models", err)
	}
	if models == nil {
		models = []ir.Model{}
	}
	return formatter.Success(ModelList{Models: models})
}

func runModelsShow(opts *RootOptions, key string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts)

	st, err := openStore(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer st.Close()

	model, err := st.GetModel(cmd.Context(), key)
	if err != nil {
		return formatter.Fail("failed to get model", err)
	}
	versions, err := st.ListVersions(cmd.Context(), key)
	if err != nil {
		return formatter.Fail("failed to list versions", err)
	}

	detail := ModelDetail{Model: model, Versions: make([]VersionSummary, 0, len(versions))}
	for _, v := range versions {
		detail.Versions = append(detail.Versions, VersionSummary{
			Version:   v.Version,
			SpecHash:  v.SpecHash,
			IsCurrent: v.IsCurrent,
			Nodes:     len(v.Spec.Nodes),
			Edges:     len(v.Spec.Edges),
		})
	}
	return formatter.Success(detail)
}

func runModelsSetStatus(opts *RootOptions, key, status string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts)

	switch ir.ModelStatus(status) {
	case ir.StatusDraft, ir.StatusActive, ir.StatusDeprecated:
	default:
		msg := fmt.Sprintf("invalid status %q: must be draft, active or deprecated", status)
		_ = formatter.Error(ErrCodeInvalidFlag, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	st, err := openStore(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer st.Close()

	if err := st.SetModelStatus(cmd.Context(), key, ir.ModelStatus(status)); err != nil {
		return formatter.Fail("failed to set status", err)
	}
	model, err := st.GetModel(cmd.Context(), key)
	if err != nil {
		return formatter.Fail("failed to get model", err)
	}
	return formatter.Success(ModelList{Models: []ir.Model{model}})
}
