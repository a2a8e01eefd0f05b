package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/causalcore/internal/ir"
	"github.com/roach88/causalcore/internal/metrics"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	Database   string // SQLite registry path
	MetricsOut string // write Prometheus text exposition here after the command

	// Metrics collects engine metrics for the current invocation.
	Metrics *metrics.Registry
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// DefaultDatabase is the registry path used when --db is not given.
const DefaultDatabase = "causal.db"

// NewRootCommand creates the root command for the causal CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Metrics: metrics.NewRegistry()}

	cmd := &cobra.Command{
		Use:   "causal",
		Short: "causal - causal model registry and reasoning core",
		Long: `Register versioned causal models, check identifiability of causal claims,
trace counterfactuals, diff competing models, govern promotions and run
failure autopsies.`,
		Version:       fmt.Sprintf("%s (ir %s)", ir.EngineVersion, ir.IRVersion),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			configureLogging(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return writeMetrics(opts)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", DefaultDatabase, "path to SQLite registry database")
	cmd.PersistentFlags().StringVar(&opts.MetricsOut, "metrics-out", "", "write Prometheus metrics to this file after the command")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewModelsCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewCompareCommand(opts))
	cmd.AddCommand(NewPromoteCommand(opts))
	cmd.AddCommand(NewAutopsyCommand(opts))
	cmd.AddCommand(NewIntegrityCommand(opts))
	cmd.AddCommand(NewAliasesCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// configureLogging installs the process-wide slog handler. Logs go to w so
// they never mix with JSON output.
func configureLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func writeMetrics(opts *RootOptions) error {
	if opts.MetricsOut == "" {
		return nil
	}
	f, err := os.Create(opts.MetricsOut)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create metrics file", err)
	}
	defer f.Close()

	if err := opts.Metrics.WriteText(f); err != nil {
		return WrapExitError(ExitCommandError, "failed to write metrics", err)
	}
	return f.Close()
}
