package cli

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/causalcore/internal/engine"
	"github.com/roach88/causalcore/internal/ir"
	"github.com/roach88/causalcore/internal/store"
)

// session is an open registry plus an engine wired to it.
type session struct {
	store  *store.Store
	engine *engine.Engine
}

// openStore opens the registry database named by --db.
func openStore(opts *RootOptions) (*store.Store, error) {
	slog.Debug("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// openSession opens the registry and builds an engine that reads models,
// aliases and integrity checks from it and persists every record to it.
func openSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	st, err := openStore(opts)
	if err != nil {
		return nil, err
	}

	table, err := st.AliasTable(cmd.Context())
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load alias table", err)
	}

	eng := engine.New(st, table, st, st, engine.WithMetrics(opts.Metrics))
	return &session{store: st, engine: eng}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// parseRef parses "key" or "key@version".
func parseRef(s string) ir.ModelRef {
	key, version, _ := strings.Cut(s, "@")
	return ir.ModelRef{ModelKey: key, Version: version}
}

// parseAssignment parses "name=value" with a numeric value.
func parseAssignment(s string) (string, float64, error) {
	name, raw, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return "", 0, NewExitError(ExitCommandError, "expected name=value, got "+strconv.Quote(s))
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", 0, WrapExitError(ExitCommandError, "invalid value in "+strconv.Quote(s), err)
	}
	return strings.TrimSpace(name), v, nil
}

// parseWorld parses repeated name=value observations.
func parseWorld(pairs []string) (map[string]float64, error) {
	world := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		name, v, err := parseAssignment(p)
		if err != nil {
			return nil, err
		}
		world[name] = v
	}
	return world, nil
}
