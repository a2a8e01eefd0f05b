package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args and returns stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

// newDB returns a registry path in a fresh temporary directory.
func newDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "causal.db")
}

// seededDB returns a registry with the testdata specs imported:
// Chain@v1 and Triangle@v1 current, Triangle@v2 pending.
func seededDB(t *testing.T) string {
	t.Helper()
	db := newDB(t)
	_, err := executeCommand(t, "--db", db, "import", "testdata/specs")
	require.NoError(t, err)
	return db
}

// decodeResponse parses a single JSON response.
func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

// dataMap returns the response payload as a generic map.
func dataMap(t *testing.T, resp CLIResponse) map[string]any {
	t.Helper()
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return data
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{
		"validate", "import", "models", "check", "trace", "compare",
		"promote", "autopsy", "integrity", "aliases", "test",
	} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestRootCommand_PersistentFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"verbose", "format", "db", "metrics-out"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing flag %s", name)
	}
	assert.Equal(t, DefaultDatabase, cmd.PersistentFlags().Lookup("db").DefValue)
	assert.Equal(t, "text", cmd.PersistentFlags().Lookup("format").DefValue)
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	_, err := executeCommand(t, "--format", "xml", "models", "--db", newDB(t))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRootCommand_MetricsOut(t *testing.T) {
	db := seededDB(t)
	metricsPath := filepath.Join(t.TempDir(), "metrics.prom")

	_, err := executeCommand(t, "--db", db, "--metrics-out", metricsPath,
		"check", "--model", "Triangle", "--treatment", "Treatment", "--outcome", "Outcome")
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "causal_operations_total")
	assert.Contains(t, string(data), `operation="check"`)
}

func TestRootCommand_Version(t *testing.T) {
	out, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "causal version 0.1.0 (ir 1)\n", out)
}
