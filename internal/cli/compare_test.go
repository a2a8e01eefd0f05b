package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare_SignFlip(t *testing.T) {
	db := seededDB(t)

	out, err := executeCommand(t, "--db", db, "--format", "json", "compare",
		"Triangle@v1", "Triangle@v2", "--outcome", "Outcome", "--intervene", "Treatment")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.NotEmpty(t, resp.TraceID)

	data := dataMap(t, resp)
	assert.Equal(t, resp.TraceID, data["id"])
	atoms := data["atoms"].([]any)
	require.Len(t, atoms, 2)
	for _, raw := range atoms {
		assert.Equal(t, "high", raw.(map[string]any)["severity"])
	}
	assert.Equal(t, float64(1), data["alignment_quality"].(map[string]any)["coverage"])
}

func TestCompare_IdenticalVersions(t *testing.T) {
	db := seededDB(t)

	out, err := executeCommand(t, "--db", db, "compare", "Chain", "Chain@v1")
	require.NoError(t, err)
	assert.Contains(t, out, "Chain@v1 vs Chain@v1")
	assert.Contains(t, out, "atoms: 0 (high=0 medium=0 low=0)")
}

func TestCompare_UsesAliasTable(t *testing.T) {
	db := newDB(t)
	_, err := executeCommand(t, "--db", db, "import", "../harness/testdata/specs/aligned")
	require.NoError(t, err)

	out, err := executeCommand(t, "--db", db, "--format", "json", "compare", "Left", "Right")
	require.NoError(t, err)
	before := dataMap(t, decodeResponse(t, out))
	assert.Equal(t, []any{"blood_pressure", "bp"}, before["unknown_variables"])

	_, err = executeCommand(t, "--db", db, "aliases", "import", "testdata/aliases.yaml")
	require.NoError(t, err)

	out, err = executeCommand(t, "--db", db, "--format", "json", "compare", "Left", "Right")
	require.NoError(t, err)
	after := dataMap(t, decodeResponse(t, out))
	assert.Empty(t, after["unknown_variables"])
	assert.Empty(t, after["atoms"])
	assert.Equal(t, float64(1), after["alignment_quality"].(map[string]any)["coverage"])
}

func TestCompare_UnknownVersion(t *testing.T) {
	db := seededDB(t)

	out, err := executeCommand(t, "--db", db, "--format", "json", "compare", "Triangle@v1", "Triangle@v9")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "NOT_FOUND", decodeResponse(t, out).Error.Code)
}
