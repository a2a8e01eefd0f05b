package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutopsy_RanksRootCauses(t *testing.T) {
	db := seededDB(t)

	out, err := executeCommand(t, "--db", db, "--format", "json", "autopsy", "--model", "Chain", "--outcome", "C")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.NotEmpty(t, resp.TraceID)

	data := dataMap(t, resp)
	assert.Equal(t, []any{"B", "A"}, data["root_causes"])
	assert.Equal(t, []any{"intervene: B", "monitor: A"}, data["prevention_plan"])
}

func TestAutopsy_Text(t *testing.T) {
	db := seededDB(t)

	out, err := executeCommand(t, "--db", db, "autopsy", "--model", "Chain", "--outcome", "C", "--description", "stroke despite treatment")
	require.NoError(t, err)
	assert.Contains(t, out, "Chain@v1: failure of C")
	assert.Contains(t, out, "root causes: B, A")
	assert.Contains(t, out, "- intervene: B")
}

func TestAutopsy_UnknownOutcome(t *testing.T) {
	db := seededDB(t)

	out, err := executeCommand(t, "--db", db, "--format", "json", "autopsy", "--model", "Chain", "--outcome", "Z")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "INVALID_CLAIM", decodeResponse(t, out).Error.Code)
}
