package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_IdentifiableText(t *testing.T) {
	db := seededDB(t)

	out, err := executeCommand(t, "--db", db, "check",
		"--model", "Triangle", "--treatment", "Treatment", "--outcome", "Outcome", "--adjust", "Confounder")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "check_identifiable", []byte(out))
}

func TestCheck_UncontrolledIsAssociationOnly(t *testing.T) {
	db := seededDB(t)

	out, err := executeCommand(t, "--db", db, "--format", "json", "check",
		"--model", "Triangle@v2", "--treatment", "Treatment", "--outcome", "Outcome")
	require.NoError(t, err)

	data := dataMap(t, decodeResponse(t, out))
	assert.Equal(t, false, data["identifiable"])
	assert.Equal(t, "association_only", data["allowed_output_class"])
	assert.Equal(t, []any{"Confounder"}, data["missing_confounders"])

	model := data["model"].(map[string]any)
	assert.Equal(t, "Triangle", model["model_key"])
	assert.Equal(t, "v2", model["version"])
	assert.NotEmpty(t, model["spec_hash"])
}

func TestCheck_RejectedKnownConfounder(t *testing.T) {
	db := seededDB(t)

	out, err := executeCommand(t, "--db", db, "--format", "json", "check",
		"--model", "Chain", "--treatment", "B", "--outcome", "C", "--known", "C")
	require.NoError(t, err)

	data := dataMap(t, decodeResponse(t, out))
	assert.Equal(t, []any{"C"}, data["rejected_confounders"])
	assert.Equal(t, true, data["identifiable"])
	assert.Equal(t, "association_only", data["allowed_output_class"], "a rejected confounder is not a control")
}

func TestCheck_InvalidClaim(t *testing.T) {
	db := seededDB(t)

	out, err := executeCommand(t, "--db", db, "--format", "json", "check",
		"--model", "Triangle", "--treatment", "Nope", "--outcome", "Outcome")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_CLAIM", resp.Error.Code)
}

func TestCheck_UnknownModel(t *testing.T) {
	db := seededDB(t)

	out, err := executeCommand(t, "--db", db, "check",
		"--model", "Missing", "--treatment", "A", "--outcome", "B")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [NOT_FOUND]")
}

func TestCheck_RequiresFlags(t *testing.T) {
	_, err := executeCommand(t, "--db", newDB(t), "check", "--model", "Triangle")
	require.Error(t, err)
}
