package align

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/causalcore/internal/ir"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Blood Pressure", "bloodpressure"},
		{"blood_pressure", "bloodpressure"},
		{"BloodPressure", "bloodpressure"},
		{"  SMOKING-status ", "smokingstatus"},
		{"\uFF21ge", "age"}, // fullwidth A folds under NFKC
		{"Stra\u00dfe", "strasse"},
		{"---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestAlign(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Add("blood_pressure", "BP", "systolic"))
	require.NoError(t, table.Add("smoking"))

	tests := []struct {
		name string
		want ir.Alignment
	}{
		{"blood_pressure", ir.Alignment{Canonical: "blood_pressure", Confidence: ConfidenceCanonical, MatchedBy: MatchCanonical}},
		{"BP", ir.Alignment{Canonical: "blood_pressure", Confidence: ConfidenceAlias, MatchedBy: MatchAlias}},
		{"Blood Pressure", ir.Alignment{Canonical: "blood_pressure", Confidence: ConfidenceNormalized, MatchedBy: MatchNormalized}},
		{"Systolic", ir.Alignment{Canonical: "blood_pressure", Confidence: ConfidenceNormalized, MatchedBy: MatchNormalized}},
		{"Smoking", ir.Alignment{Canonical: "smoking", Confidence: ConfidenceNormalized, MatchedBy: MatchNormalized}},
		{"income", ir.Alignment{Confidence: 0, MatchedBy: MatchNone}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Align(tt.name))
		})
	}
}

func TestAlignAmbiguousNormalizedForm(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Add("rate_a", "RA"))
	require.NoError(t, table.Add("ra_te", "R-A"))

	got := table.Align("r a")
	assert.Empty(t, got.Canonical)
	assert.Equal(t, MatchAmbiguous, got.MatchedBy)
}

func TestAddConflicts(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Add("income", "salary"))

	err := table.Add("wage", "salary")
	require.Error(t, err)
	assert.Equal(t, ir.ErrCodeAlignmentAmbiguous, ir.CodeOf(err))

	err = table.Add("earnings", "income")
	require.Error(t, err)
	assert.Equal(t, ir.ErrCodeAlignmentAmbiguous, ir.CodeOf(err))

	err = table.Add(" ")
	require.Error(t, err)
}

func TestAddExtendsAliases(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Add("income", "salary"))
	require.NoError(t, table.Add("income", "pay", "salary"))

	assert.Equal(t, []Entry{{Canonical: "income", Aliases: []string{"salary", "pay"}}}, table.Entries())
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, "income=[pay,salary]", table.String())
}

func TestLoad(t *testing.T) {
	src := `
variables:
  - canonical: blood_pressure
    aliases: [BP, systolic]
  - canonical: smoking
`
	table, err := Load(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, "blood_pressure", table.Align("BP").Canonical)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader("variables:\n  - canon: x\n"))
	require.Error(t, err)
}

func TestLoadEmpty(t *testing.T) {
	table, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("variables:\n  - canonical: a\n    aliases: [b, b2]\n  - canonical: c\n    aliases: [b]\n"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "variables[1]")
	assert.Equal(t, ir.ErrCodeAlignmentAmbiguous, ir.CodeOf(err))
}
