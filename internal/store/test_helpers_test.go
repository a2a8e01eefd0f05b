package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/causalcore/internal/ir"
	"github.com/roach88/causalcore/internal/testutil"
)

// createTestStore creates a new temporary store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestDefinition returns a confounder triangle registered under key.
func createTestDefinition(key, version string) ir.ModelDefinition {
	return ir.ModelDefinition{
		ModelKey: key,
		Domain:   "test",
		Status:   ir.StatusDraft,
		Version:  version,
		Spec:     testutil.ConfounderTriangle(),
	}
}
