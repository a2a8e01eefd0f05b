// Package align maps variable names from different model authors onto
// canonical variables.
//
// Lookup order:
//  1. Exact canonical name (confidence 1.0)
//  2. Exact alias (0.95)
//  3. Normalized form of a canonical name or alias (0.85)
//
// A normalized form shared by more than one canonical variable is
// ambiguous and returns no canonical name.
package align

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/causalcore/internal/ir"
)

// Match confidences.
const (
	ConfidenceCanonical  = 1.0
	ConfidenceAlias      = 0.95
	ConfidenceNormalized = 0.85
	ConfidenceAmbiguous  = 0.5
)

// MatchedBy values.
const (
	MatchCanonical  = "canonical"
	MatchAlias      = "alias"
	MatchNormalized = "normalized"
	MatchAmbiguous  = "ambiguous"
	MatchNone       = "none"
)

// Entry is one canonical variable with its aliases.
type Entry struct {
	Canonical string   `json:"canonical" yaml:"canonical"`
	Aliases   []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// Table is an in-memory alias table. Safe for concurrent use.
type Table struct {
	mu         sync.RWMutex
	canonical  map[string]bool
	alias      map[string]string              // alias -> canonical
	normalized map[string]map[string]struct{} // normalized form -> canonicals
	entries    map[string][]string            // canonical -> aliases, insertion order
	order      []string
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		canonical:  make(map[string]bool),
		alias:      make(map[string]string),
		normalized: make(map[string]map[string]struct{}),
		entries:    make(map[string][]string),
	}
}

// Add registers a canonical variable and its aliases. Adding to an existing
// canonical extends its alias list.
//
// Returns ALIGNMENT_AMBIGUOUS if an alias already belongs to another
// canonical variable or names one.
func (t *Table) Add(canonical string, aliases ...string) error {
	canonical = strings.TrimSpace(canonical)
	if canonical == "" {
		return ir.NewError(ir.ErrCodeInvalidClaim, "canonical variable name is required")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if owner, ok := t.alias[canonical]; ok && owner != canonical {
		return ambiguous(canonical, owner)
	}
	for _, a := range aliases {
		a = strings.TrimSpace(a)
		if a == "" || a == canonical {
			continue
		}
		if owner, ok := t.alias[a]; ok && owner != canonical {
			return ambiguous(a, owner)
		}
		if t.canonical[a] {
			return ambiguous(a, a)
		}
	}

	if !t.canonical[canonical] {
		t.canonical[canonical] = true
		t.order = append(t.order, canonical)
		t.index(canonical, canonical)
	}
	for _, a := range aliases {
		a = strings.TrimSpace(a)
		if a == "" || a == canonical {
			continue
		}
		if _, ok := t.alias[a]; ok {
			continue
		}
		t.alias[a] = canonical
		t.entries[canonical] = append(t.entries[canonical], a)
		t.index(a, canonical)
	}
	return nil
}

func ambiguous(name, owner string) error {
	return ir.NewError(ir.ErrCodeAlignmentAmbiguous, "%q is already mapped to %q", name, owner).
		WithDetail("variable", name)
}

func (t *Table) index(name, canonical string) {
	key := Normalize(name)
	if key == "" {
		return
	}
	if t.normalized[key] == nil {
		t.normalized[key] = make(map[string]struct{})
	}
	t.normalized[key][canonical] = struct{}{}
}

// Align looks up name. Canonical is empty when nothing matched or the
// normalized form is ambiguous.
func (t *Table) Align(name string) ir.Alignment {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.canonical[name] {
		return ir.Alignment{Canonical: name, Confidence: ConfidenceCanonical, MatchedBy: MatchCanonical}
	}
	if c, ok := t.alias[name]; ok {
		return ir.Alignment{Canonical: c, Confidence: ConfidenceAlias, MatchedBy: MatchAlias}
	}

	candidates := t.normalized[Normalize(name)]
	switch len(candidates) {
	case 0:
		return ir.Alignment{Confidence: 0, MatchedBy: MatchNone}
	case 1:
		for c := range candidates {
			return ir.Alignment{Canonical: c, Confidence: ConfidenceNormalized, MatchedBy: MatchNormalized}
		}
	}
	return ir.Alignment{Confidence: ConfidenceAmbiguous, MatchedBy: MatchAmbiguous}
}

// Entries returns the table contents in insertion order.
func (t *Table) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Entry, 0, len(t.order))
	for _, c := range t.order {
		out = append(out, Entry{Canonical: c, Aliases: append([]string(nil), t.entries[c]...)})
	}
	return out
}

// Len returns the number of canonical variables.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}

// String renders the table for debug logs.
func (t *Table) String() string {
	entries := t.Entries()
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		aliases := append([]string(nil), e.Aliases...)
		sort.Strings(aliases)
		parts = append(parts, fmt.Sprintf("%s=[%s]", e.Canonical, strings.Join(aliases, ",")))
	}
	return strings.Join(parts, " ")
}

// Normalize reduces a variable name to a comparison key: NFKC, case
// folded, with everything but letters and digits removed.
// "Blood Pressure", "blood_pressure" and "BloodPressure" share a key.
func Normalize(name string) string {
	// Casers are stateful, so each call gets its own.
	folded := cases.Fold().String(norm.NFKC.String(name))
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
