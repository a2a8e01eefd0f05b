package ir

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := NewError(ErrCodeMalformedGraph, "cycle detected").
		WithDetail("path", "A -> B -> A").
		WithDetail("count", "2")

	assert.Equal(t, "MALFORMED_GRAPH: cycle detected (count=2, path=A -> B -> A)", err.Error())
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("disk full")
	err := &Error{Code: ErrCodePersistenceFailure, Message: "write trace", Err: cause}
	wrapped := fmt.Errorf("engine: %w", err)

	assert.True(t, IsPersistenceFailure(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, ErrCodePersistenceFailure, CodeOf(wrapped))
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, IsMalformedGraph(NewError(ErrCodeMalformedGraph, "x")))
	assert.True(t, IsMalformedGraph(NewError(ErrCodeGraphTooLarge, "x")))
	assert.True(t, IsInvalidClaim(NewError(ErrCodeInvalidClaim, "x")))
	assert.True(t, IsNotFound(NewError(ErrCodeNotFound, "x")))

	plain := errors.New("plain")
	assert.False(t, IsMalformedGraph(plain))
	assert.Equal(t, ErrorCode(""), CodeOf(plain))
}

func TestModelRefString(t *testing.T) {
	assert.Equal(t, "pricing", ModelRef{ModelKey: "pricing"}.String())
	assert.Equal(t, "pricing@v2", ModelRef{ModelKey: "pricing", Version: "v2"}.String())
}

func TestCountBySeverity(t *testing.T) {
	r := DisagreementReport{Atoms: []DisagreementAtom{
		{Severity: SeverityHigh}, {Severity: SeverityHigh}, {Severity: SeverityLow},
	}}
	counts := r.CountBySeverity()
	assert.Equal(t, 2, counts[SeverityHigh])
	assert.Equal(t, 0, counts[SeverityMedium])
	assert.Equal(t, 1, counts[SeverityLow])
}
