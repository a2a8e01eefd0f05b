package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainModelSpec = "causal/model-spec/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SpecHash computes the content-addressed hash of a model spec.
// Two versions with identical nodes, edges, assumptions and confounders
// hash identically regardless of declaration whitespace or key order.
func SpecHash(spec ModelSpec) (string, error) {
	// Missing and empty node or edge lists hash the same.
	if spec.Nodes == nil {
		spec.Nodes = []NodeSpec{}
	}
	if spec.Edges == nil {
		spec.Edges = []EdgeSpec{}
	}
	canonical, err := MarshalCanonical(spec)
	if err != nil {
		return "", fmt.Errorf("SpecHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainModelSpec, canonical), nil
}

// MustSpecHash is like SpecHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSpecHash(spec ModelSpec) string {
	h, err := SpecHash(spec)
	if err != nil {
		panic(err)
	}
	return h
}
