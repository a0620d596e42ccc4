// Copyright 2025 Certen Protocol
//
// The deterministic mock proof blob. Grounded on original_source's
// api/verify/proof.rs create_mock_proof: the core treats the zero-
// knowledge backend as an opaque, permanent mock per spec.md §1 — it
// only ever produces and hashes this shape, never a real proof.

package manifest

import (
	"github.com/capio-labs/proofbundle/internal/canonjson"
)

// MockProofVersion tags the mock proof format.
const MockProofVersion = "proof.mock.v0"

type mockProofData struct {
	Mock     bool `json:"mock"`
	Verified bool `json:"verified"`
}

type mockProof struct {
	Version   string        `json:"version"`
	Type      string        `json:"type"`
	Statement any           `json:"statement"`
	ProofData mockProofData `json:"proof_data"`
}

// CreateMockProof serializes a deterministic placeholder proof blob
// binding the given statement. stmt may be any canonical-JSON-able
// value (typically a *verifier.Statement).
func CreateMockProof(stmt any) ([]byte, error) {
	p := mockProof{
		Version:   MockProofVersion,
		Type:      "mock",
		Statement: stmt,
		ProofData: mockProofData{Mock: true, Verified: true},
	}
	return canonjson.Marshal(&p)
}
