// Copyright 2025 Certen Protocol
//
// Policy and IR hashing. Grounded on original_source's
// policy_v2/hasher.rs (sha3_256_hex, the "sha3-256:"+hex(...) format)
// and spec.md §4.D's ir_hash recipe (zero the field, canonicalize,
// hash, fill it back in).

package policy

import (
	"fmt"

	"github.com/capio-labs/proofbundle/internal/canonjson"
	"github.com/capio-labs/proofbundle/internal/capcrypto"
)

// HashPolicy computes policy_hash = "sha3-256:" + hex(SHA3-256(canonical_json(p))).
func HashPolicy(p *PolicyV2) (string, error) {
	canonical, err := canonjson.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("policy: canonicalize policy: %w", err)
	}
	digest := capcrypto.SHA3256(canonical)
	return capcrypto.HexEncodeSHA3(digest[:]), nil
}

// HashIR computes ir_hash over an IR whose IRHash field has been
// zeroed, then returns the IR with IRHash set to that digest. The
// input IR is not mutated.
func HashIR(ir *IR) (*IR, error) {
	unhashed := *ir
	unhashed.IRHash = ""

	canonical, err := canonjson.Marshal(&unhashed)
	if err != nil {
		return nil, fmt.Errorf("policy: canonicalize ir: %w", err)
	}
	digest := capcrypto.SHA3256(canonical)

	result := unhashed
	result.IRHash = capcrypto.HexEncodeSHA3(digest[:])
	return &result, nil
}
