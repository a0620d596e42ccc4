// Copyright 2025 Certen Protocol
//
// Manifest hashing. The manifest hash is computed over the manifest
// with Signatures cleared, breaking the cyclic dependency where a
// signature would otherwise need to cover its own container (spec
// §4.F / §9).

package manifest

import (
	"fmt"

	"github.com/capio-labs/proofbundle/internal/canonjson"
	"github.com/capio-labs/proofbundle/internal/capcrypto"
)

// Hash computes SHA3-256 of the canonical JSON of m with Signatures
// cleared. The input manifest is not mutated.
func Hash(m *Manifest) ([capcrypto.HashSize]byte, error) {
	unsigned := *m
	unsigned.Signatures = nil

	canonical, err := canonjson.Marshal(&unsigned)
	if err != nil {
		return [capcrypto.HashSize]byte{}, fmt.Errorf("manifest: canonicalize: %w", err)
	}
	return capcrypto.SHA3256(canonical), nil
}

// HashHex returns Hash rendered in "sha3-256:"+hex form.
func HashHex(m *Manifest) (string, error) {
	h, err := Hash(m)
	if err != nil {
		return "", err
	}
	return capcrypto.HexEncodeSHA3(h[:]), nil
}
