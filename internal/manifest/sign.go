// Copyright 2025 Certen Protocol
//
// Manifest signing and signature verification, over the manifest
// hash (not the raw manifest bytes) so that formatting differences
// never affect signature validity. Grounded on original_source's
// manifest/signed.rs (SignedManifest wraps a Manifest + SignatureInfo)
// and the teacher's pkg/anchor_proof/signer.go Ed25519 usage.

package manifest

import (
	"crypto/ed25519"
	"fmt"

	"github.com/capio-labs/proofbundle/internal/capcrypto"
)

// Sign appends a new Ed25519 signature over the manifest's current
// hash (computed with Signatures already cleared by Hash). Callers
// that need multiple co-signers call Sign once per signer; Hash
// always excludes Signatures, so adding a signature never invalidates
// an earlier one.
func Sign(m *Manifest, priv ed25519.PrivateKey, signer string) error {
	h, err := Hash(m)
	if err != nil {
		return err
	}
	sig := capcrypto.Ed25519Sign(priv, h[:])
	pub := priv.Public().(ed25519.PublicKey)

	m.Signatures = append(m.Signatures, SignatureInfo{
		Alg:       "Ed25519",
		Signer:    signer,
		PubKeyHex: capcrypto.HexEncode(pub),
		SigHex:    capcrypto.HexEncode(sig),
	})
	return nil
}

// VerifySignature reports whether sig is a valid Ed25519 signature of
// manifestHash under the public key it carries.
func VerifySignature(sig SignatureInfo, manifestHash [capcrypto.HashSize]byte) (bool, error) {
	if sig.Alg != "Ed25519" {
		return false, fmt.Errorf("manifest: unsupported signature algorithm %q", sig.Alg)
	}
	pub, err := capcrypto.HexDecode(sig.PubKeyHex)
	if err != nil {
		return false, fmt.Errorf("manifest: decode pubkey: %w", err)
	}
	sigBytes, err := capcrypto.HexDecode(sig.SigHex)
	if err != nil {
		return false, fmt.Errorf("manifest: decode signature: %w", err)
	}
	return capcrypto.Ed25519Verify(pub, manifestHash[:], sigBytes), nil
}
