// Copyright 2025 Certen Protocol
//
// Centralized Cryptographic Operations
// Provides the hash and signature primitives every other package builds on:
// SHA3-256, BLAKE3, Ed25519, and hex codecs. All hashing here is pure —
// no internal state, no time reads.

package capcrypto

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"
)

// HashSize is the digest size used throughout the pipeline (SHA3-256 and BLAKE3 are both 32 bytes).
const HashSize = 32

// SHA3256 returns the SHA3-256 digest of data.
func SHA3256(data []byte) [HashSize]byte {
	return sha3.Sum256(data)
}

// BLAKE3 returns the BLAKE3-256 digest of data.
func BLAKE3(data []byte) [HashSize]byte {
	return blake3.Sum256(data)
}

// Ed25519Sign signs msg with priv, returning the 64-byte signature.
func Ed25519Sign(priv ed25519.PrivateKey, msg []byte) []byte {
	return ed25519.Sign(priv, msg)
}

// Ed25519Verify reports whether sig is a valid Ed25519 signature of msg under pub.
func Ed25519Verify(pub ed25519.PublicKey, msg, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, msg, sig)
}

// HexEncode lowercases and hex-encodes data without a prefix.
func HexEncode(data []byte) string {
	return hex.EncodeToString(data)
}

// HexEncode0x hex-encodes data with a leading "0x".
func HexEncode0x(data []byte) string {
	return "0x" + hex.EncodeToString(data)
}

// HexEncodeSHA3 hex-encodes data with a leading "sha3-256:", the wire
// encoding used for policy/IR/manifest hashes (see spec §3 "Hashes").
func HexEncodeSHA3(data []byte) string {
	return "sha3-256:" + hex.EncodeToString(data)
}

// HexDecode decodes a hash string in either "0x"+64hex or "sha3-256:"+64hex
// form, returning the raw bytes. Both prefixes are accepted on input per
// spec §6 "Hash encoding on the wire".
func HexDecode(s string) ([]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "sha3-256:")
	if trimmed == s {
		// neither prefix was present; still try raw hex for leniency on internal callers
		trimmed = s
	}
	b, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("capcrypto: invalid hex in %q: %w", s, err)
	}
	return b, nil
}

// IsValidHash32Hex reports whether s is a well-formed 32-byte hash in
// either accepted wire encoding (0x-prefixed or sha3-256:-prefixed, lowercase hex).
func IsValidHash32Hex(s string) bool {
	var hexPart string
	switch {
	case strings.HasPrefix(s, "0x"):
		hexPart = s[2:]
	case strings.HasPrefix(s, "sha3-256:"):
		hexPart = s[len("sha3-256:"):]
	default:
		return false
	}
	if len(hexPart) != 2*HashSize {
		return false
	}
	for _, r := range hexPart {
		isLowerHex := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
		if !isLowerHex {
			return false
		}
	}
	return true
}
