// Copyright 2025 Certen Protocol
//
// Verifier core — pure, I/O-free re-verification logic. Grounded on
// original_source's verifier/core.rs doc comment ("No file system
// access... no console output... deterministic verification
// results") and the teacher's pkg/verification/unified_verifier.go
// shape (a Config-driven Verifier over an in-memory bundle). Unlike
// the teacher's 4-level chain verifier, this re-verifies a manifest +
// proof + statement triple against spec.md §4.G's seven steps.

package verifier

import (
	"fmt"
	"regexp"

	"github.com/capio-labs/proofbundle/internal/capcrypto"
	"github.com/capio-labs/proofbundle/internal/manifest"
)

// hashPattern matches either wire encoding of a 32-byte hash:
// 0x-prefixed or sha3-256:-prefixed lowercase hex.
var hashPattern = regexp.MustCompile(`^(0x|sha3-256:)[0-9a-f]{64}$`)

// Statement is the set of claims a proof attests to, extracted from
// a manifest. PolicyHash and CompanyCommitmentRoot are required;
// SanctionsRoot and JurisdictionRoot are optional depending on which
// policy produced the proof.
type Statement struct {
	PolicyHash            string  `json:"policy_hash"`
	CompanyCommitmentRoot string  `json:"company_commitment_root"`
	SanctionsRoot         *string `json:"sanctions_root,omitempty"`
	JurisdictionRoot      *string `json:"jurisdiction_root,omitempty"`
}

// Validate checks that every present hash field is well-formed.
func (s *Statement) Validate() error {
	if !hashPattern.MatchString(s.PolicyHash) {
		return fmt.Errorf("verifier: invalid policy_hash %q", s.PolicyHash)
	}
	if !hashPattern.MatchString(s.CompanyCommitmentRoot) {
		return fmt.Errorf("verifier: invalid company_commitment_root %q", s.CompanyCommitmentRoot)
	}
	if s.SanctionsRoot != nil && !hashPattern.MatchString(*s.SanctionsRoot) {
		return fmt.Errorf("verifier: invalid sanctions_root %q", *s.SanctionsRoot)
	}
	if s.JurisdictionRoot != nil && !hashPattern.MatchString(*s.JurisdictionRoot) {
		return fmt.Errorf("verifier: invalid jurisdiction_root %q", *s.JurisdictionRoot)
	}
	return nil
}

// StatementFromManifest extracts and validates a Statement from a
// manifest's top-level fields.
func StatementFromManifest(m *manifest.Manifest) (*Statement, error) {
	stmt := &Statement{
		PolicyHash:            m.Policy.Hash,
		CompanyCommitmentRoot: m.CompanyCommitmentRoot,
		SanctionsRoot:         m.SanctionsRoot,
		JurisdictionRoot:      m.JurisdictionRoot,
	}
	if err := stmt.Validate(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// RegistryChecker confirms that a (manifestHash, proofHash) pair is
// present in some external registry. It is injected by the caller —
// the core never reaches out to a registry itself.
type RegistryChecker func(manifestHash, proofHash [capcrypto.HashSize]byte) (bool, error)

// Options controls which optional checks Verify performs. Both
// default to false (offline-first): a bare manifest+proof+statement
// triple can always be re-verified with no external dependency.
type Options struct {
	CheckTimestamp bool
	CheckRegistry  bool
	Registry       RegistryChecker
}

// Report is the outcome of one Verify call.
type Report struct {
	Status                string         `json:"status"` // "ok" or "fail"
	ManifestHash          string         `json:"manifest_hash"`
	ProofHash             string         `json:"proof_hash"`
	SignatureValid        bool           `json:"signature_valid"`
	TimestampValid        *bool          `json:"timestamp_valid,omitempty"`
	RegistryMatch         *bool          `json:"registry_match,omitempty"`
	Details               map[string]any `json:"details,omitempty"`
}

func boolPtr(b bool) *bool { return &b }

func fail(details map[string]any) *Report {
	if details == nil {
		details = map[string]any{}
	}
	return &Report{Status: "fail", Details: details}
}

// Verify re-derives everything spec.md §4.G's seven steps name, never
// reading the wall clock or touching a filesystem: any "now" needed
// for a timestamp check must already live in manifest.TimeAnchor.
//
//  1. Recompute manifest_hash.
//  2. Recompute proof_hash.
//  3. Extract and validate the statement.
//  4. Verify every signature; status requires at least one valid
//     signature and zero invalid ones.
//  5. If opts.CheckTimestamp, validate the embedded audit tip against
//     the manifest's time anchor.
//  6. If opts.CheckRegistry, confirm presence via the injected
//     Registry callback.
//  7. Assemble the Report.
func Verify(m *manifest.Manifest, proofBytes []byte, stmt *Statement, opts Options) (*Report, error) {
	manifestHash, err := manifest.Hash(m)
	if err != nil {
		return nil, fmt.Errorf("verifier: recompute manifest hash: %w", err)
	}
	proofHash := capcrypto.SHA3256(proofBytes)

	manifestHashHex := capcrypto.HexEncodeSHA3(manifestHash[:])
	proofHashHex := capcrypto.HexEncodeSHA3(proofHash[:])

	if stmt == nil {
		return fail(map[string]any{"reason": "missing statement"}), nil
	}
	if err := stmt.Validate(); err != nil {
		r := fail(map[string]any{"reason": err.Error()})
		r.ManifestHash = manifestHashHex
		r.ProofHash = proofHashHex
		return r, nil
	}
	if stmt.PolicyHash != m.Policy.Hash || stmt.CompanyCommitmentRoot != m.CompanyCommitmentRoot {
		r := fail(map[string]any{"reason": "statement does not match manifest"})
		r.ManifestHash = manifestHashHex
		r.ProofHash = proofHashHex
		return r, nil
	}

	signatureValid, sigDetails := verifySignatures(m, manifestHash)

	report := &Report{
		ManifestHash:   manifestHashHex,
		ProofHash:      proofHashHex,
		SignatureValid: signatureValid,
		Details:        map[string]any{},
	}
	if len(sigDetails) > 0 {
		report.Details["signatures"] = sigDetails
	}

	ok := signatureValid

	if opts.CheckTimestamp {
		timestampValid := checkTimestamp(m)
		report.TimestampValid = boolPtr(timestampValid)
		ok = ok && timestampValid
	}

	if opts.CheckRegistry {
		if opts.Registry == nil {
			return nil, fmt.Errorf("verifier: CheckRegistry requested with no Registry callback")
		}
		match, err := opts.Registry(manifestHash, proofHash)
		if err != nil {
			return nil, fmt.Errorf("verifier: registry check: %w", err)
		}
		report.RegistryMatch = boolPtr(match)
		ok = ok && match
	}

	if ok {
		report.Status = "ok"
	} else {
		report.Status = "fail"
	}
	return report, nil
}

// verifySignatures checks every manifest signature against
// manifestHash. The manifest passes iff at least one signature is
// valid and none are invalid — a single bad signature fails the
// whole report even if others are good (spec §4.G step 4).
func verifySignatures(m *manifest.Manifest, manifestHash [capcrypto.HashSize]byte) (bool, []map[string]any) {
	if len(m.Signatures) == 0 {
		return false, nil
	}
	var details []map[string]any
	validCount := 0
	for _, sig := range m.Signatures {
		ok, err := manifest.VerifySignature(sig, manifestHash)
		entry := map[string]any{"signer": sig.Signer, "valid": ok}
		if err != nil {
			entry["error"] = err.Error()
		}
		details = append(details, entry)
		if err != nil || !ok {
			return false, details
		}
		validCount++
	}
	return validCount > 0, details
}

// checkTimestamp validates the manifest's embedded time anchor shape.
// It never contacts a TSA or blockchain provider; it only confirms
// the anchor names a non-empty audit tip, matching the stored
// AuditInfo.TailDigest.
func checkTimestamp(m *manifest.Manifest) bool {
	if m.TimeAnchor == nil {
		return false
	}
	if m.TimeAnchor.AuditTipHex == "" {
		return false
	}
	return m.TimeAnchor.AuditTipHex == m.Audit.TailDigest
}
