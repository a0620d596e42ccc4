// Copyright 2025 Certen Protocol
//
// Manifest types. Grounded on original_source's manifest/types.rs
// (Manifest, AuditInfo, ProofInfo, SignatureInfo) and manifest/anchor.rs
// (TimeAnchor, TimeAnchorPrivate, TimeAnchorPublic), translated from
// serde structs into json-tagged Go structs.

package manifest

// SchemaVersion is the manifest schema tag, mirroring
// original_source's MANIFEST_SCHEMA_VERSION constant.
const SchemaVersion = "manifest.v1.0"

// Manifest is the signed statement a bundle carries: the commitment
// roots it attests to, which policy produced the proof, the audit
// chain position, and the proof's own identity.
type Manifest struct {
	Schema                string          `json:"schema"`
	CreatedAt              string          `json:"created_at"`
	SupplierRoot           string          `json:"supplier_root"`
	UboRoot                string          `json:"ubo_root"`
	CompanyCommitmentRoot  string          `json:"company_commitment_root"`
	Policy                 PolicyInfo      `json:"policy"`
	SanctionsRoot          *string         `json:"sanctions_root,omitempty"`
	JurisdictionRoot       *string         `json:"jurisdiction_root,omitempty"`
	Audit                  AuditInfo       `json:"audit"`
	Proof                  ProofInfo       `json:"proof"`
	Signatures             []SignatureInfo `json:"signatures"`
	TimeAnchor             *TimeAnchor     `json:"time_anchor,omitempty"`
}

// PolicyInfo identifies the policy a manifest was produced against.
type PolicyInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Hash    string `json:"hash"`
}

// AuditInfo records the audit chain's position at issuance time.
type AuditInfo struct {
	TailDigest  string `json:"tail_digest"`
	EventsCount uint64 `json:"events_count"`
}

// ProofInfo names the proof type and its status.
type ProofInfo struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

// SignatureInfo is one Ed25519 signature over the manifest hash.
type SignatureInfo struct {
	Alg       string `json:"alg"`
	Signer    string `json:"signer"`
	PubKeyHex string `json:"pubkey_hex"`
	SigHex    string `json:"sig_hex"`
}

// TimeAnchor records an external timestamp reference for the
// manifest. The core only stores and validates its shape; it never
// contacts a TSA, blockchain node, or file-anchor provider itself —
// those remain an external collaborator's concern.
type TimeAnchor struct {
	Kind        string               `json:"kind"` // "tsa", "blockchain", "file", "none"
	Reference   string               `json:"reference"`
	AuditTipHex string               `json:"audit_tip_hex"`
	CreatedAt   string               `json:"created_at"`
	Private     *TimeAnchorPrivate   `json:"private,omitempty"`
	Public      *TimeAnchorPublic    `json:"public,omitempty"`
}

// TimeAnchorPrivate is the local audit-tip half of a dual anchor.
type TimeAnchorPrivate struct {
	AuditTipHex string `json:"audit_tip_hex"`
	CreatedAt   string `json:"created_at"`
}

// TimeAnchorPublic is the externally notarized half of a dual anchor.
type TimeAnchorPublic struct {
	Chain     string `json:"chain"` // "ethereum", "hedera", "btc"
	TxID      string `json:"txid"`
	Digest    string `json:"digest"`
	CreatedAt string `json:"created_at"`
}
