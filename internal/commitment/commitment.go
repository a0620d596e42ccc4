// Copyright 2025 Certen Protocol
//
// Commitments — reduces tabular private facts (suppliers, UBOs) to
// BLAKE3 root commitments. This is a streaming commitment over the
// ordered row sequence, not a balanced Merkle tree: it commits to the
// list as a whole and does not support per-row inclusion proofs. See
// spec §9 Open Question (a) — this is intentional and must not be
// silently upgraded.
//
// Adapted from the teacher's pkg/commitment/commitment.go (SHA-256
// canonical-JSON hashing) and original_source's commitment.rs (BLAKE3
// row/root hashing), combined per spec §3/§4.C which specifies BLAKE3
// roots.

package commitment

import (
	"fmt"

	"github.com/capio-labs/proofbundle/internal/canonjson"
	"github.com/capio-labs/proofbundle/internal/capcrypto"
)

// Supplier is a private business fact row about a supplier relationship.
type Supplier struct {
	Name         string `json:"name" csv:"name"`
	Jurisdiction string `json:"jurisdiction" csv:"jurisdiction"`
	Tier         int    `json:"tier" csv:"tier"`
}

// Ubo is a private fact row about an ultimate beneficial owner.
type Ubo struct {
	Name        string `json:"name" csv:"name"`
	Birthdate   string `json:"birthdate" csv:"birthdate"`
	Citizenship string `json:"citizenship" csv:"citizenship"`
}

// Commitments is the record of all roots derived from one issuance's facts.
type Commitments struct {
	SupplierRoot            string `json:"supplier_root"`
	UboRoot                 string `json:"ubo_root"`
	CompanyCommitmentRoot   string `json:"company_commitment_root"`
	SupplierCount           *int   `json:"supplier_count,omitempty"`
	UboCount                *int   `json:"ubo_count,omitempty"`
}

// RowHash computes the canonical-JSON → BLAKE3 digest of a single row.
func RowHash(row any) ([capcrypto.HashSize]byte, error) {
	canonical, err := canonjson.Marshal(row)
	if err != nil {
		return [capcrypto.HashSize]byte{}, fmt.Errorf("commitment: canonicalize row: %w", err)
	}
	return capcrypto.BLAKE3(canonical), nil
}

// ListRoot computes the BLAKE3 digest of the ordered concatenation of
// hex-encoded row hashes. An empty list yields BLAKE3(""), the
// well-defined empty-input digest (spec §8 scenario 3).
//
// This must never reorder or deduplicate its input — the caller's row
// order is part of what is committed to.
func ListRoot(hashes [][capcrypto.HashSize]byte) [capcrypto.HashSize]byte {
	var buf []byte
	for _, h := range hashes {
		hexStr := capcrypto.HexEncode(h[:])
		buf = append(buf, []byte(hexStr)...)
	}
	return capcrypto.BLAKE3(buf)
}

// SupplierRoot computes the streaming commitment over supplier rows, in order.
func SupplierRoot(rows []Supplier) ([capcrypto.HashSize]byte, error) {
	hashes := make([][capcrypto.HashSize]byte, len(rows))
	for i, r := range rows {
		h, err := RowHash(r)
		if err != nil {
			return [capcrypto.HashSize]byte{}, fmt.Errorf("commitment: supplier row %d: %w", i, err)
		}
		hashes[i] = h
	}
	return ListRoot(hashes), nil
}

// UboRoot computes the streaming commitment over UBO rows, in order.
func UboRoot(rows []Ubo) ([capcrypto.HashSize]byte, error) {
	hashes := make([][capcrypto.HashSize]byte, len(rows))
	for i, r := range rows {
		h, err := RowHash(r)
		if err != nil {
			return [capcrypto.HashSize]byte{}, fmt.Errorf("commitment: ubo row %d: %w", i, err)
		}
		hashes[i] = h
	}
	return ListRoot(hashes), nil
}

// CompanyRoot binds the supplier and UBO roots:
// BLAKE3(hex(supplier_root) || hex(ubo_root)).
func CompanyRoot(supplierRoot, uboRoot [capcrypto.HashSize]byte) [capcrypto.HashSize]byte {
	combined := append([]byte(capcrypto.HexEncode(supplierRoot[:])), []byte(capcrypto.HexEncode(uboRoot[:]))...)
	return capcrypto.BLAKE3(combined)
}

// Compute builds the full Commitments record for a set of facts, every
// root rendered as lowercase "0x"-prefixed hex (66 chars).
func Compute(suppliers []Supplier, ubos []Ubo) (*Commitments, error) {
	supplierRoot, err := SupplierRoot(suppliers)
	if err != nil {
		return nil, err
	}
	uboRoot, err := UboRoot(ubos)
	if err != nil {
		return nil, err
	}
	companyRoot := CompanyRoot(supplierRoot, uboRoot)

	supplierCount := len(suppliers)
	uboCount := len(ubos)
	return &Commitments{
		SupplierRoot:          capcrypto.HexEncode0x(supplierRoot[:]),
		UboRoot:                capcrypto.HexEncode0x(uboRoot[:]),
		CompanyCommitmentRoot:  capcrypto.HexEncode0x(companyRoot[:]),
		SupplierCount:          &supplierCount,
		UboCount:                &uboCount,
	}, nil
}
