// Copyright 2025 Certen Protocol
//
// Bundle meta, export, format detection, and TOCTOU-safe loading.
// Grounded on original_source's bundle/mod.rs (BundleMeta,
// BundleFileMeta, ProofUnitMeta, export_bundle), bundle/format.rs
// (BundleFormatKind::detect_from_meta), and package_verifier/
// validation.rs (validate_file_hash's load-once pattern and 100 MB
// cap), carried into idiomatic Go.

package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/capio-labs/proofbundle/internal/capcrypto"
	"github.com/capio-labs/proofbundle/internal/merkle"
)

// NewBundleID generates a fresh random bundle identifier, the same
// way the teacher's signer.go mints proof ids with google/uuid.
func NewBundleID() string {
	return uuid.New().String()
}

// BundleSchemaV1 is the schema tag a cap-bundle.v1 _meta.json carries.
const BundleSchemaV1 = "cap-bundle.v1"

// MaxFileSize bounds any single bundle file, matching
// package_verifier/validation.rs's MAX_FILE_SIZE (100 MB, DoS
// prevention).
const MaxFileSize = 100 * 1024 * 1024

// ErrFileTooLarge is returned when a bundle file exceeds MaxFileSize.
var ErrFileTooLarge = errors.New("manifest: file exceeds 100 MB bundle limit")

// ErrHashMismatch is returned when a file's actual hash does not
// match its declared hash in _meta.json.
var ErrHashMismatch = errors.New("manifest: declared file hash mismatch")

// FileMeta describes one file entry in a bundle's _meta.json.
type FileMeta struct {
	Hash     string `json:"hash"`
	Size     int64  `json:"size"`
	Optional bool   `json:"optional,omitempty"`
}

// ProofUnitMeta names a unit of proof content within the bundle
// (e.g. one supplier batch's worth of statements).
type ProofUnitMeta struct {
	ID   string `json:"id"`
	Hash string `json:"hash"`
}

// Meta is the parsed _meta.json of a cap-bundle.v1 bundle.
type Meta struct {
	Schema     string              `json:"schema"`
	BundleID   string              `json:"bundle_id"`
	CreatedAt  string              `json:"created_at"`
	Files      map[string]FileMeta `json:"files"`
	ProofUnits []ProofUnitMeta     `json:"proof_units,omitempty"`
}

// BundleFormat identifies which _meta.json shape a bundle uses.
type BundleFormat int

const (
	FormatLegacy BundleFormat = iota
	FormatV1
	FormatV2
)

func (f BundleFormat) String() string {
	switch f {
	case FormatV1:
		return "cap-bundle.v1"
	case FormatV2:
		return "cap-proof.v2"
	default:
		return "legacy"
	}
}

// DetectFormat classifies a decoded _meta.json by the same rule
// original_source's BundleFormatKind::detect_from_meta uses: a
// "schema" field means V1, a "bundle_version" prefixed
// "cap-proof.v2" means V2, anything else is Legacy.
func DetectFormat(meta map[string]any) BundleFormat {
	if _, ok := meta["schema"]; ok {
		return FormatV1
	}
	if v, ok := meta["bundle_version"].(string); ok && strings.HasPrefix(v, "cap-proof.v2") {
		return FormatV2
	}
	return FormatLegacy
}

// ExportBundle writes files into dir, computing a SHA3-256 hash and
// size for each, and returns the resulting Meta. Every file must be
// at most MaxFileSize bytes.
func ExportBundle(dir, bundleID, createdAt string, files map[string][]byte) (*Meta, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("manifest: export bundle: %w", err)
	}

	meta := &Meta{
		Schema:    BundleSchemaV1,
		BundleID:  bundleID,
		CreatedAt: createdAt,
		Files:     make(map[string]FileMeta, len(files)),
	}

	for name, content := range files {
		if int64(len(content)) > MaxFileSize {
			return nil, fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, name, len(content))
		}
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("manifest: export bundle: %w", err)
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return nil, fmt.Errorf("manifest: export bundle: write %s: %w", name, err)
		}
		digest := capcrypto.SHA3256(content)
		meta.Files[name] = FileMeta{
			Hash: capcrypto.HexEncodeSHA3(digest[:]),
			Size: int64(len(content)),
		}
	}

	return meta, nil
}

// BatchRoot computes the intra-bundle Merkle root over units's hashes,
// in the order given, and the inclusion proof for each. This is
// orthogonal to the streaming commitment roots in internal/commitment:
// it lets a verifier check one proof unit belongs to a bundle without
// holding every other unit, something a streaming/list hash alone
// cannot offer.
func BatchRoot(units []ProofUnitMeta) (rootHex string, proofs map[string]*merkle.InclusionProof, err error) {
	if len(units) == 0 {
		return "", nil, fmt.Errorf("manifest: cannot compute batch root over zero proof units")
	}

	leaves := make([][]byte, len(units))
	for i, u := range units {
		leaf, err := capcrypto.HexDecode(u.Hash)
		if err != nil {
			return "", nil, fmt.Errorf("manifest: decode proof unit %q hash: %w", u.ID, err)
		}
		leaves[i] = leaf
	}

	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		return "", nil, fmt.Errorf("manifest: build batch tree: %w", err)
	}

	proofs = make(map[string]*merkle.InclusionProof, len(units))
	for i, u := range units {
		p, err := tree.GenerateProof(i)
		if err != nil {
			return "", nil, fmt.Errorf("manifest: generate proof for %q: %w", u.ID, err)
		}
		proofs[u.ID] = p
	}

	return tree.RootHex(), proofs, nil
}

// LoadedBundle is the in-memory result of LoadBundle: every declared
// file's bytes, validated once against its declared hash.
type LoadedBundle struct {
	Meta  *Meta
	Files map[string][]byte
}

// LoadBundle reads every file named in meta from dir exactly once
// (load-once pattern per package_verifier/validation.rs), checks its
// size against MaxFileSize, and verifies its SHA3-256 hash against
// the declared value — all from the single in-memory copy, never by
// re-opening the file (the TOCTOU rule of spec §4.F). Optional files
// that are absent on disk are skipped.
func LoadBundle(dir string, meta *Meta) (*LoadedBundle, error) {
	files := make(map[string][]byte, len(meta.Files))

	for name, fm := range meta.Files {
		path := filepath.Join(dir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			if fm.Optional && os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("manifest: load bundle: read %s: %w", name, err)
		}
		if int64(len(content)) > MaxFileSize {
			return nil, fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, name, len(content))
		}

		digest := capcrypto.SHA3256(content)
		actual := capcrypto.HexEncodeSHA3(digest[:])
		if actual != fm.Hash {
			return nil, fmt.Errorf("%w: %s: declared %s, actual %s", ErrHashMismatch, name, fm.Hash, actual)
		}
		files[name] = content
	}

	return &LoadedBundle{Meta: meta, Files: files}, nil
}
