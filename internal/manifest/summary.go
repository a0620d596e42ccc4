// Copyright 2025 Certen Protocol
//
// Human-readable bundle summary, used by cmd/capctl's summary
// subcommand. Grounded on original_source's
// package_verifier/summary.rs (show_package_summary).

package manifest

import (
	"fmt"
	"strings"
)

// Summarize renders a manifest and its proof type/status as a
// human-readable text block.
func Summarize(m *Manifest) string {
	var b strings.Builder

	b.WriteString("=== PROOF BUNDLE SUMMARY ===\n\n")
	b.WriteString("Manifest:\n")
	fmt.Fprintf(&b, "  Schema: %s\n", m.Schema)
	fmt.Fprintf(&b, "  Created: %s\n", m.CreatedAt)
	fmt.Fprintf(&b, "  Company Root: %s\n", m.CompanyCommitmentRoot)
	fmt.Fprintf(&b, "  Policy: %s (%s)\n", m.Policy.Name, m.Policy.Version)
	fmt.Fprintf(&b, "  Policy Hash: %s\n", m.Policy.Hash)
	fmt.Fprintf(&b, "  Audit Events: %d\n", m.Audit.EventsCount)
	fmt.Fprintf(&b, "  Audit Tail: %s\n\n", m.Audit.TailDigest)

	b.WriteString("Proof:\n")
	fmt.Fprintf(&b, "  Type: %s\n", m.Proof.Type)
	fmt.Fprintf(&b, "  Status: %s\n", m.Proof.Status)
	fmt.Fprintf(&b, "  Signatures: %d\n", len(m.Signatures))

	if m.TimeAnchor != nil {
		b.WriteString("\nTime Anchor:\n")
		fmt.Fprintf(&b, "  Kind: %s\n", m.TimeAnchor.Kind)
		fmt.Fprintf(&b, "  Reference: %s\n", m.TimeAnchor.Reference)
	}

	return b.String()
}
