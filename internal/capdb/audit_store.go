// Copyright 2025 Certen Protocol
//
// Durable persistence for the audit hash chain: a thin recorder that
// mirrors each in-memory audit.Event into the audit_events table, so a
// restarted process can replay the chain with audit.VerifyChain. This
// does not replace internal/audit.Chain (which still computes hashes
// in-process); it is the "optional durable backend" side of storage
// polymorphism for the audit log, same as PolicyStore is for policies.

package capdb

import (
	"context"
	"fmt"

	"github.com/capio-labs/proofbundle/internal/audit"
)

// AuditRecorder appends audit.Events to Postgres as they are produced.
type AuditRecorder struct {
	client *Client
	ctx    context.Context
}

// NewAuditRecorder constructs an AuditRecorder bound to ctx.
func NewAuditRecorder(client *Client, ctx context.Context) *AuditRecorder {
	return &AuditRecorder{client: client, ctx: ctx}
}

// Record persists e. Intended to be called right after
// audit.Chain.Append succeeds, so the in-memory chain and the durable
// copy never diverge in content, only in how long they survive a crash.
func (r *AuditRecorder) Record(e *audit.Event) error {
	_, err := r.client.DB().ExecContext(r.ctx, `
		INSERT INTO audit_events (seq, event_type, details, prev_hash, hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (seq) DO NOTHING
	`, e.Seq, e.EventType, []byte(e.Details), e.PrevHash, e.Hash, e.Timestamp)
	if err != nil {
		return fmt.Errorf("capdb: record audit event %d: %w", e.Seq, err)
	}
	return nil
}

// LoadChain reads back every persisted event in sequence order, for
// replaying a chain's tail hash after a process restart.
func (r *AuditRecorder) LoadChain() ([]audit.Event, error) {
	rows, err := r.client.DB().QueryContext(r.ctx, `
		SELECT seq, event_type, details, prev_hash, hash, created_at
		FROM audit_events ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("capdb: load audit chain: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var e audit.Event
		var details []byte
		if err := rows.Scan(&e.Seq, &e.EventType, &details, &e.PrevHash, &e.Hash, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("capdb: scan audit event: %w", err)
		}
		e.Details = details
		events = append(events, e)
	}
	return events, rows.Err()
}
