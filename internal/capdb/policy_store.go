// Copyright 2025 Certen Protocol
//
// Postgres-backed implementation of policy.Store, realizing SPEC_FULL's
// "polymorphism over storage backends" note: the in-memory store in
// internal/policy and this one satisfy the same interface, so callers
// swap backends without touching orchestration code. Grounded on
// pkg/database/repository_proof.go's repository-over-Client pattern.

package capdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/capio-labs/proofbundle/internal/policy"
)

// PolicyStore is a policy.Store backed by the policies table.
type PolicyStore struct {
	client *Client
	ctx    context.Context
}

// NewPolicyStore constructs a PolicyStore bound to ctx for the
// lifetime of its calls (the teacher's repositories take ctx
// per-call; this core's policy.Store interface predates context
// plumbing, so ctx is captured once here instead).
func NewPolicyStore(client *Client, ctx context.Context) *PolicyStore {
	return &PolicyStore{client: client, ctx: ctx}
}

var _ policy.Store = (*PolicyStore)(nil)

// Save upserts a policy record by policy_id.
func (s *PolicyStore) Save(r *policy.Record) error {
	if r == nil || r.Policy == nil {
		return fmt.Errorf("capdb: cannot save nil record or policy")
	}

	policyJSON, err := json.Marshal(r.Policy)
	if err != nil {
		return fmt.Errorf("capdb: marshal policy: %w", err)
	}
	irJSON, err := json.Marshal(r.IR)
	if err != nil {
		return fmt.Errorf("capdb: marshal ir: %w", err)
	}

	status := r.Status
	if status == "" {
		status = policy.StatusDraft
	}

	_, err = s.client.DB().ExecContext(s.ctx, `
		INSERT INTO policies (policy_id, policy_hash, status, policy_json, ir_json, ir_hash, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (policy_id) DO UPDATE SET
			policy_hash = EXCLUDED.policy_hash,
			status      = EXCLUDED.status,
			policy_json = EXCLUDED.policy_json,
			ir_json     = EXCLUDED.ir_json,
			ir_hash     = EXCLUDED.ir_hash,
			updated_at  = now()
	`, r.Policy.ID, r.PolicyHash, string(status), policyJSON, irJSON, r.IRHash)
	if err != nil {
		return fmt.Errorf("capdb: save policy %s: %w", r.Policy.ID, err)
	}
	return nil
}

// Get returns the record stored under policyID.
func (s *PolicyStore) Get(policyID string) (*policy.Record, error) {
	return s.scanOne(s.client.DB().QueryRowContext(s.ctx, `
		SELECT policy_hash, status, policy_json, ir_json, ir_hash
		FROM policies WHERE policy_id = $1
	`, policyID))
}

// GetByHash returns the record stored under policyHash.
func (s *PolicyStore) GetByHash(policyHash string) (*policy.Record, error) {
	return s.scanOne(s.client.DB().QueryRowContext(s.ctx, `
		SELECT policy_hash, status, policy_json, ir_json, ir_hash
		FROM policies WHERE policy_hash = $1
	`, policyHash))
}

func (s *PolicyStore) scanOne(row *sql.Row) (*policy.Record, error) {
	var (
		policyHash, status string
		policyJSON, irJSON []byte
		irHash             string
	)
	if err := row.Scan(&policyHash, &status, &policyJSON, &irJSON, &irHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, policy.ErrNotFound
		}
		return nil, fmt.Errorf("capdb: scan policy: %w", err)
	}

	var p policy.PolicyV2
	if err := json.Unmarshal(policyJSON, &p); err != nil {
		return nil, fmt.Errorf("capdb: unmarshal policy: %w", err)
	}
	var ir policy.IR
	if err := json.Unmarshal(irJSON, &ir); err != nil {
		return nil, fmt.Errorf("capdb: unmarshal ir: %w", err)
	}

	return &policy.Record{
		Policy:     &p,
		PolicyHash: policyHash,
		IR:         &ir,
		IRHash:     irHash,
		Status:     policy.Status(status),
	}, nil
}

// List returns every stored record.
func (s *PolicyStore) List() ([]*policy.Record, error) {
	rows, err := s.client.DB().QueryContext(s.ctx, `
		SELECT policy_hash, status, policy_json, ir_json, ir_hash FROM policies
	`)
	if err != nil {
		return nil, fmt.Errorf("capdb: list policies: %w", err)
	}
	defer rows.Close()

	var out []*policy.Record
	for rows.Next() {
		var (
			policyHash, status string
			policyJSON, irJSON []byte
			irHash             string
		)
		if err := rows.Scan(&policyHash, &status, &policyJSON, &irJSON, &irHash); err != nil {
			return nil, fmt.Errorf("capdb: scan policy row: %w", err)
		}
		var p policy.PolicyV2
		if err := json.Unmarshal(policyJSON, &p); err != nil {
			return nil, fmt.Errorf("capdb: unmarshal policy: %w", err)
		}
		var ir policy.IR
		if err := json.Unmarshal(irJSON, &ir); err != nil {
			return nil, fmt.Errorf("capdb: unmarshal ir: %w", err)
		}
		out = append(out, &policy.Record{
			Policy: &p, PolicyHash: policyHash, IR: &ir, IRHash: irHash, Status: policy.Status(status),
		})
	}
	return out, rows.Err()
}

// SetStatus updates the lifecycle status of policyID.
func (s *PolicyStore) SetStatus(policyID string, status policy.Status) error {
	res, err := s.client.DB().ExecContext(s.ctx, `
		UPDATE policies SET status = $1, updated_at = now() WHERE policy_id = $2
	`, string(status), policyID)
	if err != nil {
		return fmt.Errorf("capdb: set status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("capdb: rows affected: %w", err)
	}
	if n == 0 {
		return policy.ErrNotFound
	}
	return nil
}
