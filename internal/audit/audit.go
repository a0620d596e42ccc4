// Copyright 2025 Certen Protocol
//
// Hash-chained append-only audit log. Grounded on original_source's
// audit/mod.rs (AuditChain, a Track-A hash-chain with typed events)
// and audit/traits.rs's AuditStore trait (append_event/tail_hash),
// collapsed here into a single concrete Chain type rather than a
// trait with v1/v2 adapters — this core only ever writes the one
// current shape.

package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/capio-labs/proofbundle/internal/canonjson"
	"github.com/capio-labs/proofbundle/internal/capcrypto"
	"github.com/capio-labs/proofbundle/internal/capmetrics"
)

// GenesisHash is the prev_hash of the first event in a chain.
var GenesisHash = "0x" + strings.Repeat("0", 64)

// Event is one append-only audit log entry. Hash covers PrevHash and
// the canonical JSON of {seq, timestamp, event_type, details}.
type Event struct {
	Seq       uint64          `json:"seq"`
	Timestamp time.Time       `json:"timestamp"`
	EventType string          `json:"event_type"`
	Details   json.RawMessage `json:"details,omitempty"`
	PrevHash  string          `json:"prev_hash"`
	Hash      string          `json:"hash"`
}

type eventBody struct {
	Seq       uint64          `json:"seq"`
	Timestamp time.Time       `json:"timestamp"`
	EventType string          `json:"event_type"`
	Details   json.RawMessage `json:"details,omitempty"`
}

// Chain is an in-memory, append-only hash chain. A single mutex
// serializes appenders, so total order is per-log and happens-before
// a subsequent read observes it (spec §5/§5 "Ordering guarantees").
type Chain struct {
	mu      sync.Mutex
	events  []Event
	sync    func() error // optional fsync hook for durable variants
	metrics *capmetrics.Metrics
}

// ChainOption configures a Chain at construction time.
type ChainOption func(*Chain)

// WithMetrics increments AuditAppends on m every time Append succeeds.
func WithMetrics(m *capmetrics.Metrics) ChainOption {
	return func(c *Chain) { c.metrics = m }
}

// NewChain constructs an empty in-memory chain.
func NewChain(opts ...ChainOption) *Chain {
	c := &Chain{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewDurableChain constructs a chain whose Append calls syncFn after
// recording each event, before returning the new tail hash — the
// "fsync before publishing" rule of spec §5. syncFn is typically an
// *os.File's Sync method bound to wherever the caller persists events.
func NewDurableChain(syncFn func() error, opts ...ChainOption) *Chain {
	c := &Chain{sync: syncFn}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Append computes the next event's hash and adds it to the chain,
// returning the appended Event.
func (c *Chain) Append(eventType string, details any) (*Event, error) {
	detailsJSON, err := canonjson.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("audit: canonicalize details: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	seq := uint64(len(c.events))
	prevHash := GenesisHash
	if seq > 0 {
		prevHash = c.events[seq-1].Hash
	}

	body := eventBody{
		Seq:       seq,
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Details:   detailsJSON,
	}
	bodyCanonical, err := canonjson.Marshal(&body)
	if err != nil {
		return nil, fmt.Errorf("audit: canonicalize event body: %w", err)
	}

	prevBytes, err := capcrypto.HexDecode(prevHash)
	if err != nil {
		return nil, fmt.Errorf("audit: decode prev_hash: %w", err)
	}

	digest := capcrypto.SHA3256(append(append([]byte(nil), prevBytes...), bodyCanonical...))
	event := Event{
		Seq:       seq,
		Timestamp: body.Timestamp,
		EventType: eventType,
		Details:   detailsJSON,
		PrevHash:  prevHash,
		Hash:      capcrypto.HexEncodeSHA3(digest[:]),
	}
	c.events = append(c.events, event)

	if c.sync != nil {
		if err := c.sync(); err != nil {
			return nil, fmt.Errorf("audit: fsync: %w", err)
		}
	}

	if c.metrics != nil {
		c.metrics.AuditAppends.Inc()
	}

	return &event, nil
}

// TailHash returns the hash of the most recently appended event, or
// GenesisHash if the chain is empty.
func (c *Chain) TailHash() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.events) == 0 {
		return GenesisHash
	}
	return c.events[len(c.events)-1].Hash
}

// Len returns the number of events appended so far.
func (c *Chain) Len() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return uint64(len(c.events))
}

// Events returns a copy of the chain's events in append order.
func (c *Chain) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// VerifyChain recomputes every event's hash and its link to the
// previous one, returning the index of the first broken event (spec
// §8 scenario 4). ok is true iff every event recomputes correctly.
func VerifyChain(events []Event) (ok bool, brokenIndex int, err error) {
	prevHash := GenesisHash
	for i, e := range events {
		if e.PrevHash != prevHash {
			return false, i, nil
		}

		body := eventBody{Seq: e.Seq, Timestamp: e.Timestamp, EventType: e.EventType, Details: e.Details}
		bodyCanonical, marshalErr := canonjson.Marshal(&body)
		if marshalErr != nil {
			return false, i, fmt.Errorf("audit: canonicalize event %d: %w", i, marshalErr)
		}

		prevBytes, decodeErr := capcrypto.HexDecode(e.PrevHash)
		if decodeErr != nil {
			return false, i, fmt.Errorf("audit: decode prev_hash at event %d: %w", i, decodeErr)
		}

		digest := capcrypto.SHA3256(append(append([]byte(nil), prevBytes...), bodyCanonical...))
		expected := capcrypto.HexEncodeSHA3(digest[:])
		if expected != e.Hash {
			return false, i, nil
		}

		prevHash = e.Hash
	}
	return true, -1, nil
}
