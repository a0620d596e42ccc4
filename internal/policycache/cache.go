// Copyright 2025 Certen Protocol
//
// Bounded LRU cache of compiled policies, keyed by policy_hash with a
// secondary policy_id index. Grounded on original_source's
// api/policy_compiler/cache.rs (a process-global LruCache<String,
// Arc<PolicyEntry>> plus a policy_id -> policy_hash HashMap index),
// adapted to a constructed (non-global) type per spec §5's preference
// for dependency injection in tests, and backed by
// hashicorp/golang-lru/v2 instead of the Rust `lru` crate.

package policycache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/capio-labs/proofbundle/internal/capmetrics"
	"github.com/capio-labs/proofbundle/internal/policy"
)

// DefaultCapacity is the cache size named in spec §4.E.
const DefaultCapacity = 1000

// Entry is a compiled policy plus its content hashes.
type Entry struct {
	Policy     *policy.PolicyV2
	PolicyHash string
	IR         *policy.IR
	IRHash     string
}

// Cache is a bounded LRU of Entry keyed by PolicyHash, with a
// secondary PolicyID -> PolicyHash index. One mutex guards both the
// LRU and the index: every operation is a hash lookup or a single
// insert, so fine-grained locking buys nothing (spec §5).
type Cache struct {
	mu      sync.Mutex
	lru     *lru.Cache[string, *Entry]
	idIndex map[string]string
	metrics *capmetrics.Metrics
}

// Option configures a Cache at construction time.
type Option func(*Cache)

// WithMetrics records every Get as a cache hit or miss against m.
func WithMetrics(m *capmetrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New constructs a Cache with the given capacity. Passing 0 uses
// DefaultCapacity.
func New(capacity int, opts ...Option) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Cache{idIndex: make(map[string]string)}
	l, err := lru.NewWithEvict[string, *Entry](capacity, c.onEvict)
	if err != nil {
		return nil, err
	}
	c.lru = l
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// onEvict removes the evicted key from the id index, but only if no
// remaining entry still maps that policy id to it (spec §4.E).
func (c *Cache) onEvict(policyHash string, e *Entry) {
	if e == nil || e.Policy == nil {
		return
	}
	if current, ok := c.idIndex[e.Policy.ID]; ok && current == policyHash {
		delete(c.idIndex, e.Policy.ID)
	}
}

// Put inserts or updates an entry, keyed by its PolicyHash, and
// records the PolicyID -> PolicyHash mapping.
func (c *Cache) Put(e *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(e.PolicyHash, e)
	if e.Policy != nil {
		c.idIndex[e.Policy.ID] = e.PolicyHash
	}
}

// Get looks up an entry by policy_hash, marking it most-recently-used.
// If the Cache was constructed with WithMetrics, the lookup is
// recorded as a hit or miss.
func (c *Cache) Get(policyHash string) (*Entry, bool) {
	c.mu.Lock()
	e, ok := c.lru.Get(policyHash)
	c.mu.Unlock()
	if c.metrics != nil {
		c.metrics.RecordCacheLookup(ok)
	}
	return e, ok
}

// Peek looks up an entry by policy_hash without affecting LRU order.
func (c *Cache) Peek(policyHash string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Peek(policyHash)
}

// GetByID resolves a policy_id through the secondary index, then
// looks up the resulting policy_hash (updating LRU order, same as Get).
func (c *Cache) GetByID(policyID string) (*Entry, bool) {
	c.mu.Lock()
	policyHash, ok := c.idIndex[policyID]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	return c.Get(policyHash)
}

// Len reports the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
