// Copyright 2025 Certen Protocol
//
// Canonical JSON — deterministic serialization used wherever a hash is
// computed from a structured value. Keys are sorted lexicographically
// at every object level, arrays preserve order, and non-finite numbers
// are rejected. Adapted from the teacher's RFC8785-like
// pkg/commitment.CanonicalizeJSON, generalized to operate on arbitrary
// Go values (not just raw JSON bytes).

package canonjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Marshal serializes v into canonical JSON: object keys sorted, no
// insignificant whitespace, UTF-8, lowercase null/true/false.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonjson: marshal: %w", err)
	}
	return CanonicalizeJSON(raw)
}

// CanonicalizeJSON re-serializes raw JSON bytes in canonical form.
func CanonicalizeJSON(raw []byte) ([]byte, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("canonjson: decode: %w", err)
	}
	if err := checkFinite(v); err != nil {
		return nil, err
	}
	canonical := canonicalizeValue(v)
	out, err := json.Marshal(canonical)
	if err != nil {
		return nil, fmt.Errorf("canonjson: encode: %w", err)
	}
	return out, nil
}

// checkFinite rejects NaN/Inf float64 values. The decoder above uses
// UseNumber, so decoded input carries json.Number rather than float64
// and never trips this check; non-finite float64 values handed to
// Marshal are already rejected by json.Marshal before decoding.
func checkFinite(v any) error {
	switch vv := v.(type) {
	case float64:
		if math.IsNaN(vv) || math.IsInf(vv, 0) {
			return fmt.Errorf("canonjson: non-finite number is not representable")
		}
	case map[string]any:
		for _, e := range vv {
			if err := checkFinite(e); err != nil {
				return err
			}
		}
	case []any:
		for _, e := range vv {
			if err := checkFinite(e); err != nil {
				return err
			}
		}
	}
	return nil
}

// canonicalizeValue recursively sorts map keys; arrays retain order.
// json.Number values pass through untouched so the shortest
// round-trippable decimal representation from the original encoding survives.
func canonicalizeValue(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(vv))
		for k := range vv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ordered := newOrderedMap(len(vv))
		for _, k := range keys {
			ordered.set(k, canonicalizeValue(vv[k]))
		}
		return ordered
	case []any:
		out := make([]any, len(vv))
		for i, e := range vv {
			out[i] = canonicalizeValue(e)
		}
		return out
	default:
		return vv
	}
}

// orderedMap preserves insertion order through json.Marshal, which is
// how canonical key ordering survives Go's map-shuffling MarshalJSON.
type orderedMap struct {
	keys   []string
	values map[string]any
}

func newOrderedMap(capacity int) *orderedMap {
	return &orderedMap{
		keys:   make([]string, 0, capacity),
		values: make(map[string]any, capacity),
	}
}

func (m *orderedMap) set(k string, v any) {
	if _, exists := m.values[k]; !exists {
		m.keys = append(m.keys, k)
	}
	m.values[k] = v
}

func (m *orderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
