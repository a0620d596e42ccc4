// Copyright 2025 Certen Protocol
//
// RawJSON bridges YAML-authored policy documents and the JSON world
// everything downstream (hashing, IR) operates in: rule lhs/rhs and
// predicate expressions are scalars, objects, or arrays of arbitrary
// shape, and must canonicalize the same way regardless of whether they
// arrived via YAML or JSON. gopkg.in/yaml.v3 decodes mappings as
// map[string]interface{}, so re-marshaling through encoding/json is a
// faithful conversion.

package policy

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// RawJSON is an arbitrary JSON value carried verbatim, like
// json.RawMessage, but also decodable directly from a YAML node.
type RawJSON []byte

// UnmarshalYAML decodes the YAML node generically and re-encodes it as JSON.
func (r *RawJSON) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	*r = b
	return nil
}

// MarshalJSON returns the raw bytes as-is, per json.RawMessage convention.
func (r RawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// UnmarshalJSON stores a copy of data, per json.RawMessage convention.
func (r *RawJSON) UnmarshalJSON(data []byte) error {
	*r = append((*r)[0:0], data...)
	return nil
}

// AsRawMessage converts to the stdlib json.RawMessage type.
func (r RawJSON) AsRawMessage() json.RawMessage {
	return json.RawMessage(r)
}
