// Copyright 2025 Certen Protocol
//
// YAML parsing of policy v2 documents. Grounded on original_source's
// policy_v2/yaml_parser.rs (parse_yaml/parse_yaml_str via
// serde_yaml::from_str) and the teacher's pkg/config/config.go
// required-field validation idiom.

package policy

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a policy v2 document and validates its required
// top-level fields: id, version, legal_basis, inputs, rules.
func ParseYAML(data []byte) (*PolicyV2, error) {
	var p PolicyV2
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("policy: parse yaml: %w", err)
	}
	if err := validateRequiredFields(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func validateRequiredFields(p *PolicyV2) error {
	var missing []string
	if p.ID == "" {
		missing = append(missing, "id")
	}
	if p.Version == "" {
		missing = append(missing, "version")
	}
	if p.LegalBasis == nil {
		missing = append(missing, "legal_basis")
	}
	if p.Inputs == nil {
		missing = append(missing, "inputs")
	}
	if p.Rules == nil {
		missing = append(missing, "rules")
	}
	if len(missing) > 0 {
		return fmt.Errorf("policy: parse yaml: missing required field(s): %v", missing)
	}
	return nil
}
