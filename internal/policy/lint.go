// Copyright 2025 Certen Protocol
//
// Policy linting. original_source's policy_v2/mod.rs re-exports a
// linter module whose source was not retrievable, so the check list
// and diagnostic shape below follow spec.md's own enumeration
// (missing legal basis, unknown operator, undeclared input, duplicate
// rule id, empty rule set, ambiguous activation) rather than a ported
// file.

package policy

import (
	"encoding/json"
	"fmt"
)

// Level is a diagnostic's severity.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Diagnostic code constants, per spec.
const (
	CodeMissingLegalBasis  = "missing_legal_basis"
	CodeUnknownOperator    = "unknown_operator"
	CodeUndeclaredInput    = "undeclared_input"
	CodeDuplicateRuleID    = "duplicate_rule_id"
	CodeEmptyRuleSet       = "empty_rule_set"
	CodeAmbiguousActivation = "ambiguous_activation"
)

// Diagnostic is one lint finding.
type Diagnostic struct {
	Level   Level  `json:"level"`
	Code    string `json:"code"`
	RuleID  string `json:"rule_id,omitempty"`
	Message string `json:"message"`
}

// LintMode is a closed enum: only ModeStrict and ModeRelaxed are valid.
// A wire-level string must go through ParseLintMode, which errors on
// anything else — the lint mode selector is never a free-form string
// inside the core (spec §9 Open Question (b)).
type LintMode int

const (
	ModeRelaxed LintMode = iota
	ModeStrict
)

// ParseLintMode converts a wire string to LintMode, rejecting any
// value outside the closed {strict, relaxed} set.
func ParseLintMode(s string) (LintMode, error) {
	switch s {
	case "strict":
		return ModeStrict, nil
	case "relaxed":
		return ModeRelaxed, nil
	default:
		return 0, fmt.Errorf("policy: invalid lint mode %q: must be \"strict\" or \"relaxed\"", s)
	}
}

// knownOperators is the set of rule operators the core understands.
// Rules using anything else trigger CodeUnknownOperator.
var knownOperators = map[string]bool{
	"eq":             true,
	"neq":            true,
	"membership":     true,
	"non_membership": true,
	"gt":             true,
	"gte":            true,
	"lt":             true,
	"lte":            true,
}

// Lint checks a policy for structural and referential problems. In
// ModeStrict, every warning is escalated to an error before being
// returned, so a caller can decide pass/fail purely by scanning for
// LevelError.
func Lint(p *PolicyV2, mode LintMode) []Diagnostic {
	var diags []Diagnostic

	if len(p.LegalBasis) == 0 {
		diags = append(diags, Diagnostic{
			Level:   LevelError,
			Code:    CodeMissingLegalBasis,
			Message: "policy declares no legal_basis entries",
		})
	}

	if len(p.Rules) == 0 {
		diags = append(diags, Diagnostic{
			Level:   LevelWarning,
			Code:    CodeEmptyRuleSet,
			Message: "policy declares no rules",
		})
	}

	seenRuleIDs := make(map[string]bool, len(p.Rules))
	for _, r := range p.Rules {
		if seenRuleIDs[r.ID] {
			diags = append(diags, Diagnostic{
				Level:   LevelError,
				Code:    CodeDuplicateRuleID,
				RuleID:  r.ID,
				Message: fmt.Sprintf("rule id %q is declared more than once", r.ID),
			})
		}
		seenRuleIDs[r.ID] = true

		if !knownOperators[r.Op] {
			diags = append(diags, Diagnostic{
				Level:   LevelError,
				Code:    CodeUnknownOperator,
				RuleID:  r.ID,
				Message: fmt.Sprintf("rule %q uses unknown operator %q", r.ID, r.Op),
			})
		}

		for _, ref := range referencedInputs(r) {
			if _, ok := p.Inputs[ref]; !ok {
				diags = append(diags, Diagnostic{
					Level:   LevelWarning,
					Code:    CodeUndeclaredInput,
					RuleID:  r.ID,
					Message: fmt.Sprintf("rule %q references undeclared input %q", r.ID, ref),
				})
			}
		}
	}

	if p.Adaptivity != nil {
		declaredPredicates := make(map[string]bool, len(p.Adaptivity.Predicates))
		for _, pred := range p.Adaptivity.Predicates {
			declaredPredicates[pred.ID] = true
		}
		for _, act := range p.Adaptivity.Activations {
			if !declaredPredicates[act.When] {
				diags = append(diags, Diagnostic{
					Level:   LevelError,
					Code:    CodeAmbiguousActivation,
					Message: fmt.Sprintf("activation references undefined predicate %q", act.When),
				})
			}
		}
	}

	if mode == ModeStrict {
		for i := range diags {
			if diags[i].Level == LevelWarning {
				diags[i].Level = LevelError
			}
		}
	}

	return diags
}

// referencedInputs extracts the variable name(s) a rule's lhs/rhs
// refer to, if they are {"var": "name"} shapes; literal values yield
// no references.
func referencedInputs(r Rule) []string {
	var refs []string
	if name, ok := varRefName(r.Lhs); ok {
		refs = append(refs, name)
	}
	if name, ok := varRefName(r.Rhs); ok {
		refs = append(refs, name)
	}
	return refs
}

func varRefName(raw RawJSON) (string, bool) {
	var shape struct {
		Var *string `json:"var"`
	}
	if len(raw) == 0 {
		return "", false
	}
	if err := json.Unmarshal(raw, &shape); err != nil || shape.Var == nil {
		return "", false
	}
	return *shape.Var, true
}

// HasErrors reports whether any diagnostic is at error level.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Level == LevelError {
			return true
		}
	}
	return false
}

// ExitCode maps a diagnostic set to the process exit code convention:
// 0 clean, 2 warnings only, 3 errors present.
func ExitCode(diags []Diagnostic) int {
	if HasErrors(diags) {
		return 3
	}
	if len(diags) > 0 {
		return 2
	}
	return 0
}
