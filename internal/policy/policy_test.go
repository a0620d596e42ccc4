// Copyright 2025 Certen Protocol

package policy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const minimalPolicyYAML = `
id: lksg.v1
version: "1.0"
legal_basis:
  - directive: "LkSG"
inputs:
  supplier_hashes:
    type: array
    items: hex
  sanctions_root:
    type: hex
rules:
  - id: no_sanctions
    op: non_membership
    lhs: {var: supplier_hashes}
    rhs: {var: sanctions_root}
`

func TestParseYAMLMinimalPolicy(t *testing.T) {
	p, err := ParseYAML([]byte(minimalPolicyYAML))
	require.NoError(t, err)
	require.Equal(t, "lksg.v1", p.ID)
	require.Equal(t, "1.0", p.Version)
	require.Len(t, p.Rules, 1)
	require.Equal(t, "no_sanctions", p.Rules[0].ID)
	require.Equal(t, "non_membership", p.Rules[0].Op)
}

func TestParseYAMLMissingRequiredFields(t *testing.T) {
	_, err := ParseYAML([]byte("id: test.v1\n"))
	require.Error(t, err)
}

func TestParseYAMLWithAdaptivity(t *testing.T) {
	yamlDoc := `
id: test.v1
version: "1.0"
legal_basis:
  - directive: "LkSG"
inputs: {}
rules:
  - id: rule1
    op: eq
    lhs: a
    rhs: b
adaptivity:
  predicates:
    - id: pred1
      expr: "now() > 2025-01-01"
  activations:
    - when: pred1
      rules: [rule1]
`
	p, err := ParseYAML([]byte(yamlDoc))
	require.NoError(t, err)
	require.NotNil(t, p.Adaptivity)
	require.Len(t, p.Adaptivity.Predicates, 1)
	require.Equal(t, "pred1", p.Adaptivity.Predicates[0].ID)
	require.Len(t, p.Adaptivity.Activations, 1)
}

func TestLintEmptyRuleSetIsWarning(t *testing.T) {
	p := &PolicyV2{ID: "x", Version: "1.0", LegalBasis: []LegalBasisItem{{Directive: "LkSG"}}, Inputs: map[string]InputDef{}}
	diags := Lint(p, ModeRelaxed)
	require.Len(t, diags, 1)
	require.Equal(t, CodeEmptyRuleSet, diags[0].Code)
	require.Equal(t, LevelWarning, diags[0].Level)
	require.False(t, HasErrors(diags))
	require.Equal(t, 2, ExitCode(diags))
}

func TestLintStrictEscalatesWarnings(t *testing.T) {
	p := &PolicyV2{ID: "x", Version: "1.0", LegalBasis: []LegalBasisItem{{Directive: "LkSG"}}, Inputs: map[string]InputDef{}}
	diags := Lint(p, ModeStrict)
	require.True(t, HasErrors(diags))
	require.Equal(t, 3, ExitCode(diags))
}

func TestLintMissingLegalBasis(t *testing.T) {
	p := &PolicyV2{ID: "x", Version: "1.0", Inputs: map[string]InputDef{}, Rules: []Rule{{ID: "r1", Op: "eq", Lhs: RawJSON("1"), Rhs: RawJSON("1")}}}
	diags := Lint(p, ModeRelaxed)
	require.True(t, HasErrors(diags))
	found := false
	for _, d := range diags {
		if d.Code == CodeMissingLegalBasis {
			found = true
		}
	}
	require.True(t, found)
}

func TestLintDuplicateRuleID(t *testing.T) {
	rule := Rule{ID: "dup", Op: "eq", Lhs: RawJSON(`1`), Rhs: RawJSON(`1`)}
	p := &PolicyV2{ID: "x", Version: "1.0", LegalBasis: []LegalBasisItem{{Directive: "LkSG"}}, Inputs: map[string]InputDef{}, Rules: []Rule{rule, rule}}
	diags := Lint(p, ModeRelaxed)
	found := false
	for _, d := range diags {
		if d.Code == CodeDuplicateRuleID {
			found = true
		}
	}
	require.True(t, found)
}

func TestLintUnknownOperator(t *testing.T) {
	p := &PolicyV2{ID: "x", Version: "1.0", LegalBasis: []LegalBasisItem{{Directive: "LkSG"}}, Inputs: map[string]InputDef{},
		Rules: []Rule{{ID: "r1", Op: "frobnicate", Lhs: RawJSON(`1`), Rhs: RawJSON(`1`)}}}
	diags := Lint(p, ModeRelaxed)
	require.True(t, HasErrors(diags))
}

func TestLintUndeclaredInput(t *testing.T) {
	p := &PolicyV2{ID: "x", Version: "1.0", LegalBasis: []LegalBasisItem{{Directive: "LkSG"}}, Inputs: map[string]InputDef{},
		Rules: []Rule{{ID: "r1", Op: "eq", Lhs: RawJSON(`{"var":"missing_input"}`), Rhs: RawJSON(`1`)}}}
	diags := Lint(p, ModeRelaxed)
	found := false
	for _, d := range diags {
		if d.Code == CodeUndeclaredInput {
			found = true
		}
	}
	require.True(t, found)
}

func TestLintAmbiguousActivation(t *testing.T) {
	p := &PolicyV2{
		ID: "x", Version: "1.0", LegalBasis: []LegalBasisItem{{Directive: "LkSG"}}, Inputs: map[string]InputDef{},
		Rules: []Rule{{ID: "r1", Op: "eq", Lhs: RawJSON(`1`), Rhs: RawJSON(`1`)}},
		Adaptivity: &Adaptivity{
			Activations: []Activation{{When: "nonexistent", Rules: []string{"r1"}}},
		},
	}
	diags := Lint(p, ModeRelaxed)
	found := false
	for _, d := range diags {
		if d.Code == CodeAmbiguousActivation {
			found = true
		}
	}
	require.True(t, found)
}

func TestParseLintModeRejectsUnknown(t *testing.T) {
	_, err := ParseLintMode("strict")
	require.NoError(t, err)
	_, err = ParseLintMode("relaxed")
	require.NoError(t, err)
	_, err = ParseLintMode("yolo")
	require.Error(t, err)
}

func TestHashPolicyDeterministic(t *testing.T) {
	p, err := ParseYAML([]byte(minimalPolicyYAML))
	require.NoError(t, err)
	h1, err := HashPolicy(p)
	require.NoError(t, err)
	h2, err := HashPolicy(p)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
	require.True(t, strings.HasPrefix(h1, "sha3-256:"))
}

func TestLowerSortsRulesAndPredicatesByID(t *testing.T) {
	p := &PolicyV2{
		ID: "x", Version: "1.0",
		Rules: []Rule{
			{ID: "zzz", Op: "eq", Lhs: RawJSON(`1`), Rhs: RawJSON(`1`)},
			{ID: "aaa", Op: "eq", Lhs: RawJSON(`{"var":"x"}`), Rhs: RawJSON(`1`)},
		},
		Adaptivity: &Adaptivity{
			Predicates: []Predicate{{ID: "zpred", Expr: RawJSON(`"x"`)}, {ID: "apred", Expr: RawJSON(`"y"`)}},
		},
	}
	ir := Lower(p)
	require.Equal(t, "aaa", ir.Rules[0].ID)
	require.Equal(t, "zzz", ir.Rules[1].ID)
	require.True(t, ir.Rules[0].Lhs.IsVar)
	require.Equal(t, "x", ir.Rules[0].Lhs.Var)
	require.False(t, ir.Rules[1].Lhs.IsVar)
	require.Equal(t, "apred", ir.Adaptivity.Predicates[0].ID)
	require.Equal(t, "zpred", ir.Adaptivity.Predicates[1].ID)
}

func TestCompileDeterministicIR(t *testing.T) {
	yamlDoc := `
id: lksg.v1
version: "1.0"
legal_basis:
  - directive: "LkSG"
inputs:
  supplier_hashes:
    type: array
    items: hex
  sanctions_root:
    type: hex
rules:
  - id: no_sanctions
    op: non_membership
    lhs: {var: supplier_hashes}
    rhs: {var: sanctions_root}
`
	ir1, diags1, err := Compile([]byte(yamlDoc), ModeStrict)
	require.NoError(t, err)
	require.Empty(t, diags1)

	ir2, _, err := Compile([]byte(yamlDoc), ModeStrict)
	require.NoError(t, err)

	require.Equal(t, ir1.PolicyHash, ir2.PolicyHash)
	require.Equal(t, ir1.IRHash, ir2.IRHash)
	require.Equal(t, "non_membership", ir1.Rules[0].Op)
	require.NotEmpty(t, ir1.IRHash)
}

func TestCompileFailsOnLintError(t *testing.T) {
	yamlDoc := `
id: x
version: "1.0"
legal_basis: []
inputs: {}
rules:
  - id: r1
    op: bogus_op
    lhs: 1
    rhs: 1
`
	ir, diags, err := Compile([]byte(yamlDoc), ModeRelaxed)
	require.Error(t, err)
	require.Nil(t, ir)
	require.True(t, HasErrors(diags))
}

func TestIrExprJSONRoundTrip(t *testing.T) {
	v := NewVarExpr("supplier_hashes")
	b, err := v.MarshalJSON()
	require.NoError(t, err)
	require.JSONEq(t, `{"var":"supplier_hashes"}`, string(b))

	var decoded IrExpr
	require.NoError(t, decoded.UnmarshalJSON(b))
	require.True(t, decoded.IsVar)
	require.Equal(t, "supplier_hashes", decoded.Var)

	lit := NewLiteralExpr(RawJSON(`42`))
	b2, err := lit.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, "42", string(b2))
}
