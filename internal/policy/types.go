// Copyright 2025 Certen Protocol
//
// Policy v2 and IR v1 types. Grounded on original_source's
// policy_v2/types.rs, translated into idiomatic Go: RawJSON (a
// json.RawMessage-like type that also decodes from YAML, see
// rawjson.go) stands in for serde_json::Value, and yaml.v3 struct tags drive
// parsing directly (no separate DTO layer).

package policy

import "encoding/json"

// PolicyV2 is the declarative policy document a compliance team authors.
type PolicyV2 struct {
	ID           string              `yaml:"id" json:"id"`
	Version      string              `yaml:"version" json:"version"`
	LegalBasis   []LegalBasisItem    `yaml:"legal_basis" json:"legal_basis"`
	Description  string              `yaml:"description" json:"description"`
	Inputs       map[string]InputDef `yaml:"inputs" json:"inputs"`
	Rules        []Rule              `yaml:"rules" json:"rules"`
	Adaptivity   *Adaptivity         `yaml:"adaptivity,omitempty" json:"adaptivity,omitempty"`
}

// LegalBasisItem cites the regulation a policy enforces.
type LegalBasisItem struct {
	Directive string `yaml:"directive,omitempty" json:"directive,omitempty"`
	Article   string `yaml:"article,omitempty" json:"article,omitempty"`
}

// InputDef declares the type of a named policy input.
type InputDef struct {
	Type  string `yaml:"type" json:"type"`
	Items string `yaml:"items,omitempty" json:"items,omitempty"`
}

// Rule is a single constraint: op(lhs, rhs). lhs/rhs are either a
// variable reference ({var: name}) or a literal JSON scalar/array.
type Rule struct {
	ID  string  `yaml:"id" json:"id"`
	Op  string  `yaml:"op" json:"op"`
	Lhs RawJSON `yaml:"lhs" json:"lhs"`
	Rhs RawJSON `yaml:"rhs" json:"rhs"`
}

// Adaptivity declares predicate-gated rule activation.
type Adaptivity struct {
	Predicates  []Predicate  `yaml:"predicates" json:"predicates"`
	Activations []Activation `yaml:"activations" json:"activations"`
}

// Predicate names a boolean expression evaluated against runtime context.
type Predicate struct {
	ID   string  `yaml:"id" json:"id"`
	Expr RawJSON `yaml:"expr" json:"expr"`
}

// Activation enables a set of rule ids when its named predicate holds.
type Activation struct {
	When  string   `yaml:"when" json:"when"`
	Rules []string `yaml:"rules" json:"rules"`
}

// IRVersion is the current intermediate-representation schema version.
const IRVersion = "1.0"

// IR is the canonicalized lowering of a PolicyV2, used for hashing and
// execution planning.
type IR struct {
	IRVersion  string       `json:"ir_version"`
	PolicyID   string       `json:"policy_id"`
	PolicyHash string       `json:"policy_hash"`
	Rules      []IrRule     `json:"rules"`
	Adaptivity *IrAdaptivity `json:"adaptivity,omitempty"`
	IRHash     string       `json:"ir_hash"`
}

// IrRule is a normalized rule: lhs/rhs lowered into IrExpr shapes.
type IrRule struct {
	ID  string    `json:"id"`
	Op  string    `json:"op"`
	Lhs IrExpr    `json:"lhs"`
	Rhs IrExpr    `json:"rhs"`
}

// IrAdaptivity carries adaptivity through with predicates sorted by id.
type IrAdaptivity struct {
	Predicates  []IrPredicate `json:"predicates"`
	Activations []Activation  `json:"activations"`
}

// IrPredicate is a lowered predicate (expr carried through unchanged).
type IrPredicate struct {
	ID   string  `json:"id"`
	Expr RawJSON `json:"expr"`
}

// IrExpr is either a variable reference or a literal value. It
// round-trips through JSON using an untagged-union encoding: a Var is
// {"var": "name"}, everything else is the literal's own JSON shape —
// mirroring original_source's #[serde(untagged)] IrExpression enum.
type IrExpr struct {
	Var     string  `json:"-"`
	Literal RawJSON `json:"-"`
	IsVar   bool    `json:"-"`
}

// NewVarExpr constructs a variable-reference expression.
func NewVarExpr(name string) IrExpr {
	return IrExpr{Var: name, IsVar: true}
}

// NewLiteralExpr constructs a literal expression from raw JSON.
func NewLiteralExpr(raw RawJSON) IrExpr {
	return IrExpr{Literal: raw, IsVar: false}
}

type varShape struct {
	Var string `json:"var"`
}

// MarshalJSON implements the untagged Var|Literal union encoding.
func (e IrExpr) MarshalJSON() ([]byte, error) {
	if e.IsVar {
		return json.Marshal(varShape{Var: e.Var})
	}
	if len(e.Literal) == 0 {
		return []byte("null"), nil
	}
	return e.Literal, nil
}

// UnmarshalJSON distinguishes {"var": "..."} from any other literal shape.
func (e *IrExpr) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err == nil {
		if len(probe) == 1 {
			if raw, ok := probe["var"]; ok {
				var name string
				if err := json.Unmarshal(raw, &name); err == nil {
					e.Var = name
					e.IsVar = true
					e.Literal = nil
					return nil
				}
			}
		}
	}
	e.IsVar = false
	e.Var = ""
	e.Literal = append([]byte(nil), data...)
	return nil
}
