// Copyright 2025 Certen Protocol
//
// Lowering PolicyV2 into IR v1. Grounded on original_source's
// policy_v2/types.rs IrExpression untagged union and mod.rs's
// generate_ir/canonicalize exports (the bodies were not retrievable,
// so the lowering rules below follow spec.md §4.D: sort rules by id,
// sort predicates by id, lower lhs/rhs into {var}|literal).

package policy

import (
	"encoding/json"
	"sort"
)

// Lower converts a parsed policy into its IR v1 shape. PolicyHash and
// IRHash are left blank; Compile fills them in from HashPolicy and
// HashIR. Rules are sorted by id
// and Adaptivity.Predicates by id, so the output is stable regardless
// of source document ordering.
func Lower(p *PolicyV2) *IR {
	ir := &IR{
		IRVersion: IRVersion,
		PolicyID:  p.ID,
	}

	ir.Rules = make([]IrRule, len(p.Rules))
	for i, r := range p.Rules {
		ir.Rules[i] = IrRule{
			ID:  r.ID,
			Op:  r.Op,
			Lhs: lowerExpr(r.Lhs),
			Rhs: lowerExpr(r.Rhs),
		}
	}
	sort.Slice(ir.Rules, func(i, j int) bool { return ir.Rules[i].ID < ir.Rules[j].ID })

	if p.Adaptivity != nil {
		adaptivity := &IrAdaptivity{
			Activations: append([]Activation(nil), p.Adaptivity.Activations...),
		}
		adaptivity.Predicates = make([]IrPredicate, len(p.Adaptivity.Predicates))
		for i, pred := range p.Adaptivity.Predicates {
			adaptivity.Predicates[i] = IrPredicate{ID: pred.ID, Expr: pred.Expr}
		}
		sort.Slice(adaptivity.Predicates, func(i, j int) bool {
			return adaptivity.Predicates[i].ID < adaptivity.Predicates[j].ID
		})
		ir.Adaptivity = adaptivity
	}

	return ir
}

// lowerExpr lowers a RawJSON lhs/rhs value into its IrExpr shape: a
// {"var": name} object becomes a variable reference, anything else is
// carried through as a literal.
func lowerExpr(raw RawJSON) IrExpr {
	var shape struct {
		Var *string `json:"var"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &shape); err == nil && shape.Var != nil {
			return NewVarExpr(*shape.Var)
		}
	}
	return NewLiteralExpr(append(RawJSON(nil), raw...))
}
