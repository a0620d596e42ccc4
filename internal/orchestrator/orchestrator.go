// Copyright 2025 Certen Protocol
//
// IR to execution plan: predicate-gated rule selection, then a
// deterministic cost-based sort. Grounded on original_source's
// orchestrator/mod.rs (Orchestrator wraps a Selector + a Planner,
// test_orchestrator_no_adaptivity: no adaptivity means every rule is
// active).

package orchestrator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/capio-labs/proofbundle/internal/policy"
)

// Context is the runtime data predicate evaluation draws on.
// Grounded on orchestrator/mod.rs's OrchestratorContext.
type Context struct {
	SupplierHashes        []string
	UboHashes             []string
	CompanyCommitmentRoot *string
	SanctionsRoot         *string
	JurisdictionRoot      *string
	Variables             map[string]any
}

// SelectActiveRules evaluates an IR's adaptivity predicates against
// ctx and returns the set of rule ids that should run. With no
// adaptivity, every rule is active. With adaptivity, a rule is active
// if any activation whose predicate is satisfied names it, OR if no
// activation names it at all (always-on rules).
func SelectActiveRules(ir *policy.IR, ctx *Context) ([]string, error) {
	all := make(map[string]bool, len(ir.Rules))
	for _, r := range ir.Rules {
		all[r.ID] = true
	}

	if ir.Adaptivity == nil {
		out := make([]string, 0, len(all))
		for id := range all {
			out = append(out, id)
		}
		sort.Strings(out)
		return out, nil
	}

	predicates := make(map[string]policy.IrPredicate, len(ir.Adaptivity.Predicates))
	for _, p := range ir.Adaptivity.Predicates {
		predicates[p.ID] = p
	}

	named := make(map[string]bool)
	active := make(map[string]bool)
	for _, act := range ir.Adaptivity.Activations {
		for _, ruleID := range act.Rules {
			named[ruleID] = true
		}

		pred, ok := predicates[act.When]
		if !ok {
			return nil, fmt.Errorf("orchestrator: activation references undefined predicate %q", act.When)
		}
		satisfied, err := evaluatePredicate(pred, ctx)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: evaluate predicate %q: %w", pred.ID, err)
		}
		if satisfied {
			for _, ruleID := range act.Rules {
				active[ruleID] = true
			}
		}
	}

	for id := range all {
		if !named[id] {
			active[id] = true // always-on: never gated by any activation
		}
	}

	out := make([]string, 0, len(active))
	for id := range active {
		if all[id] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

// evaluatePredicate evaluates a predicate's expr against ctx. The
// grammar is intentionally small and closed:
//
//	"now() <op> <RFC3339 date>"   -- compares the wall-clock reading
//	                                  the caller supplies via
//	                                  ctx.Variables["now"] (a
//	                                  time.Time or RFC3339 string);
//	                                  never reads the real clock.
//	"<var> <op> <literal>"        -- compares ctx.Variables[var]
//
// op is one of ==, !=, >, >=, <, <=.
func evaluatePredicate(pred policy.IrPredicate, ctx *Context) (bool, error) {
	var expr string
	if err := json.Unmarshal(pred.Expr.AsRawMessage(), &expr); err != nil {
		return false, fmt.Errorf("predicate expr must be a string: %w", err)
	}

	lhs, op, rhs, err := splitExpr(expr)
	if err != nil {
		return false, err
	}

	if lhs == "now()" {
		return evaluateNow(op, rhs, ctx)
	}
	return evaluateVarComparison(lhs, op, rhs, ctx)
}

var comparisonOps = []string{">=", "<=", "==", "!=", ">", "<"}

func splitExpr(expr string) (lhs, op, rhs string, err error) {
	expr = strings.TrimSpace(expr)
	for _, candidate := range comparisonOps {
		if idx := strings.Index(expr, candidate); idx >= 0 {
			return strings.TrimSpace(expr[:idx]), candidate, strings.TrimSpace(expr[idx+len(candidate):]), nil
		}
	}
	return "", "", "", fmt.Errorf("unrecognized predicate expression %q", expr)
}

func evaluateNow(op, rhs string, ctx *Context) (bool, error) {
	threshold, err := time.Parse("2006-01-02", rhs)
	if err != nil {
		threshold, err = time.Parse(time.RFC3339, rhs)
		if err != nil {
			return false, fmt.Errorf("invalid date %q in now() predicate: %w", rhs, err)
		}
	}

	now, err := resolveNow(ctx)
	if err != nil {
		return false, err
	}

	switch op {
	case ">":
		return now.After(threshold), nil
	case ">=":
		return !now.Before(threshold), nil
	case "<":
		return now.Before(threshold), nil
	case "<=":
		return !now.After(threshold), nil
	case "==":
		return now.Equal(threshold), nil
	case "!=":
		return !now.Equal(threshold), nil
	default:
		return false, fmt.Errorf("unsupported operator %q in now() predicate", op)
	}
}

func resolveNow(ctx *Context) (time.Time, error) {
	if ctx == nil || ctx.Variables == nil {
		return time.Time{}, fmt.Errorf("now() predicate requires ctx.Variables[\"now\"]")
	}
	raw, ok := ctx.Variables["now"]
	if !ok {
		return time.Time{}, fmt.Errorf("now() predicate requires ctx.Variables[\"now\"]")
	}
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("ctx.Variables[\"now\"] is not RFC3339: %w", err)
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("ctx.Variables[\"now\"] has unsupported type %T", raw)
	}
}

func evaluateVarComparison(varName, op, rhsLiteral string, ctx *Context) (bool, error) {
	if ctx == nil || ctx.Variables == nil {
		return false, nil
	}
	val, ok := ctx.Variables[varName]
	if !ok {
		return false, nil
	}

	lhsNum, lhsIsNum := toFloat(val)
	rhsNum, rhsErr := strconv.ParseFloat(rhsLiteral, 64)
	if lhsIsNum && rhsErr == nil {
		switch op {
		case "==":
			return lhsNum == rhsNum, nil
		case "!=":
			return lhsNum != rhsNum, nil
		case ">":
			return lhsNum > rhsNum, nil
		case ">=":
			return lhsNum >= rhsNum, nil
		case "<":
			return lhsNum < rhsNum, nil
		case "<=":
			return lhsNum <= rhsNum, nil
		}
	}

	lhsStr := fmt.Sprintf("%v", val)
	rhsStr := strings.Trim(rhsLiteral, `"`)
	switch op {
	case "==":
		return lhsStr == rhsStr, nil
	case "!=":
		return lhsStr != rhsStr, nil
	default:
		return false, fmt.Errorf("operator %q is not valid for non-numeric comparison", op)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
