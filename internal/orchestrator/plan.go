// Copyright 2025 Certen Protocol
//
// Deterministic execution planning over a set of active rule ids.
// Grounded on original_source's orchestrator/mod.rs Planner (cost-
// based deterministic ordering) and spec.md §4.I ("primarily:
// operator class, then id lexicographically").

package orchestrator

import (
	"fmt"
	"sort"

	"github.com/capio-labs/proofbundle/internal/policy"
)

// PlanStep is one entry in an ExecutionPlan.
type PlanStep struct {
	RuleID string `json:"rule_id"`
	Op     string `json:"op"`
}

// ExecutionPlan is the ordered list of rules a (future) proof backend
// consumes. The mock proof backend ignores ordering entirely; this
// exists for when a real backend cares about evaluation cost.
type ExecutionPlan struct {
	Steps []PlanStep `json:"steps"`
}

// operatorClass buckets operators into the cost tiers the planner
// sorts by: equality-style comparisons are cheapest, then ordering
// comparisons, then set-membership checks (the most expensive, since
// they imply a scan).
func operatorClass(op string) int {
	switch op {
	case "eq", "neq":
		return 0
	case "gt", "gte", "lt", "lte":
		return 1
	case "membership", "non_membership":
		return 2
	default:
		return 3
	}
}

// Plan builds a deterministic ExecutionPlan for the given active rule
// ids: sorted by (operatorClass(op), id). Same IR + same active set
// always yields the identical plan (spec §4.I, §8).
func Plan(ir *policy.IR, activeRuleIDs []string) (*ExecutionPlan, error) {
	ops := make(map[string]string, len(ir.Rules))
	for _, r := range ir.Rules {
		ops[r.ID] = r.Op
	}

	active := make(map[string]bool, len(activeRuleIDs))
	for _, id := range activeRuleIDs {
		active[id] = true
	}

	steps := make([]PlanStep, 0, len(activeRuleIDs))
	for id := range active {
		op, ok := ops[id]
		if !ok {
			return nil, fmt.Errorf("orchestrator: active rule id %q not found in IR", id)
		}
		steps = append(steps, PlanStep{RuleID: id, Op: op})
	}
	sort.Slice(steps, func(i, j int) bool {
		ci, cj := operatorClass(steps[i].Op), operatorClass(steps[j].Op)
		if ci != cj {
			return ci < cj
		}
		return steps[i].RuleID < steps[j].RuleID
	})
	return &ExecutionPlan{Steps: steps}, nil
}
