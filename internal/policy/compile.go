// Copyright 2025 Certen Protocol
//
// Compile orchestrates the full parse -> lint -> lower -> hash
// pipeline (spec.md §4.D). Grounded on original_source's
// policy_v2/cli.rs run_compile, translated from a file-writing CLI
// command into a pure library function.

package policy

import "fmt"

// Compile runs the policy compiler pipeline end to end. Lint always
// runs in the caller-supplied mode; if any diagnostic is at error
// level, compilation stops and returns the diagnostics alongside a
// nil IR and a non-nil error. On success the returned IR has both
// PolicyHash and IRHash populated.
func Compile(data []byte, mode LintMode) (*IR, []Diagnostic, error) {
	p, err := ParseYAML(data)
	if err != nil {
		return nil, nil, err
	}

	diags := Lint(p, mode)
	if HasErrors(diags) {
		return nil, diags, fmt.Errorf("policy: compilation failed: %d diagnostic(s) at error level", countErrors(diags))
	}

	policyHash, err := HashPolicy(p)
	if err != nil {
		return nil, diags, err
	}

	ir := Lower(p)
	ir.PolicyHash = policyHash

	hashed, err := HashIR(ir)
	if err != nil {
		return nil, diags, err
	}

	return hashed, diags, nil
}

func countErrors(diags []Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Level == LevelError {
			n++
		}
	}
	return n
}
