// Copyright 2025 Certen Protocol

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePolicyYAML = `
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
`

func TestRunLintValidPolicyExitsZero(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePolicyYAML), 0o644))

	require.Equal(t, 0, run([]string{"lint", path, "-strict"}))
}

func TestRunLintMissingFileExitsThree(t *testing.T) {
	require.Equal(t, 3, run([]string{"lint", "/nonexistent/policy.yaml"}))
}

func TestRunCompileWritesIRFile(t *testing.T) {
	dir := t.TempDir()
	policyPath := filepath.Join(dir, "policy.yaml")
	irPath := filepath.Join(dir, "out.ir.json")
	require.NoError(t, os.WriteFile(policyPath, []byte(samplePolicyYAML), 0o644))

	code := run([]string{"compile", policyPath, "-o", irPath})
	require.Equal(t, 0, code)

	irBytes, err := os.ReadFile(irPath)
	require.NoError(t, err)
	require.Contains(t, string(irBytes), "ir_hash")
}

func TestRunWithNoArgsExitsThree(t *testing.T) {
	require.Equal(t, 3, run(nil))
}

func TestRunUnknownCommandExitsThree(t *testing.T) {
	require.Equal(t, 3, run([]string{"bogus"}))
}

func TestRunHelpExitsZero(t *testing.T) {
	require.Equal(t, 0, run([]string{"help"}))
}

func TestRunCompileProducesSameIRAcrossRuns(t *testing.T) {
	// cache is a policycache.Cache constructed fresh per run() call, so
	// this only proves the Get/Put code paths are exercised and return
	// a consistent IR, not cross-invocation reuse.
	dir := t.TempDir()
	policyPath := filepath.Join(dir, "policy.yaml")
	irPath := filepath.Join(dir, "out.ir.json")
	require.NoError(t, os.WriteFile(policyPath, []byte(samplePolicyYAML), 0o644))

	require.Equal(t, 0, run([]string{"compile", policyPath, "-o", irPath}))
	first, err := os.ReadFile(irPath)
	require.NoError(t, err)

	require.Equal(t, 0, run([]string{"compile", policyPath, "-o", irPath}))
	second, err := os.ReadFile(irPath)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestRunLintSucceedsWithAuditRecording(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePolicyYAML), 0o644))

	// No direct access to the per-call chain from here; this just
	// confirms lint still succeeds now that it records an audit event
	// as a side effect.
	require.Equal(t, 0, run([]string{"lint", path, "-strict"}))
}
