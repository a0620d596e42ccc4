// Copyright 2025 Certen Protocol
//
// capctl is the thin CLI embedding the policy compiler and bundle
// verifier. Grounded on the teacher's main.go (flag.String/flag.Bool,
// no cobra/viper) and original_source's policy_v2/cli.rs
// (run_lint/run_compile/run_show) and package_verifier/summary.rs,
// translated from Rust subcommands into a stdlib flag.FlagSet dispatch.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/capio-labs/proofbundle/internal/audit"
	"github.com/capio-labs/proofbundle/internal/capmetrics"
	"github.com/capio-labs/proofbundle/internal/manifest"
	"github.com/capio-labs/proofbundle/internal/policy"
	"github.com/capio-labs/proofbundle/internal/policycache"
	"github.com/capio-labs/proofbundle/internal/verifier"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run wires one process-lifetime Metrics bundle, policy cache, and
// audit chain and dispatches to the requested subcommand. A fresh
// registry per invocation matches this CLI's one-shot process model;
// a long-running embedder would instead hold these across calls.
func run(args []string) int {
	if len(args) == 0 {
		printHelp()
		return 3
	}

	metrics := capmetrics.New(prometheus.NewRegistry())
	cache, err := policycache.New(policycache.DefaultCapacity, policycache.WithMetrics(metrics))
	if err != nil {
		fmt.Fprintf(os.Stderr, "capctl: init policy cache: %v\n", err)
		return 3
	}
	chain := audit.NewChain(audit.WithMetrics(metrics))

	switch args[0] {
	case "lint":
		return runLint(args[1:], chain)
	case "compile":
		return runCompile(args[1:], cache)
	case "summary":
		return runSummary(args[1:])
	case "verify":
		return runVerify(args[1:], metrics, chain)
	case "-help", "--help", "help":
		printHelp()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "capctl: unknown command %q\n", args[0])
		printHelp()
		return 3
	}
}

func printHelp() {
	fmt.Println(`capctl - compliance proof bundle pipeline CLI

Usage:
  capctl lint <policy.yaml> [-strict]
  capctl compile <policy.yaml> -o <ir.json> [-mode strict|relaxed]
  capctl summary <bundle-dir> -meta <_meta.json>
  capctl verify <manifest.json> <proof.json> <statement.json>

Exit codes: 0 clean, 2 warnings only, 3 errors.`)
}

// parseInterspersed parses fs's flags from args, accepting them before
// or after the positional arguments (as in the usage text above).
// Afterwards fs.Args() holds the positional arguments in order.
func parseInterspersed(fs *flag.FlagSet, args []string) error {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() == 0 {
			return fs.Parse(append([]string{"--"}, positional...))
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

func runLint(args []string, chain *audit.Chain) int {
	fs := flag.NewFlagSet("lint", flag.ContinueOnError)
	strict := fs.Bool("strict", false, "use strict linting mode (escalates warnings to errors)")
	if err := parseInterspersed(fs, args); err != nil {
		return 3
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "capctl lint: expected exactly one policy file argument")
		return 3
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "capctl lint: %v\n", err)
		return 3
	}

	p, err := policy.ParseYAML(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "capctl lint: %v\n", err)
		return 3
	}

	mode := policy.ModeRelaxed
	if *strict {
		mode = policy.ModeStrict
	}
	diags := policy.Lint(p, mode)

	for _, d := range diags {
		prefix := "WARN"
		if d.Level == policy.LevelError {
			prefix = "ERROR"
		}
		if d.RuleID != "" {
			fmt.Printf("[%s] %s: %s\n", prefix, d.RuleID, d.Message)
		} else {
			fmt.Printf("[%s] %s\n", prefix, d.Message)
		}
	}

	exitCode := 0
	switch {
	case policy.HasErrors(diags):
		exitCode = 3
	case len(diags) > 0:
		exitCode = 2
	default:
		fmt.Println("policy is valid")
	}

	modeName := "relaxed"
	if mode == policy.ModeStrict {
		modeName = "strict"
	}
	if _, err := chain.Append("policy_lint", map[string]any{
		"policy_id":   p.ID,
		"mode":        modeName,
		"diagnostics": len(diags),
		"exit_code":   exitCode,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "capctl lint: record audit event: %v\n", err)
	}

	return exitCode
}

func runCompile(args []string, cache *policycache.Cache) int {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	output := fs.String("o", "", "output IR JSON file")
	modeFlag := fs.String("mode", "strict", "lint mode: strict or relaxed")
	if err := parseInterspersed(fs, args); err != nil {
		return 3
	}
	if fs.NArg() != 1 || *output == "" {
		fmt.Fprintln(os.Stderr, "capctl compile: usage: capctl compile <policy.yaml> -o <ir.json>")
		return 3
	}

	mode, err := policy.ParseLintMode(*modeFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "capctl compile: %v\n", err)
		return 3
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "capctl compile: %v\n", err)
		return 3
	}

	p, err := policy.ParseYAML(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "capctl compile: %v\n", err)
		return 3
	}
	policyHash, err := policy.HashPolicy(p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "capctl compile: %v\n", err)
		return 3
	}

	var ir *policy.IR
	if entry, hit := cache.Get(policyHash); hit {
		ir = entry.IR
	} else {
		compiled, diags, err := policy.Compile(data, mode)
		if err != nil {
			for _, d := range diags {
				if d.Level == policy.LevelError {
					fmt.Fprintf(os.Stderr, "ERROR: %s\n", d.Message)
				}
			}
			fmt.Fprintf(os.Stderr, "capctl compile: %v\n", err)
			return 3
		}
		ir = compiled
		cache.Put(&policycache.Entry{Policy: p, PolicyHash: policyHash, IR: ir, IRHash: ir.IRHash})
	}

	irJSON, err := json.MarshalIndent(ir, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "capctl compile: %v\n", err)
		return 3
	}
	if err := os.WriteFile(*output, irJSON, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "capctl compile: %v\n", err)
		return 3
	}

	fmt.Printf("compiled policy to %s\n", *output)
	fmt.Printf("  policy_hash: %s\n", ir.PolicyHash)
	fmt.Printf("  ir_hash: %s\n", ir.IRHash)
	return 0
}

func runSummary(args []string) int {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	metaPath := fs.String("meta", "_meta.json", "path to the bundle's _meta.json")
	if err := parseInterspersed(fs, args); err != nil {
		return 3
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "capctl summary: usage: capctl summary <bundle-dir> -meta <_meta.json>")
		return 3
	}
	dir := fs.Arg(0)

	metaBytes, err := os.ReadFile(*metaPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "capctl summary: %v\n", err)
		return 3
	}
	var meta manifest.Meta
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		fmt.Fprintf(os.Stderr, "capctl summary: %v\n", err)
		return 3
	}

	loaded, err := manifest.LoadBundle(dir, &meta)
	if err != nil {
		fmt.Fprintf(os.Stderr, "capctl summary: %v\n", err)
		return 3
	}

	manifestBytes, ok := loaded.Files["manifest.json"]
	if !ok {
		fmt.Fprintln(os.Stderr, "capctl summary: bundle has no manifest.json")
		return 3
	}
	var m manifest.Manifest
	if err := json.Unmarshal(manifestBytes, &m); err != nil {
		fmt.Fprintf(os.Stderr, "capctl summary: %v\n", err)
		return 3
	}

	fmt.Print(manifest.Summarize(&m))
	return 0
}

func runVerify(args []string, metrics *capmetrics.Metrics, chain *audit.Chain) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	checkTimestamp := fs.Bool("check-timestamp", false, "validate the embedded time anchor against the audit tail digest")
	if err := fs.Parse(args); err != nil {
		return 3
	}
	if fs.NArg() != 3 {
		fmt.Fprintln(os.Stderr, "capctl verify: usage: capctl verify <manifest.json> <proof.json> <statement.json>")
		return 3
	}

	manifestBytes, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "capctl verify: %v\n", err)
		return 3
	}
	var m manifest.Manifest
	if err := json.Unmarshal(manifestBytes, &m); err != nil {
		fmt.Fprintf(os.Stderr, "capctl verify: %v\n", err)
		return 3
	}

	proofBytes, err := os.ReadFile(fs.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "capctl verify: %v\n", err)
		return 3
	}

	stmtBytes, err := os.ReadFile(fs.Arg(2))
	if err != nil {
		fmt.Fprintf(os.Stderr, "capctl verify: %v\n", err)
		return 3
	}
	var stmt verifier.Statement
	if err := json.Unmarshal(stmtBytes, &stmt); err != nil {
		fmt.Fprintf(os.Stderr, "capctl verify: %v\n", err)
		return 3
	}

	start := time.Now()
	report, err := verifier.Verify(&m, proofBytes, &stmt, verifier.Options{CheckTimestamp: *checkTimestamp})
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "capctl verify: %v\n", err)
		return 3
	}

	outcome := "invalid"
	if report.Status == "ok" {
		outcome = "valid"
	}
	metrics.ObserveVerification(outcome, elapsed.Seconds())

	if _, err := chain.Append("verification", report); err != nil {
		fmt.Fprintf(os.Stderr, "capctl verify: record audit event: %v\n", err)
	}

	reportJSON, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "capctl verify: %v\n", err)
		return 3
	}
	fmt.Println(string(reportJSON))

	if report.Status != "ok" {
		return 3
	}
	return 0
}
