// Package verify provides debugging tools for generated automaton backends.
//
// This package implements two complementary checks:
//
// 1. Static Lint (lint.go): wiring checks on a resolved model
//   - DEAD checks: outputs nobody reads, inputs and parameters no expression uses
//   - CONST checks: outputs that ignore every input
//
// 2. Functional Simulator (funcsim.go): a direct interpreter of the model
//   - Evaluates the bound expressions tile by tile with plain Go
//   - Shares nothing with the generated sources except the op table
//   - Serves as the oracle that GenerateReport compares backends against
//
// # Usage Example
//
//	m, _ := topology.Resolve(ctx, desc)
//	report := verify.GenerateReport(m, desc.Types, map[string]simulator.Simulator{
//		"host":   host,
//		"kernel": kernel,
//	}, 10, 1)
//	report.WriteReport(os.Stdout)
package verify

// IssueType categorizes lint issues
type IssueType string

const (
	IssueDead  IssueType = "DEAD"  // Value computed or wired but never consumed
	IssueConst IssueType = "CONST" // Output that does not depend on any input
)

// Issue represents a single lint issue
type Issue struct {
	Type    IssueType
	Cell    string // Cell id, empty if not applicable
	Var     string // Output, input or parameter id
	Message string
}
