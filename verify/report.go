package verify

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/tilebrain/descriptor"
	"github.com/sarchlab/tilebrain/simulator"
	"github.com/sarchlab/tilebrain/topology"
	"github.com/sarchlab/tilebrain/util/valgen"
)

// ErrStateSize is recorded for a backend that was built for another model.
var ErrStateSize = errors.New("backend state size does not match model")

// Mismatch locates the first value a backend got wrong.
type Mismatch struct {
	Step   int
	Slot   int
	Output bool // Index is an output port rather than a state index
	Index  int
	Want   int32
	Got    int32
}

// BackendResult is the outcome of replaying one backend against the
// functional simulator.
type BackendResult struct {
	Name     string
	Slots    int
	Steps    int // Updates that matched
	Mismatch *Mismatch
	Err      error
}

// OK reports whether the backend matched at every step.
func (r BackendResult) OK() bool {
	return r.Err == nil && r.Mismatch == nil
}

// VerificationReport represents a complete verification report
type VerificationReport struct {
	Hash        string
	Tiles       int
	StateSize   int
	Steps       int
	LintIssues  []Issue
	DeadIssues  []Issue
	ConstIssues []Issue
	Results     []BackendResult
}

// OK reports whether every backend matched.
func (r *VerificationReport) OK() bool {
	for _, res := range r.Results {
		if !res.OK() {
			return false
		}
	}

	return true
}

// GenerateReport runs the lint and replays every backend against the
// functional simulator for the given number of updates. State, maps and
// inputs are drawn from a generator seeded with seed. The backends are
// overwritten.
func GenerateReport(
	m *topology.Model,
	types map[string]descriptor.CellType,
	backends map[string]simulator.Simulator,
	steps int,
	seed uint32,
) *VerificationReport {
	report := &VerificationReport{
		Hash:      m.Hash,
		Tiles:     m.Tiles,
		StateSize: m.StateSize,
		Steps:     steps,
	}

	report.LintIssues = RunLint(m, types)
	for _, issue := range report.LintIssues {
		if issue.Type == IssueDead {
			report.DeadIssues = append(report.DeadIssues, issue)
		} else {
			report.ConstIssues = append(report.ConstIssues, issue)
		}
	}

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		report.Results = append(report.Results, replay(m, name, backends[name], steps, seed))
	}

	return report
}

type refSlot struct {
	state, input, output []int32
	inputMap, outputMap  []int
}

func replay(m *topology.Model, name string, s simulator.Simulator, steps int, seed uint32) BackendResult {
	res := BackendResult{Name: name, Slots: s.Slots()}

	if s.StateSize() != m.StateSize || s.InputSize() != m.Inputs || s.OutputSize() != m.Outputs {
		res.Err = fmt.Errorf("%w: %s has %d, want %d", ErrStateSize, name, s.StateSize(), m.StateSize)
		return res
	}

	gen := valgen.MakeBoundedGen(valgen.MakeLCGGen(seed), 64)
	index := valgen.MakeBoundedGen(valgen.MakeLCGGen(seed^0x9e3779b9), int32(m.StateSize+1))
	port := func() int { return int(index()) - 1 }

	fs := NewFunctionalSimulator(m)
	slots := make([]refSlot, s.Slots())

	for i := range slots {
		rs := &slots[i]
		rs.state = make([]int32, m.StateSize)
		rs.input = make([]int32, m.Inputs)
		rs.output = make([]int32, m.Outputs)
		rs.inputMap = make([]int, m.Inputs)
		rs.outputMap = make([]int, m.Outputs)

		valgen.Fill(rs.state, gen)
		for k := range rs.inputMap {
			rs.inputMap[k] = port()
		}
		for k := range rs.outputMap {
			rs.outputMap[k] = port()
		}

		s.SetState(i, rs.state)
		s.SetInputMap(i, rs.inputMap)
		s.SetOutputMap(i, rs.outputMap)
	}

	state := make([]int32, m.StateSize)
	output := make([]int32, m.Outputs)

	for step := 0; step < steps; step++ {
		for i := range slots {
			valgen.Fill(slots[i].input, gen)
			s.SetInput(i, slots[i].input)
		}

		if err := s.Update(); err != nil {
			res.Err = fmt.Errorf("step %d: %w", step, err)
			return res
		}

		for i := range slots {
			rs := &slots[i]
			fs.Update(rs.state, rs.input, rs.inputMap, rs.output, rs.outputMap)

			s.State(i, state)
			if k, ok := firstDiff(rs.state, state); ok {
				res.Mismatch = &Mismatch{Step: step, Slot: i, Index: k, Want: rs.state[k], Got: state[k]}
				return res
			}

			s.Output(i, output)
			if k, ok := firstDiff(rs.output, output); ok {
				res.Mismatch = &Mismatch{Step: step, Slot: i, Output: true, Index: k, Want: rs.output[k], Got: output[k]}
				return res
			}
		}

		res.Steps++
	}

	return res
}

func firstDiff(want, got []int32) (int, bool) {
	for k := range want {
		if want[k] != got[k] {
			return k, true
		}
	}

	return 0, false
}

// WriteReport writes a formatted report to a writer
func (r *VerificationReport) WriteReport(w io.Writer) {
	separator := strings.Repeat("=", 60)

	fmt.Fprintln(w, separator)
	fmt.Fprintln(w, "BACKEND VERIFICATION REPORT")
	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "Model %s: %d tiles, %d state values per slot\n", short(r.Hash), r.Tiles, r.StateSize)

	// STAGE 1: LINT
	fmt.Fprintln(w, "\n"+separator)
	fmt.Fprintln(w, "STAGE 1: STATIC LINT CHECKS")
	fmt.Fprintln(w, separator)

	if len(r.LintIssues) == 0 {
		fmt.Fprintln(w, "✓ No lint issues found!")
	} else {
		fmt.Fprintf(w, "⚠ Found %d lint issues (%d DEAD, %d CONST):\n",
			len(r.LintIssues), len(r.DeadIssues), len(r.ConstIssues))
		t := table.NewWriter()
		t.AppendHeader(table.Row{"Type", "Cell", "Var", "Message"})
		for _, issue := range r.LintIssues {
			t.AppendRow(table.Row{issue.Type, issue.Cell, issue.Var, issue.Message})
		}
		fmt.Fprintln(w, t.Render())
	}

	// STAGE 2: BACKEND REPLAY
	fmt.Fprintln(w, "\n"+separator)
	fmt.Fprintf(w, "STAGE 2: BACKEND REPLAY (%d updates)\n", r.Steps)
	fmt.Fprintln(w, separator)

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Backend", "Slots", "Matched", "Result"})
	for _, res := range r.Results {
		t.AppendRow(table.Row{res.Name, res.Slots, res.Steps, describe(res)})
	}
	fmt.Fprintln(w, t.Render())

	fmt.Fprintln(w, "\n"+separator)
	if r.OK() {
		fmt.Fprintln(w, "✓ ALL BACKENDS MATCH")
	} else {
		fmt.Fprintln(w, "⚠ BACKEND MISMATCH DETECTED")
	}
	fmt.Fprintln(w, separator)
}

func describe(res BackendResult) string {
	switch {
	case res.Err != nil:
		return "error: " + res.Err.Error()
	case res.Mismatch != nil:
		mm := res.Mismatch
		what := "state"
		if mm.Output {
			what = "output"
		}
		return fmt.Sprintf("step %d slot %d %s[%d]: want %d, got %d",
			mm.Step, mm.Slot, what, mm.Index, mm.Want, mm.Got)
	default:
		return "ok"
	}
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

// SaveReportToFile saves the report to a file
func (r *VerificationReport) SaveReportToFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	r.WriteReport(file)
	return nil
}
