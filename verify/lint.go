package verify

import (
	"fmt"

	"github.com/sarchlab/tilebrain/descriptor"
	"github.com/sarchlab/tilebrain/expr"
	"github.com/sarchlab/tilebrain/topology"
)

// RunLint performs static checks on a resolved model. Types supplies the
// parameter declarations the model no longer carries. Returns a list of
// issues found, or an empty list if there are none.
func RunLint(m *topology.Model, types map[string]descriptor.CellType) []Issue {
	var issues []Issue

	consumed := make(map[string]bool)
	for _, c := range m.Unit.Cells {
		for _, in := range c.Inputs {
			switch s := in.Source.(type) {
			case topology.SiblingSource:
				consumed[s.Cell+"/"+s.Output] = true
			case topology.ExternalSource:
				x := m.Unit.Externals[s.External]
				consumed[x.CellID+"/"+x.OutputID] = true
			}
		}
	}

	for _, c := range m.Unit.Cells {
		used := make(map[expr.Ref]bool)

		for _, v := range c.Outputs {
			refs := expr.Refs(v.Expr)
			for _, r := range refs {
				used[r] = true
			}

			if !consumed[c.ID+"/"+v.ID] {
				issues = append(issues, Issue{
					Type:    IssueDead,
					Cell:    c.ID,
					Var:     v.ID,
					Message: fmt.Sprintf("output %s of cell %s is not read by any cell", v.ID, c.ID),
				})
			}

			if !dependsOnInput(refs) {
				issues = append(issues, Issue{
					Type:    IssueConst,
					Cell:    c.ID,
					Var:     v.ID,
					Message: fmt.Sprintf("output %s of cell %s ignores every input", v.ID, c.ID),
				})
			}
		}

		for _, p := range c.Params {
			if !used[expr.Ref{Kind: expr.RefParam, Name: p.Name, Index: p.Index}] {
				issues = append(issues, Issue{
					Type:    IssueDead,
					Cell:    c.ID,
					Var:     p.ID,
					Message: fmt.Sprintf("parameter %s of cell %s is never used", p.ID, c.ID),
				})
			}
		}

		t := types[c.Type]
		for _, in := range t.Inputs {
			if !inputUsed(t, in) {
				issues = append(issues, Issue{
					Type:    IssueDead,
					Cell:    c.ID,
					Var:     in,
					Message: fmt.Sprintf("input %s of cell %s is wired but never used", in, c.ID),
				})
			}
		}
	}

	return issues
}

func dependsOnInput(refs []expr.Ref) bool {
	for _, r := range refs {
		if r.Kind != expr.RefParam {
			return true
		}
	}

	return false
}

func inputUsed(t descriptor.CellType, name string) bool {
	for _, o := range t.Outputs {
		n, err := expr.Parse(o.Expr)
		if err != nil {
			continue
		}
		for _, used := range expr.Names(n) {
			if used == name {
				return true
			}
		}
	}

	return false
}
