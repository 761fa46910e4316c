// Package codegen turns a resolved model into source for the two execution
// backends: a Starlark host routine and a kernel for the tile device.
//
// Both generators consume the same bound expressions, so the staging plan and
// the per-tile evaluation order are shared.
package codegen

import (
	"fmt"
	"strings"

	"github.com/sarchlab/tilebrain/expr"
	"github.com/sarchlab/tilebrain/topology"
)

// A Generator emits backend source for a model.
type Generator interface {
	Generate(m *topology.Model) string
}

// output is one cell output to evaluate per tile.
type output struct {
	cell string
	v    topology.Var
}

func outputs(u *topology.LogicalUnitInfo) []output {
	var outs []output
	for _, c := range u.Cells {
		for _, v := range c.Outputs {
			outs = append(outs, output{cell: c.ID, v: v})
		}
	}

	return outs
}

func params(u *topology.LogicalUnitInfo) []topology.Var {
	var ps []topology.Var
	for _, c := range u.Cells {
		ps = append(ps, c.Params...)
	}

	return ps
}

// reads collects the references used by the tile outputs, in order of first
// appearance.
func reads(outs []output) []expr.Ref {
	var refs []expr.Ref
	seen := make(map[expr.Ref]bool)

	for _, o := range outs {
		for _, r := range expr.Refs(o.v.Expr) {
			if !seen[r] {
				seen[r] = true
				refs = append(refs, r)
			}
		}
	}

	return refs
}

// writer accumulates indented source lines.
type writer struct {
	sb     strings.Builder
	indent int
	tab    string
}

func (w *writer) line(format string, args ...any) {
	if format == "" {
		w.sb.WriteByte('\n')
		return
	}

	w.sb.WriteString(strings.Repeat(w.tab, w.indent))
	fmt.Fprintf(&w.sb, format, args...)
	w.sb.WriteByte('\n')
}

func (w *writer) in()  { w.indent++ }
func (w *writer) out() { w.indent-- }

func (w *writer) String() string {
	return w.sb.String()
}

func signed(v int) string {
	if v < 0 {
		return fmt.Sprintf("- %d", -v)
	}

	return fmt.Sprintf("+ %d", v)
}
