package topology

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/sarchlab/tilebrain/descriptor"
	"github.com/sarchlab/tilebrain/expr"
)

var (
	ErrUnknownCellType = errors.New("unknown cell type")
	ErrDanglingInput   = errors.New("dangling input")
	ErrArity           = errors.New("arity mismatch")
	ErrExpression      = errors.New("invalid output expression")
	ErrUnknownVariable = errors.New("unknown variable")
)

type externalKey struct {
	off    Offset
	cell   string
	output string
}

type exportKey struct {
	cell   string
	output string
}

type resolver struct {
	d     *descriptor.Descriptor
	unit  LogicalUnitInfo
	cells map[string]int

	externals map[externalKey]int
	exports   map[exportKey]int
}

// Resolve turns a descriptor into a wiring model. All failures wrap one of the
// package sentinel errors or descriptor.ErrInvalid.
func Resolve(ctx context.Context, d *descriptor.Descriptor) (*Model, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	r := &resolver{
		d:         d,
		unit:      LogicalUnitInfo{Rows: d.Rows(), Cols: d.Cols()},
		cells:     make(map[string]int),
		externals: make(map[externalKey]int),
		exports:   make(map[exportKey]int),
	}

	if err := r.layout(); err != nil {
		return nil, err
	}

	for i := range r.unit.Cells {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.wire(&r.unit.Cells[i]); err != nil {
			return nil, err
		}
	}

	for i := range r.unit.Cells {
		if err := r.bind(&r.unit.Cells[i]); err != nil {
			return nil, err
		}
	}

	m := &Model{
		Unit:                r.unit,
		Width:               d.Width,
		Height:              d.Height,
		Tiles:               d.Width * d.Height,
		StateSize:           d.Width * d.Height * r.unit.StateSize,
		IterationsPerUpdate: d.IterationsPerUpdate,
		Inputs:              d.Inputs,
		Outputs:             d.Outputs,
		Connectivity:        d.Connectivity,
	}
	m.Hash = hashModel(m)

	traceCtx(ctx, "topology resolved",
		"cells", len(m.Unit.Cells),
		"externals", len(m.Unit.Externals),
		"tile_state", m.Unit.StateSize,
		"state", m.StateSize,
		"hash", m.Hash[:12])

	return m, nil
}

// layout assigns state indices and parses output expressions.
func (r *resolver) layout() error {
	next := 0

	for row := 0; row < r.unit.Rows; row++ {
		for col := 0; col < r.unit.Cols; col++ {
			spec, ok := r.d.Cell(row, col)
			if !ok {
				continue
			}

			t, ok := r.d.Types[spec.Type]
			if !ok {
				return fmt.Errorf("%w: cell %q has type %q", ErrUnknownCellType, spec.ID, spec.Type)
			}

			c := CellInfo{ID: spec.ID, Type: spec.Type, Row: row, Col: col}

			for _, o := range t.Outputs {
				n, err := expr.Parse(o.Expr)
				if err != nil {
					return fmt.Errorf("%w: cell type %q output %q: %w", ErrExpression, t.ID, o.ID, err)
				}
				if err := checkNames(t, o, n); err != nil {
					return err
				}
				c.Outputs = append(c.Outputs, Var{ID: o.ID, Name: varName(next), Index: next, Expr: n})
				next++
			}

			for _, p := range t.Params() {
				c.Params = append(c.Params, Var{ID: p, Name: varName(next), Index: next})
				next++
			}

			r.cells[c.ID] = len(r.unit.Cells)
			r.unit.Cells = append(r.unit.Cells, c)
		}
	}

	r.unit.StateSize = next
	if next == 0 {
		return fmt.Errorf("%w: tile has no state", descriptor.ErrInvalid)
	}

	return nil
}

func checkNames(t descriptor.CellType, o descriptor.OutputSpec, n expr.Node) error {
	known := make(map[string]bool)
	for _, in := range t.Inputs {
		known[in] = true
	}
	for _, p := range o.Params {
		known[p] = true
	}

	for _, name := range expr.Names(n) {
		if !known[name] {
			return fmt.Errorf("%w: %q in cell type %q output %q", ErrUnknownVariable, name, t.ID, o.ID)
		}
	}

	return nil
}

// wire resolves the inputs of one cell.
func (r *resolver) wire(c *CellInfo) error {
	spec := r.d.Tile[c.Row][c.Col]
	t := r.d.Types[c.Type]

	if len(spec.Inputs) != len(t.Inputs) {
		return fmt.Errorf("%w: cell %q declares %d inputs, type %q takes %d",
			ErrArity, c.ID, len(spec.Inputs), t.ID, len(t.Inputs))
	}

	for i, ref := range spec.Inputs {
		off := Offset{
			Row: floorDiv(ref.Row, r.unit.Rows),
			Col: floorDiv(ref.Col, r.unit.Cols),
		}
		lr, lc := mod(ref.Row, r.unit.Rows), mod(ref.Col, r.unit.Cols)

		target, ok := r.d.Cell(lr, lc)
		if !ok {
			return fmt.Errorf("%w: cell %q input %q points at empty (%d, %d)",
				ErrDanglingInput, c.ID, t.Inputs[i], ref.Row, ref.Col)
		}

		remote := &r.unit.Cells[r.cells[target.ID]]
		v, ok := outputVar(remote, ref.Output)
		if !ok {
			return fmt.Errorf("%w: cell %q input %q reads missing output %q of cell %q",
				ErrDanglingInput, c.ID, t.Inputs[i], ref.Output, target.ID)
		}

		in := Input{Name: t.Inputs[i]}
		if off == (Offset{}) {
			in.Source = SiblingSource{Cell: remote.ID, Output: v.ID, Index: v.Index}
		} else {
			ext, err := r.external(off, remote.ID, v)
			if err != nil {
				return fmt.Errorf("cell %q input %q: %w", c.ID, t.Inputs[i], err)
			}
			in.Source = ExternalSource{External: ext}
		}

		c.Inputs = append(c.Inputs, in)
	}

	return nil
}

func (r *resolver) external(off Offset, cell string, v Var) (int, error) {
	side, ok := descriptor.SideOf(off.Row, off.Col)
	if !ok || !r.d.Connectivity.Allows(side) {
		return 0, fmt.Errorf("%w: tile offset (%d, %d) is outside the %d-neighbourhood",
			ErrArity, off.Row, off.Col, r.d.Connectivity)
	}

	key := externalKey{off: off, cell: cell, output: v.ID}
	if i, ok := r.externals[key]; ok {
		return i, nil
	}

	ek := exportKey{cell: cell, output: v.ID}
	export, ok := r.exports[ek]
	if !ok {
		export = len(r.unit.Exports)
		r.exports[ek] = export
		r.unit.Exports = append(r.unit.Exports, Export{CellID: cell, OutputID: v.ID, Index: v.Index})
	}

	i := len(r.unit.Externals)
	r.externals[key] = i
	r.unit.Externals = append(r.unit.Externals, ExternalCellInfo{
		Name:     fmt.Sprintf("in%d", i+1),
		Offset:   off,
		CellID:   cell,
		OutputID: v.ID,
		Index:    v.Index,
		Export:   export,
		Side:     side,
	})

	return i, nil
}

// bind rewrites the output expressions of a cell against its resolved inputs
// and parameters.
func (r *resolver) bind(c *CellInfo) error {
	refs := make(map[string]expr.Ref)

	for _, in := range c.Inputs {
		switch s := in.Source.(type) {
		case SiblingSource:
			refs[in.Name] = expr.Ref{Kind: expr.RefLocal, Name: varName(s.Index), Index: s.Index}
		case ExternalSource:
			refs[in.Name] = expr.Ref{
				Kind: expr.RefExternal, Name: r.unit.Externals[s.External].Name, Index: s.External,
			}
		default:
			panic(fmt.Sprintf("unknown source %T", s))
		}
	}

	for _, p := range c.Params {
		refs[p.ID] = expr.Ref{Kind: expr.RefParam, Name: p.Name, Index: p.Index}
	}

	binder := expr.BinderFunc(func(name string) (expr.Ref, bool) {
		ref, ok := refs[name]
		return ref, ok
	})

	for i := range c.Outputs {
		n, err := expr.Rewrite(c.Outputs[i].Expr, binder)
		if err != nil {
			return fmt.Errorf("%w: cell %q output %q: %w", ErrUnknownVariable, c.ID, c.Outputs[i].ID, err)
		}
		c.Outputs[i].Expr = n
	}

	return nil
}

func outputVar(c *CellInfo, id string) (Var, bool) {
	for _, v := range c.Outputs {
		if v.ID == id {
			return v, true
		}
	}

	return Var{}, false
}

func varName(index int) string {
	return fmt.Sprintf("s%d", index)
}

func hashModel(m *Model) string {
	h := sha256.New()
	writeModel(h, m)
	return hex.EncodeToString(h.Sum(nil))
}

func writeModel(w io.Writer, m *Model) {
	fmt.Fprintf(w, "grid %d %d %d\n", m.Width, m.Height, m.Connectivity)
	fmt.Fprintf(w, "ports %d %d iterations %d\n", m.Inputs, m.Outputs, m.IterationsPerUpdate)
	fmt.Fprintf(w, "tile %d %d state %d\n", m.Unit.Rows, m.Unit.Cols, m.Unit.StateSize)

	for _, c := range m.Unit.Cells {
		fmt.Fprintf(w, "cell %q %d %d\n", c.ID, c.Row, c.Col)
		for _, v := range c.Outputs {
			fmt.Fprintf(w, "  out %d %s\n", v.Index, v.Expr)
		}
		for _, v := range c.Params {
			fmt.Fprintf(w, "  param %d\n", v.Index)
		}
	}

	for _, e := range m.Unit.Externals {
		fmt.Fprintf(w, "ext %s %d %d %d %d\n", e.Name, e.Offset.Row, e.Offset.Col, e.Index, e.Export)
	}
}
