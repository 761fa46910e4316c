// Package hclconf loads tile descriptors from HCL files.
//
// A descriptor file declares the grid, the cell types and the tile template:
//
//	grid {
//	  width  = 4
//	  height = 3
//	}
//	iterations_per_update = 2
//
//	cell_type "acc" {
//	  inputs = ["prev"]
//	  output "out" {
//	    expr   = prev + in
//	    params = ["in"]
//	  }
//	}
//
//	tile {
//	  rows = 1
//	  cols = 1
//	  cell "acc" {
//	    type = "acc"
//	    row  = 0
//	    col  = 0
//	    input "prev" {
//	      row    = 0
//	      col    = 0
//	      output = "out"
//	    }
//	  }
//	}
//
// Output expressions are written unquoted and kept as source text; they are
// parsed later by the expr package.
package hclconf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/sarchlab/tilebrain/descriptor"
)

// ErrDecode wraps every failure to turn a file into a descriptor.
var ErrDecode = errors.New("cannot decode descriptor")

type hclFile struct {
	Grid         hclGrid        `hcl:"grid,block"`
	Connectivity *int           `hcl:"connectivity,optional"`
	Iterations   *int           `hcl:"iterations_per_update,optional"`
	Inputs       int            `hcl:"inputs,optional"`
	Outputs      int            `hcl:"outputs,optional"`
	Types        []*hclCellType `hcl:"cell_type,block"`
	Tile         hclTile        `hcl:"tile,block"`
}

type hclGrid struct {
	Width  int `hcl:"width"`
	Height int `hcl:"height"`
}

type hclCellType struct {
	ID      string       `hcl:"id,label"`
	Inputs  []string     `hcl:"inputs,optional"`
	Outputs []*hclOutput `hcl:"output,block"`
}

type hclOutput struct {
	ID     string         `hcl:"id,label"`
	Expr   hcl.Expression `hcl:"expr"`
	Params []string       `hcl:"params,optional"`
}

type hclTile struct {
	Rows  int        `hcl:"rows"`
	Cols  int        `hcl:"cols"`
	Cells []*hclCell `hcl:"cell,block"`
}

type hclCell struct {
	ID     string      `hcl:"id,label"`
	Type   string      `hcl:"type"`
	Row    int         `hcl:"row"`
	Col    int         `hcl:"col"`
	Inputs []*hclInput `hcl:"input,block"`
}

type hclInput struct {
	Name   string `hcl:"name,label"`
	Row    int    `hcl:"row"`
	Col    int    `hcl:"col"`
	Output string `hcl:"output"`
}

// Load reads a descriptor from an HCL file.
func Load(path string) (*descriptor.Descriptor, error) {
	parser := hclparse.NewParser()

	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to parse %s: %w", ErrDecode, path, diags)
	}

	return decode(path, f)
}

// Parse reads a descriptor from HCL source. The filename is only used in
// diagnostics.
func Parse(src []byte, filename string) (*descriptor.Descriptor, error) {
	parser := hclparse.NewParser()

	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to parse %s: %w", ErrDecode, filename, diags)
	}

	return decode(filename, f)
}

func decode(filename string, f *hcl.File) (*descriptor.Descriptor, error) {
	var parsed hclFile
	if diags := gohcl.DecodeBody(f.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to decode %s: %w", ErrDecode, filename, diags)
	}

	d := &descriptor.Descriptor{
		Width:               parsed.Grid.Width,
		Height:              parsed.Grid.Height,
		Types:               make(map[string]descriptor.CellType, len(parsed.Types)),
		Connectivity:        descriptor.VonNeumann,
		IterationsPerUpdate: 1,
		Inputs:              parsed.Inputs,
		Outputs:             parsed.Outputs,
	}
	if parsed.Connectivity != nil {
		d.Connectivity = descriptor.Connectivity(*parsed.Connectivity)
	}
	if parsed.Iterations != nil {
		d.IterationsPerUpdate = *parsed.Iterations
	}

	for _, t := range parsed.Types {
		if _, dup := d.Types[t.ID]; dup {
			return nil, fmt.Errorf("%w: cell type %q declared twice", ErrDecode, t.ID)
		}

		ct := descriptor.CellType{ID: t.ID, Inputs: t.Inputs}
		for _, o := range t.Outputs {
			ct.Outputs = append(ct.Outputs, descriptor.OutputSpec{
				ID:     o.ID,
				Expr:   source(f, o.Expr),
				Params: o.Params,
			})
		}
		d.Types[t.ID] = ct
	}

	tile, err := layout(parsed.Tile, d.Types)
	if err != nil {
		return nil, err
	}
	d.Tile = tile

	return d, nil
}

func layout(t hclTile, types map[string]descriptor.CellType) ([][]descriptor.CellSpec, error) {
	if t.Rows < 1 || t.Cols < 1 {
		return nil, fmt.Errorf("%w: tile must be at least 1x1, got %dx%d", ErrDecode, t.Rows, t.Cols)
	}

	grid := make([][]descriptor.CellSpec, t.Rows)
	for r := range grid {
		grid[r] = make([]descriptor.CellSpec, t.Cols)
	}

	for _, c := range t.Cells {
		if c.Row < 0 || c.Row >= t.Rows || c.Col < 0 || c.Col >= t.Cols {
			return nil, fmt.Errorf("%w: cell %q at (%d, %d) is outside the %dx%d tile",
				ErrDecode, c.ID, c.Row, c.Col, t.Rows, t.Cols)
		}
		if grid[c.Row][c.Col].ID != "" {
			return nil, fmt.Errorf("%w: cells %q and %q share (%d, %d)",
				ErrDecode, grid[c.Row][c.Col].ID, c.ID, c.Row, c.Col)
		}

		spec := descriptor.CellSpec{ID: c.ID, Type: c.Type}

		// Input blocks are matched to the type's inputs by name. Unknown
		// types are left to the resolver.
		if ct, ok := types[c.Type]; ok {
			inputs, err := order(c, ct)
			if err != nil {
				return nil, err
			}
			spec.Inputs = inputs
		}

		grid[c.Row][c.Col] = spec
	}

	return grid, nil
}

func order(c *hclCell, t descriptor.CellType) ([]descriptor.InputRef, error) {
	byName := make(map[string]*hclInput, len(c.Inputs))
	for _, in := range c.Inputs {
		if _, dup := byName[in.Name]; dup {
			return nil, fmt.Errorf("%w: cell %q wires input %q twice", ErrDecode, c.ID, in.Name)
		}
		byName[in.Name] = in
	}

	refs := make([]descriptor.InputRef, 0, len(t.Inputs))
	for _, name := range t.Inputs {
		in, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: cell %q does not wire input %q", ErrDecode, c.ID, name)
		}
		delete(byName, name)
		refs = append(refs, descriptor.InputRef{Row: in.Row, Col: in.Col, Output: in.Output})
	}

	for name := range byName {
		return nil, fmt.Errorf("%w: cell %q wires unknown input %q", ErrDecode, c.ID, name)
	}

	return refs, nil
}

// source returns the text of an output expression. A quoted string is
// accepted as well and yields its contents.
func source(f *hcl.File, e hcl.Expression) string {
	if v, diags := e.Value(nil); !diags.HasErrors() && v.Type() == cty.String && v.IsKnown() && !v.IsNull() {
		return strings.TrimSpace(v.AsString())
	}

	return strings.TrimSpace(string(e.Range().SliceBytes(f.Bytes)))
}
