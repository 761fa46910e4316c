// Package descriptor defines the declarative description of a tiled automaton
// brain: the grid of tiles, the logical tile template and the cell-type catalog.
//
// A Descriptor is the already-parsed input of the compiler. It is never
// mutated by the packages that consume it.
package descriptor

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every shape-level validation failure.
var ErrInvalid = errors.New("invalid descriptor")

// A Descriptor describes a grid of identical tiles. The grid has Height rows
// and Width columns of tiles and wraps around at every edge.
type Descriptor struct {
	Width, Height int

	// Tile is the logical tile template, indexed Tile[row][col]. A CellSpec
	// with an empty ID is a hole.
	Tile [][]CellSpec

	// Types is the cell-type catalog keyed by type id.
	Types map[string]CellType

	Connectivity        Connectivity
	IterationsPerUpdate int

	// Inputs and Outputs are the automaton-level port counts.
	Inputs, Outputs int
}

// CellType describes a kind of cell.
type CellType struct {
	ID string

	// Inputs are the ordered input variable names. Their count is the arity
	// every cell of this type must match.
	Inputs []string

	Outputs []OutputSpec
}

// OutputSpec is one output of a cell type. Expr is an expression over the
// type's inputs and the parameters listed in Params.
type OutputSpec struct {
	ID     string
	Expr   string
	Params []string
}

// CellSpec places a typed cell in the tile template.
type CellSpec struct {
	ID     string
	Type   string
	Inputs []InputRef
}

// InputRef points an input slot at an output. Row and Col are template
// coordinates; values outside the template address a neighbouring tile.
type InputRef struct {
	Row, Col int
	Output   string
}

// Rows returns the number of rows in the tile template.
func (d *Descriptor) Rows() int {
	return len(d.Tile)
}

// Cols returns the number of columns in the tile template.
func (d *Descriptor) Cols() int {
	if len(d.Tile) == 0 {
		return 0
	}

	return len(d.Tile[0])
}

// Cell returns the cell at the template coordinate. It returns false for
// holes and coordinates outside the template.
func (d *Descriptor) Cell(row, col int) (CellSpec, bool) {
	if row < 0 || row >= d.Rows() || col < 0 || col >= d.Cols() {
		return CellSpec{}, false
	}

	c := d.Tile[row][col]
	if c.ID == "" {
		return CellSpec{}, false
	}

	return c, true
}

// Validate checks the shape of the descriptor. Wiring problems are left to the
// topology resolver.
func (d *Descriptor) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: grid must be at least 1x1, got %dx%d",
			ErrInvalid, d.Width, d.Height)
	}

	if d.Rows() == 0 || d.Cols() == 0 {
		return fmt.Errorf("%w: empty tile template", ErrInvalid)
	}

	for r, row := range d.Tile {
		if len(row) != d.Cols() {
			return fmt.Errorf("%w: template row %d has %d cells, want %d",
				ErrInvalid, r, len(row), d.Cols())
		}
	}

	if !d.Connectivity.Valid() {
		return fmt.Errorf("%w: unsupported connectivity %d", ErrInvalid, d.Connectivity)
	}

	if d.IterationsPerUpdate < 1 {
		return fmt.Errorf("%w: iterationsPerUpdate must be positive, got %d",
			ErrInvalid, d.IterationsPerUpdate)
	}

	if d.Inputs < 0 || d.Outputs < 0 {
		return fmt.Errorf("%w: negative port count", ErrInvalid)
	}

	seen := make(map[string]bool)
	for _, row := range d.Tile {
		for _, c := range row {
			if c.ID == "" {
				continue
			}
			if seen[c.ID] {
				return fmt.Errorf("%w: duplicate cell id %q", ErrInvalid, c.ID)
			}
			seen[c.ID] = true
		}
	}
	if len(seen) == 0 {
		return fmt.Errorf("%w: tile template has only holes", ErrInvalid)
	}

	for id, t := range d.Types {
		if err := t.validate(id); err != nil {
			return err
		}
	}

	return nil
}

func (t CellType) validate(key string) error {
	if t.ID != "" && t.ID != key {
		return fmt.Errorf("%w: cell type %q registered under %q", ErrInvalid, t.ID, key)
	}

	names := make(map[string]string)
	for _, in := range t.Inputs {
		if names[in] != "" {
			return fmt.Errorf("%w: cell type %q declares input %q twice",
				ErrInvalid, key, in)
		}
		names[in] = "input"
	}

	outputs := make(map[string]bool)
	for _, o := range t.Outputs {
		if o.ID == "" {
			return fmt.Errorf("%w: cell type %q has an output without id", ErrInvalid, key)
		}
		if outputs[o.ID] {
			return fmt.Errorf("%w: cell type %q declares output %q twice",
				ErrInvalid, key, o.ID)
		}
		outputs[o.ID] = true

		for _, p := range o.Params {
			if names[p] == "input" {
				return fmt.Errorf("%w: cell type %q uses %q as input and parameter",
					ErrInvalid, key, p)
			}
		}
	}

	return nil
}

// Output returns the output spec with the given id.
func (t CellType) Output(id string) (OutputSpec, bool) {
	for _, o := range t.Outputs {
		if o.ID == id {
			return o, true
		}
	}

	return OutputSpec{}, false
}

// Params returns the parameter ids of the type, in order of first appearance
// across its outputs.
func (t CellType) Params() []string {
	var params []string
	seen := make(map[string]bool)

	for _, o := range t.Outputs {
		for _, p := range o.Params {
			if !seen[p] {
				seen[p] = true
				params = append(params, p)
			}
		}
	}

	return params
}
