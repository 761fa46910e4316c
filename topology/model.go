// Package topology resolves a tile descriptor into a wiring model: where every
// cell output and parameter lives in the state array, and where every cell
// input reads from.
package topology

import (
	"github.com/sarchlab/tilebrain/descriptor"
	"github.com/sarchlab/tilebrain/expr"
)

// Var is an output or parameter with its tile-local state index. Expr is the
// bound output expression; it is nil for parameters.
type Var struct {
	ID    string
	Name  string
	Index int
	Expr  expr.Node
}

// Source tells where a cell input reads from. It is either a SiblingSource or
// an ExternalSource.
type Source interface {
	isSource()
}

// SiblingSource reads an output of a cell in the same tile.
type SiblingSource struct {
	Cell   string
	Output string
	Index  int
}

// ExternalSource reads an output of a cell in a neighbouring tile. External
// is the ordinal into LogicalUnitInfo.Externals.
type ExternalSource struct {
	External int
}

func (SiblingSource) isSource()  {}
func (ExternalSource) isSource() {}

// Input is a resolved cell input.
type Input struct {
	Name   string
	Source Source
}

// CellInfo is a resolved cell of the tile template.
type CellInfo struct {
	ID       string
	Type     string
	Row, Col int
	Outputs  []Var
	Params   []Var
	Inputs   []Input
}

// Offset is a tile offset in rows and columns.
type Offset struct {
	Row, Col int
}

// ExternalCellInfo is one distinct cross-tile read. Index is the tile-local
// state index of the remote output and Export its ordinal in the staging plan.
type ExternalCellInfo struct {
	Name     string
	Offset   Offset
	CellID   string
	OutputID string
	Index    int
	Export   int
	Side     descriptor.Side
}

// Export is a cell output that neighbouring tiles read.
type Export struct {
	CellID   string
	OutputID string
	Index    int
}

// LogicalUnitInfo is the resolved tile template.
type LogicalUnitInfo struct {
	Rows, Cols int
	Cells      []CellInfo
	Externals  []ExternalCellInfo
	Exports    []Export
	StateSize  int
}

// Model is the resolved wiring of a whole grid.
type Model struct {
	Unit                LogicalUnitInfo
	Width, Height       int
	Tiles               int
	StateSize           int
	IterationsPerUpdate int
	Inputs, Outputs     int
	Connectivity        descriptor.Connectivity

	// Hash is a hex digest of everything that affects generated code.
	Hash string
}

// TileIndex returns the tile at grid coordinate (row, col), wrapping around
// the edges.
func (m *Model) TileIndex(row, col int) int {
	return mod(row, m.Height)*m.Width + mod(col, m.Width)
}

// TileCoord returns the grid coordinate of a tile.
func (m *Model) TileCoord(tile int) (row, col int) {
	return tile / m.Width, tile % m.Width
}

// Neighbour returns the tile at the given offset from tile.
func (m *Model) Neighbour(tile int, off Offset) int {
	r, c := m.TileCoord(tile)
	return m.TileIndex(r+off.Row, c+off.Col)
}

// LayoutEntry describes one tile-local state index.
type LayoutEntry struct {
	Index  int
	Name   string
	CellID string
	VarID  string
	Param  bool
}

// Layout lists every tile-local state index in order.
func (u *LogicalUnitInfo) Layout() []LayoutEntry {
	entries := make([]LayoutEntry, 0, u.StateSize)

	for _, c := range u.Cells {
		for _, v := range c.Outputs {
			entries = append(entries, LayoutEntry{
				Index: v.Index, Name: v.Name, CellID: c.ID, VarID: v.ID,
			})
		}
		for _, v := range c.Params {
			entries = append(entries, LayoutEntry{
				Index: v.Index, Name: v.Name, CellID: c.ID, VarID: v.ID, Param: true,
			})
		}
	}

	return entries
}

// Cell returns the resolved cell with the given id.
func (u *LogicalUnitInfo) Cell(id string) (*CellInfo, bool) {
	for i := range u.Cells {
		if u.Cells[i].ID == id {
			return &u.Cells[i], true
		}
	}

	return nil, false
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	return ((a % b) + b) % b
}
