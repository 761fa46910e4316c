// Package brains holds ready-made descriptors used by the CLI, the samples and
// the tests.
package brains

import (
	"fmt"
	"sort"

	"github.com/sarchlab/tilebrain/descriptor"
)

// Router is a 1x2 tile of "router" cells wired across both edges of the tile.
// It resolves to four distinct external reads.
func Router(width, height int) *descriptor.Descriptor {
	router := descriptor.CellType{
		ID:     "router",
		Inputs: []string{"a", "b", "c"},
		Outputs: []descriptor.OutputSpec{
			{ID: "1", Expr: "a + b"},
			{ID: "2", Expr: "b - c + bias", Params: []string{"bias"}},
			{ID: "3", Expr: "a > c ? a * gain : c - bias", Params: []string{"gain", "bias"}},
		},
	}

	return &descriptor.Descriptor{
		Width:  width,
		Height: height,
		Tile: [][]descriptor.CellSpec{{
			{ID: "1", Type: "router", Inputs: []descriptor.InputRef{
				{Row: 0, Col: -1, Output: "3"},
				{Row: 0, Col: 1, Output: "1"},
				{Row: -1, Col: 0, Output: "2"},
			}},
			{ID: "2", Type: "router", Inputs: []descriptor.InputRef{
				{Row: 0, Col: 0, Output: "1"},
				{Row: 0, Col: 2, Output: "3"},
				{Row: 1, Col: 1, Output: "2"},
			}},
		}},
		Types:               map[string]descriptor.CellType{"router": router},
		Connectivity:        descriptor.VonNeumann,
		IterationsPerUpdate: 2,
		Inputs:              2,
		Outputs:             2,
	}
}

// Accumulator is a single self-feeding cell that adds its "in" parameter to
// its output once per iteration. Tile-local index 0 is the output and 1 the
// parameter.
func Accumulator(iterations int) *descriptor.Descriptor {
	return &descriptor.Descriptor{
		Width:  1,
		Height: 1,
		Tile: [][]descriptor.CellSpec{{
			{ID: "acc", Type: "acc", Inputs: []descriptor.InputRef{{Row: 0, Col: 0, Output: "out"}}},
		}},
		Types: map[string]descriptor.CellType{
			"acc": {
				ID:     "acc",
				Inputs: []string{"prev"},
				Outputs: []descriptor.OutputSpec{
					{ID: "out", Expr: "prev + in", Params: []string{"in"}},
				},
			},
		},
		Connectivity:        descriptor.VonNeumann,
		IterationsPerUpdate: iterations,
		Inputs:              1,
		Outputs:             1,
	}
}

// Life is Conway's game of life with one cell per tile and Moore
// connectivity.
func Life(width, height int) *descriptor.Descriptor {
	names := []string{"nw", "n", "ne", "w", "e", "sw", "s", "se"}
	sum := "(nw + n + ne + w + e + sw + s + se)"

	var inputs []descriptor.InputRef
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			inputs = append(inputs, descriptor.InputRef{Row: dr, Col: dc, Output: "alive"})
		}
	}
	inputs = append(inputs, descriptor.InputRef{Row: 0, Col: 0, Output: "alive"})

	return &descriptor.Descriptor{
		Width:  width,
		Height: height,
		Tile:   [][]descriptor.CellSpec{{{ID: "c", Type: "life", Inputs: inputs}}},
		Types: map[string]descriptor.CellType{
			"life": {
				ID:     "life",
				Inputs: append(names, "self"),
				Outputs: []descriptor.OutputSpec{{
					ID:   "alive",
					Expr: fmt.Sprintf("%s == 3 || (self != 0 && %s == 2)", sum, sum),
				}},
			},
		},
		Connectivity:        descriptor.Moore,
		IterationsPerUpdate: 1,
	}
}

// Diffusion is a 2x2 tile of decaying "pool" cells that average with their
// edge neighbours, across tile borders where the template ends. The source
// parameter of each cell is an injection point.
func Diffusion(width, height int) *descriptor.Descriptor {
	pool := descriptor.CellType{
		ID:     "pool",
		Inputs: []string{"self", "n", "e", "s", "w"},
		Outputs: []descriptor.OutputSpec{
			{
				ID:     "level",
				Expr:   "clamp((self * 4 + n + e + s + w) / 8 - decay + source, 0, 1000)",
				Params: []string{"decay", "source"},
			},
			{ID: "peak", Expr: "max(self, n, e, s, w) == self && self > 0"},
		},
	}

	cell := func(id string, r, c int) descriptor.CellSpec {
		return descriptor.CellSpec{ID: id, Type: "pool", Inputs: []descriptor.InputRef{
			{Row: r, Col: c, Output: "level"},
			{Row: r - 1, Col: c, Output: "level"},
			{Row: r, Col: c + 1, Output: "level"},
			{Row: r + 1, Col: c, Output: "level"},
			{Row: r, Col: c - 1, Output: "level"},
		}}
	}

	return &descriptor.Descriptor{
		Width:  width,
		Height: height,
		Tile: [][]descriptor.CellSpec{
			{cell("a", 0, 0), cell("b", 0, 1)},
			{cell("c", 1, 0), cell("d", 1, 1)},
		},
		Types:               map[string]descriptor.CellType{"pool": pool},
		Connectivity:        descriptor.VonNeumann,
		IterationsPerUpdate: 4,
		Inputs:              1,
		Outputs:             2,
	}
}

var catalog = map[string]func() *descriptor.Descriptor{
	"router":      func() *descriptor.Descriptor { return Router(4, 3) },
	"accumulator": func() *descriptor.Descriptor { return Accumulator(3) },
	"life":        func() *descriptor.Descriptor { return Life(8, 8) },
	"diffusion":   func() *descriptor.Descriptor { return Diffusion(4, 4) },
}

// ByName returns a fresh copy of a named descriptor.
func ByName(name string) (*descriptor.Descriptor, bool) {
	f, ok := catalog[name]
	if !ok {
		return nil, false
	}

	return f(), true
}

// Names lists the catalog in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for n := range catalog {
		names = append(names, n)
	}
	sort.Strings(names)

	return names
}
