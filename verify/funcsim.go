package verify

import (
	"fmt"

	"github.com/sarchlab/tilebrain/expr"
	"github.com/sarchlab/tilebrain/topology"
)

// FunctionalSimulator interprets a resolved model one slot at a time.
type FunctionalSimulator struct {
	m    *topology.Model
	prev []int32
}

// NewFunctionalSimulator creates an interpreter for m.
func NewFunctionalSimulator(m *topology.Model) *FunctionalSimulator {
	return &FunctionalSimulator{
		m:    m,
		prev: make([]int32, m.StateSize),
	}
}

// Run advances one slot state in place.
func (fs *FunctionalSimulator) Run(state []int32, iterations int) {
	if len(state) != fs.m.StateSize {
		panic(fmt.Sprintf("state has length %d, want %d", len(state), fs.m.StateSize))
	}

	ts := fs.m.Unit.StateSize

	for it := 0; it < iterations; it++ {
		copy(fs.prev, state)

		for t := 0; t < fs.m.Tiles; t++ {
			base := t * ts
			load := func(r expr.Ref) int32 {
				switch r.Kind {
				case expr.RefLocal, expr.RefParam:
					return fs.prev[base+r.Index]
				case expr.RefExternal:
					x := fs.m.Unit.Externals[r.Index]
					return fs.prev[fs.m.Neighbour(t, x.Offset)*ts+x.Index]
				default:
					panic("invalid ref kind")
				}
			}

			for _, c := range fs.m.Unit.Cells {
				for _, v := range c.Outputs {
					state[base+v.Index] = expr.Eval(v.Expr, load)
				}
			}
		}
	}
}

// Update performs one complete slot update: inject input through inputMap,
// run the model's iterations and extract output through outputMap.
func (fs *FunctionalSimulator) Update(state, input []int32, inputMap []int, output []int32, outputMap []int) {
	for k, idx := range inputMap {
		if idx >= 0 {
			state[idx] = input[k]
		}
	}

	fs.Run(state, fs.m.IterationsPerUpdate)

	for k, idx := range outputMap {
		if idx >= 0 {
			output[k] = state[idx]
		} else {
			output[k] = 0
		}
	}
}
