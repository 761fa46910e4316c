package simulator_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tilebrain/descriptor"
	"github.com/sarchlab/tilebrain/simulator"
	"github.com/sarchlab/tilebrain/util/brains"
	"github.com/sarchlab/tilebrain/util/valgen"
)

var _ = Describe("Backend equivalence", func() {
	const (
		slots = 5
		steps = 6
	)

	DescribeTable("host and kernel agree bit for bit",
		func(d *descriptor.Descriptor, bound int32) {
			m := resolve(d)
			host := newHost(m, slots)
			kernel := newKernel(m, slots)
			defer func() {
				Expect(host.Close()).To(Succeed())
				Expect(kernel.Close()).To(Succeed())
			}()

			values := func(seed uint32) func() int32 {
				if bound > 0 {
					return valgen.MakeBoundedGen(valgen.MakeLCGGen(seed), bound)
				}
				return valgen.MakeLCGGen(seed)
			}

			for _, s := range []simulator.Simulator{host, kernel} {
				wire(s)
				seed(s, values(11))
			}

			hostInputs, kernelInputs := values(23), values(23)
			for step := 0; step < steps; step++ {
				feed(host, hostInputs)
				feed(kernel, kernelInputs)

				Expect(host.Update()).To(Succeed())
				Expect(kernel.Update()).To(Succeed())

				Expect(take(kernel)).To(Equal(take(host)), "step %d", step)
			}
		},
		Entry("router", brains.Router(3, 2), int32(0)),
		Entry("router on a single tile", brains.Router(1, 1), int32(0)),
		Entry("life", brains.Life(5, 4), int32(2)),
		Entry("diffusion", brains.Diffusion(3, 3), int32(1200)),
		Entry("accumulator", brains.Accumulator(4), int32(0)),
		Entry("every operator", everyOperator(3, 2), int32(0)),
	)
})

// everyOperator is a one-cell tile whose outputs use the whole operator set.
func everyOperator(width, height int) *descriptor.Descriptor {
	alu := descriptor.CellType{
		ID:     "alu",
		Inputs: []string{"a", "b", "c", "d"},
		Outputs: []descriptor.OutputSpec{
			{ID: "x", Expr: "a * b - c + -d"},
			{ID: "y", Expr: "a / (b % 7 - 3) + a % b - k", Params: []string{"k"}},
			{ID: "z", Expr: "a < b ? abs(c) : min(a, d) - max(b, c)"},
			{ID: "w", Expr: "!(a == b) && (a <= c || b >= d) || a > b && c != d"},
		},
	}

	return &descriptor.Descriptor{
		Width:  width,
		Height: height,
		Tile: [][]descriptor.CellSpec{{
			{ID: "u", Type: "alu", Inputs: []descriptor.InputRef{
				{Row: 0, Col: 0, Output: "x"},
				{Row: 0, Col: 1, Output: "y"},
				{Row: 1, Col: 0, Output: "z"},
				{Row: 0, Col: -1, Output: "w"},
			}},
		}},
		Types:               map[string]descriptor.CellType{"alu": alu},
		Connectivity:        descriptor.VonNeumann,
		IterationsPerUpdate: 3,
		Inputs:              1,
		Outputs:             2,
	}
}

var _ = DescribeTable("snapshot replay",
	func(build factory) {
		m := resolve(brains.Diffusion(2, 3))
		a := build(m, 3)
		defer func() { Expect(a.Close()).To(Succeed()) }()
		wire(a)
		seed(a, valgen.MakeBoundedGen(valgen.MakeLCGGen(5), 500))

		inputs := make([][]int32, 8)
		gen := valgen.MakeLCGGen(9)
		for i := range inputs {
			inputs[i] = make([]int32, a.Slots()*a.InputSize())
			valgen.Fill(inputs[i], gen)
		}
		apply := func(s simulator.Simulator, step int) {
			for slot := 0; slot < s.Slots(); slot++ {
				s.SetInput(slot, inputs[step][slot*s.InputSize():(slot+1)*s.InputSize()])
			}
			Expect(s.Update()).To(Succeed())
		}

		for step := 0; step < 3; step++ {
			apply(a, step)
		}
		snap := take(a)
		for step := 3; step < 8; step++ {
			apply(a, step)
		}

		b := build(m, 3)
		defer func() { Expect(b.Close()).To(Succeed()) }()
		wire(b)
		for slot, st := range snap.states {
			b.SetState(slot, st)
		}
		for step := 3; step < 8; step++ {
			apply(b, step)
		}

		Expect(take(b)).To(Equal(take(a)))
	},
	Entry("host", factory(newHost)),
	Entry("kernel", factory(newKernel)),
)
