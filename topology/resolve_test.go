package topology_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tilebrain/descriptor"
	"github.com/sarchlab/tilebrain/expr"
	"github.com/sarchlab/tilebrain/topology"
	"github.com/sarchlab/tilebrain/util/brains"
)

var _ = Describe("Resolve", func() {
	var (
		ctx context.Context
		d   *descriptor.Descriptor
	)

	BeforeEach(func() {
		ctx = context.Background()
		d = brains.Router(2, 1)
	})

	Context("with the router template", func() {
		var m *topology.Model

		BeforeEach(func() {
			var err error
			m, err = topology.Resolve(ctx, d)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should size the state", func() {
			Expect(m.Unit.StateSize).To(Equal(10))
			Expect(m.Tiles).To(Equal(2))
			Expect(m.StateSize).To(Equal(20))
		})

		It("should lay out outputs before parameters", func() {
			c := m.Unit.Cells[0]
			Expect(c.ID).To(Equal("1"))
			Expect(c.Outputs).To(HaveLen(3))
			Expect(c.Outputs[0].Index).To(Equal(0))
			Expect(c.Outputs[2].Name).To(Equal("s2"))
			Expect(c.Params[0].ID).To(Equal("bias"))
			Expect(c.Params[0].Index).To(Equal(3))
			Expect(c.Params[1].ID).To(Equal("gain"))
			Expect(c.Params[1].Index).To(Equal(4))

			Expect(m.Unit.Cells[1].Outputs[0].Index).To(Equal(5))
		})

		It("should register exactly four externals", func() {
			Expect(m.Unit.Externals).To(HaveLen(4))

			type ext struct {
				name     string
				row, col int
				cell     string
				output   string
				index    int
			}
			var got []ext
			for _, e := range m.Unit.Externals {
				got = append(got, ext{e.Name, e.Offset.Row, e.Offset.Col, e.CellID, e.OutputID, e.Index})
			}

			Expect(got).To(Equal([]ext{
				{"in1", 0, -1, "2", "3", 7},
				{"in2", -1, 0, "1", "2", 1},
				{"in3", 0, 1, "1", "3", 2},
				{"in4", 1, 0, "2", "2", 6},
			}))
		})

		It("should name the side of each external", func() {
			Expect(m.Unit.Externals[0].Side).To(Equal(descriptor.West))
			Expect(m.Unit.Externals[1].Side).To(Equal(descriptor.North))
			Expect(m.Unit.Externals[2].Side).To(Equal(descriptor.East))
			Expect(m.Unit.Externals[3].Side).To(Equal(descriptor.South))
		})

		It("should bind sibling inputs", func() {
			Expect(m.Unit.Cells[0].Inputs[1].Source).To(Equal(
				topology.SiblingSource{Cell: "2", Output: "1", Index: 5}))
			Expect(m.Unit.Cells[1].Inputs[0].Source).To(Equal(
				topology.SiblingSource{Cell: "1", Output: "1", Index: 0}))
			Expect(m.Unit.Cells[1].Inputs[2].Source).To(Equal(
				topology.ExternalSource{External: 3}))
		})

		It("should rewrite output expressions", func() {
			Expect(m.Unit.Cells[0].Outputs[0].Expr.String()).To(Equal("add(in1, s5)"))
			Expect(m.Unit.Cells[0].Outputs[1].Expr.String()).To(Equal("add(sub(s5, in2), s3)"))

			refs := expr.Refs(m.Unit.Cells[1].Outputs[2].Expr)
			Expect(refs).To(ContainElement(expr.Ref{Kind: expr.RefParam, Name: "s9", Index: 9}))
			Expect(refs).To(ContainElement(expr.Ref{Kind: expr.RefExternal, Name: "in4", Index: 3}))
		})

		It("should list exported outputs once", func() {
			Expect(m.Unit.Exports).To(Equal([]topology.Export{
				{CellID: "2", OutputID: "3", Index: 7},
				{CellID: "1", OutputID: "2", Index: 1},
				{CellID: "1", OutputID: "3", Index: 2},
				{CellID: "2", OutputID: "2", Index: 6},
			}))
		})

		It("should render the layout", func() {
			table := m.LayoutTable()
			Expect(table).To(ContainSubstring("bias"))
			Expect(table).To(ContainSubstring("add(in1, s5)"))
		})

		It("should hash deterministically", func() {
			again, err := topology.Resolve(ctx, brains.Router(2, 1))
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Hash).To(Equal(m.Hash))

			other, err := topology.Resolve(ctx, brains.Router(3, 1))
			Expect(err).NotTo(HaveOccurred())
			Expect(other.Hash).NotTo(Equal(m.Hash))
		})
	})

	It("should reuse an external read twice", func() {
		d.Tile[0][1].Inputs[1] = descriptor.InputRef{Row: 0, Col: 2, Output: "3"}
		d.Tile[0][1].Inputs[2] = descriptor.InputRef{Row: 0, Col: 2, Output: "3"}

		m, err := topology.Resolve(ctx, d)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Unit.Externals).To(HaveLen(3))
		Expect(m.Unit.Cells[1].Inputs[1].Source).To(Equal(m.Unit.Cells[1].Inputs[2].Source))
	})

	It("should resolve every Moore neighbour of life", func() {
		m, err := topology.Resolve(ctx, brains.Life(3, 3))
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Unit.Externals).To(HaveLen(8))
		Expect(m.Unit.Externals[0].Side).To(Equal(descriptor.NorthWest))
	})

	It("should wrap tiles on the torus", func() {
		m, err := topology.Resolve(ctx, brains.Router(3, 2))
		Expect(err).NotTo(HaveOccurred())
		Expect(m.TileIndex(-1, -1)).To(Equal(5))
		Expect(m.Neighbour(0, topology.Offset{Row: 0, Col: -1})).To(Equal(2))
		Expect(m.Neighbour(5, topology.Offset{Row: 1, Col: 1})).To(Equal(0))
	})

	DescribeTable("build errors",
		func(mutate func(d *descriptor.Descriptor), want error) {
			mutate(d)
			_, err := topology.Resolve(ctx, d)
			Expect(err).To(MatchError(want))
		},
		Entry("unknown cell type", func(d *descriptor.Descriptor) {
			d.Tile[0][0].Type = "nope"
		}, topology.ErrUnknownCellType),
		Entry("missing output", func(d *descriptor.Descriptor) {
			d.Tile[0][0].Inputs[0].Output = "9"
		}, topology.ErrDanglingInput),
		Entry("empty target", func(d *descriptor.Descriptor) {
			d.Tile[0][1] = descriptor.CellSpec{}
		}, topology.ErrDanglingInput),
		Entry("too few inputs", func(d *descriptor.Descriptor) {
			d.Tile[0][0].Inputs = d.Tile[0][0].Inputs[:2]
		}, topology.ErrArity),
		Entry("diagonal under von Neumann", func(d *descriptor.Descriptor) {
			d.Tile[0][0].Inputs[0] = descriptor.InputRef{Row: -1, Col: -1, Output: "1"}
		}, topology.ErrArity),
		Entry("offset beyond neighbours", func(d *descriptor.Descriptor) {
			d.Tile[0][0].Inputs[0] = descriptor.InputRef{Row: 0, Col: 4, Output: "1"}
		}, topology.ErrArity),
		Entry("bad expression", func(d *descriptor.Descriptor) {
			t := d.Types["router"]
			t.Outputs = append([]descriptor.OutputSpec{}, t.Outputs...)
			t.Outputs[0].Expr = "a +"
			d.Types["router"] = t
		}, topology.ErrExpression),
		Entry("unknown variable", func(d *descriptor.Descriptor) {
			t := d.Types["router"]
			t.Outputs = append([]descriptor.OutputSpec{}, t.Outputs...)
			t.Outputs[0].Expr = "a + zz"
			d.Types["router"] = t
		}, topology.ErrUnknownVariable),
		Entry("invalid descriptor", func(d *descriptor.Descriptor) {
			d.IterationsPerUpdate = 0
		}, descriptor.ErrInvalid),
		Entry("stateless tile", func(d *descriptor.Descriptor) {
			t := d.Types["router"]
			t.Outputs = nil
			d.Types["router"] = t
		}, descriptor.ErrInvalid),
	)
})
