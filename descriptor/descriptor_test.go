package descriptor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tilebrain/descriptor"
)

var _ = Describe("Descriptor", func() {
	var d *descriptor.Descriptor

	BeforeEach(func() {
		d = &descriptor.Descriptor{
			Width:  2,
			Height: 1,
			Tile: [][]descriptor.CellSpec{{
				{ID: "1", Type: "acc", Inputs: []descriptor.InputRef{{Row: 0, Col: 0, Output: "out"}}},
				{},
			}},
			Types: map[string]descriptor.CellType{
				"acc": {
					ID:     "acc",
					Inputs: []string{"prev"},
					Outputs: []descriptor.OutputSpec{
						{ID: "out", Expr: "prev + k", Params: []string{"k"}},
						{ID: "dbl", Expr: "2 * k + j", Params: []string{"k", "j"}},
					},
				},
			},
			Connectivity:        descriptor.VonNeumann,
			IterationsPerUpdate: 1,
		}
	})

	It("should accept a well formed descriptor", func() {
		Expect(d.Validate()).To(Succeed())
	})

	It("should report template dimensions", func() {
		Expect(d.Rows()).To(Equal(1))
		Expect(d.Cols()).To(Equal(2))
	})

	It("should treat holes as missing cells", func() {
		_, ok := d.Cell(0, 1)
		Expect(ok).To(BeFalse())

		c, ok := d.Cell(0, 0)
		Expect(ok).To(BeTrue())
		Expect(c.ID).To(Equal("1"))

		_, ok = d.Cell(0, 2)
		Expect(ok).To(BeFalse())
	})

	It("should reject an empty grid", func() {
		d.Width = 0
		Expect(d.Validate()).To(MatchError(descriptor.ErrInvalid))
	})

	It("should reject a ragged template", func() {
		d.Tile = append(d.Tile, []descriptor.CellSpec{{}})
		Expect(d.Validate()).To(MatchError(descriptor.ErrInvalid))
	})

	It("should reject an unknown connectivity", func() {
		d.Connectivity = 6
		Expect(d.Validate()).To(MatchError(descriptor.ErrInvalid))
	})

	It("should reject zero iterations per update", func() {
		d.IterationsPerUpdate = 0
		Expect(d.Validate()).To(MatchError(descriptor.ErrInvalid))
	})

	It("should reject a template of holes", func() {
		d.Tile = [][]descriptor.CellSpec{{{}, {}}, {{}, {}}}
		Expect(d.Validate()).To(MatchError(descriptor.ErrInvalid))
	})

	It("should reject duplicate cell ids", func() {
		d.Tile[0][1] = descriptor.CellSpec{ID: "1", Type: "acc"}
		Expect(d.Validate()).To(MatchError(descriptor.ErrInvalid))
	})

	It("should reject a parameter shadowing an input", func() {
		t := d.Types["acc"]
		t.Outputs = append(t.Outputs, descriptor.OutputSpec{ID: "x", Expr: "prev", Params: []string{"prev"}})
		d.Types["acc"] = t
		Expect(d.Validate()).To(MatchError(descriptor.ErrInvalid))
	})

	It("should order parameters by first appearance", func() {
		Expect(d.Types["acc"].Params()).To(Equal([]string{"k", "j"}))
	})
})

var _ = Describe("Side", func() {
	It("should map offsets back to sides", func() {
		for s := descriptor.North; s <= descriptor.SouthWest; s++ {
			r, c := s.Offset()
			got, ok := descriptor.SideOf(r, c)
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(s))
		}
	})

	It("should not map the zero offset", func() {
		_, ok := descriptor.SideOf(0, 0)
		Expect(ok).To(BeFalse())
	})

	It("should restrict von Neumann connectivity to edges", func() {
		Expect(descriptor.VonNeumann.Allows(descriptor.North)).To(BeTrue())
		Expect(descriptor.VonNeumann.Allows(descriptor.SouthEast)).To(BeFalse())
		Expect(descriptor.Moore.Allows(descriptor.SouthEast)).To(BeTrue())
	})

	It("should panic on an invalid side", func() {
		Expect(func() { descriptor.Side(42).Name() }).To(Panic())
	})
})
