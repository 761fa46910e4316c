package expr_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tilebrain/expr"
)

var _ = Describe("Apply", func() {
	DescribeTable("integer semantics",
		func(op expr.Op, a, b, c, want int32) {
			Expect(expr.Apply(op, a, b, c)).To(Equal(want))
		},
		Entry("add wraps", expr.OpAdd, int32(math.MaxInt32), int32(1), int32(0), int32(math.MinInt32)),
		Entry("sub", expr.OpSub, int32(3), int32(5), int32(0), int32(-2)),
		Entry("mul wraps", expr.OpMul, int32(1<<16), int32(1<<16), int32(0), int32(0)),
		Entry("div truncates", expr.OpDiv, int32(-7), int32(2), int32(0), int32(-3)),
		Entry("div by zero", expr.OpDiv, int32(7), int32(0), int32(0), int32(0)),
		Entry("div overflow", expr.OpDiv, int32(math.MinInt32), int32(-1), int32(0), int32(math.MinInt32)),
		Entry("mod follows dividend", expr.OpMod, int32(-7), int32(3), int32(0), int32(-1)),
		Entry("mod by zero", expr.OpMod, int32(7), int32(0), int32(0), int32(0)),
		Entry("neg", expr.OpNeg, int32(4), int32(0), int32(0), int32(-4)),
		Entry("eq", expr.OpEq, int32(4), int32(4), int32(0), int32(1)),
		Entry("ne", expr.OpNe, int32(4), int32(4), int32(0), int32(0)),
		Entry("lt", expr.OpLt, int32(-1), int32(0), int32(0), int32(1)),
		Entry("le", expr.OpLe, int32(0), int32(0), int32(0), int32(1)),
		Entry("gt", expr.OpGt, int32(0), int32(0), int32(0), int32(0)),
		Entry("ge", expr.OpGe, int32(1), int32(0), int32(0), int32(1)),
		Entry("and", expr.OpAnd, int32(5), int32(-2), int32(0), int32(1)),
		Entry("or", expr.OpOr, int32(0), int32(0), int32(0), int32(0)),
		Entry("not", expr.OpNot, int32(9), int32(0), int32(0), int32(0)),
		Entry("sel true", expr.OpSel, int32(2), int32(10), int32(20), int32(10)),
		Entry("sel false", expr.OpSel, int32(0), int32(10), int32(20), int32(20)),
		Entry("min", expr.OpMin, int32(-3), int32(2), int32(0), int32(-3)),
		Entry("max", expr.OpMax, int32(-3), int32(2), int32(0), int32(2)),
		Entry("abs", expr.OpAbs, int32(-3), int32(0), int32(0), int32(3)),
		Entry("abs wraps", expr.OpAbs, int32(math.MinInt32), int32(0), int32(0), int32(math.MinInt32)),
	)

	It("should round-trip mnemonics", func() {
		for _, op := range expr.Ops() {
			got, ok := expr.OpByMnemonic(op.Mnemonic())
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(op))
		}
	})

	It("should panic on an invalid op", func() {
		Expect(func() { expr.Apply(expr.Op(-1), 0, 0, 0) }).To(Panic())
	})
})
