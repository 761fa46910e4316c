package expr_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tilebrain/expr"
)

var _ = Describe("Parse", func() {
	eval := func(src string, env map[string]int32) int32 {
		n, err := expr.Parse(src)
		Expect(err).NotTo(HaveOccurred())

		bound, err := expr.Rewrite(n, expr.BinderFunc(func(name string) (expr.Ref, bool) {
			_, ok := env[name]
			return expr.Ref{Kind: expr.RefLocal, Name: name}, ok
		}))
		Expect(err).NotTo(HaveOccurred())

		return expr.Eval(bound, func(r expr.Ref) int32 { return env[r.Name] })
	}

	DescribeTable("evaluation",
		func(src string, want int32) {
			env := map[string]int32{"a": 7, "b": -3, "c": 0}
			Expect(eval(src, env)).To(Equal(want))
		},
		Entry("precedence", "a + b * 2", int32(1)),
		Entry("parentheses", "(a + b) * 2", int32(8)),
		Entry("negation", "-a", int32(-7)),
		Entry("negative literal", "-2147483648", int32(-2147483648)),
		Entry("not", "!c", int32(1)),
		Entry("booleans", "true && a > b", int32(1)),
		Entry("conditional", "c != 0 ? a : b", int32(-3)),
		Entry("min folds", "min(a, b, 5)", int32(-3)),
		Entry("max folds", "max(a, b, 9)", int32(9)),
		Entry("abs", "abs(b)", int32(3)),
		Entry("clamp high", "clamp(a, 0, 5)", int32(5)),
		Entry("clamp low", "clamp(b, 0, 5)", int32(0)),
		Entry("division", "a / b", int32(-2)),
		Entry("modulo", "a % b", int32(1)),
		Entry("zero divisor", "a / c + a % c", int32(0)),
	)

	It("should list names in first appearance order", func() {
		n := expr.MustParse("b + a * b - c")
		Expect(expr.Names(n)).To(Equal([]string{"b", "a", "c"}))
	})

	It("should print the lowered tree", func() {
		n := expr.MustParse("a ? 1 : -b")
		Expect(n.String()).To(Equal("sel(a, 1, neg(b))"))
	})

	DescribeTable("rejections",
		func(src string, want error) {
			_, err := expr.Parse(src)
			Expect(err).To(MatchError(want))
		},
		Entry("dangling operator", "a +", expr.ErrSyntax),
		Entry("trailing tokens", "a b", expr.ErrSyntax),
		Entry("string literal", `"x"`, expr.ErrUnsupported),
		Entry("fraction", "1.5", expr.ErrUnsupported),
		Entry("overflow", "2147483648", expr.ErrUnsupported),
		Entry("attribute access", "a.b", expr.ErrUnsupported),
		Entry("unknown function", "sqrt(a)", expr.ErrUnsupported),
		Entry("short min", "min(a)", expr.ErrSyntax),
	)

	It("should report unbound names", func() {
		n := expr.MustParse("a + z")
		_, err := expr.Rewrite(n, expr.BinderFunc(func(name string) (expr.Ref, bool) {
			return expr.Ref{Name: name}, name == "a"
		}))
		Expect(err).To(MatchError(expr.ErrUnbound))
	})
})
