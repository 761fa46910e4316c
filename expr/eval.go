package expr

import "fmt"

// Eval evaluates a rewritten tree. Every argument is evaluated, including both
// arms of a selection.
func Eval(n Node, load func(Ref) int32) int32 {
	switch n := n.(type) {
	case Const:
		return n.Value
	case Ref:
		return load(n)
	case Call:
		var v [3]int32
		for i, a := range n.Args {
			v[i] = Eval(a, load)
		}
		return Apply(n.Op, v[0], v[1], v[2])
	case Name:
		panic(fmt.Sprintf("unresolved name %q", n.Name))
	default:
		panic(fmt.Sprintf("unknown node %T", n))
	}
}
