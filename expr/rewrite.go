package expr

import (
	"errors"
	"fmt"
)

// ErrUnbound is returned by Rewrite for a name the binder does not know.
var ErrUnbound = errors.New("unbound variable")

// A Binder resolves a variable name to a reference.
type Binder interface {
	Bind(name string) (Ref, bool)
}

// BinderFunc adapts a function to the Binder interface.
type BinderFunc func(name string) (Ref, bool)

// Bind calls f(name).
func (f BinderFunc) Bind(name string) (Ref, bool) {
	return f(name)
}

// Rewrite returns a copy of n in which every Name is replaced by the Ref the
// binder resolves it to. The input tree is not modified.
func Rewrite(n Node, b Binder) (Node, error) {
	switch n := n.(type) {
	case Const, Ref:
		return n, nil
	case Name:
		ref, ok := b.Bind(n.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnbound, n.Name)
		}
		return ref, nil
	case Call:
		args := make([]Node, len(n.Args))
		for i, a := range n.Args {
			r, err := Rewrite(a, b)
			if err != nil {
				return nil, err
			}
			args[i] = r
		}
		return Call{Op: n.Op, Args: args}, nil
	default:
		panic(fmt.Sprintf("unknown node %T", n))
	}
}

// Refs returns the distinct references of a rewritten tree, in order of first
// appearance.
func Refs(n Node) []Ref {
	var refs []Ref
	seen := make(map[Ref]bool)

	Walk(n, func(n Node) {
		if r, ok := n.(Ref); ok && !seen[r] {
			seen[r] = true
			refs = append(refs, r)
		}
	})

	return refs
}
