// Package expr parses, rewrites and evaluates the integer expressions that
// define cell outputs.
//
// Expressions use HCL native syntax. A parsed expression is a tree of Node
// values in which every operator has been lowered to an Op, so that each
// backend only has to render Const, Ref and Call nodes (and Name before
// rewriting).
package expr

import (
	"strconv"
	"strings"
)

// Node is an expression tree node. The set of node kinds is closed.
type Node interface {
	String() string
	isNode()
}

// Const is an integer literal.
type Const struct {
	Value int32
}

// Name is an unresolved variable reference.
type Name struct {
	Name string
}

// Call applies an operation to its arguments. len(Args) equals Op.Arity().
type Call struct {
	Op   Op
	Args []Node
}

// RefKind classifies a resolved variable reference.
type RefKind int

const (
	// RefLocal reads a sibling output in the same tile.
	RefLocal RefKind = iota
	// RefExternal reads a staged output of a neighbouring tile.
	RefExternal
	// RefParam reads a parameter from the slot state.
	RefParam
)

func (k RefKind) String() string {
	switch k {
	case RefLocal:
		return "local"
	case RefExternal:
		return "external"
	case RefParam:
		return "param"
	default:
		panic("invalid ref kind")
	}
}

// Ref is a resolved variable reference. For RefLocal and RefParam, Index is
// the tile-local state index; for RefExternal it is the external ordinal.
type Ref struct {
	Kind  RefKind
	Name  string
	Index int
}

func (Const) isNode() {}
func (Name) isNode()  {}
func (Call) isNode()  {}
func (Ref) isNode()   {}

func (n Const) String() string {
	return strconv.Itoa(int(n.Value))
}

func (n Name) String() string {
	return n.Name
}

func (n Ref) String() string {
	return n.Name
}

func (n Call) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}

	return strings.ToLower(n.Op.Mnemonic()) + "(" + strings.Join(args, ", ") + ")"
}

// Names returns the distinct variable names referenced by n, in order of
// first appearance.
func Names(n Node) []string {
	var names []string
	seen := make(map[string]bool)

	Walk(n, func(n Node) {
		if v, ok := n.(Name); ok && !seen[v.Name] {
			seen[v.Name] = true
			names = append(names, v.Name)
		}
	})

	return names
}

// Walk visits n and its descendants in depth-first, left-to-right order.
func Walk(n Node, visit func(Node)) {
	visit(n)

	if c, ok := n.(Call); ok {
		for _, a := range c.Args {
			Walk(a, visit)
		}
	}
}
