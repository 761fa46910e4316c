package codegen

import (
	"fmt"
	"strings"

	"github.com/sarchlab/tilebrain/expr"
	"github.com/sarchlab/tilebrain/topology"
)

// BuiltinName returns the name under which the host routine calls an
// operation.
func BuiltinName(op expr.Op) string {
	return "op_" + strings.ToLower(op.Mnemonic())
}

// HostGenerator emits a Starlark module defining
//
//	update(state, stage, iterations)
//
// which advances every slot in state by the given number of iterations in
// place. state holds one or more consecutive slots. The module also defines
// SLOT_STATE and STAGE, the lengths of one slot and of the staging buffer.
//
// Arithmetic, comparisons and selection are written inline as three-address
// statements on local temporaries; only DIV, MOD, MIN, MAX and ABS call the
// op_ builtins.
type HostGenerator struct{}

// Generate emits the host routine for m.
func (g HostGenerator) Generate(m *topology.Model) string {
	u := &m.Unit
	w := &writer{tab: "    "}
	outs := outputs(u)
	refs := reads(outs)

	w.line("# Code generated by tilebrain. DO NOT EDIT.")
	w.line("# model %s", m.Hash)
	w.line("")
	w.line("WIDTH = %d", m.Width)
	w.line("HEIGHT = %d", m.Height)
	w.line("TILES = %d", m.Tiles)
	w.line("TILE_STATE = %d", u.StateSize)
	w.line("EXPORTS = %d", len(u.Exports))
	w.line("SLOT_STATE = %d", m.StateSize)
	w.line("STAGE = %d", m.Tiles*len(u.Exports))
	w.line("")
	w.line("def update(state, stage, iterations):")
	w.in()
	w.line("for o in range(0, len(state), SLOT_STATE):")
	w.in()
	w.line("for _ in range(iterations):")
	w.in()

	if len(u.Exports) > 0 {
		w.line("for t in range(TILES):")
		w.in()
		w.line("b = o + t * TILE_STATE")
		w.line("x = t * EXPORTS")
		for i, e := range u.Exports {
			w.line("stage[x %s] = state[b %s]", signed(i), signed(e.Index))
		}
		w.out()
	}

	w.line("for t in range(TILES):")
	w.in()
	w.line("b = o + t * TILE_STATE")
	if len(u.Externals) > 0 {
		w.line("r = t // WIDTH")
		w.line("c = t %% WIDTH")
	}

	for _, r := range refs {
		switch r.Kind {
		case expr.RefLocal:
			w.line("%s = state[b %s]", r.Name, signed(r.Index))
		case expr.RefExternal:
			x := u.Externals[r.Index]
			w.line("%s = stage[((r %s) %% HEIGHT * WIDTH + (c %s) %% WIDTH) * EXPORTS %s]",
				r.Name, signed(x.Offset.Row), signed(x.Offset.Col), signed(x.Export))
		case expr.RefParam:
		}
	}

	body := &hostBody{w: w}
	for _, o := range outs {
		body.assign(fmt.Sprintf("n%d", o.v.Index), o.v.Expr)
	}
	for _, o := range outs {
		w.line("state[b %s] = n%d", signed(o.v.Index), o.v.Index)
	}

	return w.String()
}

var infix = map[expr.Op]string{
	expr.OpAdd: "+",
	expr.OpSub: "-",
	expr.OpMul: "*",
	expr.OpEq:  "==",
	expr.OpNe:  "!=",
	expr.OpLt:  "<",
	expr.OpLe:  "<=",
	expr.OpGt:  ">",
	expr.OpGe:  ">=",
}

// hostBody lowers expression trees into statements on temporaries v0, v1...
type hostBody struct {
	w     *writer
	temps int
}

func (h *hostBody) assign(dst string, n expr.Node) {
	call, ok := n.(expr.Call)
	if !ok {
		h.w.line("%s = %s", dst, operand(n))
		return
	}

	args := make([]string, len(call.Args))
	for i, a := range call.Args {
		args[i] = h.value(a)
	}

	h.call(dst, call.Op, args)
}

func (h *hostBody) value(n expr.Node) string {
	if _, ok := n.(expr.Call); !ok {
		return operand(n)
	}

	dst := fmt.Sprintf("v%d", h.temps)
	h.temps++
	h.assign(dst, n)

	return dst
}

func (h *hostBody) call(dst string, op expr.Op, a []string) {
	w := h.w

	switch op {
	case expr.OpAdd, expr.OpSub, expr.OpMul:
		w.line("%s = %s %s %s", dst, a[0], infix[op], a[1])
		h.wrap(dst)
	case expr.OpNeg:
		w.line("%s = -%s", dst, a[0])
		h.wrap(dst)
	case expr.OpEq, expr.OpNe, expr.OpLt, expr.OpLe, expr.OpGt, expr.OpGe:
		w.line("%s = 1 if %s %s %s else 0", dst, a[0], infix[op], a[1])
	case expr.OpAnd:
		w.line("%s = 1 if %s != 0 and %s != 0 else 0", dst, a[0], a[1])
	case expr.OpOr:
		w.line("%s = 1 if %s != 0 or %s != 0 else 0", dst, a[0], a[1])
	case expr.OpNot:
		w.line("%s = 1 if %s == 0 else 0", dst, a[0])
	case expr.OpSel:
		w.line("%s = %s if %s != 0 else %s", dst, a[1], a[0], a[2])
	default:
		w.line("%s = %s(%s)", dst, BuiltinName(op), strings.Join(a, ", "))
	}
}

// wrap folds an out-of-range result back into int32.
func (h *hostBody) wrap(v string) {
	h.w.line("if %s < -2147483648 or %s > 2147483647:", v, v)
	h.w.in()
	h.w.line("%s = (%s + 2147483648) %% 4294967296 - 2147483648", v, v)
	h.w.out()
}

func operand(n expr.Node) string {
	switch n := n.(type) {
	case expr.Const:
		if n.Value < 0 {
			return fmt.Sprintf("(%d)", n.Value)
		}
		return fmt.Sprintf("%d", n.Value)
	case expr.Ref:
		switch n.Kind {
		case expr.RefLocal, expr.RefExternal:
			return n.Name
		case expr.RefParam:
			return fmt.Sprintf("state[b %s]", signed(n.Index))
		default:
			panic("invalid ref kind")
		}
	default:
		panic(fmt.Sprintf("cannot render %T", n))
	}
}
