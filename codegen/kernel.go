package codegen

import (
	"fmt"
	"strings"

	"github.com/sarchlab/tilebrain/expr"
	"github.com/sarchlab/tilebrain/topology"
)

// KernelGenerator emits a tile-device kernel. One work item runs the whole
// program for one (slot, tile) pair: it loads from the source buffer and
// stores the complete tile block, outputs and copied parameters, to the
// destination buffer.
//
// Instructions take the form
//
//	LOAD, $dst, @drow:dcol, index
//	CONST, $dst, #value
//	STORE, index, $src
//	<OP>, $dst, $a[, $b[, $c]]
type KernelGenerator struct{}

type loadKey struct {
	off   topology.Offset
	index int
}

type kernelWriter struct {
	m      *topology.Model
	body   []string
	regs   int
	loads  map[loadKey]int
	consts map[int32]int
}

// Generate emits the kernel for m.
func (g KernelGenerator) Generate(m *topology.Model) string {
	k := &kernelWriter{
		m:      m,
		loads:  make(map[loadKey]int),
		consts: make(map[int32]int),
	}

	outs := outputs(&m.Unit)
	results := make([]int, len(outs))
	for i, o := range outs {
		results[i] = k.emit(o.v.Expr)
	}

	for i, o := range outs {
		k.inst("STORE, %d, $%d", o.v.Index, results[i])
	}

	for _, p := range params(&m.Unit) {
		r := k.load(topology.Offset{}, p.Index)
		k.inst("STORE, %d, $%d", p.Index, r)
	}

	w := &writer{tab: "\t"}
	w.line("; Code generated by tilebrain. DO NOT EDIT.")
	w.line("; model %s", m.Hash)
	w.line(".grid %d %d", m.Width, m.Height)
	w.line(".tile %d", m.Unit.StateSize)
	w.line(".regs %d", k.regs)
	for _, l := range k.body {
		w.line("%s", l)
	}

	return w.String()
}

func (k *kernelWriter) inst(format string, args ...any) {
	k.body = append(k.body, fmt.Sprintf(format, args...))
}

func (k *kernelWriter) alloc() int {
	r := k.regs
	k.regs++
	return r
}

func (k *kernelWriter) load(off topology.Offset, index int) int {
	key := loadKey{off: off, index: index}
	if r, ok := k.loads[key]; ok {
		return r
	}

	r := k.alloc()
	k.loads[key] = r
	k.inst("LOAD, $%d, @%d:%d, %d", r, off.Row, off.Col, index)

	return r
}

func (k *kernelWriter) emit(n expr.Node) int {
	switch n := n.(type) {
	case expr.Const:
		if r, ok := k.consts[n.Value]; ok {
			return r
		}
		r := k.alloc()
		k.consts[n.Value] = r
		k.inst("CONST, $%d, #%d", r, n.Value)
		return r
	case expr.Ref:
		switch n.Kind {
		case expr.RefLocal, expr.RefParam:
			return k.load(topology.Offset{}, n.Index)
		case expr.RefExternal:
			x := k.m.Unit.Externals[n.Index]
			return k.load(x.Offset, x.Index)
		default:
			panic("invalid ref kind")
		}
	case expr.Call:
		srcs := make([]string, len(n.Args))
		for i, a := range n.Args {
			srcs[i] = fmt.Sprintf("$%d", k.emit(a))
		}
		r := k.alloc()
		k.inst("%s, $%d, %s", n.Op.Mnemonic(), r, strings.Join(srcs, ", "))
		return r
	default:
		panic(fmt.Sprintf("cannot render %T", n))
	}
}
