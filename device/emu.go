package device

import "github.com/sarchlab/tilebrain/expr"

// workItemEmulator runs one work item at a time on a shared register file.
type workItemEmulator struct {
	regs []int32
}

func (e *workItemEmulator) reserve(n int) {
	if n > len(e.regs) {
		e.regs = make([]int32, n)
	}
}

// run executes work item wi, which covers tile wi%tiles of slot wi/tiles.
func (e *workItemEmulator) run(k *Kernel, src, dst []int32, wi int) {
	tiles := k.Tiles()
	slot, tile := wi/tiles, wi%tiles
	base := slot * tiles * k.TileSize
	row, col := tile/k.Width, tile%k.Width
	regs := e.regs

	for i := range k.Insts {
		inst := &k.Insts[i]

		switch inst.Opcode {
		case OpLoad:
			r := wrap(row+inst.DRow, k.Height)
			c := wrap(col+inst.DCol, k.Width)
			regs[inst.Dst] = src[base+(r*k.Width+c)*k.TileSize+inst.Index]
		case OpConst:
			regs[inst.Dst] = inst.Imm
		case OpStore:
			dst[base+tile*k.TileSize+inst.Index] = regs[inst.Src[0]]
		case OpALU:
			regs[inst.Dst] = expr.Apply(inst.ALU,
				regs[inst.Src[0]], regs[inst.Src[1]], regs[inst.Src[2]])
		default:
			panic("invalid opcode")
		}
	}
}

func wrap(x, n int) int {
	return ((x % n) + n) % n
}
