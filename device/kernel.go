package device

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/tilebrain/expr"
)

// ErrParse is wrapped by every kernel parse failure.
var ErrParse = errors.New("cannot parse kernel")

// Opcode is the class of a kernel instruction.
type Opcode int

const (
	OpLoad Opcode = iota
	OpConst
	OpStore
	OpALU
)

// Inst is a decoded kernel instruction.
type Inst struct {
	Opcode Opcode
	ALU    expr.Op

	Dst    int
	Src    [3]int
	NumSrc int

	Imm        int32
	DRow, DCol int
	Index      int
}

// Kernel is a decoded tile program. One work item runs every instruction
// for one (slot, tile) pair.
type Kernel struct {
	Width, Height int
	TileSize      int
	Regs          int
	Insts         []Inst
}

// Tiles returns the number of tiles per slot.
func (k *Kernel) Tiles() int {
	return k.Width * k.Height
}

// SlotSize returns the buffer length of one slot.
func (k *Kernel) SlotSize() int {
	return k.Tiles() * k.TileSize
}

// Parse decodes kernel text. Comments start with ';'.
func Parse(src string) (*Kernel, error) {
	k := &Kernel{}

	for n, line := range strings.Split(src, "\n") {
		if i := strings.IndexByte(line, ';'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var err error
		if strings.HasPrefix(line, ".") {
			err = k.directive(strings.Fields(line))
		} else {
			err = k.instruction(line)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrParse, n+1, err)
		}
	}

	if err := k.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	return k, nil
}

// MustParse is like Parse but panics on error.
func MustParse(src string) *Kernel {
	k, err := Parse(src)
	if err != nil {
		panic(err)
	}

	return k
}

func (k *Kernel) directive(fields []string) error {
	args := make([]int, len(fields)-1)
	for i, f := range fields[1:] {
		v, err := strconv.Atoi(f)
		if err != nil {
			return fmt.Errorf("directive %s: %w", fields[0], err)
		}
		args[i] = v
	}

	want := 1
	switch fields[0] {
	case ".grid":
		want = 2
	case ".tile", ".regs":
	default:
		return fmt.Errorf("unknown directive %s", fields[0])
	}
	if len(args) != want {
		return fmt.Errorf("directive %s takes %d arguments", fields[0], want)
	}

	switch fields[0] {
	case ".grid":
		k.Width, k.Height = args[0], args[1]
	case ".tile":
		k.TileSize = args[0]
	case ".regs":
		k.Regs = args[0]
	}

	return nil
}

func (k *Kernel) instruction(line string) error {
	tokens := strings.Split(line, ",")
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
	}

	var (
		inst Inst
		err  error
	)

	switch tokens[0] {
	case "LOAD":
		if len(tokens) != 4 {
			return fmt.Errorf("LOAD takes 3 operands")
		}
		inst.Opcode = OpLoad
		if inst.Dst, err = register(tokens[1]); err != nil {
			return err
		}
		if inst.DRow, inst.DCol, err = offset(tokens[2]); err != nil {
			return err
		}
		if inst.Index, err = strconv.Atoi(tokens[3]); err != nil {
			return fmt.Errorf("invalid index %q", tokens[3])
		}
	case "CONST":
		if len(tokens) != 3 {
			return fmt.Errorf("CONST takes 2 operands")
		}
		inst.Opcode = OpConst
		if inst.Dst, err = register(tokens[1]); err != nil {
			return err
		}
		if inst.Imm, err = immediate(tokens[2]); err != nil {
			return err
		}
	case "STORE":
		if len(tokens) != 3 {
			return fmt.Errorf("STORE takes 2 operands")
		}
		inst.Opcode = OpStore
		if inst.Index, err = strconv.Atoi(tokens[1]); err != nil {
			return fmt.Errorf("invalid index %q", tokens[1])
		}
		if inst.Src[0], err = register(tokens[2]); err != nil {
			return err
		}
		inst.NumSrc = 1
	default:
		op, ok := expr.OpByMnemonic(tokens[0])
		if !ok {
			return fmt.Errorf("unknown instruction %q", tokens[0])
		}
		if len(tokens) != op.Arity()+2 {
			return fmt.Errorf("%s takes %d operands", tokens[0], op.Arity()+1)
		}
		inst.Opcode = OpALU
		inst.ALU = op
		if inst.Dst, err = register(tokens[1]); err != nil {
			return err
		}
		for i, t := range tokens[2:] {
			if inst.Src[i], err = register(t); err != nil {
				return err
			}
		}
		inst.NumSrc = op.Arity()
	}

	k.Insts = append(k.Insts, inst)

	return nil
}

func (k *Kernel) validate() error {
	if k.Width <= 0 || k.Height <= 0 {
		return fmt.Errorf("missing or invalid .grid")
	}
	if k.TileSize < 0 || k.Regs < 0 {
		return fmt.Errorf("negative .tile or .regs")
	}

	for i, inst := range k.Insts {
		if inst.Opcode != OpStore && inst.Dst >= k.Regs {
			return fmt.Errorf("instruction %d writes $%d beyond .regs %d", i, inst.Dst, k.Regs)
		}
		for _, s := range inst.Src[:inst.NumSrc] {
			if s >= k.Regs {
				return fmt.Errorf("instruction %d reads $%d beyond .regs %d", i, s, k.Regs)
			}
		}
		if (inst.Opcode == OpLoad || inst.Opcode == OpStore) &&
			(inst.Index < 0 || inst.Index >= k.TileSize) {
			return fmt.Errorf("instruction %d addresses %d beyond .tile %d", i, inst.Index, k.TileSize)
		}
	}

	return nil
}

func register(s string) (int, error) {
	if !strings.HasPrefix(s, "$") {
		return 0, fmt.Errorf("expected register, got %q", s)
	}

	r, err := strconv.Atoi(s[1:])
	if err != nil || r < 0 {
		return 0, fmt.Errorf("invalid register %q", s)
	}

	return r, nil
}

func immediate(s string) (int32, error) {
	if !strings.HasPrefix(s, "#") {
		return 0, fmt.Errorf("expected immediate, got %q", s)
	}

	v, err := strconv.ParseInt(s[1:], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid immediate %q", s)
	}

	return int32(v), nil
}

func offset(s string) (row, col int, err error) {
	parts := strings.Split(strings.TrimPrefix(s, "@"), ":")
	if !strings.HasPrefix(s, "@") || len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected tile offset, got %q", s)
	}

	if row, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, fmt.Errorf("invalid tile offset %q", s)
	}
	if col, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, fmt.Errorf("invalid tile offset %q", s)
	}

	return row, col, nil
}

// String disassembles the kernel.
func (k *Kernel) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, ".grid %d %d\n", k.Width, k.Height)
	fmt.Fprintf(&sb, ".tile %d\n", k.TileSize)
	fmt.Fprintf(&sb, ".regs %d\n", k.Regs)

	for _, inst := range k.Insts {
		sb.WriteString(inst.String())
		sb.WriteByte('\n')
	}

	return sb.String()
}

func (inst Inst) String() string {
	switch inst.Opcode {
	case OpLoad:
		return fmt.Sprintf("LOAD, $%d, @%d:%d, %d", inst.Dst, inst.DRow, inst.DCol, inst.Index)
	case OpConst:
		return fmt.Sprintf("CONST, $%d, #%d", inst.Dst, inst.Imm)
	case OpStore:
		return fmt.Sprintf("STORE, %d, $%d", inst.Index, inst.Src[0])
	case OpALU:
		s := fmt.Sprintf("%s, $%d", inst.ALU.Mnemonic(), inst.Dst)
		for _, r := range inst.Src[:inst.NumSrc] {
			s += fmt.Sprintf(", $%d", r)
		}
		return s
	default:
		panic("invalid opcode")
	}
}
