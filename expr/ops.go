package expr

import "fmt"

// Op is an integer operation of the expression language. Every backend
// evaluates an Op through Apply.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpNot
	OpSel
	OpMin
	OpMax
	OpAbs
	numOps
)

type opInfo struct {
	mnemonic string
	arity    int
	behavior func(a, b, c int32) int32
}

var opTable = [numOps]opInfo{
	OpAdd: {"ADD", 2, instADD},
	OpSub: {"SUB", 2, instSUB},
	OpMul: {"MUL", 2, instMUL},
	OpDiv: {"DIV", 2, instDIV},
	OpMod: {"MOD", 2, instMOD},
	OpNeg: {"NEG", 1, instNEG},
	OpEq:  {"EQ", 2, instEQ},
	OpNe:  {"NE", 2, instNE},
	OpLt:  {"LT", 2, instLT},
	OpLe:  {"LE", 2, instLE},
	OpGt:  {"GT", 2, instGT},
	OpGe:  {"GE", 2, instGE},
	OpAnd: {"AND", 2, instAND},
	OpOr:  {"OR", 2, instOR},
	OpNot: {"NOT", 1, instNOT},
	OpSel: {"SEL", 3, instSEL},
	OpMin: {"MIN", 2, instMIN},
	OpMax: {"MAX", 2, instMAX},
	OpAbs: {"ABS", 1, instABS},
}

var mnemonics = func() map[string]Op {
	m := make(map[string]Op, numOps)
	for op := Op(0); op < numOps; op++ {
		m[opTable[op].mnemonic] = op
	}
	return m
}()

// Ops returns every operation in declaration order.
func Ops() []Op {
	ops := make([]Op, numOps)
	for i := range ops {
		ops[i] = Op(i)
	}

	return ops
}

// Mnemonic returns the upper-case instruction name of the operation.
func (o Op) Mnemonic() string {
	o.mustBeValid()
	return opTable[o].mnemonic
}

// Arity returns the number of operands the operation consumes.
func (o Op) Arity() int {
	o.mustBeValid()
	return opTable[o].arity
}

func (o Op) String() string {
	if o < 0 || o >= numOps {
		return fmt.Sprintf("Op(%d)", int(o))
	}

	return opTable[o].mnemonic
}

func (o Op) mustBeValid() {
	if o < 0 || o >= numOps {
		panic(fmt.Sprintf("invalid op %d", int(o)))
	}
}

// OpByMnemonic looks up an operation by its instruction name.
func OpByMnemonic(name string) (Op, bool) {
	op, ok := mnemonics[name]
	return op, ok
}

// Apply evaluates the operation. Operands beyond the arity are ignored.
func Apply(o Op, a, b, c int32) int32 {
	o.mustBeValid()
	return opTable[o].behavior(a, b, c)
}

func boolToInt(v bool) int32 {
	if v {
		return 1
	}
	return 0
}

func instADD(a, b, _ int32) int32 {
	return a + b
}

func instSUB(a, b, _ int32) int32 {
	return a - b
}

func instMUL(a, b, _ int32) int32 {
	return a * b
}

// Division by zero yields zero. MinInt32 / -1 wraps to MinInt32.
func instDIV(a, b, _ int32) int32 {
	if b == 0 {
		return 0
	}
	return a / b
}

func instMOD(a, b, _ int32) int32 {
	if b == 0 {
		return 0
	}
	return a % b
}

func instNEG(a, _, _ int32) int32 {
	return -a
}

func instEQ(a, b, _ int32) int32 {
	return boolToInt(a == b)
}

func instNE(a, b, _ int32) int32 {
	return boolToInt(a != b)
}

func instLT(a, b, _ int32) int32 {
	return boolToInt(a < b)
}

func instLE(a, b, _ int32) int32 {
	return boolToInt(a <= b)
}

func instGT(a, b, _ int32) int32 {
	return boolToInt(a > b)
}

func instGE(a, b, _ int32) int32 {
	return boolToInt(a >= b)
}

func instAND(a, b, _ int32) int32 {
	return boolToInt(a != 0 && b != 0)
}

func instOR(a, b, _ int32) int32 {
	return boolToInt(a != 0 || b != 0)
}

func instNOT(a, _, _ int32) int32 {
	return boolToInt(a == 0)
}

func instSEL(cond, a, b int32) int32 {
	if cond != 0 {
		return a
	}
	return b
}

func instMIN(a, b, _ int32) int32 {
	if a < b {
		return a
	}
	return b
}

func instMAX(a, b, _ int32) int32 {
	if a > b {
		return a
	}
	return b
}

func instABS(a, _, _ int32) int32 {
	if a < 0 {
		return -a
	}
	return a
}
