package expr

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

var (
	// ErrSyntax is returned for text that is not a valid expression.
	ErrSyntax = errors.New("expression syntax error")
	// ErrUnsupported is returned for valid HCL that the integer language does
	// not cover, such as strings, traversals or unknown functions.
	ErrUnsupported = errors.New("unsupported expression")
)

var binaryOps = map[*hclsyntax.Operation]Op{
	hclsyntax.OpAdd:                OpAdd,
	hclsyntax.OpSubtract:           OpSub,
	hclsyntax.OpMultiply:           OpMul,
	hclsyntax.OpDivide:             OpDiv,
	hclsyntax.OpModulo:             OpMod,
	hclsyntax.OpEqual:              OpEq,
	hclsyntax.OpNotEqual:           OpNe,
	hclsyntax.OpLessThan:           OpLt,
	hclsyntax.OpLessThanOrEqual:    OpLe,
	hclsyntax.OpGreaterThan:        OpGt,
	hclsyntax.OpGreaterThanOrEqual: OpGe,
	hclsyntax.OpLogicalAnd:         OpAnd,
	hclsyntax.OpLogicalOr:          OpOr,
}

// Parse parses src into an expression tree.
func Parse(src string) (Node, error) {
	e, diags := hclsyntax.ParseExpression([]byte(src), "expr", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrSyntax, diags.Error())
	}

	return lower(e)
}

// MustParse is like Parse but panics on error.
func MustParse(src string) Node {
	n, err := Parse(src)
	if err != nil {
		panic(err)
	}

	return n
}

func lower(e hclsyntax.Expression) (Node, error) {
	switch e := e.(type) {
	case *hclsyntax.LiteralValueExpr:
		return lowerLiteral(e.Val)
	case *hclsyntax.ScopeTraversalExpr:
		if len(e.Traversal) != 1 {
			return nil, fmt.Errorf("%w: attribute or index access on %q",
				ErrUnsupported, e.Traversal.RootName())
		}
		return Name{Name: e.Traversal.RootName()}, nil
	case *hclsyntax.ParenthesesExpr:
		return lower(e.Expression)
	case *hclsyntax.UnaryOpExpr:
		return lowerUnary(e)
	case *hclsyntax.BinaryOpExpr:
		op, ok := binaryOps[e.Op]
		if !ok {
			return nil, fmt.Errorf("%w: binary operator", ErrUnsupported)
		}
		return lowerCall(op, e.LHS, e.RHS)
	case *hclsyntax.ConditionalExpr:
		return lowerCall(OpSel, e.Condition, e.TrueResult, e.FalseResult)
	case *hclsyntax.FunctionCallExpr:
		return lowerFunction(e)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, e)
	}
}

func lowerLiteral(v cty.Value) (Node, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, fmt.Errorf("%w: null literal", ErrUnsupported)
	}

	switch v.Type() {
	case cty.Bool:
		if v.True() {
			return Const{Value: 1}, nil
		}
		return Const{Value: 0}, nil
	case cty.Number:
		bf := v.AsBigFloat()
		if !bf.IsInt() {
			return nil, fmt.Errorf("%w: non-integer literal %s", ErrUnsupported, bf.String())
		}
		i, acc := bf.Int64()
		if acc != big.Exact || i < 0 || i > math.MaxInt32 {
			return nil, fmt.Errorf("%w: literal %s out of range", ErrUnsupported, bf.String())
		}
		return Const{Value: int32(i)}, nil
	default:
		return nil, fmt.Errorf("%w: %s literal", ErrUnsupported, v.Type().FriendlyName())
	}
}

func lowerUnary(e *hclsyntax.UnaryOpExpr) (Node, error) {
	switch e.Op {
	case hclsyntax.OpNegate:
		if lit, ok := e.Val.(*hclsyntax.LiteralValueExpr); ok && lit.Val.Type() == cty.Number {
			if bf := lit.Val.AsBigFloat(); bf.IsInt() && bf.Cmp(big.NewFloat(1<<31)) == 0 {
				return Const{Value: math.MinInt32}, nil
			}
		}
		return lowerCall(OpNeg, e.Val)
	case hclsyntax.OpLogicalNot:
		return lowerCall(OpNot, e.Val)
	default:
		return nil, fmt.Errorf("%w: unary operator", ErrUnsupported)
	}
}

func lowerFunction(e *hclsyntax.FunctionCallExpr) (Node, error) {
	if e.ExpandFinal {
		return nil, fmt.Errorf("%w: argument expansion in %s()", ErrUnsupported, e.Name)
	}

	args := make([]Node, len(e.Args))
	for i, a := range e.Args {
		n, err := lower(a)
		if err != nil {
			return nil, err
		}
		args[i] = n
	}

	switch e.Name {
	case "min", "max":
		if len(args) < 2 {
			return nil, fmt.Errorf("%w: %s() needs at least two arguments", ErrSyntax, e.Name)
		}
		op := OpMin
		if e.Name == "max" {
			op = OpMax
		}
		acc := args[0]
		for _, a := range args[1:] {
			acc = Call{Op: op, Args: []Node{acc, a}}
		}
		return acc, nil
	case "abs":
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: abs() takes one argument", ErrSyntax)
		}
		return Call{Op: OpAbs, Args: args}, nil
	case "clamp":
		if len(args) != 3 {
			return nil, fmt.Errorf("%w: clamp() takes three arguments", ErrSyntax)
		}
		lo := Call{Op: OpMax, Args: []Node{args[0], args[1]}}
		return Call{Op: OpMin, Args: []Node{lo, args[2]}}, nil
	default:
		return nil, fmt.Errorf("%w: function %s()", ErrUnsupported, e.Name)
	}
}

func lowerCall(op Op, operands ...hclsyntax.Expression) (Node, error) {
	args := make([]Node, len(operands))
	for i, o := range operands {
		n, err := lower(o)
		if err != nil {
			return nil, err
		}
		args[i] = n
	}

	return Call{Op: op, Args: args}, nil
}
