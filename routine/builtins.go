package routine

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/sarchlab/tilebrain/codegen"
	"github.com/sarchlab/tilebrain/expr"
)

// Builtins returns the predeclared operations a host routine may call. Each
// one evaluates through expr.Apply.
func Builtins() starlark.StringDict {
	d := make(starlark.StringDict)
	for _, op := range expr.Ops() {
		d[codegen.BuiltinName(op)] = builtin(op)
	}

	return d
}

func builtin(op expr.Op) *starlark.Builtin {
	arity := op.Arity()

	return starlark.NewBuiltin(codegen.BuiltinName(op), func(
		_ *starlark.Thread,
		fn *starlark.Builtin,
		args starlark.Tuple,
		kwargs []starlark.Tuple,
	) (starlark.Value, error) {
		if len(kwargs) != 0 {
			return nil, fmt.Errorf("%s: unexpected keyword arguments", fn.Name())
		}
		if len(args) != arity {
			return nil, fmt.Errorf("%s: got %d arguments, want %d", fn.Name(), len(args), arity)
		}

		var v [3]int32
		for i, a := range args {
			x, err := starlark.AsInt32(a)
			if err != nil {
				return nil, fmt.Errorf("%s: argument %d: %w", fn.Name(), i+1, err)
			}
			v[i] = int32(x)
		}

		return starlark.MakeInt(int(expr.Apply(op, v[0], v[1], v[2]))), nil
	})
}
