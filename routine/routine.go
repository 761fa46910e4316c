// Package routine compiles and runs generated host routines.
package routine

import (
	"errors"
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// ErrCompile is wrapped by every compilation failure.
var ErrCompile = errors.New("cannot compile host routine")

// Routine is a compiled host routine. It is immutable and may be shared by
// any number of workers.
type Routine struct {
	name      string
	update    *starlark.Function
	stateSize int
	stageSize int
}

// Compile executes a generated module and extracts its update function.
func Compile(name, src string) (*Routine, error) {
	thread := &starlark.Thread{Name: name + ":compile"}

	globals, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, name, src, Builtins())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}
	globals.Freeze()

	fn, ok := globals["update"].(*starlark.Function)
	if !ok {
		return nil, fmt.Errorf("%w: %s defines no update function", ErrCompile, name)
	}
	if fn.NumParams() != 3 {
		return nil, fmt.Errorf("%w: update takes %d parameters, want 3", ErrCompile, fn.NumParams())
	}

	r := &Routine{name: name, update: fn}

	if r.stateSize, err = intGlobal(globals, "SLOT_STATE"); err != nil {
		return nil, err
	}
	if r.stateSize == 0 {
		return nil, fmt.Errorf("%w: SLOT_STATE is zero", ErrCompile)
	}
	if r.stageSize, err = intGlobal(globals, "STAGE"); err != nil {
		return nil, err
	}

	return r, nil
}

func intGlobal(globals starlark.StringDict, name string) (int, error) {
	v, ok := globals[name]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrCompile, name)
	}

	i, err := starlark.AsInt32(v)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("%w: %s is not a size", ErrCompile, name)
	}

	return i, nil
}

// Name returns the module name the routine was compiled from.
func (r *Routine) Name() string {
	return r.name
}

// StateSize returns the slot state length the routine expects.
func (r *Routine) StateSize() int {
	return r.stateSize
}

// NewWorker creates an execution context for one goroutine.
func (r *Routine) NewWorker(name string) *Worker {
	w := &Worker{
		routine: r,
		thread:  &starlark.Thread{Name: name},
		state:   NewBuffer("state", nil),
		stage:   NewBuffer("stage", make([]int32, r.stageSize)),
	}
	w.args = starlark.Tuple{w.state, w.stage, starlark.None}

	return w
}

// Run advances the slots in state in place.
func (r *Routine) Run(state []int32, iterations int) error {
	return r.NewWorker(r.name).Run(state, iterations)
}

// Worker runs a routine over a range of slots. It is not safe for concurrent
// use.
type Worker struct {
	routine *Routine
	thread  *starlark.Thread
	state   *Buffer
	stage   *Buffer
	args    starlark.Tuple
}

// Run advances every slot in state by the given number of iterations in one
// call into the routine. state holds consecutive slots of StateSize words. It
// is modified in place and may be partially updated when an error is
// returned.
func (w *Worker) Run(state []int32, iterations int) error {
	if n := w.routine.stateSize; len(state)%n != 0 {
		panic(fmt.Sprintf("state has length %d, want a multiple of %d", len(state), n))
	}

	w.state.Reset(state)
	w.args[2] = starlark.MakeInt(iterations)

	_, err := starlark.Call(w.thread, w.routine.update, w.args, nil)
	w.state.Reset(nil)

	return err
}
