// Package simulator runs batches of independent automaton instances, called
// slots, in lockstep.
//
// Each slot owns an input vector, a state vector and an output vector. An
// update injects inputs into state through the slot's input map, advances the
// state by the model's iterations per update, and extracts outputs through the
// output map. Map entries are slot-level state indices; a negative entry is
// unconnected.
package simulator

import "errors"

// ErrFailed is returned by Update once a backend has failed.
var ErrFailed = errors.New("simulator failed")

// Simulator is implemented by every backend and by Composite.
type Simulator interface {
	Slots() int
	StateSize() int
	InputSize() int
	OutputSize() int

	State(slot int, buf []int32)
	SetState(slot int, buf []int32)
	SetInput(slot int, buf []int32)
	Output(slot int, buf []int32)
	SetInputMap(slot int, m []int)
	SetOutputMap(slot int, m []int)

	// Update advances every slot. Either all slots advance or none do.
	Update() error
	Close() error
}
