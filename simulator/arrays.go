package simulator

import (
	"fmt"
)

// backend advances a copy of the whole state by the configured iterations.
type backend interface {
	advance(shadow []int32) error
}

// arrays holds the host-side buffers shared by both backends.
type arrays struct {
	name       string
	slots      int
	stateSize  int
	inputSize  int
	outputSize int

	input     []int32
	state     []int32
	shadow    []int32
	output    []int32
	inputMap  []int
	outputMap []int

	failed bool
	closed bool
}

func newArrays(name string, slots, stateSize, inputSize, outputSize int) arrays {
	if slots < 1 {
		panic("need at least one slot")
	}

	a := arrays{
		name:       name,
		slots:      slots,
		stateSize:  stateSize,
		inputSize:  inputSize,
		outputSize: outputSize,
		input:      make([]int32, slots*inputSize),
		state:      make([]int32, slots*stateSize),
		shadow:     make([]int32, slots*stateSize),
		output:     make([]int32, slots*outputSize),
		inputMap:   make([]int, slots*inputSize),
		outputMap:  make([]int, slots*outputSize),
	}

	for i := range a.inputMap {
		a.inputMap[i] = -1
	}
	for i := range a.outputMap {
		a.outputMap[i] = -1
	}

	return a
}

func (a *arrays) Slots() int      { return a.slots }
func (a *arrays) StateSize() int  { return a.stateSize }
func (a *arrays) InputSize() int  { return a.inputSize }
func (a *arrays) OutputSize() int { return a.outputSize }

// Failed reports whether a previous update failed.
func (a *arrays) Failed() bool {
	return a.failed
}

func (a *arrays) State(slot int, buf []int32) {
	copy(buf, a.slice(a.state, slot, a.stateSize, buf))
}

func (a *arrays) SetState(slot int, buf []int32) {
	copy(a.slice(a.state, slot, a.stateSize, buf), buf)
}

func (a *arrays) SetInput(slot int, buf []int32) {
	copy(a.slice(a.input, slot, a.inputSize, buf), buf)
}

func (a *arrays) Output(slot int, buf []int32) {
	copy(buf, a.slice(a.output, slot, a.outputSize, buf))
}

func (a *arrays) SetInputMap(slot int, m []int) {
	a.setMap(a.inputMap, slot, a.inputSize, m)
}

func (a *arrays) SetOutputMap(slot int, m []int) {
	a.setMap(a.outputMap, slot, a.outputSize, m)
}

func (a *arrays) setMap(maps []int, slot, size int, m []int) {
	a.mustBeUsable(slot)
	if len(m) != size {
		panic(fmt.Sprintf("%s: map has length %d, want %d", a.name, len(m), size))
	}

	for _, idx := range m {
		if idx >= a.stateSize {
			panic(fmt.Sprintf("%s: map entry %d beyond state size %d", a.name, idx, a.stateSize))
		}
	}

	copy(maps[slot*size:(slot+1)*size], m)
}

func (a *arrays) slice(data []int32, slot, size int, buf []int32) []int32 {
	a.mustBeUsable(slot)
	if len(buf) != size {
		panic(fmt.Sprintf("%s: buffer has length %d, want %d", a.name, len(buf), size))
	}

	return data[slot*size : (slot+1)*size]
}

func (a *arrays) mustBeUsable(slot int) {
	if a.closed {
		panic(fmt.Sprintf("%s: use after close", a.name))
	}
	if slot < 0 || slot >= a.slots {
		panic(fmt.Sprintf("%s: slot %d out of range [0, %d)", a.name, slot, a.slots))
	}
}

// update runs one all-or-nothing update through b.
func (a *arrays) update(b backend) error {
	if a.closed {
		panic(fmt.Sprintf("%s: use after close", a.name))
	}
	if a.failed {
		return ErrFailed
	}

	copy(a.shadow, a.state)
	a.inject()

	if err := b.advance(a.shadow); err != nil {
		a.failed = true
		return fmt.Errorf("%w: %s: %w", ErrFailed, a.name, err)
	}

	a.state, a.shadow = a.shadow, a.state
	a.extract()

	return nil
}

func (a *arrays) inject() {
	for slot := 0; slot < a.slots; slot++ {
		state := a.shadow[slot*a.stateSize : (slot+1)*a.stateSize]
		for k := 0; k < a.inputSize; k++ {
			i := slot*a.inputSize + k
			if idx := a.inputMap[i]; idx >= 0 {
				state[idx] = a.input[i]
			}
		}
	}
}

func (a *arrays) extract() {
	for slot := 0; slot < a.slots; slot++ {
		state := a.state[slot*a.stateSize : (slot+1)*a.stateSize]
		for k := 0; k < a.outputSize; k++ {
			i := slot*a.outputSize + k
			if idx := a.outputMap[i]; idx >= 0 {
				a.output[i] = state[idx]
			} else {
				a.output[i] = 0
			}
		}
	}
}

func (a *arrays) close() {
	if a.closed {
		panic(fmt.Sprintf("%s: closed twice", a.name))
	}

	a.closed = true
}
