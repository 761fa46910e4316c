// Package alloc hands out slot indices from a fixed range.
package alloc

import (
	"errors"
	"fmt"
)

var (
	ErrExhausted    = errors.New("no free slot")
	ErrNotAllocated = errors.New("slot is not allocated")
	ErrOutOfRange   = errors.New("slot out of range")
)

// Allocator partitions [0, Capacity) into free and allocated slots. Freed
// slots are reused last-in first-out. It is not safe for concurrent use.
type Allocator struct {
	free      []int
	allocated []bool
}

// New creates an allocator whose first allocations return 0, 1, 2, ...
func New(capacity int) *Allocator {
	if capacity < 0 {
		panic("negative capacity")
	}

	a := &Allocator{
		free:      make([]int, capacity),
		allocated: make([]bool, capacity),
	}
	for i := range a.free {
		a.free[i] = capacity - 1 - i
	}

	return a
}

// Allocate takes a free slot.
func (a *Allocator) Allocate() (int, error) {
	n := len(a.free)
	if n == 0 {
		return 0, ErrExhausted
	}

	slot := a.free[n-1]
	a.free = a.free[:n-1]
	a.allocated[slot] = true

	return slot, nil
}

// Deallocate returns a slot to the free set. Freeing a slot twice or freeing
// an index outside the range fails and changes nothing.
func (a *Allocator) Deallocate(slot int) error {
	if slot < 0 || slot >= len(a.allocated) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, slot, len(a.allocated))
	}
	if !a.allocated[slot] {
		return fmt.Errorf("%w: %d", ErrNotAllocated, slot)
	}

	a.allocated[slot] = false
	a.free = append(a.free, slot)

	return nil
}

// Available returns the number of free slots.
func (a *Allocator) Available() int {
	return len(a.free)
}

// Capacity returns the size of the range.
func (a *Allocator) Capacity() int {
	return len(a.allocated)
}

// IsAllocated reports whether slot is currently allocated.
func (a *Allocator) IsAllocated(slot int) bool {
	return slot >= 0 && slot < len(a.allocated) && a.allocated[slot]
}
