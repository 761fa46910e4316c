package simulator

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/tilebrain/alloc"
)

// ErrMismatch is returned when composite components disagree on vector sizes.
var ErrMismatch = errors.New("component sizes differ")

// MappedSlot locates a global slot inside a component.
type MappedSlot struct {
	Component int
	Local     int
}

// Composite presents several simulators as one, with a single slot range and
// a round-robin allocator that spreads instances across components.
type Composite struct {
	components []Simulator
	allocators []*alloc.Allocator
	offsets    []int
	cursor     int
	slots      int
}

// NewComposite combines components. Global slots are numbered component by
// component.
func NewComposite(components ...Simulator) (*Composite, error) {
	if len(components) == 0 {
		return nil, fmt.Errorf("composite needs at least one component")
	}

	c := &Composite{components: components}
	first := components[0]

	for i, s := range components {
		if s.StateSize() != first.StateSize() ||
			s.InputSize() != first.InputSize() ||
			s.OutputSize() != first.OutputSize() {
			return nil, fmt.Errorf("%w: component %d", ErrMismatch, i)
		}

		c.offsets = append(c.offsets, c.slots)
		c.allocators = append(c.allocators, alloc.New(s.Slots()))
		c.slots += s.Slots()
	}

	return c, nil
}

// Components returns the combined simulators.
func (c *Composite) Components() []Simulator {
	return c.components
}

// Allocate takes a free slot from the next component in turn that has one.
func (c *Composite) Allocate() (int, error) {
	n := len(c.components)

	for i := 0; i < n; i++ {
		k := (c.cursor + i) % n
		local, err := c.allocators[k].Allocate()
		if errors.Is(err, alloc.ErrExhausted) {
			continue
		}
		if err != nil {
			return 0, err
		}

		c.cursor = (k + 1) % n
		return c.offsets[k] + local, nil
	}

	return 0, alloc.ErrExhausted
}

// Deallocate frees a global slot.
func (c *Composite) Deallocate(slot int) error {
	if slot < 0 || slot >= c.slots {
		return fmt.Errorf("%w: %d not in [0, %d)", alloc.ErrOutOfRange, slot, c.slots)
	}

	m := c.Map(slot)

	return c.allocators[m.Component].Deallocate(m.Local)
}

// Available returns the number of free slots across all components.
func (c *Composite) Available() int {
	n := 0
	for _, a := range c.allocators {
		n += a.Available()
	}

	return n
}

// Capacity returns the total number of slots.
func (c *Composite) Capacity() int {
	return c.slots
}

// IsAllocated reports whether a global slot is allocated.
func (c *Composite) IsAllocated(slot int) bool {
	if slot < 0 || slot >= c.slots {
		return false
	}

	m := c.Map(slot)

	return c.allocators[m.Component].IsAllocated(m.Local)
}

// Map translates a global slot into a component and a local slot.
func (c *Composite) Map(slot int) MappedSlot {
	if slot < 0 || slot >= c.slots {
		panic(fmt.Sprintf("slot %d out of range [0, %d)", slot, c.slots))
	}

	k := len(c.offsets) - 1
	for c.offsets[k] > slot {
		k--
	}

	return MappedSlot{Component: k, Local: slot - c.offsets[k]}
}

func (c *Composite) Slots() int      { return c.slots }
func (c *Composite) StateSize() int  { return c.components[0].StateSize() }
func (c *Composite) InputSize() int  { return c.components[0].InputSize() }
func (c *Composite) OutputSize() int { return c.components[0].OutputSize() }

func (c *Composite) State(slot int, buf []int32) {
	m := c.Map(slot)
	c.components[m.Component].State(m.Local, buf)
}

func (c *Composite) SetState(slot int, buf []int32) {
	m := c.Map(slot)
	c.components[m.Component].SetState(m.Local, buf)
}

func (c *Composite) SetInput(slot int, buf []int32) {
	m := c.Map(slot)
	c.components[m.Component].SetInput(m.Local, buf)
}

func (c *Composite) Output(slot int, buf []int32) {
	m := c.Map(slot)
	c.components[m.Component].Output(m.Local, buf)
}

func (c *Composite) SetInputMap(slot int, idx []int) {
	m := c.Map(slot)
	c.components[m.Component].SetInputMap(m.Local, idx)
}

func (c *Composite) SetOutputMap(slot int, idx []int) {
	m := c.Map(slot)
	c.components[m.Component].SetOutputMap(m.Local, idx)
}

// Update updates every component concurrently and reports every failure.
func (c *Composite) Update() error {
	errs := make([]error, len(c.components))

	g := errgroup.Group{}
	for i, s := range c.components {
		g.Go(func() error {
			if err := s.Update(); err != nil {
				errs[i] = fmt.Errorf("component %d: %w", i, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// Close closes every component, even after a failure, and reports every
// failure.
func (c *Composite) Close() error {
	var errs []error
	for i, s := range c.components {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("component %d: %w", i, err))
		}
	}

	return errors.Join(errs...)
}
