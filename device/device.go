// Package device models a data-parallel tile accelerator on the akita event
// engine. Host code allocates buffers, enqueues kernel dispatches and calls
// Finish to wait for the queue to drain.
package device

import (
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
)

// ErrDispatch is returned for a dispatch whose buffers do not fit its kernel.
var ErrDispatch = errors.New("invalid dispatch")

// Stats counts the work a device has done.
type Stats struct {
	Dispatches int
	WorkItems  int
	Ticks      int
}

// Device executes kernel dispatches in order, one at a time.
type Device struct {
	*sim.TickingComponent

	engine       sim.Engine
	computeUnits int
	lanes        int

	queue   []dispatch
	head    int
	current dispatch
	running bool
	emu     workItemEmulator

	stats Stats
}

type dispatch struct {
	kernel *Kernel
	src    *Buffer
	dst    *Buffer
	items  int
	next   int
}

// Buffer is device memory. It can only be accessed while the device is idle.
type Buffer struct {
	dev  *Device
	name string
	data []int32
}

// NewBuffer allocates n words of device memory.
func (d *Device) NewBuffer(name string, n int) *Buffer {
	return &Buffer{dev: d, name: name, data: make([]int32, n)}
}

// Len returns the buffer length in words.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Write copies src into the buffer.
func (b *Buffer) Write(src []int32) {
	b.mustBeIdle()
	if len(src) != len(b.data) {
		panic(fmt.Sprintf("writing %d words into buffer %s of %d", len(src), b.name, len(b.data)))
	}

	copy(b.data, src)
}

// Read copies the buffer into dst.
func (b *Buffer) Read(dst []int32) {
	b.mustBeIdle()
	if len(dst) != len(b.data) {
		panic(fmt.Sprintf("reading buffer %s of %d words into %d", b.name, len(b.data), len(dst)))
	}

	copy(dst, b.data)
}

func (b *Buffer) mustBeIdle() {
	if b.dev.Busy() {
		panic(fmt.Sprintf("buffer %s accessed while %s has dispatches in flight", b.name, b.dev.Name()))
	}
}

// Busy reports whether dispatches are queued or running.
func (d *Device) Busy() bool {
	return d.running || d.head < len(d.queue)
}

// Stats returns the work counters.
func (d *Device) Stats() Stats {
	return d.stats
}

// Enqueue schedules one dispatch of k over slots slots, reading src and
// writing dst. Dispatches run in order; a dispatch starts after the previous
// one has retired every work item.
func (d *Device) Enqueue(k *Kernel, src, dst *Buffer, slots int) error {
	switch {
	case src.dev != d || dst.dev != d:
		return fmt.Errorf("%w: buffer belongs to another device", ErrDispatch)
	case src == dst:
		return fmt.Errorf("%w: source and destination are the same buffer", ErrDispatch)
	case slots < 0:
		return fmt.Errorf("%w: negative slot count", ErrDispatch)
	case src.Len() != slots*k.SlotSize() || dst.Len() != slots*k.SlotSize():
		return fmt.Errorf("%w: %d slots of %d words do not fit buffers of %d and %d",
			ErrDispatch, slots, k.SlotSize(), src.Len(), dst.Len())
	}

	d.emu.reserve(k.Regs)
	if d.head == len(d.queue) {
		d.queue, d.head = d.queue[:0], 0
	}
	d.queue = append(d.queue, dispatch{
		kernel: k,
		src:    src,
		dst:    dst,
		items:  slots * k.Tiles(),
	})
	d.TickLater()

	return nil
}

// Finish runs the engine until every queued dispatch has completed.
func (d *Device) Finish() error {
	if err := d.engine.Run(); err != nil {
		return err
	}

	if d.Busy() {
		return fmt.Errorf("%s stalled with %d dispatches queued", d.Name(), len(d.queue)-d.head)
	}

	return nil
}

// Tick retires up to computeUnits*lanes work items of the current dispatch.
func (d *Device) Tick() (madeProgress bool) {
	if !d.running {
		if d.head == len(d.queue) {
			return false
		}

		d.current = d.queue[d.head]
		d.queue[d.head] = dispatch{}
		d.head++
		d.running = true

		if tracing() {
			Trace("Dispatch",
				"Behavior", "Start",
				"Time", float64(d.Engine.CurrentTime()*1e9),
				"Device", d.Name(),
				"WorkItems", d.current.items,
			)
		}
	}

	cur := &d.current
	budget := d.computeUnits * d.lanes
	for ; budget > 0 && cur.next < cur.items; budget-- {
		d.emu.run(cur.kernel, cur.src.data, cur.dst.data, cur.next)
		cur.next++
		d.stats.WorkItems++
	}
	d.stats.Ticks++

	if cur.next == cur.items {
		d.stats.Dispatches++
		d.current = dispatch{}
		d.running = false

		if tracing() {
			Trace("Dispatch",
				"Behavior", "Complete",
				"Time", float64(d.Engine.CurrentTime()*1e9),
				"Device", d.Name(),
			)
		}
	}

	return true
}
