package simulator

import (
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tilebrain/codegen"
	"github.com/sarchlab/tilebrain/device"
	"github.com/sarchlab/tilebrain/topology"
)

// KernelBuilder can create kernel simulators.
type KernelBuilder struct {
	model        *topology.Model
	kernel       *device.Kernel
	engine       sim.Engine
	freq         sim.Freq
	computeUnits int
	lanes        int
	slots        int
}

// WithModel sets the resolved model. It is required.
func (b KernelBuilder) WithModel(m *topology.Model) KernelBuilder {
	b.model = m
	return b
}

// WithKernel sets a parsed kernel instead of generating one.
func (b KernelBuilder) WithKernel(k *device.Kernel) KernelBuilder {
	b.kernel = k
	return b
}

// WithEngine sets the engine the device runs on.
func (b KernelBuilder) WithEngine(e sim.Engine) KernelBuilder {
	b.engine = e
	return b
}

// WithFreq sets the device frequency.
func (b KernelBuilder) WithFreq(f sim.Freq) KernelBuilder {
	b.freq = f
	return b
}

// WithComputeUnits sets the number of device compute units.
func (b KernelBuilder) WithComputeUnits(n int) KernelBuilder {
	b.computeUnits = n
	return b
}

// WithLanes sets the lanes per compute unit.
func (b KernelBuilder) WithLanes(n int) KernelBuilder {
	b.lanes = n
	return b
}

// WithSlots sets the number of slots.
func (b KernelBuilder) WithSlots(n int) KernelBuilder {
	b.slots = n
	return b
}

// Build creates a kernel simulator with its own device.
func (b KernelBuilder) Build(name string) (*KernelSimulator, error) {
	if b.model == nil {
		panic("kernel simulator needs a model")
	}

	k := b.kernel
	if k == nil {
		var err error
		k, err = device.Parse(codegen.KernelGenerator{}.Generate(b.model))
		if err != nil {
			return nil, err
		}
	}

	if k.SlotSize() != b.model.StateSize {
		return nil, fmt.Errorf("kernel expects state of %d, model has %d",
			k.SlotSize(), b.model.StateSize)
	}

	db := device.NewBuilder().WithEngine(b.engine)
	if b.freq != 0 {
		db = db.WithFreq(b.freq)
	}
	if b.computeUnits > 0 {
		db = db.WithComputeUnits(b.computeUnits)
	}
	if b.lanes > 0 {
		db = db.WithLanes(b.lanes)
	}
	dev := db.Build(name + ".Device")

	s := &KernelSimulator{
		arrays:     newArrays(name, b.slots, b.model.StateSize, b.model.Inputs, b.model.Outputs),
		kernel:     k,
		device:     dev,
		iterations: b.model.IterationsPerUpdate,
	}
	s.buffers[0] = dev.NewBuffer(name+".A", b.slots*k.SlotSize())
	s.buffers[1] = dev.NewBuffer(name+".B", b.slots*k.SlotSize())

	Trace("Simulator",
		"Behavior", "Build",
		"Name", name,
		"Backend", "kernel",
		"Slots", b.slots,
		"Instructions", len(k.Insts),
	)

	return s, nil
}

// KernelSimulator runs every slot on a tile device, one dispatch per
// iteration, ping-ponging between two device buffers.
type KernelSimulator struct {
	arrays

	kernel     *device.Kernel
	device     *device.Device
	buffers    [2]*device.Buffer
	iterations int
}

// Device returns the device the simulator dispatches to.
func (s *KernelSimulator) Device() *device.Device {
	return s.device
}

// Update advances every slot by one update.
func (s *KernelSimulator) Update() error {
	return s.update(s)
}

func (s *KernelSimulator) advance(shadow []int32) error {
	s.buffers[0].Write(shadow)

	for i := 0; i < s.iterations; i++ {
		src, dst := s.buffers[i%2], s.buffers[(i+1)%2]
		if err := s.device.Enqueue(s.kernel, src, dst, s.slots); err != nil {
			return errors.Join(err, s.device.Finish())
		}
	}

	if err := s.device.Finish(); err != nil {
		return err
	}

	s.buffers[s.iterations%2].Read(shadow)

	return nil
}

// Close releases the device buffers.
func (s *KernelSimulator) Close() error {
	s.close()
	s.buffers = [2]*device.Buffer{}

	return nil
}
