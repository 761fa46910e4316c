package device

import (
	"github.com/sarchlab/akita/v4/sim"
)

// Builder can create new devices.
type Builder struct {
	engine       sim.Engine
	freq         sim.Freq
	computeUnits int
	lanes        int
}

// NewBuilder returns a builder with one compute unit of 32 lanes at 1 GHz.
func NewBuilder() Builder {
	return Builder{
		freq:         1 * sim.GHz,
		computeUnits: 1,
		lanes:        32,
	}
}

// WithEngine sets the engine. A device built without one gets a private
// serial engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the device.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithComputeUnits sets the number of compute units.
func (b Builder) WithComputeUnits(n int) Builder {
	if n < 1 {
		panic("need at least one compute unit")
	}
	b.computeUnits = n
	return b
}

// WithLanes sets the number of work items each compute unit retires per
// cycle.
func (b Builder) WithLanes(n int) Builder {
	if n < 1 {
		panic("need at least one lane")
	}
	b.lanes = n
	return b
}

// Build creates a device.
func (b Builder) Build(name string) *Device {
	engine := b.engine
	if engine == nil {
		engine = sim.NewSerialEngine()
	}

	freq := b.freq
	if freq == 0 {
		freq = 1 * sim.GHz
	}

	d := &Device{
		engine:       engine,
		computeUnits: max(b.computeUnits, 1),
		lanes:        max(b.lanes, 1),
	}
	d.TickingComponent = sim.NewTickingComponent(name, engine, freq, d)

	return d
}
