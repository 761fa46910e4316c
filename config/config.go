// Package config assembles a runnable platform from a descriptor: it resolves
// the model, generates both backend sources and builds a composite of shard
// simulators.
package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tilebrain/codegen"
	"github.com/sarchlab/tilebrain/descriptor"
	"github.com/sarchlab/tilebrain/device"
	"github.com/sarchlab/tilebrain/routine"
	"github.com/sarchlab/tilebrain/simulator"
	"github.com/sarchlab/tilebrain/topology"
)

// ErrBackend is returned for an unknown backend name.
var ErrBackend = errors.New("unknown backend")

// Backend selects what the shards run on.
type Backend string

const (
	BackendHost   Backend = "host"
	BackendKernel Backend = "kernel"
	// BackendMixed alternates host and kernel shards, starting with host.
	BackendMixed Backend = "mixed"
)

// ParseBackend converts a flag value into a Backend.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(s); b {
	case BackendHost, BackendKernel, BackendMixed:
		return b, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrBackend, s)
	}
}

func (b Backend) shard(i int) Backend {
	if b != BackendMixed {
		return b
	}
	if i%2 == 0 {
		return BackendHost
	}
	return BackendKernel
}

// Builder can build platforms.
type Builder struct {
	ctx           context.Context
	backend       Backend
	shards        int
	slotsPerShard int
	workers       int
	freq          sim.Freq
	computeUnits  int
	lanes         int
	cache         *routine.Cache
}

// MakeBuilder creates a builder with one host shard of 64 slots.
func MakeBuilder() Builder {
	return Builder{
		ctx:           context.Background(),
		backend:       BackendHost,
		shards:        1,
		slotsPerShard: 64,
		freq:          1 * sim.GHz,
	}
}

// WithContext sets the context the model is resolved under.
func (b Builder) WithContext(ctx context.Context) Builder {
	b.ctx = ctx
	return b
}

// WithBackend sets the backend of the shards.
func (b Builder) WithBackend(backend Backend) Builder {
	b.backend = backend
	return b
}

// WithShards sets the number of shard simulators.
func (b Builder) WithShards(n int) Builder {
	b.shards = n
	return b
}

// WithSlotsPerShard sets the slot count of every shard.
func (b Builder) WithSlotsPerShard(n int) Builder {
	b.slotsPerShard = n
	return b
}

// WithWorkers sets the goroutines per host shard. Zero means GOMAXPROCS.
func (b Builder) WithWorkers(n int) Builder {
	b.workers = n
	return b
}

// WithFreq sets the frequency of the kernel shard devices.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithComputeUnits sets the compute units of the kernel shard devices.
func (b Builder) WithComputeUnits(n int) Builder {
	b.computeUnits = n
	return b
}

// WithLanes sets the lanes per compute unit of the kernel shard devices.
func (b Builder) WithLanes(n int) Builder {
	b.lanes = n
	return b
}

// WithCache shares compiled host routines across builds.
func (b Builder) WithCache(c *routine.Cache) Builder {
	b.cache = c
	return b
}

// Build creates a platform for d.
func (b Builder) Build(d *descriptor.Descriptor) (*Platform, error) {
	if b.shards < 1 || b.slotsPerShard < 1 {
		return nil, fmt.Errorf("need at least one shard of one slot, got %d x %d",
			b.shards, b.slotsPerShard)
	}
	if b.backend == "" {
		b.backend = BackendHost
	}
	if _, err := ParseBackend(string(b.backend)); err != nil {
		return nil, err
	}

	ctx := b.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	m, err := topology.Resolve(ctx, d)
	if err != nil {
		return nil, err
	}

	p := &Platform{
		Model:        m,
		Types:        d.Types,
		HostSource:   codegen.HostGenerator{}.Generate(m),
		KernelSource: codegen.KernelGenerator{}.Generate(m),
	}

	cache := b.cache
	if cache == nil {
		cache = routine.NewCache()
	}

	var (
		r *routine.Routine
		k *device.Kernel
	)

	for i := 0; i < b.shards; i++ {
		name := fmt.Sprintf("Shard[%d]", i)

		var s simulator.Simulator
		switch b.backend.shard(i) {
		case BackendHost:
			if r == nil {
				r, err = cache.Get(m.Hash, "tilebrain.star", func() string { return p.HostSource })
				if err != nil {
					p.closeShards()
					return nil, err
				}
			}
			s, err = simulator.HostBuilder{}.
				WithModel(m).
				WithRoutine(r).
				WithSlots(b.slotsPerShard).
				WithWorkers(b.workers).
				Build(name)
		case BackendKernel:
			if k == nil {
				k, err = device.Parse(p.KernelSource)
				if err != nil {
					p.closeShards()
					return nil, err
				}
			}
			s, err = simulator.KernelBuilder{}.
				WithModel(m).
				WithKernel(k).
				WithEngine(sim.NewSerialEngine()).
				WithFreq(b.freq).
				WithComputeUnits(b.computeUnits).
				WithLanes(b.lanes).
				WithSlots(b.slotsPerShard).
				Build(name)
		}
		if err != nil {
			p.closeShards()
			return nil, err
		}

		p.Shards = append(p.Shards, s)
	}

	p.Composite, err = simulator.NewComposite(p.Shards...)
	if err != nil {
		p.closeShards()
		return nil, err
	}

	return p, nil
}
