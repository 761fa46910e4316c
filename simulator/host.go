package simulator

import (
	"fmt"
	"runtime"

	"github.com/sarchlab/tilebrain/codegen"
	"github.com/sarchlab/tilebrain/routine"
	"github.com/sarchlab/tilebrain/topology"
)

// HostBuilder can create host simulators.
type HostBuilder struct {
	model   *topology.Model
	routine *routine.Routine
	cache   *routine.Cache
	slots   int
	workers int
}

// WithModel sets the resolved model. It is required.
func (b HostBuilder) WithModel(m *topology.Model) HostBuilder {
	b.model = m
	return b
}

// WithRoutine sets a precompiled routine instead of generating one.
func (b HostBuilder) WithRoutine(r *routine.Routine) HostBuilder {
	b.routine = r
	return b
}

// WithCache sets the cache that generated routines are compiled through.
func (b HostBuilder) WithCache(c *routine.Cache) HostBuilder {
	b.cache = c
	return b
}

// WithSlots sets the number of slots.
func (b HostBuilder) WithSlots(n int) HostBuilder {
	b.slots = n
	return b
}

// WithWorkers bounds the number of goroutines an update uses. It defaults to
// GOMAXPROCS.
func (b HostBuilder) WithWorkers(n int) HostBuilder {
	b.workers = n
	return b
}

// Build creates a host simulator.
func (b HostBuilder) Build(name string) (*HostSimulator, error) {
	if b.model == nil {
		panic("host simulator needs a model")
	}

	r := b.routine
	if r == nil {
		var err error
		r, err = b.compile(name)
		if err != nil {
			return nil, err
		}
	}

	if r.StateSize() != b.model.StateSize {
		return nil, fmt.Errorf("routine %s expects state of %d, model has %d",
			r.Name(), r.StateSize(), b.model.StateSize)
	}

	workers := b.workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, max(b.slots, 1))

	s := &HostSimulator{
		arrays:     newArrays(name, b.slots, b.model.StateSize, b.model.Inputs, b.model.Outputs),
		routine:    r,
		iterations: b.model.IterationsPerUpdate,
		shards:     make([]*shard, workers),
	}
	for i := range s.shards {
		sh := &shard{
			worker: r.NewWorker(fmt.Sprintf("%s.Worker[%d]", name, i)),
			lo:     i * b.slots / workers,
			hi:     (i + 1) * b.slots / workers,
			start:  make(chan []int32),
			done:   make(chan error),
		}
		s.shards[i] = sh
		go s.serve(sh)
	}

	Trace("Simulator",
		"Behavior", "Build",
		"Name", name,
		"Backend", "host",
		"Slots", b.slots,
		"Workers", workers,
	)

	return s, nil
}

func (b HostBuilder) compile(name string) (*routine.Routine, error) {
	src := func() string { return codegen.HostGenerator{}.Generate(b.model) }
	module := name + ".star"

	if b.cache != nil {
		return b.cache.Get(b.model.Hash, module, src)
	}

	return routine.Compile(module, src())
}

// HostSimulator runs a compiled host routine over the slots, split into
// contiguous shards. Each shard has its own goroutine and Starlark thread for
// the lifetime of the simulator.
type HostSimulator struct {
	arrays

	routine    *routine.Routine
	iterations int
	shards     []*shard
}

// shard owns slots [lo, hi). An update sends it the shadow state on start and
// waits for its result on done.
type shard struct {
	worker *routine.Worker
	lo, hi int
	start  chan []int32
	done   chan error
}

// Update advances every slot by one update.
func (s *HostSimulator) Update() error {
	return s.update(s)
}

func (s *HostSimulator) serve(sh *shard) {
	for shadow := range sh.start {
		sh.done <- sh.worker.Run(shadow[sh.lo*s.stateSize:sh.hi*s.stateSize], s.iterations)
	}
}

func (s *HostSimulator) advance(shadow []int32) error {
	for _, sh := range s.shards {
		sh.start <- shadow
	}

	var first error
	for _, sh := range s.shards {
		if err := <-sh.done; err != nil && first == nil {
			first = fmt.Errorf("slots %d-%d: %w", sh.lo, sh.hi-1, err)
		}
	}

	return first
}

// Close stops the shard goroutines.
func (s *HostSimulator) Close() error {
	s.close()
	for _, sh := range s.shards {
		close(sh.start)
	}
	s.shards = nil

	return nil
}
