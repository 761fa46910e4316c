// Command tilebrain resolves a tile descriptor, generates both backends and
// runs a batch of automata on them.
//
//	tilebrain -descriptor life -backend mixed -shards 4 -slots 256 -steps 20
//	tilebrain -descriptor brain.hcl -emit kernel
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tilebrain/config"
	"github.com/sarchlab/tilebrain/descriptor"
	"github.com/sarchlab/tilebrain/device"
	"github.com/sarchlab/tilebrain/hclconf"
	"github.com/sarchlab/tilebrain/simulator"
	"github.com/sarchlab/tilebrain/util/brains"
	"github.com/sarchlab/tilebrain/util/valgen"
	"github.com/sarchlab/tilebrain/verify"
)

var (
	descriptorFlag = flag.String("descriptor", "router",
		"built-in descriptor ("+strings.Join(brains.Names(), ", ")+") or path to an .hcl file")
	backendFlag = flag.String("backend", "host", "shard backend: host, kernel or mixed")
	shardsFlag  = flag.Int("shards", 2, "number of shard simulators")
	slotsFlag   = flag.Int("slots", 64, "slots per shard")
	stepsFlag   = flag.Int("steps", 10, "updates to run")
	workersFlag = flag.Int("workers", 0, "goroutines per host shard, 0 for GOMAXPROCS")
	cusFlag     = flag.Int("cus", 4, "compute units per kernel device")
	lanesFlag   = flag.Int("lanes", 32, "lanes per compute unit")
	seedFlag    = flag.Uint("seed", 1, "seed for initial state, maps and inputs")
	levelFlag   = flag.String("log-level", "warn", "terminal log level: debug, info, trace, warn or error")
	traceFlag   = flag.String("trace-file", "", "write a JSON trace to this file")
	emitFlag    = flag.String("emit", "", "print the generated host or kernel source and exit")
	layoutFlag  = flag.Bool("layout", false, "print the tile state layout")
	verifyFlag  = flag.Bool("verify", false, "replay every shard against the functional simulator")
)

func main() {
	flag.Parse()

	if err := setupLogging(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(2)
	}

	if err := run(); err != nil {
		slog.Error("tilebrain failed", "error", err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func setupLogging() error {
	var level slog.Level
	switch *levelFlag {
	case "trace":
		level = simulator.LevelTrace
	default:
		if err := level.UnmarshalText([]byte(*levelFlag)); err != nil {
			return fmt.Errorf("bad -log-level: %w", err)
		}
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	}

	if *traceFlag != "" {
		f, err := os.Create(*traceFlag)
		if err != nil {
			return err
		}
		atexit.Register(func() { f.Close() })

		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{
			Level: simulator.LevelTrace,
		}))
	}

	slog.SetDefault(slog.New(slogmulti.Fanout(handlers...)))

	return nil
}

func loadDescriptor(name string) (*descriptor.Descriptor, error) {
	if d, ok := brains.ByName(name); ok {
		return d, nil
	}

	return hclconf.Load(name)
}

func run() error {
	d, err := loadDescriptor(*descriptorFlag)
	if err != nil {
		return err
	}

	backend, err := config.ParseBackend(*backendFlag)
	if err != nil {
		return err
	}

	p, err := config.MakeBuilder().
		WithBackend(backend).
		WithShards(*shardsFlag).
		WithSlotsPerShard(*slotsFlag).
		WithWorkers(*workersFlag).
		WithFreq(1 * sim.GHz).
		WithComputeUnits(*cusFlag).
		WithLanes(*lanesFlag).
		Build(d)
	if err != nil {
		return err
	}
	atexit.Register(func() {
		if err := p.Close(); err != nil {
			slog.Error("close failed", "error", err)
		}
	})

	switch *emitFlag {
	case "":
	case "host":
		fmt.Print(p.HostSource)
		return nil
	case "kernel":
		fmt.Print(p.KernelSource)
		return nil
	default:
		return fmt.Errorf("bad -emit %q, want host or kernel", *emitFlag)
	}

	if *layoutFlag {
		fmt.Println(p.Model.LayoutTable())
	}
	fmt.Println(p.ShardTable())

	if *verifyFlag {
		report := verify.GenerateReport(p.Model, p.Types, p.Backends(), *stepsFlag, uint32(*seedFlag))
		report.WriteReport(os.Stdout)
		if !report.OK() {
			return fmt.Errorf("backends disagree with the functional simulator")
		}
		return nil
	}

	return simulate(p)
}

func simulate(p *config.Platform) error {
	c := p.Composite
	gen := valgen.MakeBoundedGen(valgen.MakeLCGGen(uint32(*seedFlag)), 16)
	index := valgen.MakeBoundedGen(valgen.MakeLCGGen(uint32(*seedFlag)+1), int32(c.StateSize()))

	state := make([]int32, c.StateSize())
	inMap := make([]int, c.InputSize())
	outMap := make([]int, c.OutputSize())

	for c.Available() > 0 {
		slot, err := c.Allocate()
		if err != nil {
			return err
		}

		valgen.Fill(state, gen)
		c.SetState(slot, state)

		for k := range inMap {
			inMap[k] = int(index())
		}
		c.SetInputMap(slot, inMap)

		for k := range outMap {
			outMap[k] = int(index())
		}
		c.SetOutputMap(slot, outMap)
	}

	input := make([]int32, c.InputSize())
	output := make([]int32, c.OutputSize())

	for step := 0; step < *stepsFlag; step++ {
		for slot := 0; slot < c.Slots(); slot++ {
			valgen.Fill(input, gen)
			c.SetInput(slot, input)
		}

		if err := c.Update(); err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}

		var sum int64
		for slot := 0; slot < c.Slots(); slot++ {
			c.Output(slot, output)
			for _, v := range output {
				sum += int64(v)
			}
		}

		slog.Info("update", "step", step, "output_sum", sum)
	}

	if devices := p.Devices(); len(devices) > 0 {
		fmt.Println(device.StatsTable(devices...))
	}

	return nil
}
