// The accumulator sample runs the micro-iteration scenario: every slot adds
// its input to its state three times per update.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/tilebrain/config"
	"github.com/sarchlab/tilebrain/simulator"
	"github.com/sarchlab/tilebrain/util/brains"
)

func main() {
	f, err := os.Create("accumulator.json.log")
	if err != nil {
		panic(err)
	}
	atexit.Register(func() { f.Close() })

	handler := slog.NewJSONHandler(f, &slog.HandlerOptions{
		Level: simulator.LevelTrace,
	})
	slog.SetDefault(slog.New(handler))

	p, err := config.MakeBuilder().
		WithBackend(config.BackendMixed).
		WithShards(2).
		WithSlotsPerShard(3).
		Build(brains.Accumulator(3))
	if err != nil {
		panic(err)
	}
	atexit.Register(func() { p.Close() })

	c := p.Composite
	for c.Available() > 0 {
		slot, err := c.Allocate()
		if err != nil {
			panic(err)
		}
		c.SetInputMap(slot, []int{1})
		c.SetOutputMap(slot, []int{0})
		c.SetInput(slot, []int32{int32(slot + 1)})
	}

	if err := c.Update(); err != nil {
		panic(err)
	}

	out := make([]int32, 1)
	mismatch := 0
	for slot := 0; slot < c.Slots(); slot++ {
		c.Output(slot, out)
		m := c.Map(slot)
		fmt.Printf("  slot %d (shard %d, local %d) -> %d\n", slot, m.Component, m.Local, out[0])
		if out[0] != int32(3*(slot+1)) {
			mismatch++
		}
	}

	if mismatch == 0 {
		fmt.Println("✅ every slot accumulated input × 3")
	} else {
		fmt.Printf("❌ %d slots mismatch\n", mismatch)
	}

	atexit.Exit(0)
}
