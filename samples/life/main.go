// The life sample runs a glider on a kernel shard and draws the board after
// every update.
package main

import (
	"fmt"
	"strings"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/tilebrain/config"
	"github.com/sarchlab/tilebrain/device"
	"github.com/sarchlab/tilebrain/topology"
	"github.com/sarchlab/tilebrain/util/brains"
)

var width = 8
var height = 8

func draw(m *topology.Model, state []int32) string {
	var sb strings.Builder
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			if state[m.TileIndex(r, c)] != 0 {
				sb.WriteString("█")
			} else {
				sb.WriteString("·")
			}
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}

func main() {
	p, err := config.MakeBuilder().
		WithBackend(config.BackendKernel).
		WithSlotsPerShard(1).
		WithComputeUnits(4).
		WithLanes(16).
		Build(brains.Life(width, height))
	if err != nil {
		panic(err)
	}
	atexit.Register(func() { p.Close() })

	m := p.Model
	c := p.Composite

	state := make([]int32, c.StateSize())
	for _, rc := range [][2]int{{0, 1}, {1, 2}, {2, 0}, {2, 1}, {2, 2}} {
		state[m.TileIndex(rc[0], rc[1])] = 1
	}
	c.SetState(0, state)

	for step := 0; step < 4; step++ {
		fmt.Printf("generation %d\n%s\n", step, draw(m, state))
		if err := c.Update(); err != nil {
			panic(err)
		}
		c.State(0, state)
	}
	fmt.Printf("generation 4\n%s\n", draw(m, state))

	fmt.Println(device.StatsTable(p.Devices()...))
	atexit.Exit(0)
}
