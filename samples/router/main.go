// The router sample loads the two-router tile from HCL, prints its wiring
// and checks the host and kernel backends against each other.
package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/tilebrain/config"
	"github.com/sarchlab/tilebrain/hclconf"
	"github.com/sarchlab/tilebrain/verify"
)

//go:embed router.hcl
var source []byte

func main() {
	d, err := hclconf.Parse(source, "router.hcl")
	if err != nil {
		panic(err)
	}

	p, err := config.MakeBuilder().
		WithBackend(config.BackendMixed).
		WithShards(2).
		WithSlotsPerShard(16).
		WithComputeUnits(2).
		WithLanes(8).
		Build(d)
	if err != nil {
		panic(err)
	}
	atexit.Register(func() { p.Close() })

	fmt.Println(p.Model.LayoutTable())
	fmt.Print(p.KernelSource)

	report := verify.GenerateReport(p.Model, p.Types, p.Backends(), 20, 2024)
	report.WriteReport(os.Stdout)

	if !report.OK() {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
