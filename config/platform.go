package config

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/tilebrain/descriptor"
	"github.com/sarchlab/tilebrain/device"
	"github.com/sarchlab/tilebrain/simulator"
	"github.com/sarchlab/tilebrain/topology"
)

// A Platform is a resolved model together with the simulators that run it.
type Platform struct {
	Model        *topology.Model
	Types        map[string]descriptor.CellType
	HostSource   string
	KernelSource string
	Shards       []simulator.Simulator
	Composite    *simulator.Composite
}

// Devices returns the devices of the kernel shards.
func (p *Platform) Devices() []*device.Device {
	var devices []*device.Device
	for _, s := range p.Shards {
		if k, ok := s.(*simulator.KernelSimulator); ok {
			devices = append(devices, k.Device())
		}
	}

	return devices
}

// Backends returns the shards by name, for verification.
func (p *Platform) Backends() map[string]simulator.Simulator {
	backends := make(map[string]simulator.Simulator, len(p.Shards))
	for i, s := range p.Shards {
		backends[fmt.Sprintf("%s[%d]", kind(s), i)] = s
	}

	return backends
}

// ShardTable renders the shards and their free slots.
func (p *Platform) ShardTable() string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("Shards (model %s)", p.Model.Hash[:12]))
	t.AppendHeader(table.Row{"Shard", "Backend", "Slots", "State", "In", "Out"})

	for i, s := range p.Shards {
		t.AppendRow(table.Row{i, kind(s), s.Slots(), s.StateSize(), s.InputSize(), s.OutputSize()})
	}
	if p.Composite != nil {
		t.AppendFooter(table.Row{"", "", p.Composite.Capacity(), "", "", fmt.Sprintf("%d free", p.Composite.Available())})
	}

	return t.Render()
}

// Close closes the composite, or the shards if no composite was built.
func (p *Platform) Close() error {
	if p.Composite != nil {
		return p.Composite.Close()
	}

	return p.closeShards()
}

func (p *Platform) closeShards() error {
	var errs []error
	for _, s := range p.Shards {
		errs = append(errs, s.Close())
	}

	return errors.Join(errs...)
}

func kind(s simulator.Simulator) string {
	switch s.(type) {
	case *simulator.HostSimulator:
		return string(BackendHost)
	case *simulator.KernelSimulator:
		return string(BackendKernel)
	default:
		return fmt.Sprintf("%T", s)
	}
}
