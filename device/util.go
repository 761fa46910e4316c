package device

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
)

const LevelTrace slog.Level = slog.LevelInfo + 1

func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}

func tracing() bool {
	return slog.Default().Enabled(context.Background(), LevelTrace)
}

// StatsTable renders the counters of several devices.
func StatsTable(devices ...*Device) string {
	t := table.NewWriter()
	t.SetTitle("Device activity")
	t.AppendHeader(table.Row{"Device", "Dispatches", "Work items", "Cycles", "Items/cycle"})

	for _, d := range devices {
		s := d.Stats()
		rate := 0.0
		if s.Ticks > 0 {
			rate = float64(s.WorkItems) / float64(s.Ticks)
		}
		t.AppendRow(table.Row{d.Name(), s.Dispatches, s.WorkItems, s.Ticks, fmt.Sprintf("%.1f", rate)})
	}

	return t.Render()
}
