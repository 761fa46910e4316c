package topology

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
)

const LevelTrace slog.Level = slog.LevelInfo + 1

func traceCtx(ctx context.Context, msg string, args ...any) {
	slog.Log(ctx, LevelTrace, msg, args...)
}

// LayoutTable renders the tile-local state layout.
func (m *Model) LayoutTable() string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("Tile state layout (%d per tile, %d tiles)", m.Unit.StateSize, m.Tiles))
	t.AppendHeader(table.Row{"Index", "Var", "Cell", "Kind", "ID", "Expr"})

	for _, e := range m.Unit.Layout() {
		kind := "output"
		expression := ""
		if e.Param {
			kind = "param"
		} else {
			expression = m.exprOf(e)
		}
		t.AppendRow(table.Row{e.Index, e.Name, e.CellID, kind, e.VarID, expression})
	}

	return t.Render()
}

func (m *Model) exprOf(e LayoutEntry) string {
	c, _ := m.Unit.Cell(e.CellID)
	v, _ := outputVar(c, e.VarID)

	return v.Expr.String()
}
