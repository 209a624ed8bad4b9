package layout

import (
	"errors"
	"testing"

	"dashgrid/internal/grid"
)

func TestMove_TabsToRows(t *testing.T) {
	cpu := newItem(1, "CPU", grid.Cell{Width: 12, Height: 8})
	cpu.Repeat = &RepeatBinding{Variable: "server", MaxPerRow: 2}
	mem := newItem(2, "Memory", grid.Cell{X: 12, Width: 12, Height: 8})
	tabs := NewTabsLayout(NewTabItem("tab-3", "Overview", NewGridLayout(cpu, mem)))
	rows := NewRowsLayout(
		NewRowItem("row-4", "First", NewGridLayout()),
		NewRowItem("row-5", "Second", NewGridLayout()),
	)

	if err := Move(tabs, rows, cpu.Panel, mem.Panel); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	if got := panelKeys(tabs.Panels()); got != "" {
		t.Errorf("Expected source emptied, got %s", got)
	}
	first := rows.Rows()[0].Layout.(*GridLayout)
	if got := panelKeys(first.Panels()); got != "panel-1,panel-2" {
		t.Fatalf("Expected both panels in the first row, got %s", got)
	}
	if first.Items()[0].Panel != cpu.Panel {
		t.Errorf("Expected the same panel object to move")
	}
	if b := first.Items()[0].Repeat; b == nil || b.Variable != "server" || b.MaxPerRow != 2 {
		t.Errorf("Expected repeat binding to survive the move, got %+v", b)
	}
	if i, j := grid.FirstOverlap(first.Cells()); i >= 0 {
		t.Errorf("Expected no overlap after move, got %d and %d", i, j)
	}
}

func TestMove_IsAllOrNothing(t *testing.T) {
	cpu := newItem(1, "CPU", grid.Cell{Width: 12, Height: 8})
	src := NewGridLayout(cpu)
	dst := NewAutoGridLayout()

	err := Move(src, dst, cpu.Panel, newPanel(7, "Stranger"))
	if !errors.Is(err, ErrPanelNotFound) {
		t.Fatalf("Expected ErrPanelNotFound, got %v", err)
	}
	if !ContainsPanel(src, cpu.Panel) || len(dst.Panels()) != 0 {
		t.Errorf("Expected nothing moved")
	}
}

func TestMove_DuplicatesInListMoveOnce(t *testing.T) {
	cpu := newItem(1, "CPU", grid.Cell{Width: 12, Height: 8})
	src := NewGridLayout(cpu)
	dst := NewAutoGridLayout()

	if err := Move(src, dst, cpu.Panel, cpu.Panel); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if n := len(dst.Panels()); n != 1 {
		t.Errorf("Expected 1 panel in target, got %d", n)
	}
}

func TestDropTarget(t *testing.T) {
	if _, err := DropTarget(NewRowsLayout()); !errors.Is(err, ErrNoDropTarget) {
		t.Errorf("Expected ErrNoDropTarget for empty rows, got %v", err)
	}
	if _, err := DropTarget(NewTabsLayout()); !errors.Is(err, ErrNoDropTarget) {
		t.Errorf("Expected ErrNoDropTarget for empty tabs, got %v", err)
	}

	nest := func(levels int) (Manager, *GridLayout) {
		inner := NewGridLayout()
		var m Manager = inner
		for i := range levels {
			m = NewRowsLayout(NewRowItem(RowKey(i+1), "", m))
		}
		return m, inner
	}

	// The grid itself is the last of the levels.
	m, inner := nest(MaxNestingDepth - 1)
	target, err := DropTarget(m)
	if err != nil {
		t.Fatalf("Expected %d levels to resolve, got %v", MaxNestingDepth, err)
	}
	if target != Manager(inner) {
		t.Errorf("Expected the innermost grid as target")
	}

	m, _ = nest(MaxNestingDepth)
	if _, err := DropTarget(m); !errors.Is(err, ErrNestingTooDeep) {
		t.Errorf("Expected ErrNestingTooDeep, got %v", err)
	}
}
