package layout

import (
	"testing"

	"dashgrid/internal/grid"
	"dashgrid/internal/scene"
	"dashgrid/internal/variables"
)

func TestPanelRepeater_ClonesPerValue(t *testing.T) {
	scope := newServerScope("a", "b", "c")
	item := newItem(1, "CPU $server", grid.Cell{X: 0, Y: 0, Width: 24, Height: 8})
	item.Repeat = &RepeatBinding{Variable: "server", Direction: grid.Horizontal, MaxPerRow: 4}
	g := NewGridLayout(item)

	activate(t, g, scope, nil)

	panels := g.Panels()
	if got := panelKeys(panels); got != "panel-1,panel-1-clone-1,panel-1-clone-2" {
		t.Fatalf("Expected three instances, got %s", got)
	}
	if panels[0] != item.Panel {
		t.Errorf("Expected instance 0 to be the source panel")
	}
	titles := []string{"CPU Alpha", "CPU Bravo", "CPU Charlie"}
	for i, p := range panels {
		if got := p.DisplayTitle(); got != titles[i] {
			t.Errorf("Expected instance %d titled %q, got %q", i, titles[i], got)
		}
	}
	if panels[1].RepeatSourceKey != "panel-1" || !panels[1].IsClone() {
		t.Errorf("Expected clone to point at panel-1, got %q", panels[1].RepeatSourceKey)
	}

	cells := item.InstanceCells()
	if len(cells) != 3 || cells[1] != (grid.Cell{X: 8, Y: 0, Width: 8, Height: 8}) {
		t.Errorf("Expected three 8-wide cells on one row, got %v", cells)
	}
	if item.Height != 8 {
		t.Errorf("Expected block height 8, got %d", item.Height)
	}
}

func TestPanelRepeater_UnchangedValuesAreNoOp(t *testing.T) {
	scope := newServerScope("a", "b", "c")
	bus := scene.NewBus()
	item := newItem(1, "CPU", grid.Cell{Width: 24, Height: 8})
	item.Repeat = &RepeatBinding{Variable: "server"}
	g := NewGridLayout(item)
	activate(t, g, scope, bus)

	version := g.Version()
	events := countEvents(bus, scene.EventRepeatsProcessed)

	item.Repeater().PerformRepeat(false)
	if err := scope.Select("server", "a", "b", "c"); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	if g.Version() != version {
		t.Errorf("Expected no state change, version went from %d to %d", version, g.Version())
	}
	if *events != 0 {
		t.Errorf("Expected no repeats-processed events, got %d", *events)
	}

	item.Repeater().PerformRepeat(true)
	if g.Version() != version+1 || *events != 1 {
		t.Errorf("Expected a forced cycle to set once and publish once, got %d sets and %d events", g.Version()-version, *events)
	}
}

func TestPanelRepeater_ShrinkRemovesStaleClonesAndShiftsUp(t *testing.T) {
	scope := newServerScope("a", "b", "c", "d", "e")
	bus := scene.NewBus()
	repeated := newItem(1, "CPU", grid.Cell{X: 0, Y: 0, Width: 24, Height: 8})
	repeated.Repeat = &RepeatBinding{Variable: "server", Direction: grid.Horizontal, MaxPerRow: 2}
	below := newItem(2, "Memory", grid.Cell{X: 0, Y: 8, Width: 12, Height: 8})
	g := NewGridLayout(repeated, below)
	activate(t, g, scope, bus)

	if repeated.Height != 24 {
		t.Fatalf("Expected 5 values in rows of 2 to be 24 high, got %d", repeated.Height)
	}
	if below.Y != 24 {
		t.Fatalf("Expected sibling pushed to y=24, got %d", below.Y)
	}

	events := countEvents(bus, scene.EventRepeatsProcessed)
	if err := scope.Select("server", "a", "b"); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	if got := panelKeys(g.Panels()); got != "panel-1,panel-1-clone-1,panel-2" {
		t.Errorf("Expected stale clones removed, got %s", got)
	}
	if repeated.Height != 8 {
		t.Errorf("Expected block height 8, got %d", repeated.Height)
	}
	if below.Y != 8 {
		t.Errorf("Expected sibling shifted up by 16 to y=8, got %d", below.Y)
	}
	if *events != 1 {
		t.Errorf("Expected one repeats-processed event, got %d", *events)
	}
}

func TestPanelRepeater_VerticalStacks(t *testing.T) {
	scope := newServerScope("a", "b", "c")
	item := newItem(1, "CPU", grid.Cell{Width: 12, Height: 4})
	item.Repeat = &RepeatBinding{Variable: "server", Direction: grid.Vertical}
	g := NewGridLayout(item)
	activate(t, g, scope, nil)

	if item.Height != 12 {
		t.Fatalf("Expected 3 stacked instances 12 high, got %d", item.Height)
	}
	if cells := item.InstanceCells(); cells[2].Y != 8 || cells[2].Width != 12 {
		t.Errorf("Expected third instance at y=8 full width, got %v", cells[2])
	}
}

func TestPanelRepeater_ConfigurationErrorsDoNotMutate(t *testing.T) {
	tests := []struct {
		name  string
		scope *variables.Set
	}{
		{"missing variable", variables.NewSet(nil)},
		{"single value variable", variables.NewSet(nil, variables.NewConstant("server", "a"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := scene.NewBus()
			events := countEvents(bus, scene.EventRepeatsProcessed)
			item := newItem(1, "CPU", grid.Cell{Width: 24, Height: 8})
			item.Repeat = &RepeatBinding{Variable: "server"}
			g := NewGridLayout(item)
			activate(t, g, tt.scope, bus)

			if g.Version() != 0 {
				t.Errorf("Expected no state change, got version %d", g.Version())
			}
			if *events != 0 {
				t.Errorf("Expected no events, got %d", *events)
			}
			if len(g.Panels()) != 1 {
				t.Errorf("Expected the source panel alone, got %d", len(g.Panels()))
			}
		})
	}
}

func TestPanelRepeater_WaitsForLoading(t *testing.T) {
	scope := newServerScope("a", "b")
	if err := scope.SetLoading("server", true); err != nil {
		t.Fatalf("SetLoading failed: %v", err)
	}
	item := newItem(1, "CPU", grid.Cell{Width: 24, Height: 8})
	item.Repeat = &RepeatBinding{Variable: "server"}
	g := NewGridLayout(item)
	activate(t, g, scope, nil)

	if len(g.Panels()) != 1 {
		t.Fatalf("Expected no repeat while loading, got %d panels", len(g.Panels()))
	}
	if err := scope.SetLoading("server", false); err != nil {
		t.Fatalf("SetLoading failed: %v", err)
	}
	if len(g.Panels()) != 2 {
		t.Errorf("Expected repeat once loading completed, got %d panels", len(g.Panels()))
	}
}

func TestPanelRepeater_StopsAfterDeactivate(t *testing.T) {
	scope := newServerScope("a", "b")
	item := newItem(1, "CPU", grid.Cell{Width: 24, Height: 8})
	item.Repeat = &RepeatBinding{Variable: "server"}
	g := NewGridLayout(item)
	release := g.activate(env{scope: scope})
	release()

	if err := scope.Select("server", "a", "b", "c"); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(g.Panels()) != 2 {
		t.Errorf("Expected no repeat after deactivation, got %d panels", len(g.Panels()))
	}
}

func TestPanelRepeater_AutoGrid(t *testing.T) {
	scope := newServerScope("a", "b", "c", "d")
	item := NewAutoGridItem(newPanel(1, "CPU"))
	item.Repeat = &RepeatBinding{Variable: "server"}
	a := NewAutoGridLayout(item, NewAutoGridItem(newPanel(2, "Memory")))
	activate(t, a, scope, nil)

	if got := panelKeys(a.Panels()); got != "panel-1,panel-1-clone-1,panel-1-clone-2,panel-1-clone-3,panel-2" {
		t.Fatalf("Expected four instances before panel-2, got %s", got)
	}
	cells := a.Cells()
	if len(cells) != 5 || cells[3] != (grid.Cell{X: 0, Y: 8, Width: 8, Height: 8}) {
		t.Errorf("Expected the fourth instance to wrap to the second row, got %v", cells)
	}
}

func TestGridRowRepeater_StacksCopiesAndShiftsBelow(t *testing.T) {
	scope := newServerScope("a", "b", "c")
	bus := scene.NewBus()
	row := NewGridRow("row-1", "Server $server", 0, newItem(1, "CPU", grid.Cell{X: 0, Y: 1, Width: 12, Height: 6}))
	row.Repeat = &RepeatBinding{Variable: "server"}
	next := NewGridRow("row-2", "Other", 7, newItem(2, "Memory", grid.Cell{X: 0, Y: 8, Width: 12, Height: 6}))
	g := NewGridLayout(row, next)
	events := countEvents(bus, scene.EventRepeatsProcessed)
	activate(t, g, scope, bus)

	rows := g.Rows()
	if len(rows) != 4 {
		t.Fatalf("Expected 3 repeated rows and 1 static row, got %d", len(rows))
	}
	wantKeys := []string{"row-1", "row-1-clone-1", "row-1-clone-2", "row-2"}
	wantY := []int{0, 7, 14, 21}
	for i, r := range rows {
		if r.Key != wantKeys[i] || r.Y != wantY[i] {
			t.Errorf("Expected row %d to be %s at y=%d, got %s at y=%d", i, wantKeys[i], wantY[i], r.Key, r.Y)
		}
	}
	clone := rows[1]
	if clone.RepeatSourceKey != "row-1" {
		t.Errorf("Expected clone to point at row-1, got %q", clone.RepeatSourceKey)
	}
	if c := clone.Children[0]; c.Key != "row-1-clone-1/grid-item-1" || c.Panel.Key != "row-1-clone-1/panel-1" || c.Y != 8 {
		t.Errorf("Expected joined child keys at y=8, got %s %s y=%d", c.Key, c.Panel.Key, c.Y)
	}
	if got := Interpolate(clone.Title, clone.Scope()); got != "Server Bravo" {
		t.Errorf("Expected clone title to resolve to Bravo, got %q", got)
	}
	if next.Children[0].Y != 22 {
		t.Errorf("Expected static row child shifted with its row to y=22, got %d", next.Children[0].Y)
	}
	if *events != 1 {
		t.Errorf("Expected one repeats-processed event, got %d", *events)
	}

	if err := scope.Select("server", "c"); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(g.Rows()) != 2 {
		t.Fatalf("Expected previous copies dropped, got %d rows", len(g.Rows()))
	}
	if next.Y != 7 || next.Children[0].Y != 8 {
		t.Errorf("Expected static row back at y=7, got y=%d child y=%d", next.Y, next.Children[0].Y)
	}
	if got := Interpolate(row.Title, row.Scope()); got != "Server Charlie" {
		t.Errorf("Expected source row scoped to Charlie, got %q", got)
	}
}

func TestGridRowRepeater_CollapsedRowsStackHeaders(t *testing.T) {
	scope := newServerScope("a", "b", "c")
	row := NewGridRow("row-1", "Server", 0, newItem(1, "CPU", grid.Cell{X: 0, Y: 1, Width: 12, Height: 6}))
	row.Collapsed = true
	row.Repeat = &RepeatBinding{Variable: "server"}
	g := NewGridLayout(row)
	activate(t, g, scope, nil)

	for i, r := range g.Rows() {
		if r.Y != i {
			t.Errorf("Expected collapsed copy %d at y=%d, got %d", i, i, r.Y)
		}
	}
}

func TestGridRowRepeater_IncludeAllWithoutOptionsYieldsOneRow(t *testing.T) {
	scope := variables.NewSet(nil, variables.NewCustom(variables.CustomConfig{
		Name:       "server",
		Multi:      true,
		IncludeAll: true,
	}))
	row := NewGridRow("row-1", "Server $server", 0, newItem(1, "CPU", grid.Cell{X: 0, Y: 1, Width: 12, Height: 6}))
	row.Repeat = &RepeatBinding{Variable: "server"}
	g := NewGridLayout(row)
	activate(t, g, scope, nil)

	if len(g.Rows()) != 1 {
		t.Fatalf("Expected exactly one row, got %d", len(g.Rows()))
	}
	if got := Interpolate(row.Title, row.Scope()); got != "Server None" {
		t.Errorf("Expected placeholder text, got %q", got)
	}
}

func TestGridRowRepeater_NestedPanelRepeat(t *testing.T) {
	scope := variables.NewSet(nil,
		variables.NewCustom(variables.CustomConfig{
			Name:    "region",
			Options: []variables.Option{{Text: "EU", Value: "eu"}, {Text: "US", Value: "us"}},
			Current: []string{"eu", "us"},
			Multi:   true,
		}),
		variables.NewCustom(variables.CustomConfig{
			Name:    "server",
			Options: serverOptions,
			Current: []string{"a", "b"},
			Multi:   true,
		}),
	)
	inner := newItem(1, "$region $server", grid.Cell{X: 0, Y: 1, Width: 24, Height: 4})
	inner.Repeat = &RepeatBinding{Variable: "server", Direction: grid.Vertical}
	row := NewGridRow("row-1", "$region", 0, inner)
	row.Repeat = &RepeatBinding{Variable: "region"}
	g := NewGridLayout(row)
	activate(t, g, scope, nil)

	panels := g.Panels()
	want := []string{"EU Alpha", "EU Bravo", "US Alpha", "US Bravo"}
	if len(panels) != len(want) {
		t.Fatalf("Expected %d panels, got %s", len(want), panelKeys(panels))
	}
	for i, p := range panels {
		if got := p.DisplayTitle(); got != want[i] {
			t.Errorf("Expected panel %d titled %q, got %q", i, want[i], got)
		}
	}
	if panels[3].Key != "row-1-clone-1/panel-1-clone-1" {
		t.Errorf("Expected nested clone key, got %q", panels[3].Key)
	}
	if rows := g.Rows(); rows[1].Y != 9 {
		t.Errorf("Expected the copy below the expanded source content at y=9, got %d", rows[1].Y)
	}
}

func TestItemRepeater_RowsLayout(t *testing.T) {
	scope := newServerScope("a", "b", "c")
	bus := scene.NewBus()
	repeated := NewRowItem("row-1", "Server $server", NewGridLayout(newItem(1, "CPU $server", grid.Cell{Width: 12, Height: 8})))
	repeated.Repeat = &RepeatBinding{Variable: "server"}
	static := NewRowItem("row-2", "Static", NewGridLayout(newItem(2, "Memory", grid.Cell{Width: 12, Height: 8})))
	l := NewRowsLayout(repeated, static)
	events := countEvents(bus, scene.EventRepeatsProcessed)
	activate(t, l, scope, bus)

	var keys []string
	for _, r := range l.Rows() {
		keys = append(keys, r.Key)
	}
	if got := len(keys); got != 4 || keys[1] != "row-1-clone-1" || keys[3] != "row-2" {
		t.Fatalf("Expected copies right after the source row, got %v", keys)
	}
	if got := panelKeys(l.Panels()); got != "panel-1,row-1-clone-1/panel-1,row-1-clone-2/panel-1,panel-2" {
		t.Errorf("Expected joined panel keys, got %s", got)
	}
	if got := l.Panels()[2].DisplayTitle(); got != "CPU Charlie" {
		t.Errorf("Expected third copy to resolve Charlie, got %q", got)
	}
	if *events != 1 {
		t.Errorf("Expected one repeats-processed event, got %d", *events)
	}

	version := l.Version()
	repeated.Repeater().PerformRepeat(false)
	if l.Version() != version {
		t.Errorf("Expected an unchanged cycle to leave rows alone")
	}

	if err := scope.Select("server", "b"); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(l.Rows()) != 2 {
		t.Errorf("Expected copies removed, got %d rows", len(l.Rows()))
	}
	if got := l.Panels()[0].DisplayTitle(); got != "CPU Bravo" {
		t.Errorf("Expected the source row rescoped to Bravo, got %q", got)
	}
}

func TestItemRepeater_TabsLayout(t *testing.T) {
	scope := newServerScope("a", "b")
	tab := NewTabItem("tab-1", "$server", NewAutoGridLayout(NewAutoGridItem(newPanel(1, "CPU"))))
	tab.Repeat = &RepeatBinding{Variable: "server"}
	l := NewTabsLayout(tab)
	activate(t, l, scope, nil)

	tabs := l.Tabs()
	if len(tabs) != 2 || tabs[1].Key != "tab-1-clone-1" || !tabs[1].IsClone() {
		t.Fatalf("Expected one tab copy, got %d tabs", len(tabs))
	}
	if got := Interpolate(tabs[1].Title, tabs[1].Scope()); got != "Bravo" {
		t.Errorf("Expected copy titled Bravo, got %q", got)
	}
	if err := l.RemoveTab("tab-1-clone-1"); err == nil {
		t.Errorf("Expected removing a copy to fail")
	}
}

func TestGridRowRepeater_RetriesAfterFailedExpansion(t *testing.T) {
	scope := newServerScope("a", "b")
	row := NewGridRow("row-1", "Server $server", 0, newItem(1, "CPU", grid.Cell{X: 0, Y: 1, Width: 12, Height: 6}))
	row.Repeat = &RepeatBinding{Variable: "server"}

	// The owner does not hold the row yet, so the first cycle cannot expand.
	r := &GridRowRepeater{row: row}
	release := r.activate(env{scope: scope}, NewGridLayout())
	defer release()
	if got := r.cycle.Previous(); len(got) != 0 {
		t.Fatalf("Expected nothing committed after a failed expansion, got %v", got)
	}

	g := NewGridLayout(row)
	r.owner = g
	r.PerformRepeat(false)
	if len(g.Rows()) != 2 {
		t.Fatalf("Expected the unforced retry to expand, got %d rows", len(g.Rows()))
	}
	if got := r.cycle.Previous(); len(got) != 2 {
		t.Errorf("Expected values committed after expansion, got %v", got)
	}
}
