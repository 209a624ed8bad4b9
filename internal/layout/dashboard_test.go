package layout

import (
	"testing"

	"dashgrid/internal/grid"
	"dashgrid/internal/scene"
	"dashgrid/internal/schema"
)

func loadServers(t *testing.T) *Dashboard {
	t.Helper()
	doc, err := schema.ReadFile("../schema/testdata/servers.yaml")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	d, err := Load(doc)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return d
}

func TestDashboard_ActivateExpandsRepeats(t *testing.T) {
	d := loadServers(t)
	deactivate := d.Activate()
	defer deactivate()

	g := d.Body().(*GridLayout)
	items := g.Items()
	row, ok := g.Row("row-10")
	if !ok {
		t.Fatalf("Expected row-10")
	}

	if items[0].Height != 16 || items[0].ItemHeight() != 8 {
		t.Errorf("Expected block 16 with instances of 8, got %d and %d", items[0].Height, items[0].ItemHeight())
	}
	if items[1].Y != 16 || row.Y != 24 || row.Children[0].Y != 25 {
		t.Errorf("Expected content pushed by 8, got %d, %d, %d", items[1].Y, row.Y, row.Children[0].Y)
	}
	if p, ok := d.Panel("panel-1-clone-2"); !ok || p.DisplayTitle() != "CPU Charlie" {
		t.Errorf("Expected third instance titled CPU Charlie")
	}
	if i, j := grid.FirstOverlap(g.Cells()); i >= 0 {
		t.Errorf("Expected no overlap, got %d and %d", i, j)
	}
}

func TestDashboard_SaveWritesTemplatePositions(t *testing.T) {
	d := loadServers(t)
	deactivate := d.Activate()
	defer deactivate()

	doc := d.Save()
	items := doc.Layout.Grid.Items
	if items[0].Item.Height != 8 || items[1].Item.Y != 8 {
		t.Errorf("Expected saved height 8 and y=8, got %d and %d", items[0].Item.Height, items[1].Item.Y)
	}
	if r := items[2].Row; r.Y != 16 || r.Elements[0].Spec.Y != 17 {
		t.Errorf("Expected row at 16 with child at 17, got %d and %d", r.Y, r.Elements[0].Spec.Y)
	}
	if len(doc.Elements) != 3 {
		t.Errorf("Expected 3 elements, got %d", len(doc.Elements))
	}
	if v := doc.Variables[0]; v.Name != "server" || len(v.Current) != 3 || !v.IncludeAll {
		t.Errorf("Expected server variable saved, got %+v", v)
	}
}

func TestDashboard_YAMLRoundTrip(t *testing.T) {
	d := loadServers(t)
	data, err := schema.Encode(d.Save(), schema.FormatYAML)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	doc, err := schema.Decode(data, schema.FormatYAML)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	back, err := Load(doc)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertSameOutline(t, d.Body().Outline(), back.Body().Outline())
}

func TestDashboard_EditsWhileActive(t *testing.T) {
	d := loadServers(t)
	added := countEvents(d.Bus, scene.EventObjectAdded)
	removed := countEvents(d.Bus, scene.EventObjectRemoved)
	deactivate := d.Activate()
	defer deactivate()

	p := NewPanel("Network", "timeseries")
	if err := d.AddPanel(p); err != nil {
		t.Fatalf("AddPanel failed: %v", err)
	}
	if p.Key != "panel-11" {
		t.Errorf("Expected panel-11 past row-10, got %s", p.Key)
	}
	g := d.Body().(*GridLayout)
	item, _ := g.find(p)
	if item.Cell() != (grid.Cell{X: 12, Y: 16, Width: 12, Height: 8}) {
		t.Errorf("Expected the gap next to Memory, got %v", item.Cell())
	}
	if *added != 1 {
		t.Errorf("Expected 1 object-added event, got %d", *added)
	}

	// Saved and reloaded, the new panel stays next to Memory.
	back, err := Load(d.Save())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	release := back.Activate()
	defer release()
	bg := back.Body().(*GridLayout)
	if it := bg.Items()[2]; it.Panel.Key != "panel-11" || it.Y != 16 {
		t.Errorf("Expected panel-11 back at y=16, got %s at %d", it.Panel.Key, it.Y)
	}
	if i, j := grid.FirstOverlap(bg.Cells()); i >= 0 {
		t.Errorf("Expected no overlap after reload, got %d and %d", i, j)
	}

	if err := d.RemovePanel(p); err != nil {
		t.Fatalf("RemovePanel failed: %v", err)
	}
	if *removed != 1 {
		t.Errorf("Expected 1 object-removed event, got %d", *removed)
	}
	if _, ok := d.Panel("panel-11"); ok {
		t.Errorf("Expected panel-11 gone")
	}
}

func TestDashboard_SelectionChangeRepeats(t *testing.T) {
	d := loadServers(t)
	repeats := countEvents(d.Bus, scene.EventRepeatsProcessed)
	deactivate := d.Activate()

	if err := d.Variables.Select("server", "a"); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	g := d.Body().(*GridLayout)
	if g.Items()[0].Height != 8 || g.Items()[1].Y != 8 {
		t.Errorf("Expected collapse to a single instance, got height %d and y=%d", g.Items()[0].Height, g.Items()[1].Y)
	}
	if *repeats != 2 {
		t.Errorf("Expected 2 repeat cycles, got %d", *repeats)
	}

	deactivate()
	if err := d.Variables.Select("server", "a", "b", "c"); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if g.Items()[0].Height != 8 {
		t.Errorf("Expected no repeat after deactivation, got height %d", g.Items()[0].Height)
	}
}

func rowCopies(g *GridLayout, source string) []*GridRow {
	var out []*GridRow
	for _, r := range g.Rows() {
		if r.RepeatSourceKey == source {
			out = append(out, r)
		}
	}
	return out
}

func TestDashboard_EditsInRepeatedRowReachCopies(t *testing.T) {
	cpu := newItem(1, "CPU", grid.Cell{X: 0, Y: 1, Width: 12, Height: 6})
	row := NewGridRow("row-1", "Server $server", 0, cpu)
	row.Repeat = &RepeatBinding{Variable: "server"}
	g := NewGridLayout(row)
	d := NewDashboard("Servers", newServerScope("a", "b", "c"), g)
	deactivate := d.Activate()
	defer deactivate()

	assertCopies := func(step string, want int) {
		t.Helper()
		copies := rowCopies(g, "row-1")
		if len(copies) != 2 {
			t.Fatalf("%s: expected 2 copies, got %d", step, len(copies))
		}
		if got := len(row.Children); got != want {
			t.Fatalf("%s: expected source row with %d children, got %d", step, want, got)
		}
		for _, c := range copies {
			if got := len(c.Children); got != want {
				t.Errorf("%s: expected %s with %d children, got %d", step, c.Key, want, got)
			}
		}
	}
	assertCopies("activate", 1)

	dup, err := d.DuplicatePanel(cpu.Panel)
	if err != nil {
		t.Fatalf("DuplicatePanel failed: %v", err)
	}
	assertCopies("duplicate", 2)
	if _, ok := d.Panel("row-1-clone-1/" + dup.Key); !ok {
		t.Errorf("Expected the duplicate copied into row-1-clone-1")
	}

	if err := d.RemovePanel(cpu.Panel); err != nil {
		t.Fatalf("RemovePanel failed: %v", err)
	}
	assertCopies("remove", 1)
	if _, ok := d.Panel("row-1-clone-2/panel-1"); ok {
		t.Errorf("Expected the removed panel gone from row-1-clone-2")
	}

	if err := d.MovePanels(g, g, dup); err != nil {
		t.Fatalf("MovePanels failed: %v", err)
	}
	assertCopies("move", 0)
	if _, ok := d.Panel("row-1-clone-1/" + dup.Key); ok {
		t.Errorf("Expected the moved panel gone from row-1-clone-1")
	}
	if !ContainsPanel(g, dup) {
		t.Errorf("Expected the moved panel to stay on the grid")
	}
}

func TestDashboard_MoveIntoRepeatedRowItemReachesCopies(t *testing.T) {
	repeated := NewRowItem("row-1", "Server $server", NewGridLayout(newItem(1, "CPU", grid.Cell{Width: 12, Height: 8})))
	repeated.Repeat = &RepeatBinding{Variable: "server"}
	mem := newItem(2, "Memory", grid.Cell{Width: 12, Height: 8})
	static := NewRowItem("row-2", "Static", NewGridLayout(mem))
	l := NewRowsLayout(repeated, static)
	d := NewDashboard("Rows", newServerScope("a", "b"), l)
	deactivate := d.Activate()
	defer deactivate()

	if _, ok := d.Panel("row-1-clone-1/panel-1"); !ok {
		t.Fatalf("Expected row-1 copied on activate")
	}
	if err := d.MovePanels(static.Layout, l, mem.Panel); err != nil {
		t.Fatalf("MovePanels failed: %v", err)
	}
	if len(l.Rows()) != 3 {
		t.Fatalf("Expected source, copy and static row, got %d rows", len(l.Rows()))
	}
	if _, ok := d.Panel("row-1-clone-1/panel-2"); !ok {
		t.Errorf("Expected the moved panel copied into row-1-clone-1")
	}
	if got := panelKeys(static.Layout.Panels()); got != "" {
		t.Errorf("Expected the static row emptied, got %s", got)
	}

	version := l.Version()
	d.RepeatAll(false)
	if l.Version() != version {
		t.Errorf("Expected an unedited source to leave copies alone")
	}
}
