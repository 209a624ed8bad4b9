package layout

import (
	"slices"

	"dashgrid/internal/grid"
	"dashgrid/internal/scene"
	"dashgrid/internal/variables"
)

// GridChild is a top-level element of a free grid: *GridItem or *GridRow.
type GridChild interface {
	ElementKey() string
	gridChild()
}

// GridItem places one panel in a free grid. When repeated, the cell is the
// whole block and ItemHeight the height of one instance.
type GridItem struct {
	Key    string
	X      int
	Y      int
	Width  int
	Height int
	Panel  *Panel
	Repeat *RepeatBinding

	itemHeight  int
	repeated    []*Panel
	repeatShift int
	repeater    *PanelRepeater
}

// NewGridItem wraps p in an item at cell c.
func NewGridItem(p *Panel, c grid.Cell) *GridItem {
	return &GridItem{
		Key:    GridItemKey(p.ID),
		X:      c.X,
		Y:      c.Y,
		Width:  c.Width,
		Height: c.Height,
		Panel:  p,
	}
}

func (g *GridItem) ElementKey() string { return g.Key }
func (g *GridItem) gridChild()         {}

// Cell is the area the item occupies, the whole block when repeated.
func (g *GridItem) Cell() grid.Cell {
	return grid.Cell{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}
}

// Bottom is the first grid row below the item.
func (g *GridItem) Bottom() int { return g.Y + g.Height }

// ItemHeight is the height of a single repeated instance.
func (g *GridItem) ItemHeight() int {
	if g.itemHeight > 0 {
		return g.itemHeight
	}
	return g.Height
}

// SetHeight resizes the block. A repeated block spreads the new height over
// its instance rows, rounding the instance height up.
func (g *GridItem) SetHeight(h int) {
	if g.Repeat == nil || len(g.repeated) == 0 {
		g.itemHeight = h
		g.Height = h
		return
	}
	b := g.Repeat
	rows := grid.RepeatRows(len(g.repeated), b.Direction, b.MaxPerRow)
	g.itemHeight = grid.ItemHeightFor(h, rows)
	g.Height = g.itemHeight * rows
}

// Instances returns the panels the item renders: the repeated instances when
// a repeat cycle ran, the panel alone otherwise.
func (g *GridItem) Instances() []*Panel {
	if len(g.repeated) == 0 {
		return []*Panel{g.Panel}
	}
	return slices.Clone(g.repeated)
}

// InstanceCells returns one cell per instance, in Instances order.
func (g *GridItem) InstanceCells() []grid.Cell {
	if g.Repeat == nil || len(g.repeated) == 0 {
		return []grid.Cell{g.Cell()}
	}
	b := g.Repeat
	return grid.RepeatCells(g.Cell(), len(g.repeated), b.Direction, b.MaxPerRow, g.ItemHeight())
}

// Repeater returns the item's controller, nil until a repeated item activates.
func (g *GridItem) Repeater() *PanelRepeater { return g.repeater }

// shift moves the item down by dy, rdy of which comes from repeat expansion.
func (g *GridItem) shift(dy, rdy int) {
	g.Y += dy
	g.repeatShift += rdy
}

func (g *GridItem) copyItem(c copier) *GridItem {
	p := c.panel(g.Panel)
	return &GridItem{
		Key:         c.itemKey(g.Key, p, GridItemKey),
		X:           g.X,
		Y:           g.Y,
		Width:       g.Width,
		Height:      g.Height,
		Panel:       p,
		Repeat:      g.Repeat.copy(),
		itemHeight:  g.itemHeight,
		repeatShift: g.repeatShift,
	}
}

func (g *GridItem) elementKey() string          { return g.Key }
func (g *GridItem) source() *Panel              { return g.Panel }
func (g *GridItem) binding() *RepeatBinding     { return g.Repeat }
func (g *GridItem) setRepeated(panels []*Panel) { g.repeated = panels }

func (g *GridItem) activate(e env, owner panelOwner) func() {
	g.Panel.scope = e.scope
	if g.Repeat == nil {
		return nil
	}
	if g.repeater == nil {
		g.repeater = &PanelRepeater{item: g}
	}
	return g.repeater.activate(e, owner)
}

// GridRow is a row header in a free grid. Its children are positioned in
// absolute grid coordinates below the header.
type GridRow struct {
	Key             string
	Title           string
	Y               int
	Collapsed       bool
	Children        []*GridItem
	Repeat          *RepeatBinding
	RepeatSourceKey string

	repeatShift int
	scope       *variables.Set
	repeater    *GridRowRepeater
}

// NewGridRow creates a row header at y.
func NewGridRow(key, title string, y int, children ...*GridItem) *GridRow {
	return &GridRow{Key: key, Title: title, Y: y, Children: children}
}

func (r *GridRow) ElementKey() string { return r.Key }
func (r *GridRow) gridChild()         {}

// IsClone reports whether the row was generated by a repeat.
func (r *GridRow) IsClone() bool { return r.RepeatSourceKey != "" }

// Scope is the variable scope the row's children resolve in.
func (r *GridRow) Scope() *variables.Set { return r.scope }

// HeaderCell is the full-width cell of the row header.
func (r *GridRow) HeaderCell() grid.Cell {
	return grid.Cell{X: 0, Y: r.Y, Width: grid.Columns, Height: grid.RowHeight}
}

// ContentHeight is the height of the visible children below the header.
func (r *GridRow) ContentHeight() int {
	if r.Collapsed || len(r.Children) == 0 {
		return 0
	}
	return max(r.contentBottom()-(r.Y+grid.RowHeight), 0)
}

func (r *GridRow) contentBottom() int {
	bottom := r.Y + grid.RowHeight
	for _, c := range r.Children {
		bottom = max(bottom, c.Bottom())
	}
	return bottom
}

// Bottom is the first grid row below the header and its visible children.
func (r *GridRow) Bottom() int {
	if r.Collapsed {
		return r.Y + grid.RowHeight
	}
	return r.contentBottom()
}

// Repeater returns the row's controller, nil until a repeated row activates.
func (r *GridRow) Repeater() *GridRowRepeater { return r.repeater }

func (r *GridRow) visibleCells() []grid.Cell {
	cells := []grid.Cell{r.HeaderCell()}
	if !r.Collapsed {
		for _, c := range r.Children {
			cells = append(cells, c.Cell())
		}
	}
	return cells
}

func (r *GridRow) shift(dy, rdy int) {
	r.Y += dy
	r.repeatShift += rdy
	for _, c := range r.Children {
		c.shift(dy, rdy)
	}
}

// repeatExpansion is how much taller the children are than their templates.
func (r *GridRow) repeatExpansion() int {
	e := 0
	for _, c := range r.Children {
		e = max(e, c.Height-c.ItemHeight())
	}
	return e
}

// copyRow copies the row under key, moving it and its children down by dy.
// Repeat instances of the children are not copied.
func (r *GridRow) copyRow(key string, c copier, dy int) *GridRow {
	out := &GridRow{
		Key:         key,
		Title:       r.Title,
		Y:           r.Y + dy,
		Collapsed:   r.Collapsed,
		repeatShift: r.repeatShift,
	}
	for _, item := range r.Children {
		ci := item.copyItem(c)
		ci.Y += dy
		out.Children = append(out.Children, ci)
	}
	return out
}

func (r *GridRow) panels() []*Panel {
	var out []*Panel
	for _, c := range r.Children {
		out = append(out, c.Instances()...)
	}
	return out
}

func (r *GridRow) activate(e env, owner *GridLayout) func() {
	if r.Repeat == nil {
		r.scope = e.scope
		return activateGridItems(r.Children, e, owner)
	}
	if r.repeater == nil {
		r.repeater = &GridRowRepeater{row: r}
	}
	return r.repeater.activate(e, owner)
}

func activateGridItems(items []*GridItem, e env, owner *GridLayout) func() {
	var group scene.Group
	for _, item := range items {
		group.Add(item.activate(e, owner))
	}
	return group.Release
}
