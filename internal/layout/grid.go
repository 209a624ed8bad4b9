package layout

import (
	"fmt"
	"slices"

	"dashgrid/internal/clonekey"
	"dashgrid/internal/grid"
	"dashgrid/internal/scene"
)

// GridLayout is the free-form grid: items at absolute coordinates, optionally
// grouped under row headers.
type GridLayout struct {
	children *scene.State[[]GridChild]
	seq      *Sequence
}

// NewGridLayout creates a grid holding children.
func NewGridLayout(children ...GridChild) *GridLayout {
	return &GridLayout{children: scene.NewState(slices.Clone(children))}
}

func (g *GridLayout) Kind() Kind { return KindGrid }

// Children returns a copy of the top-level children.
func (g *GridLayout) Children() []GridChild {
	return slices.Clone(g.children.Get())
}

// SetChildren replaces the top-level children.
func (g *GridLayout) SetChildren(children []GridChild) {
	g.children.Set(slices.Clone(children))
}

// Version counts the structural edits of the top-level children.
func (g *GridLayout) Version() uint64 { return g.children.Version() }

func (g *GridLayout) OnChange(fn func()) scene.Unbind {
	return g.children.Bind(func([]GridChild) { fn() })
}

// Items returns the top-level items, those not under a row.
func (g *GridLayout) Items() []*GridItem {
	var out []*GridItem
	for _, c := range g.children.Get() {
		if item, ok := c.(*GridItem); ok {
			out = append(out, item)
		}
	}
	return out
}

// Rows returns the row headers, repeated copies included.
func (g *GridLayout) Rows() []*GridRow {
	var out []*GridRow
	for _, c := range g.children.Get() {
		if row, ok := c.(*GridRow); ok {
			out = append(out, row)
		}
	}
	return out
}

// Row finds a row by key.
func (g *GridLayout) Row(key string) (*GridRow, bool) {
	for _, r := range g.Rows() {
		if r.Key == key {
			return r, true
		}
	}
	return nil, false
}

func (g *GridLayout) Panels() []*Panel {
	var out []*Panel
	for _, c := range g.children.Get() {
		switch c := c.(type) {
		case *GridItem:
			out = append(out, c.Instances()...)
		case *GridRow:
			out = append(out, c.panels()...)
		}
	}
	return out
}

// Cells returns the visible cells of every element, repeat blocks and row
// headers included.
func (g *GridLayout) Cells() []grid.Cell {
	var cells []grid.Cell
	for _, c := range g.children.Get() {
		switch c := c.(type) {
		case *GridItem:
			cells = append(cells, c.Cell())
		case *GridRow:
			cells = append(cells, c.visibleCells()...)
		}
	}
	return cells
}

func (g *GridLayout) setSequence(s *Sequence) { g.seq = s }

// find locates the item wrapping p and the row holding it, if any.
func (g *GridLayout) find(p *Panel) (*GridItem, *GridRow) {
	for _, c := range g.children.Get() {
		switch c := c.(type) {
		case *GridItem:
			if c.Panel == p {
				return c, nil
			}
		case *GridRow:
			for _, item := range c.Children {
				if item.Panel == p {
					return item, c
				}
			}
		}
	}
	return nil, nil
}

func (g *GridLayout) AddPanel(p *Panel) error {
	assignKey(p, nextPanelID(&g.seq, g))
	g.place(NewGridItem(p, grid.Cell{}))
	return nil
}

// place finds space for item among the top-level items and inserts it before
// the first row, pushing the rows down if the new cell reaches them.
func (g *GridLayout) place(item *GridItem) {
	children := g.Children()
	var occupied []grid.Cell
	firstRow := -1
	for i, c := range children {
		switch c := c.(type) {
		case *GridItem:
			occupied = append(occupied, c.Cell())
		case *GridRow:
			if firstRow < 0 {
				firstRow = i
			}
		}
	}

	cell := grid.FindSpace(occupied, grid.Columns)
	item.X, item.Y, item.Width, item.Height = cell.X, cell.Y, cell.Width, cell.Height
	item.itemHeight = 0
	item.repeatShift = g.repeatShiftAt(cell.Y)

	if firstRow < 0 {
		g.children.Set(append(children, item))
		return
	}
	rowY := children[firstRow].(*GridRow).Y
	if overflow := cell.Bottom() - rowY; overflow > 0 {
		for _, c := range children[firstRow:] {
			if r, ok := c.(*GridRow); ok {
				r.shift(overflow, 0)
			}
		}
	}
	g.children.Set(slices.Insert(children, firstRow, GridChild(item)))
}

func (g *GridLayout) RemovePanel(p *Panel) error {
	_, err := g.detachPanel(p)
	return err
}

func (g *GridLayout) detachPanel(p *Panel) (*RepeatBinding, error) {
	if p.IsClone() {
		return nil, fmt.Errorf("%w: %s", ErrCloneReadOnly, p.Key)
	}
	item, row := g.find(p)
	if item == nil {
		return nil, fmt.Errorf("%w: %s", ErrPanelNotFound, p.Key)
	}
	if row != nil {
		row.Children = slices.DeleteFunc(slices.Clone(row.Children), func(c *GridItem) bool { return c == item })
		g.children.Set(g.Children())
	} else {
		g.children.Set(slices.DeleteFunc(g.Children(), func(c GridChild) bool { return c == GridChild(item) }))
	}
	return item.Repeat.copy(), nil
}

func (g *GridLayout) attachPanel(p *Panel, binding *RepeatBinding) {
	item := NewGridItem(p, grid.Cell{})
	item.Repeat = binding
	g.place(item)
}

func (g *GridLayout) DuplicatePanel(p *Panel) (*Panel, error) {
	if p.IsClone() {
		return nil, fmt.Errorf("%w: %s", ErrCloneReadOnly, p.Key)
	}
	item, row := g.find(p)
	if item == nil {
		return nil, fmt.Errorf("%w: %s", ErrPanelNotFound, p.Key)
	}

	np := p.copyAs("")
	assignKey(np, nextPanelID(&g.seq, g))
	dup := &GridItem{
		Key:    GridItemKey(np.ID),
		X:      item.X,
		Y:      item.Bottom(),
		Width:  item.Width,
		Height: item.ItemHeight(),
		Panel:  np,
		Repeat: item.Repeat.copy(),

		repeatShift: item.repeatShift + item.Height - item.ItemHeight(),
	}

	children := g.Children()
	shiftBelow(children, item.Bottom(), dup.Height, 0, skipKeys(item.Key))
	if row != nil {
		i := slices.Index(row.Children, item)
		row.Children = slices.Insert(slices.Clone(row.Children), i+1, dup)
	} else {
		i := slices.Index(children, GridChild(item))
		children = slices.Insert(children, i+1, GridChild(dup))
	}
	g.children.Set(children)
	return np, nil
}

// AddRow appends a row header below all content.
func (g *GridLayout) AddRow(title string) *GridRow {
	if g.seq == nil {
		g.seq = NewSequence(nil)
	}
	children := g.Children()
	row := NewGridRow(RowKey(g.seq.Next(g.Panels())), title, grid.MaxY(g.Cells()))
	row.repeatShift = g.repeatShiftAt(row.Y)
	g.children.Set(append(children, row))
	return row
}

// repeatShiftAt is how far repeat expansion above y has pushed content that
// starts at y.
func (g *GridLayout) repeatShiftAt(y int) int {
	shift := 0
	for _, c := range g.children.Get() {
		switch c := c.(type) {
		case *GridItem:
			if c.Bottom() <= y {
				shift += c.Height - c.ItemHeight()
			}
		case *GridRow:
			switch {
			case c.Bottom() > y:
			case c.IsClone():
				shift += c.Bottom() - c.Y
			case !c.Collapsed:
				shift += c.repeatExpansion()
			}
		}
	}
	return shift
}

// RemoveRow removes a row and its children.
func (g *GridLayout) RemoveRow(key string) error {
	row, ok := g.Row(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, key)
	}
	if row.IsClone() {
		return fmt.Errorf("%w: %s", ErrCloneReadOnly, key)
	}
	g.children.Set(slices.DeleteFunc(g.Children(), func(c GridChild) bool {
		r, ok := c.(*GridRow)
		return ok && (r == row || r.RepeatSourceKey == row.Key)
	}))
	return nil
}

// ToggleRow collapses or expands a row, moving the content below it.
func (g *GridLayout) ToggleRow(key string) error {
	row, ok := g.Row(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, key)
	}
	children := g.Children()
	oldBottom := row.Bottom()
	expansion := row.repeatExpansion()
	row.Collapsed = !row.Collapsed
	delta := row.Bottom() - oldBottom
	if row.Collapsed {
		expansion = -expansion
	}
	shiftBelow(children, oldBottom, delta, expansion, skipKeys(row.Key))
	g.children.Set(children)
	return nil
}

// Item finds an item by key, top-level or under a row.
func (g *GridLayout) Item(key string) (*GridItem, bool) {
	for _, c := range g.children.Get() {
		switch c := c.(type) {
		case *GridItem:
			if c.Key == key {
				return c, true
			}
		case *GridRow:
			for _, item := range c.Children {
				if item.Key == key {
					return item, true
				}
			}
		}
	}
	return nil, false
}

// ResizeItem sets the height of the item with key and moves what is below.
func (g *GridLayout) ResizeItem(key string, height int) error {
	item, ok := g.Item(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, key)
	}
	if item.Panel.IsClone() {
		return fmt.Errorf("%w: %s", ErrCloneReadOnly, key)
	}
	children := g.Children()
	oldBottom, oldTemplate := item.Bottom(), item.ItemHeight()
	item.SetHeight(height)
	delta := item.Bottom() - oldBottom
	shiftBelow(children, oldBottom, delta, delta-(item.ItemHeight()-oldTemplate), skipKeys(item.Key))
	g.children.Set(children)
	return nil
}

func (g *GridLayout) activate(e env) func() {
	var group scene.Group
	for _, c := range g.children.Get() {
		switch c := c.(type) {
		case *GridItem:
			group.Add(c.activate(e, g))
		case *GridRow:
			if c.IsClone() {
				continue
			}
			group.Add(c.activate(e, g))
		}
	}
	return group.Release
}

func (g *GridLayout) repeaters() []Repeater {
	var out []Repeater
	for _, c := range g.children.Get() {
		switch c := c.(type) {
		case *GridItem:
			if c.repeater != nil {
				out = append(out, c.repeater)
			}
		case *GridRow:
			if c.repeater != nil {
				out = append(out, c.repeater)
			}
			for _, item := range c.Children {
				if item.repeater != nil {
					out = append(out, item.repeater)
				}
			}
		}
	}
	return out
}

// applyPanelRepeat installs a new set of instances on a repeated item and
// moves what is below the block by the change in block height.
func (g *GridLayout) applyPanelRepeat(pi panelItem, panels []*Panel) {
	item, ok := pi.(*GridItem)
	if !ok || !ContainsPanel(g, item.Panel) {
		return
	}
	children := g.Children()
	oldBottom := item.Bottom()
	item.itemHeight = item.ItemHeight()
	item.setRepeated(panels)
	b := item.Repeat
	item.Height = grid.RepeatedHeight(len(panels), b.Direction, b.MaxPerRow, item.itemHeight)
	delta := item.Bottom() - oldBottom

	// A collapsed row only rearranges its own hidden children.
	if _, row := g.find(item.Panel); row != nil && row.Collapsed {
		siblings := make([]GridChild, len(row.Children))
		for i, c := range row.Children {
			siblings[i] = c
		}
		shiftBelow(siblings, oldBottom, delta, delta, skipKeys(item.Key))
	} else {
		shiftBelow(children, oldBottom, delta, delta, skipKeys(item.Key))
	}
	g.children.Set(children)
}

// repeatBlock returns row and its current repeated copies.
func (g *GridLayout) repeatBlock(row *GridRow) []*GridRow {
	block := []*GridRow{row}
	for _, r := range g.Rows() {
		if r.RepeatSourceKey == row.Key {
			block = append(block, r)
		}
	}
	return block
}

// expandRow replaces the previous copies of row with n-1 fresh ones placed
// under it, and moves what is below the block by the change in its height.
func (g *GridLayout) expandRow(row *GridRow, n int) []*GridRow {
	oldBottom := row.Bottom()
	var rest []GridChild
	for _, c := range g.children.Get() {
		if r, ok := c.(*GridRow); ok && r.RepeatSourceKey == row.Key {
			oldBottom = max(oldBottom, r.Bottom())
			continue
		}
		rest = append(rest, c)
	}
	idx := slices.Index(rest, GridChild(row))
	if idx < 0 {
		return nil
	}

	step := row.ContentHeight() + grid.RowHeight
	block := []*GridRow{row}
	skip := skipKeys(row.Key)
	for i := 1; i < n; i++ {
		key := clonekey.GetCloneKey(row.Key, i)
		clone := row.copyRow(key, rekeyCopier(func(k string) string { return clonekey.JoinCloneKeys(key, k) }), i*step)
		clone.RepeatSourceKey = row.Key
		block = append(block, clone)
		skip[key] = true
	}

	next := make([]GridChild, 0, len(rest)+n-1)
	next = append(next, rest[:idx+1]...)
	for _, r := range block[1:] {
		next = append(next, r)
	}
	next = append(next, rest[idx+1:]...)

	newBottom := block[len(block)-1].Bottom()
	shiftBelow(next, oldBottom, newBottom-oldBottom, newBottom-oldBottom, skip)
	g.children.Set(next)
	return block
}

func (g *GridLayout) copyManager(c copier) Manager {
	out := &GridLayout{}
	var children []GridChild
	for _, child := range g.children.Get() {
		switch child := child.(type) {
		case *GridItem:
			if child.Panel.IsClone() {
				continue
			}
			children = append(children, child.copyItem(c))
		case *GridRow:
			if child.IsClone() {
				continue
			}
			r := child.copyRow(c.containerKey(child.Key, "row"), c, 0)
			r.Repeat = child.Repeat.copy()
			children = append(children, r)
		}
	}
	out.children = scene.NewState(children)
	return out
}

func (g *GridLayout) CloneForComparison(ancestorKey string, isSource bool) Manager {
	return g.copyManager(comparisonCopier(ancestorKey, isSource))
}
