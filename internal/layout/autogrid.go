package layout

import (
	"fmt"
	"slices"

	"dashgrid/internal/grid"
	"dashgrid/internal/scene"
)

// Auto grid sizing modes.
const (
	SizeStandard = "standard"
	SizeCustom   = "custom"
	SizeNarrow   = "narrow"
	SizeWide     = "wide"
	SizeShort    = "short"
	SizeTall     = "tall"

	DefaultMaxColumnCount = 3
)

// AutoGridItem wraps one panel in an auto grid. Position follows from order.
type AutoGridItem struct {
	Key    string
	Panel  *Panel
	Repeat *RepeatBinding

	repeated []*Panel
	repeater *PanelRepeater
}

// NewAutoGridItem wraps p.
func NewAutoGridItem(p *Panel) *AutoGridItem {
	return &AutoGridItem{Key: AutoGridItemKey(p.ID), Panel: p}
}

// Instances returns the repeated instances, or the panel alone.
func (a *AutoGridItem) Instances() []*Panel {
	if len(a.repeated) == 0 {
		return []*Panel{a.Panel}
	}
	return slices.Clone(a.repeated)
}

// Repeater returns the item's controller, nil until a repeated item activates.
func (a *AutoGridItem) Repeater() *PanelRepeater { return a.repeater }

func (a *AutoGridItem) elementKey() string          { return a.Key }
func (a *AutoGridItem) source() *Panel              { return a.Panel }
func (a *AutoGridItem) binding() *RepeatBinding     { return a.Repeat }
func (a *AutoGridItem) setRepeated(panels []*Panel) { a.repeated = panels }

func (a *AutoGridItem) activate(e env, owner panelOwner) func() {
	a.Panel.scope = e.scope
	if a.Repeat == nil {
		return nil
	}
	if a.repeater == nil {
		a.repeater = &PanelRepeater{item: a}
	}
	return a.repeater.activate(e, owner)
}

func (a *AutoGridItem) copyItem(c copier) *AutoGridItem {
	p := c.panel(a.Panel)
	return &AutoGridItem{
		Key:    c.itemKey(a.Key, p, AutoGridItemKey),
		Panel:  p,
		Repeat: a.Repeat.copy(),
	}
}

// AutoGridLayout flows panels left to right into equal columns.
type AutoGridLayout struct {
	MaxColumnCount  int
	ColumnWidthMode string
	ColumnWidth     int
	RowHeightMode   string
	RowHeight       int
	FillScreen      bool

	items *scene.State[[]*AutoGridItem]
	seq   *Sequence
}

// NewAutoGridLayout creates an auto grid with the standard sizing.
func NewAutoGridLayout(items ...*AutoGridItem) *AutoGridLayout {
	return &AutoGridLayout{
		MaxColumnCount:  DefaultMaxColumnCount,
		ColumnWidthMode: SizeStandard,
		RowHeightMode:   SizeStandard,
		items:           scene.NewState(slices.Clone(items)),
	}
}

func (a *AutoGridLayout) Kind() Kind { return KindAutoGrid }

// Items returns a copy of the items.
func (a *AutoGridLayout) Items() []*AutoGridItem {
	return slices.Clone(a.items.Get())
}

// SetItems replaces the items.
func (a *AutoGridLayout) SetItems(items []*AutoGridItem) {
	a.items.Set(slices.Clone(items))
}

// Version counts the structural edits of the items.
func (a *AutoGridLayout) Version() uint64 { return a.items.Version() }

func (a *AutoGridLayout) OnChange(fn func()) scene.Unbind {
	return a.items.Bind(func([]*AutoGridItem) { fn() })
}

func (a *AutoGridLayout) Panels() []*Panel {
	var out []*Panel
	for _, item := range a.items.Get() {
		out = append(out, item.Instances()...)
	}
	return out
}

// columns is the number of columns the items flow into.
func (a *AutoGridLayout) columns() int {
	switch a.ColumnWidthMode {
	case SizeNarrow:
		return min(max(a.MaxColumnCount, 1)+1, 8)
	case SizeWide:
		return max(min(a.MaxColumnCount, 2), 1)
	}
	if a.MaxColumnCount <= 0 {
		return DefaultMaxColumnCount
	}
	return min(a.MaxColumnCount, grid.Columns)
}

func (a *AutoGridLayout) rowHeight() int {
	switch a.RowHeightMode {
	case SizeShort:
		return grid.MinHeight
	case SizeTall:
		return grid.DefaultHeight * 2
	case SizeCustom:
		if a.RowHeight > 0 {
			return a.RowHeight
		}
	}
	return grid.DefaultHeight
}

// Cells lays every panel instance out in reading order, one cell per
// Panels entry.
func (a *AutoGridLayout) Cells() []grid.Cell {
	cols := a.columns()
	width := grid.Columns / cols
	height := a.rowHeight()
	panels := a.Panels()
	cells := make([]grid.Cell, len(panels))
	for i := range panels {
		cells[i] = grid.Cell{X: (i % cols) * width, Y: (i / cols) * height, Width: width, Height: height}
	}
	return cells
}

func (a *AutoGridLayout) setSequence(s *Sequence) { a.seq = s }

func (a *AutoGridLayout) find(p *Panel) int {
	return slices.IndexFunc(a.items.Get(), func(item *AutoGridItem) bool { return item.Panel == p })
}

func (a *AutoGridLayout) AddPanel(p *Panel) error {
	assignKey(p, nextPanelID(&a.seq, a))
	a.items.Set(append(a.Items(), NewAutoGridItem(p)))
	return nil
}

func (a *AutoGridLayout) RemovePanel(p *Panel) error {
	_, err := a.detachPanel(p)
	return err
}

func (a *AutoGridLayout) detachPanel(p *Panel) (*RepeatBinding, error) {
	if p.IsClone() {
		return nil, fmt.Errorf("%w: %s", ErrCloneReadOnly, p.Key)
	}
	i := a.find(p)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrPanelNotFound, p.Key)
	}
	items := a.Items()
	binding := items[i].Repeat.copy()
	a.items.Set(slices.Delete(items, i, i+1))
	return binding, nil
}

func (a *AutoGridLayout) attachPanel(p *Panel, binding *RepeatBinding) {
	item := NewAutoGridItem(p)
	item.Repeat = binding
	a.items.Set(append(a.Items(), item))
}

func (a *AutoGridLayout) DuplicatePanel(p *Panel) (*Panel, error) {
	if p.IsClone() {
		return nil, fmt.Errorf("%w: %s", ErrCloneReadOnly, p.Key)
	}
	i := a.find(p)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrPanelNotFound, p.Key)
	}
	items := a.Items()
	dup := items[i].copyItem(freshCopier(a.sequence(), a))
	a.items.Set(slices.Insert(items, i+1, dup))
	return dup.Panel, nil
}

func (a *AutoGridLayout) sequence() *Sequence {
	if a.seq == nil {
		a.seq = NewSequence(nil)
	}
	return a.seq
}

func (a *AutoGridLayout) activate(e env) func() {
	var group scene.Group
	for _, item := range a.items.Get() {
		group.Add(item.activate(e, a))
	}
	return group.Release
}

func (a *AutoGridLayout) repeaters() []Repeater {
	var out []Repeater
	for _, item := range a.items.Get() {
		if item.repeater != nil {
			out = append(out, item.repeater)
		}
	}
	return out
}

func (a *AutoGridLayout) applyPanelRepeat(pi panelItem, panels []*Panel) {
	item, ok := pi.(*AutoGridItem)
	if !ok || a.find(item.Panel) < 0 {
		return
	}
	item.setRepeated(panels)
	a.items.Set(a.Items())
}

func (a *AutoGridLayout) copyManager(c copier) Manager {
	out := NewAutoGridLayout()
	out.MaxColumnCount = a.MaxColumnCount
	out.ColumnWidthMode = a.ColumnWidthMode
	out.ColumnWidth = a.ColumnWidth
	out.RowHeightMode = a.RowHeightMode
	out.RowHeight = a.RowHeight
	out.FillScreen = a.FillScreen
	var items []*AutoGridItem
	for _, item := range a.items.Get() {
		items = append(items, item.copyItem(c))
	}
	out.items = scene.NewState(items)
	return out
}

func (a *AutoGridLayout) CloneForComparison(ancestorKey string, isSource bool) Manager {
	return a.copyManager(comparisonCopier(ancestorKey, isSource))
}
