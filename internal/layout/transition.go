package layout

import (
	"fmt"
	"log"

	"dashgrid/internal/grid"
)

// LooseTabTitle names the tab that collects panels not under any row or tab.
const LooseTabTitle = "General"

// group is a titled run of panels: a row or a tab of the source layout.
type group struct {
	title     string
	repeat    *RepeatBinding
	collapsed bool
	panels    []OutlineNode
}

// shape is the flattened form every supported source layout reduces to.
type shape struct {
	loose  []OutlineNode
	groups []group
}

// shapeOf flattens src. Supported shapes are a flat list of panels, a list
// of rows each holding panels only, and tabs each holding either of those.
// Inside a tab, panels next to rows are promoted ahead of every row.
func shapeOf(src Manager) (shape, error) {
	nodes := src.Outline()
	switch src.(type) {
	case *GridLayout, *AutoGridLayout, *RowsLayout:
		return shapeOfNodes(nodes, false)
	case *TabsLayout:
		var s shape
		for _, tab := range nodes {
			inner, err := shapeOfNodes(tab.Children, true)
			if err != nil {
				return shape{}, fmt.Errorf("tab %s: %w", tab.Key, err)
			}
			if len(inner.groups) == 0 {
				s.groups = append(s.groups, group{title: tab.Title, repeat: tab.Repeat.copy(), panels: inner.loose})
				continue
			}
			s.loose = append(s.loose, inner.loose...)
			s.groups = append(s.groups, inner.groups...)
		}
		return s, nil
	}
	return shape{}, fmt.Errorf("%w: unsupported layout %T", ErrInvalidScene, src)
}

func shapeOfNodes(nodes []OutlineNode, allowMixed bool) (shape, error) {
	var s shape
	for _, n := range nodes {
		switch n.Kind {
		case NodePanel:
			s.loose = append(s.loose, n)
		case NodeRow:
			g := group{title: n.Title, repeat: n.Repeat.copy(), collapsed: n.Collapsed}
			for _, c := range n.Children {
				if c.Kind != NodePanel {
					return shape{}, fmt.Errorf("%w: row %s holds a %s", ErrInvalidScene, n.Key, c.Kind)
				}
				g.panels = append(g.panels, c)
			}
			s.groups = append(s.groups, g)
		default:
			return shape{}, fmt.Errorf("%w: unexpected %s %s", ErrInvalidScene, n.Kind, n.Key)
		}
	}
	if len(s.loose) > 0 && len(s.groups) > 0 && !allowMixed {
		return shape{}, fmt.Errorf("%w: panels and rows mixed at the same level", ErrInvalidScene)
	}
	return s, nil
}

// Convert builds a layout of kind target holding the panels of src. Panels
// keep their keys and repeat bindings; every row and tab gets a fresh key
// from seq and every panel a fresh position. src is left untouched and must
// be discarded by the caller.
func Convert(src Manager, target Kind, seq *Sequence) (Manager, error) {
	s, err := shapeOf(src)
	if err != nil {
		log.Printf("Warning: cannot convert %s layout to %s: %v", src.Kind(), target, err)
		return nil, err
	}
	if seq == nil {
		seq = NewSequence(src.Panels)
	}

	var out Manager
	switch target {
	case KindGrid:
		out = buildGrid(s, seq)
	case KindAutoGrid:
		out = buildAutoGrid(s)
	case KindRows:
		out = buildRows(s, seq)
	case KindTabs:
		out = buildTabs(s, seq)
	default:
		return nil, fmt.Errorf("%w: layout %q", ErrUnknownKind, target)
	}
	out.setSequence(seq)
	return out, nil
}

// flow places the panel of n in the next free cell of cells, offset down by dy.
func flow(n OutlineNode, cells *[]grid.Cell, dy int) *GridItem {
	c := grid.FindSpace(*cells, grid.Columns)
	*cells = append(*cells, c)
	item := NewGridItem(n.Panel, c.Translate(dy))
	item.Repeat = n.Repeat.copy()
	return item
}

func flatGrid(nodes []OutlineNode) *GridLayout {
	var cells []grid.Cell
	var children []GridChild
	for _, n := range nodes {
		children = append(children, flow(n, &cells, 0))
	}
	return NewGridLayout(children...)
}

func buildGrid(s shape, seq *Sequence) *GridLayout {
	var cells []grid.Cell
	var children []GridChild
	for _, n := range s.loose {
		children = append(children, flow(n, &cells, 0))
	}
	y := grid.MaxY(cells)
	for _, g := range s.groups {
		row := NewGridRow(RowKey(seq.Next(nil)), g.title, y)
		row.Repeat = g.repeat.copy()
		row.Collapsed = g.collapsed
		var local []grid.Cell
		for _, n := range g.panels {
			row.Children = append(row.Children, flow(n, &local, y+grid.RowHeight))
		}
		children = append(children, row)
		y = row.Bottom()
	}
	return NewGridLayout(children...)
}

func buildAutoGrid(s shape) *AutoGridLayout {
	var items []*AutoGridItem
	add := func(n OutlineNode) {
		item := NewAutoGridItem(n.Panel)
		item.Repeat = n.Repeat.copy()
		items = append(items, item)
	}
	for _, n := range s.loose {
		add(n)
	}
	for _, g := range s.groups {
		for _, n := range g.panels {
			add(n)
		}
	}
	return NewAutoGridLayout(items...)
}

func buildRows(s shape, seq *Sequence) *RowsLayout {
	var rows []*RowItem
	if len(s.loose) > 0 {
		row := NewRowItem(RowKey(seq.Next(nil)), "", flatGrid(s.loose))
		row.HideHeader = true
		rows = append(rows, row)
	}
	for _, g := range s.groups {
		row := NewRowItem(RowKey(seq.Next(nil)), g.title, flatGrid(g.panels))
		row.Repeat = g.repeat.copy()
		row.Collapse = g.collapsed
		rows = append(rows, row)
	}
	return NewRowsLayout(rows...)
}

func buildTabs(s shape, seq *Sequence) *TabsLayout {
	var tabs []*TabItem
	if len(s.loose) > 0 {
		tabs = append(tabs, NewTabItem(TabKey(seq.Next(nil)), LooseTabTitle, flatGrid(s.loose)))
	}
	for _, g := range s.groups {
		tab := NewTabItem(TabKey(seq.Next(nil)), g.title, flatGrid(g.panels))
		tab.Repeat = g.repeat.copy()
		tabs = append(tabs, tab)
	}
	return NewTabsLayout(tabs...)
}
