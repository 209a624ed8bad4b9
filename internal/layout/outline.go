package layout

import "dashgrid/internal/grid"

// NodeKind is the kind of an outline node.
type NodeKind string

const (
	NodePanel NodeKind = "panel"
	NodeRow   NodeKind = "row"
	NodeTab   NodeKind = "tab"
)

// OutlineNode describes one element of a layout tree. Repeated copies never
// appear in an outline.
type OutlineNode struct {
	Kind NodeKind
	// Key is the panel key for panels and the element key otherwise.
	Key string
	// ElementKey is the key of the element wrapping a panel.
	ElementKey string
	Title      string
	Panel      *Panel
	Repeat     *RepeatBinding
	// Cell is set for panels and rows of a free grid.
	Cell      *grid.Cell
	Collapsed bool
	// Layout is the kind of the nested layout of a rows-layout row or a tab.
	Layout   Kind
	Children []OutlineNode
}

func panelNode(elementKey string, p *Panel, b *RepeatBinding, cell *grid.Cell) OutlineNode {
	return OutlineNode{
		Kind:       NodePanel,
		Key:        p.Key,
		ElementKey: elementKey,
		Title:      p.Title,
		Panel:      p,
		Repeat:     b.copy(),
		Cell:       cell,
	}
}

func gridItemNode(item *GridItem) OutlineNode {
	cell := item.Cell()
	cell.Height = item.ItemHeight()
	return panelNode(item.Key, item.Panel, item.Repeat, &cell)
}

func (g *GridLayout) Outline() []OutlineNode {
	var nodes []OutlineNode
	for _, c := range g.children.Get() {
		switch c := c.(type) {
		case *GridItem:
			if c.Panel.IsClone() {
				continue
			}
			nodes = append(nodes, gridItemNode(c))
		case *GridRow:
			if c.IsClone() {
				continue
			}
			cell := c.HeaderCell()
			row := OutlineNode{
				Kind:      NodeRow,
				Key:       c.Key,
				Title:     c.Title,
				Repeat:    c.Repeat.copy(),
				Cell:      &cell,
				Collapsed: c.Collapsed,
			}
			for _, item := range c.Children {
				row.Children = append(row.Children, gridItemNode(item))
			}
			nodes = append(nodes, row)
		}
	}
	return nodes
}

func (a *AutoGridLayout) Outline() []OutlineNode {
	var nodes []OutlineNode
	for _, item := range a.items.Get() {
		if item.Panel.IsClone() {
			continue
		}
		nodes = append(nodes, panelNode(item.Key, item.Panel, item.Repeat, nil))
	}
	return nodes
}

func (l *RowsLayout) Outline() []OutlineNode {
	var nodes []OutlineNode
	for _, r := range l.rows.Get() {
		if r.IsClone() {
			continue
		}
		nodes = append(nodes, OutlineNode{
			Kind:      NodeRow,
			Key:       r.Key,
			Title:     r.Title,
			Repeat:    r.Repeat.copy(),
			Collapsed: r.Collapse,
			Layout:    r.Layout.Kind(),
			Children:  r.Layout.Outline(),
		})
	}
	return nodes
}

func (l *TabsLayout) Outline() []OutlineNode {
	var nodes []OutlineNode
	for _, t := range l.tabs.Get() {
		if t.IsClone() {
			continue
		}
		nodes = append(nodes, OutlineNode{
			Kind:     NodeTab,
			Key:      t.Key,
			Title:    t.Title,
			Repeat:   t.Repeat.copy(),
			Layout:   t.Layout.Kind(),
			Children: t.Layout.Outline(),
		})
	}
	return nodes
}

// WalkOutline calls fn for every node, depth first.
func WalkOutline(nodes []OutlineNode, fn func(n OutlineNode, depth int)) {
	var walk func([]OutlineNode, int)
	walk = func(nodes []OutlineNode, depth int) {
		for _, n := range nodes {
			fn(n, depth)
			walk(n.Children, depth+1)
		}
	}
	walk(nodes, 0)
}
