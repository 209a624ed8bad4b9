package layout

import "dashgrid/internal/grid"

// Placement is one rendered box of a frame: a panel instance or a free-grid
// row header.
type Placement struct {
	Key    string
	Title  string
	Cell   grid.Cell
	Header bool
	Clone  bool
	// Group is the key of the repeat the box belongs to, empty when the box
	// is not repeated.
	Group string
}

// Frame is a renderable snapshot of a live layout, repeated copies included.
// Grid-shaped layouts fill Placements; rows and tabs fill Frames.
type Frame struct {
	Key        string
	Title      string
	Kind       Kind
	Section    NodeKind
	Clone      bool
	Collapsed  bool
	Placements []Placement
	Frames     []Frame
}

// BuildFrame snapshots m.
func BuildFrame(m Manager) Frame {
	f := Frame{Kind: m.Kind()}
	switch m := m.(type) {
	case *GridLayout:
		for _, c := range m.Children() {
			switch c := c.(type) {
			case *GridItem:
				f.Placements = append(f.Placements, itemPlacements(c, "")...)
			case *GridRow:
				group := ""
				if c.Repeat != nil {
					group = c.Key
				} else if c.IsClone() {
					group = c.RepeatSourceKey
				}
				f.Placements = append(f.Placements, Placement{
					Key:    c.Key,
					Title:  Interpolate(c.Title, c.scope),
					Cell:   c.HeaderCell(),
					Header: true,
					Clone:  c.IsClone(),
					Group:  group,
				})
				if c.Collapsed {
					continue
				}
				for _, item := range c.Children {
					f.Placements = append(f.Placements, itemPlacements(item, group)...)
				}
			}
		}
	case *AutoGridLayout:
		cells := m.Cells()
		i := 0
		for _, item := range m.Items() {
			group := ""
			if item.Repeat != nil {
				group = item.Key
			}
			for _, p := range item.Instances() {
				f.Placements = append(f.Placements, Placement{
					Key:   p.Key,
					Title: p.DisplayTitle(),
					Cell:  cells[i],
					Clone: p.IsClone(),
					Group: group,
				})
				i++
			}
		}
	case *RowsLayout:
		for _, r := range m.Rows() {
			sub := BuildFrame(r.Layout)
			sub.Key, sub.Title, sub.Section = r.Key, Interpolate(r.Title, r.scope), NodeRow
			sub.Clone, sub.Collapsed = r.IsClone(), r.Collapse
			f.Frames = append(f.Frames, sub)
		}
	case *TabsLayout:
		for _, t := range m.Tabs() {
			sub := BuildFrame(t.Layout)
			sub.Key, sub.Title, sub.Section = t.Key, Interpolate(t.Title, t.scope), NodeTab
			sub.Clone = t.IsClone()
			f.Frames = append(f.Frames, sub)
		}
	}
	return f
}

func itemPlacements(item *GridItem, group string) []Placement {
	if item.Repeat != nil {
		group = item.Key
	}
	cells := item.InstanceCells()
	panels := item.Instances()
	out := make([]Placement, 0, len(panels))
	for i, p := range panels {
		if i >= len(cells) {
			break
		}
		out = append(out, Placement{
			Key:   p.Key,
			Title: p.DisplayTitle(),
			Cell:  cells[i],
			Clone: p.IsClone(),
			Group: group,
		})
	}
	return out
}
