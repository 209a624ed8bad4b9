package layout

import "dashgrid/internal/grid"

// shiftBelow moves every element of children starting at or below boundary
// by delta. A row moves with its children; a row above the boundary only
// moves those of its children that start below it. Elements named in skip,
// and the children of a skipped row, stay put.
//
// repeatPart is the share of delta caused by repeat expansion. Saving undoes
// it so stored positions stay those of the unexpanded layout.
//
// An upward shift is limited so nothing moves into an element that stays
// put. The applied shift is returned.
func shiftBelow(children []GridChild, boundary, delta, repeatPart int, skip map[string]bool) int {
	if delta == 0 {
		return 0
	}

	type unit struct {
		cells []grid.Cell
		move  func(dy, rdy int)
	}
	var moving []unit
	var fixed []grid.Cell

	for _, c := range children {
		switch c := c.(type) {
		case *GridItem:
			if !skip[c.Key] && c.Y >= boundary {
				moving = append(moving, unit{cells: []grid.Cell{c.Cell()}, move: c.shift})
				continue
			}
			fixed = append(fixed, c.Cell())
		case *GridRow:
			if skip[c.Key] {
				fixed = append(fixed, c.visibleCells()...)
				continue
			}
			if c.Y >= boundary {
				moving = append(moving, unit{cells: c.visibleCells(), move: c.shift})
				continue
			}
			fixed = append(fixed, c.HeaderCell())
			if c.Collapsed {
				continue
			}
			for _, item := range c.Children {
				if !skip[item.Key] && item.Y >= boundary {
					moving = append(moving, unit{cells: []grid.Cell{item.Cell()}, move: item.shift})
					continue
				}
				fixed = append(fixed, item.Cell())
			}
		}
	}

	dy := delta
	if delta < 0 {
		room := -delta
		for _, m := range moving {
			for _, mc := range m.cells {
				for _, f := range fixed {
					if f.OverlapsColumns(mc) && f.Y < mc.Y {
						room = min(room, max(mc.Y-f.Bottom(), 0))
					}
				}
			}
		}
		dy = -room
	}
	if dy == 0 {
		return 0
	}
	rdy := repeatPart
	if dy < 0 {
		rdy = max(repeatPart, dy)
	}
	for _, m := range moving {
		m.move(dy, rdy)
	}
	return dy
}

func skipKeys(keys ...string) map[string]bool {
	skip := make(map[string]bool, len(keys))
	for _, k := range keys {
		skip[k] = true
	}
	return skip
}
