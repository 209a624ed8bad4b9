package grid

type point struct{ x, y int }

type occupancy map[point]struct{}

func newOccupancy(cells []Cell) occupancy {
	o := make(occupancy)
	for _, c := range cells {
		for y := c.Y; y < c.Bottom(); y++ {
			for x := c.X; x < c.Right(); x++ {
				o[point{x, y}] = struct{}{}
			}
		}
	}
	return o
}

func (o occupancy) free(x, y, w, h int) bool {
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			if _, taken := o[point{xx, yy}]; taken {
				return false
			}
		}
	}
	return true
}

// FindSpace returns the best free rectangle for a new element given the cells
// already taken. Rows are scanned top to bottom and columns left to right for
// the first spot that holds a MinWidth x MinHeight element. A spot inside the
// existing content grows right, then down, to fill the gap it found; a spot on
// the fresh row below all content gets the default size instead. The result
// depends only on occupied, never on earlier calls.
func FindSpace(occupied []Cell, columns int) Cell {
	if columns <= 0 {
		columns = Columns
	}
	taken := newOccupancy(occupied)
	maxY := MaxY(occupied)
	defaultWidth := min(DefaultWidth, columns)

	for y := 0; y <= maxY; y++ {
		for x := 0; x+MinWidth <= columns; x++ {
			if !taken.free(x, y, MinWidth, MinHeight) {
				continue
			}
			if y >= maxY {
				return Cell{X: x, Y: y, Width: min(defaultWidth, columns-x), Height: DefaultHeight}
			}

			w := MinWidth
			for x+w < columns && taken.free(x+w, y, 1, MinHeight) {
				w++
			}
			h := MinHeight
			for h < MaxGrowHeight && y+h < maxY && taken.free(x, y+h, w, 1) {
				h++
			}
			return Cell{X: x, Y: y, Width: w, Height: h}
		}
	}

	return Cell{X: 0, Y: maxY, Width: defaultWidth, Height: DefaultHeight}
}
