// Package grid holds the integer cell geometry shared by every grid-shaped
// layout, and the allocator that finds room for new elements.
package grid

import "fmt"

const (
	// Columns is the fixed column count of every dashboard grid.
	Columns = 24

	// MinWidth and MinHeight bound the smallest element the allocator will place.
	MinWidth  = 8
	MinHeight = 6

	// DefaultWidth and DefaultHeight size an element placed on a fresh row.
	DefaultWidth  = 12
	DefaultHeight = 8

	// MaxGrowHeight caps how tall a gap-filling element may grow.
	MaxGrowHeight = 20

	// RowHeight is the height of a row header in a free grid.
	RowHeight = 1
)

// Cell is a rectangle in grid units.
type Cell struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", c.X, c.Y, c.Width, c.Height)
}

// Right is the first column past the cell.
func (c Cell) Right() int { return c.X + c.Width }

// Bottom is the first row past the cell.
func (c Cell) Bottom() int { return c.Y + c.Height }

// Empty reports whether the cell covers no grid units.
func (c Cell) Empty() bool { return c.Width <= 0 || c.Height <= 0 }

// Overlaps reports whether two cells share at least one grid unit.
func (c Cell) Overlaps(o Cell) bool {
	if c.Empty() || o.Empty() {
		return false
	}
	return c.X < o.Right() && o.X < c.Right() && c.Y < o.Bottom() && o.Y < c.Bottom()
}

// OverlapsColumns reports whether the two cells share at least one column.
func (c Cell) OverlapsColumns(o Cell) bool {
	return c.X < o.Right() && o.X < c.Right()
}

// Translate returns the cell moved down by dy rows.
func (c Cell) Translate(dy int) Cell {
	c.Y += dy
	return c
}

// MaxY returns the lowest bottom edge across cells, 0 for none.
func MaxY(cells []Cell) int {
	maxY := 0
	for _, c := range cells {
		if b := c.Bottom(); b > maxY {
			maxY = b
		}
	}
	return maxY
}

// FirstOverlap returns the indexes of the first overlapping pair, or -1, -1.
func FirstOverlap(cells []Cell) (int, int) {
	for i := range cells {
		for j := i + 1; j < len(cells); j++ {
			if cells[i].Overlaps(cells[j]) {
				return i, j
			}
		}
	}
	return -1, -1
}
