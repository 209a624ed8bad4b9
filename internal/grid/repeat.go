package grid

// Direction is the axis a repeated panel grows along.
type Direction string

const (
	Horizontal Direction = "h"
	Vertical   Direction = "v"

	// DefaultMaxPerRow applies to horizontal repeats that do not set one.
	DefaultMaxPerRow = 4
)

// Normalize maps an unset direction to Horizontal.
func (d Direction) Normalize() Direction {
	if d == Vertical {
		return Vertical
	}
	return Horizontal
}

// EffectiveMaxPerRow clamps maxPerRow to a usable value.
func EffectiveMaxPerRow(maxPerRow int) int {
	if maxPerRow <= 0 {
		return DefaultMaxPerRow
	}
	return maxPerRow
}

// RepeatRows is the number of grid rows n repeated instances occupy.
func RepeatRows(n int, direction Direction, maxPerRow int) int {
	if n <= 0 {
		return 1
	}
	if direction.Normalize() == Vertical {
		return n
	}
	per := EffectiveMaxPerRow(maxPerRow)
	return (n + per - 1) / per
}

// RepeatedHeight is the total height of a block of n repeated instances.
func RepeatedHeight(n int, direction Direction, maxPerRow, itemHeight int) int {
	return RepeatRows(n, direction, maxPerRow) * itemHeight
}

// ItemHeightFor derives the per-instance height from a block height spread
// over rows, rounding up so the instances never shrink below the block.
func ItemHeightFor(total, rows int) int {
	if rows <= 1 {
		return total
	}
	return (total + rows - 1) / rows
}

// RepeatCells lays n instances out inside the block cell. Horizontal repeats
// fill min(n, maxPerRow) columns per row; vertical repeats stack full width.
func RepeatCells(block Cell, n int, direction Direction, maxPerRow, itemHeight int) []Cell {
	cells := make([]Cell, 0, n)
	if direction.Normalize() == Vertical {
		for i := 0; i < n; i++ {
			cells = append(cells, Cell{X: block.X, Y: block.Y + i*itemHeight, Width: block.Width, Height: itemHeight})
		}
		return cells
	}

	perRow := min(EffectiveMaxPerRow(maxPerRow), max(n, 1))
	width := max(block.Width/perRow, 1)
	for i := 0; i < n; i++ {
		col, row := i%perRow, i/perRow
		cells = append(cells, Cell{
			X:      block.X + col*width,
			Y:      block.Y + row*itemHeight,
			Width:  width,
			Height: itemHeight,
		})
	}
	return cells
}
