package preview

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	empty = -1
	// wide marks the second column of a double-width rune.
	wide = rune(0)
)

type canvas struct {
	width  int
	cells  [][]rune
	owners [][]int
}

func newCanvas(width, height int) *canvas {
	c := &canvas{width: width}
	for range height {
		row := make([]rune, width)
		owner := make([]int, width)
		for i := range row {
			row[i] = ' '
			owner[i] = empty
		}
		c.cells = append(c.cells, row)
		c.owners = append(c.owners, owner)
	}
	return c
}

func (c *canvas) set(x, y int, r rune, owner int) {
	if y < 0 || y >= len(c.cells) || x < 0 || x >= c.width {
		return
	}
	c.cells[y][x] = r
	c.owners[y][x] = owner
}

// text writes s from x, never past limit. Double-width runes take two columns.
func (c *canvas) text(x, y, limit int, s string, owner int) {
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if x+w > limit {
			return
		}
		c.set(x, y, r, owner)
		if w == 2 {
			c.set(x+1, y, wide, owner)
		}
		x += w
	}
}

// lines renders the canvas, passing every run of one owner through paint.
func (c *canvas) lines(paint func(owner int, s string) string) []string {
	out := make([]string, 0, len(c.cells))
	for y, row := range c.cells {
		var b strings.Builder
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && c.owners[y][x] == c.owners[y][start] {
				continue
			}
			var run strings.Builder
			for _, r := range row[start:x] {
				if r != wide {
					run.WriteRune(r)
				}
			}
			b.WriteString(paint(c.owners[y][start], run.String()))
			start = x
		}
		out = append(out, strings.TrimRight(b.String(), " "))
	}
	return out
}

// truncate shortens s to width columns, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
