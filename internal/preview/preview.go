// Package preview renders layouts as terminal text: a box drawing of the
// live grid and an outline tree of the saved structure.
package preview

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"

	"dashgrid/internal/grid"
	"dashgrid/internal/layout"
)

// DefaultColumnWidth is the number of terminal columns per grid column.
const DefaultColumnWidth = 3

// Options control rendering.
type Options struct {
	// ColumnWidth is the number of terminal columns per grid column.
	ColumnWidth int
	// Profile is the colour profile; termenv.Ascii renders plain text.
	Profile termenv.Profile
	// Legend appends the list of repeated groups.
	Legend bool
}

// Profile resolves a colour mode (auto, always or never) for output w.
func Profile(mode string, w io.Writer) termenv.Profile {
	switch mode {
	case "never":
		return termenv.Ascii
	case "always":
		return termenv.TrueColor
	}
	return termenv.NewOutput(w).EnvColorProfile()
}

type painter struct {
	opts     Options
	renderer *lipgloss.Renderer
	groups   []string
}

func newPainter(opts Options) *painter {
	if opts.ColumnWidth <= 0 {
		opts.ColumnWidth = DefaultColumnWidth
	}
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(opts.Profile)
	return &painter{opts: opts, renderer: r}
}

func (p *painter) plain() bool { return p.opts.Profile == termenv.Ascii }

// groupIndex returns the colour slot of a repeat group, allocating one on
// first sight.
func (p *painter) groupIndex(group string) int {
	for i, g := range p.groups {
		if g == group {
			return i
		}
	}
	p.groups = append(p.groups, group)
	return len(p.groups) - 1
}

// groupColor spreads hues by the golden angle so neighbouring groups differ.
func groupColor(i int) lipgloss.Color {
	hue := math.Mod(float64(i)*137.508+200, 360)
	return lipgloss.Color(colorful.Hsv(hue, 0.55, 0.9).Hex())
}

func (p *painter) style(pl layout.Placement) lipgloss.Style {
	s := p.renderer.NewStyle()
	if pl.Group != "" {
		s = s.Foreground(groupColor(p.groupIndex(pl.Group)))
	}
	if pl.Header || (pl.Group != "" && !pl.Clone) {
		s = s.Bold(true)
	}
	if pl.Clone {
		s = s.Faint(true)
	}
	return s
}

// Render draws the live state of m.
func Render(m layout.Manager, opts Options) string {
	return Frame(layout.BuildFrame(m), opts)
}

// Frame draws a frame snapshot.
func Frame(f layout.Frame, opts Options) string {
	p := newPainter(opts)
	lines := p.frame(f, "")
	if opts.Legend && len(p.groups) > 0 {
		lines = append(append(lines, ""), p.legend(f)...)
	}
	return strings.Join(lines, "\n") + "\n"
}

func (p *painter) frame(f layout.Frame, indent string) []string {
	switch f.Kind {
	case layout.KindRows, layout.KindTabs:
		var out []string
		for _, sub := range f.Frames {
			out = append(out, indent+p.heading(sub))
			if sub.Collapsed {
				continue
			}
			out = append(out, p.frame(sub, indent+"  ")...)
		}
		if len(f.Frames) == 0 {
			out = append(out, indent+"(empty)")
		}
		return out
	}
	lines := p.grid(f.Placements)
	for i := range lines {
		lines[i] = indent + lines[i]
	}
	return lines
}

func (p *painter) heading(f layout.Frame) string {
	title := f.Title
	if title == "" {
		title = f.Key
	}
	var b strings.Builder
	switch {
	case f.Section == layout.NodeTab:
		b.WriteString("▍" + title)
	case f.Collapsed:
		b.WriteString("▸ " + title)
	default:
		b.WriteString("▾ " + title)
	}
	if f.Clone {
		b.WriteString(" (repeat)")
	}
	fmt.Fprintf(&b, " [%s]", f.Kind)
	if p.plain() {
		return b.String()
	}
	return p.renderer.NewStyle().Bold(true).Render(b.String())
}

func (p *painter) grid(placements []layout.Placement) []string {
	cells := make([]grid.Cell, len(placements))
	for i, pl := range placements {
		cells[i] = pl.Cell
	}
	cw := p.opts.ColumnWidth
	c := newCanvas(grid.Columns*cw, grid.MaxY(cells))
	styles := make([]lipgloss.Style, len(placements))
	for i, pl := range placements {
		styles[i] = p.style(pl)
		drawBox(c, pl, i, cw)
	}
	return c.lines(func(owner int, s string) string {
		if owner == empty || p.plain() {
			return s
		}
		return styles[owner].Render(s)
	})
}

func drawBox(c *canvas, pl layout.Placement, owner, cw int) {
	x0, x1 := pl.Cell.X*cw, pl.Cell.Right()*cw-1
	y0, y1 := pl.Cell.Y, pl.Cell.Bottom()-1
	label := pl.Title
	if label == "" {
		label = pl.Key
	}

	if pl.Header || pl.Cell.Height == 1 {
		for x := x0; x <= x1; x++ {
			c.set(x, y0, '─', owner)
		}
		if pl.Header {
			label = "▾ " + label
		}
		c.text(x0, y0, x1, truncate(label+" ", x1-x0), owner)
		return
	}

	for x := x0 + 1; x < x1; x++ {
		c.set(x, y0, '─', owner)
		c.set(x, y1, '─', owner)
	}
	for y := y0 + 1; y < y1; y++ {
		c.set(x0, y, '│', owner)
		c.set(x1, y, '│', owner)
	}
	c.set(x0, y0, '┌', owner)
	c.set(x1, y0, '┐', owner)
	c.set(x0, y1, '└', owner)
	c.set(x1, y1, '┘', owner)

	inner := x1 - x0 - 1
	if y1-y0 < 2 {
		// Two lines tall: the label goes on the top border.
		c.text(x0+1, y0, x1, truncate(label, inner), owner)
		return
	}
	c.text(x0+1, y0+1, x1, truncate(label, inner), owner)
	if y1-y0 >= 3 && pl.Key != label {
		c.text(x0+1, y0+2, x1, truncate(pl.Key, inner), owner)
	}
}

func (p *painter) legend(f layout.Frame) []string {
	counts := make(map[string]int)
	var count func(layout.Frame)
	count = func(f layout.Frame) {
		for _, pl := range f.Placements {
			if pl.Group != "" && !pl.Header {
				counts[pl.Group]++
			}
		}
		for _, sub := range f.Frames {
			count(sub)
		}
	}
	count(f)

	out := []string{"Repeats:"}
	for i, g := range p.groups {
		swatch := "■"
		if !p.plain() {
			swatch = p.renderer.NewStyle().Foreground(groupColor(i)).Render(swatch)
		}
		out = append(out, fmt.Sprintf("  %s %s (%d panels)", swatch, g, counts[g]))
	}
	return out
}
