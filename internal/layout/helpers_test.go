package layout

import (
	"fmt"
	"strings"
	"testing"

	"dashgrid/internal/grid"
	"dashgrid/internal/scene"
	"dashgrid/internal/variables"
)

var serverOptions = []variables.Option{
	{Text: "Alpha", Value: "a"},
	{Text: "Bravo", Value: "b"},
	{Text: "Charlie", Value: "c"},
	{Text: "Delta", Value: "d"},
	{Text: "Echo", Value: "e"},
}

// newServerScope returns a root scope with a multi-value "server" variable
// selecting values.
func newServerScope(values ...string) *variables.Set {
	return variables.NewSet(nil, variables.NewCustom(variables.CustomConfig{
		Name:    "server",
		Options: serverOptions,
		Current: values,
		Multi:   true,
	}))
}

func newPanel(id int, title string) *Panel {
	p := NewPanel(title, "timeseries")
	assignKey(p, id)
	return p
}

func newItem(id int, title string, c grid.Cell) *GridItem {
	return NewGridItem(newPanel(id, title), c)
}

func activate(t *testing.T, m Manager, scope *variables.Set, bus *scene.Bus) {
	t.Helper()
	release := m.activate(env{scope: scope, bus: bus})
	t.Cleanup(release)
}

func countEvents(bus *scene.Bus, kind scene.EventKind) *int {
	n := new(int)
	bus.Subscribe(kind, func(scene.Event) { *n++ })
	return n
}

func panelKeys(panels []*Panel) string {
	keys := make([]string, len(panels))
	for i, p := range panels {
		keys[i] = p.Key
	}
	return strings.Join(keys, ",")
}

// outlineLines flattens an outline into comparable lines.
func outlineLines(nodes []OutlineNode) []string {
	var lines []string
	WalkOutline(nodes, func(n OutlineNode, depth int) {
		line := fmt.Sprintf("%d %s %s %q", depth, n.Kind, n.Key, n.Title)
		if n.Cell != nil {
			line += " " + n.Cell.String()
		}
		if n.Repeat != nil {
			line += fmt.Sprintf(" repeat=%s/%s/%d", n.Repeat.Variable, n.Repeat.Direction, n.Repeat.MaxPerRow)
		}
		if n.Layout != "" {
			line += " layout=" + string(n.Layout)
		}
		lines = append(lines, line)
	})
	return lines
}

func assertSameOutline(t *testing.T, want, got []OutlineNode) {
	t.Helper()
	w, g := outlineLines(want), outlineLines(got)
	if strings.Join(w, "\n") != strings.Join(g, "\n") {
		t.Fatalf("Expected outline\n%s\ngot\n%s", strings.Join(w, "\n"), strings.Join(g, "\n"))
	}
}
