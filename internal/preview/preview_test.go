package preview

import (
	"bytes"
	"strings"
	"testing"

	"github.com/muesli/termenv"

	"dashgrid/internal/grid"
	"dashgrid/internal/layout"
	"dashgrid/internal/schema"
)

func loadServers(t *testing.T, active bool) *layout.Dashboard {
	t.Helper()
	doc, err := schema.ReadFile("../schema/testdata/servers.yaml")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	d, err := layout.Load(doc)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if active {
		t.Cleanup(d.Activate())
	}
	return d
}

func TestRender_DrawsRepeatedInstances(t *testing.T) {
	d := loadServers(t, true)
	out := Render(d.Body(), Options{Profile: termenv.Ascii})
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")

	if len(lines) != 31 {
		t.Fatalf("Expected 31 lines, got %d:\n%s", len(lines), out)
	}
	top := []rune(lines[0])
	if top[0] != '┌' || top[35] != '┐' || top[36] != '┌' || top[71] != '┐' {
		t.Errorf("Expected two boxes side by side, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "CPU Alpha") || !strings.Contains(lines[1], "CPU Bravo") {
		t.Errorf("Expected first instance row labels, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "panel-1-clone-1") {
		t.Errorf("Expected clone key under its label, got %q", lines[2])
	}
	if !strings.Contains(lines[9], "CPU Charlie") {
		t.Errorf("Expected third instance on the second block row, got %q", lines[9])
	}
	if !strings.Contains(lines[17], "Memory") {
		t.Errorf("Expected Memory pushed below the block, got %q", lines[17])
	}
	if !strings.HasPrefix(lines[24], "▾ Details") {
		t.Errorf("Expected row header on line 24, got %q", lines[24])
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("Expected plain output for the ascii profile")
	}
}

func TestRender_Legend(t *testing.T) {
	d := loadServers(t, true)
	out := Render(d.Body(), Options{Profile: termenv.Ascii, Legend: true})
	if !strings.Contains(out, "■ grid-item-1 (3 panels)") {
		t.Errorf("Expected legend entry for grid-item-1, got:\n%s", out)
	}
}

func TestRender_ColourProfile(t *testing.T) {
	d := loadServers(t, true)
	out := Render(d.Body(), Options{Profile: termenv.TrueColor})
	if !strings.Contains(out, "\x1b[") {
		t.Errorf("Expected escape sequences for a truecolor profile")
	}
}

func TestRender_RowsLayout(t *testing.T) {
	disk := layout.NewGridItem(layout.NewPanel("Disk", "gauge"), grid.Cell{X: 0, Y: 0, Width: 12, Height: 6})
	rows := layout.NewRowsLayout(
		layout.NewRowItem("row-1", "Details", layout.NewGridLayout(disk)),
		layout.NewRowItem("row-2", "Hidden", nil),
	)
	rows.Rows()[1].Collapse = true

	out := Render(rows, Options{Profile: termenv.Ascii, ColumnWidth: 2})
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if lines[0] != "▾ Details [grid]" {
		t.Errorf("Expected a heading for the Details row, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "  ┌") || !strings.Contains(lines[2], "Disk") {
		t.Errorf("Expected the nested grid indented below the heading, got:\n%s", out)
	}
	if last := lines[len(lines)-1]; last != "▸ Hidden [grid]" {
		t.Errorf("Expected the collapsed row without content, got %q", last)
	}
	if len(lines) != 1+6+1 {
		t.Errorf("Expected 8 lines, got %d", len(lines))
	}
}

func TestOutline(t *testing.T) {
	d := loadServers(t, false)
	out := Outline(d.Body().Kind(), d.Body().Outline())
	want := []string{
		"grid",
		`├── panel-1 "CPU $server" timeseries (0,0 24x8) repeat=server (h, max 2)`,
		`├── panel-2 "Memory" stat (0,8 12x8)`,
		`└── row-10 "Details" (0,16 24x1)`,
		`    └── panel-3 "Disk" gauge (0,17 12x6)`,
	}
	got := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(got) != len(want) {
		t.Fatalf("Expected %d lines, got %d:\n%s", len(want), len(got), out)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Line %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"Memory", 10, "Memory"},
		{"abcdefgh", 5, "abcd…"},
		{"日本語テキスト", 5, "日本…"},
		{"anything", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d): expected %q, got %q", tt.in, tt.width, tt.want, got)
		}
	}
}

func TestCanvas_WideRunes(t *testing.T) {
	c := newCanvas(6, 1)
	c.text(0, 0, 6, "日本語x", 0)
	lines := c.lines(func(_ int, s string) string { return s })
	if lines[0] != "日本語" {
		t.Errorf("Expected 日本語, got %q", lines[0])
	}
}

func TestProfile(t *testing.T) {
	t.Setenv("CLICOLOR_FORCE", "")
	var buf bytes.Buffer
	if p := Profile("never", &buf); p != termenv.Ascii {
		t.Errorf("Expected ascii for never, got %v", p)
	}
	if p := Profile("always", &buf); p != termenv.TrueColor {
		t.Errorf("Expected truecolor for always, got %v", p)
	}
	if p := Profile("auto", &buf); p != termenv.Ascii {
		t.Errorf("Expected ascii for a non-terminal writer, got %v", p)
	}
}
