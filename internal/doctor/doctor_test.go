package doctor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dashgrid/internal/grid"
	"dashgrid/internal/layout"
)

const singleValueDoc = `apiVersion: dashgrid/v2
title: Envs
variables:
  - kind: CustomVariable
    name: env
    options:
      - value: prod
      - value: staging
elements:
  panel-1:
    kind: Panel
    spec:
      id: 1
      title: Requests $env
layout:
  kind: GridLayout
  spec:
    items:
      - kind: GridLayoutItem
        spec:
          x: 0
          y: 0
          width: 12
          height: 8
          element:
            kind: ElementReference
            name: panel-1
          repeat:
            mode: variable
            value: env
`

const missingElementDoc = `apiVersion: dashgrid/v2
title: Broken
elements: {}
layout:
  kind: GridLayout
  spec:
    items:
      - kind: GridLayoutItem
        spec:
          x: 0
          y: 0
          width: 12
          height: 8
          element:
            kind: ElementReference
            name: panel-9
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dash.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func find(t *testing.T, r Report, name string) CheckResult {
	t.Helper()
	for _, c := range r.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("Expected a %s check, got %+v", name, r.Checks)
	return CheckResult{}
}

func TestCheckFile_Healthy(t *testing.T) {
	r := CheckFile("../schema/testdata/servers.yaml")
	if r.ExitCode() != 0 {
		t.Fatalf("Expected exit code 0, got %d: %+v", r.ExitCode(), r.Checks)
	}
	if len(r.Checks) != 5 {
		t.Errorf("Expected 5 checks, got %d", len(r.Checks))
	}
	engine := find(t, r, "Layout Engine")
	if engine.Status != StatusOK {
		t.Errorf("Expected engine OK, got %s: %v", engine.Status, engine.Details)
	}
	if !strings.HasPrefix(engine.Summary, "5 panels after repeats (2 repeated copies, 1 controllers)") {
		t.Errorf("Unexpected engine summary %q", engine.Summary)
	}
	if tr := find(t, r, "Transitions"); tr.Status != StatusWarn {
		t.Errorf("Expected a warning for the mixed grid, got %s", tr.Status)
	}
}

func TestCheckFile_SingleValueRepeat(t *testing.T) {
	r := CheckFile(writeFile(t, singleValueDoc))
	vars := find(t, r, "Variables")
	if vars.Status != StatusWarn || len(vars.Details) != 1 {
		t.Fatalf("Expected one variable warning, got %s %v", vars.Status, vars.Details)
	}
	if !r.HasWarnings() || r.HasFailures() {
		t.Errorf("Expected warnings only")
	}
	tr := find(t, r, "Transitions")
	if tr.Summary != "Converts to [auto-grid rows tabs]" {
		t.Errorf("Unexpected transitions summary %q", tr.Summary)
	}
}

func TestCheckFile_SchemaProblemsStop(t *testing.T) {
	r := CheckFile(writeFile(t, missingElementDoc))
	if r.ExitCode() != 1 {
		t.Errorf("Expected exit code 1, got %d", r.ExitCode())
	}
	if len(r.Checks) != 2 {
		t.Fatalf("Expected checks to stop after the schema, got %d", len(r.Checks))
	}
	s := find(t, r, "Schema")
	if len(s.Details) != 1 || !strings.Contains(s.Details[0], `element "panel-9"`) {
		t.Errorf("Expected the missing element reported, got %v", s.Details)
	}
}

func TestCheckFile_UnreadableDocument(t *testing.T) {
	r := CheckFile(writeFile(t, "title: [\n"))
	if len(r.Checks) != 1 || r.Checks[0].Status != StatusFail {
		t.Errorf("Expected a single failed document check, got %+v", r.Checks)
	}
}

func TestOverlaps(t *testing.T) {
	f := layout.Frame{
		Kind: layout.KindRows,
		Frames: []layout.Frame{{
			Kind: layout.KindGrid,
			Placements: []layout.Placement{
				{Key: "panel-1", Cell: grid.Cell{X: 0, Y: 0, Width: 12, Height: 8}},
				{Key: "panel-2", Cell: grid.Cell{X: 6, Y: 4, Width: 12, Height: 8}},
				{Key: "panel-3", Cell: grid.Cell{X: 0, Y: 12, Width: 6, Height: 4}},
			},
		}},
	}
	got := overlaps(f)
	if len(got) != 1 || !strings.HasPrefix(got[0], "panel-2 ") {
		t.Errorf("Expected panel-2 to overlap panel-1, got %v", got)
	}
}
