// Package doctor runs health checks over dashboard files.
package doctor

import (
	"errors"
	"fmt"
	"slices"

	"dashgrid/internal/grid"
	"dashgrid/internal/layout"
	"dashgrid/internal/schema"
)

type Status string

const (
	StatusOK   Status = "OK"
	StatusWarn Status = "WARN"
	StatusFail Status = "FAIL"
)

type CheckResult struct {
	Name    string
	Status  Status
	Summary string
	Details []string
	Actions []string
}

// Report holds the checks run against one file.
type Report struct {
	Path   string
	Checks []CheckResult
}

func (r Report) HasFailures() bool {
	for _, check := range r.Checks {
		if check.Status == StatusFail {
			return true
		}
	}
	return false
}

func (r Report) HasWarnings() bool {
	for _, check := range r.Checks {
		if check.Status == StatusWarn {
			return true
		}
	}
	return false
}

func (r Report) ExitCode() int {
	if r.HasFailures() {
		return 1
	}
	return 0
}

// CheckFile reads path and runs every check that its contents allow.
func CheckFile(path string) Report {
	report := Report{Path: path}

	decodeResult, doc := checkDecode(path)
	report.Checks = append(report.Checks, decodeResult)
	if doc == nil {
		return report
	}
	report.Checks = append(report.Checks, CheckDocument(doc)...)
	return report
}

// CheckDocument runs the checks that need a decoded document.
func CheckDocument(doc *schema.Dashboard) []CheckResult {
	var checks []CheckResult

	schemaResult := checkSchema(doc)
	checks = append(checks, schemaResult)
	if schemaResult.Status == StatusFail {
		return checks
	}

	checks = append(checks, checkVariables(doc))
	engineResult := checkEngine(doc)
	checks = append(checks, engineResult)
	if engineResult.Status == StatusFail {
		return checks
	}
	checks = append(checks, checkTransitions(doc))
	return checks
}

func checkDecode(path string) (CheckResult, *schema.Dashboard) {
	result := CheckResult{Name: "Document", Status: StatusOK}
	doc, err := schema.ReadFile(path)
	if err != nil {
		result.Status = StatusFail
		result.Summary = "Could not read dashboard"
		result.Details = append(result.Details, err.Error())
		result.Actions = append(result.Actions, "fix the YAML/JSON syntax")
		return result, nil
	}
	result.Summary = fmt.Sprintf("%q, %d elements, %s", doc.Title, len(doc.Elements), doc.Layout.Kind)
	return result, doc
}

func checkSchema(doc *schema.Dashboard) CheckResult {
	result := CheckResult{Name: "Schema", Status: StatusOK, Summary: "No problems found"}
	err := schema.Validate(doc)
	if err == nil {
		return result
	}

	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	result.Status = StatusFail
	result.Summary = fmt.Sprintf("%d problems", len(errs))
	for _, e := range errs {
		result.Details = append(result.Details, e.Error())
	}
	return result
}

// checkVariables warns about repeats that can only ever yield one instance.
func checkVariables(doc *schema.Dashboard) CheckResult {
	result := CheckResult{Name: "Variables", Status: StatusOK}

	byName := make(map[string]schema.Variable)
	for _, v := range doc.Variables {
		byName[v.Name] = v
	}
	var repeated []string
	for _, name := range repeatVariables(doc.Layout) {
		if !slices.Contains(repeated, name) {
			repeated = append(repeated, name)
		}
	}

	for _, name := range repeated {
		v := byName[name]
		switch {
		case v.Kind == schema.KindConstantVariable:
			result.Status = StatusWarn
			result.Details = append(result.Details, fmt.Sprintf("repeat over constant %q", name))
			result.Actions = append(result.Actions, fmt.Sprintf("make %q a multi-value custom variable", name))
		case !v.Multi && !v.IncludeAll:
			result.Status = StatusWarn
			result.Details = append(result.Details, fmt.Sprintf("repeat over single-value %q always yields one instance", name))
			result.Actions = append(result.Actions, fmt.Sprintf("set multi: true on %q", name))
		}
	}
	result.Summary = fmt.Sprintf("%d declared, %d driving repeats", len(doc.Variables), len(repeated))
	return result
}

func repeatVariables(l schema.Layout) []string {
	var out []string
	add := func(r *schema.Repeat) {
		if r != nil {
			out = append(out, r.Value)
		}
	}
	switch {
	case l.Grid != nil:
		for _, child := range l.Grid.Items {
			if child.Item != nil {
				add(child.Item.Repeat)
			}
			if child.Row != nil {
				add(child.Row.Repeat)
				for _, item := range child.Row.Elements {
					add(item.Spec.Repeat)
				}
			}
		}
	case l.AutoGrid != nil:
		for _, item := range l.AutoGrid.Items {
			add(item.Spec.Repeat)
		}
	case l.Rows != nil:
		for _, row := range l.Rows.Rows {
			add(row.Spec.Repeat)
			out = append(out, repeatVariables(row.Spec.Layout)...)
		}
	case l.Tabs != nil:
		for _, tab := range l.Tabs.Tabs {
			add(tab.Spec.Repeat)
			out = append(out, repeatVariables(tab.Spec.Layout)...)
		}
	}
	return out
}

// checkEngine loads the document, runs every repeat and looks for overlaps
// in the expanded grids.
func checkEngine(doc *schema.Dashboard) CheckResult {
	result := CheckResult{Name: "Layout Engine", Status: StatusOK}

	d, err := layout.Load(doc)
	if err != nil {
		result.Status = StatusFail
		result.Summary = "Dashboard does not load"
		result.Details = append(result.Details, err.Error())
		return result
	}
	deactivate := d.Activate()
	defer deactivate()

	panels := d.Body().Panels()
	clones := 0
	for _, p := range panels {
		if p.IsClone() {
			clones++
		}
	}
	result.Summary = fmt.Sprintf("%d panels after repeats (%d repeated copies, %d controllers)",
		len(panels), clones, len(layout.Repeaters(d.Body())))

	for _, overlap := range overlaps(layout.BuildFrame(d.Body())) {
		result.Status = StatusFail
		result.Details = append(result.Details, overlap)
	}
	if result.Status == StatusFail {
		result.Actions = append(result.Actions, "leave room below repeated panels or set maxPerRow")
	}
	return result
}

func overlaps(f layout.Frame) []string {
	var out []string
	cells := make([]grid.Cell, len(f.Placements))
	for i, p := range f.Placements {
		cells[i] = p.Cell
	}
	for i := range cells {
		for j := i + 1; j < len(cells); j++ {
			if cells[i].Overlaps(cells[j]) {
				out = append(out, fmt.Sprintf("%s %v overlaps %s %v",
					f.Placements[j].Key, cells[j], f.Placements[i].Key, cells[i]))
			}
		}
	}
	for _, sub := range f.Frames {
		out = append(out, overlaps(sub)...)
	}
	return out
}

// checkTransitions reports which layout kinds the body converts to.
func checkTransitions(doc *schema.Dashboard) CheckResult {
	result := CheckResult{Name: "Transitions", Status: StatusOK}

	var ok []string
	for _, kind := range layout.Kinds {
		d, err := layout.Load(doc)
		if err != nil {
			continue
		}
		if kind == d.Body().Kind() {
			continue
		}
		if err := d.ChangeLayout(kind); err != nil {
			result.Status = StatusWarn
			detail := fmt.Sprintf("cannot convert to %s", kind)
			if errors.Is(err, layout.ErrInvalidScene) {
				detail += ": mixed rows and loose panels"
			}
			result.Details = append(result.Details, detail)
			continue
		}
		ok = append(ok, string(kind))
	}
	if len(ok) == 0 {
		result.Summary = "No conversions available"
	} else {
		result.Summary = fmt.Sprintf("Converts to %v", ok)
	}
	return result
}
