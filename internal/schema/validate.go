package schema

import (
	"errors"
	"fmt"
	"slices"

	"dashgrid/internal/grid"
)

// Problem is one finding of Validate.
type Problem struct {
	Path    string
	Message string
}

func (p Problem) Error() string {
	return p.Path + ": " + p.Message
}

type validator struct {
	doc       *Dashboard
	variables []string
	used      map[string]string
	problems  []Problem
}

// Validate checks a document for broken references, unknown kinds,
// overlapping grid items and repeats over undeclared variables. It returns the
// problems joined into one error, or nil.
func Validate(doc *Dashboard) error {
	v := &validator{doc: doc, used: make(map[string]string)}
	if doc.APIVersion != APIVersion {
		v.report("apiVersion", "expected %q, got %q", APIVersion, doc.APIVersion)
	}
	for i, variable := range doc.Variables {
		path := fmt.Sprintf("variables[%d]", i)
		switch variable.Kind {
		case KindCustomVariable, KindConstantVariable:
		default:
			v.report(path, "unknown variable kind %q", variable.Kind)
		}
		if variable.Name == "" {
			v.report(path, "variable has no name")
		}
		if slices.Contains(v.variables, variable.Name) {
			v.report(path, "duplicate variable %q", variable.Name)
		}
		v.variables = append(v.variables, variable.Name)
	}
	for name, el := range doc.Elements {
		if el.Kind != KindPanel {
			v.report("elements."+name, "unknown element kind %q", el.Kind)
		}
	}
	v.layout("layout", doc.Layout)

	if len(v.problems) == 0 {
		return nil
	}
	errs := make([]error, 0, len(v.problems))
	for _, p := range v.problems {
		errs = append(errs, p)
	}
	return errors.Join(errs...)
}

func (v *validator) report(path, format string, args ...any) {
	v.problems = append(v.problems, Problem{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) ref(path string, ref ElementRef) {
	if _, ok := v.doc.Elements[ref.Name]; !ok {
		v.report(path, "element %q is not in the element table", ref.Name)
		return
	}
	if prev, dup := v.used[ref.Name]; dup {
		v.report(path, "element %q is already placed at %s", ref.Name, prev)
		return
	}
	v.used[ref.Name] = path
}

func (v *validator) repeat(path string, r *Repeat) {
	if r == nil {
		return
	}
	if r.Mode != RepeatModeVariable {
		v.report(path+".repeat", "unsupported repeat mode %q", r.Mode)
	}
	if !slices.Contains(v.variables, r.Value) {
		v.report(path+".repeat", "repeat variable %q is not declared", r.Value)
	}
	if r.Direction != "" && r.Direction != string(grid.Horizontal) && r.Direction != string(grid.Vertical) {
		v.report(path+".repeat", "unknown direction %q", r.Direction)
	}
}

func (v *validator) layout(path string, l Layout) {
	switch l.Kind {
	case KindGridLayout:
		if l.Grid == nil {
			return
		}
		var cells []grid.Cell
		var paths []string
		addCell := func(p string, item GridLayoutItemSpec) {
			c := grid.Cell{X: item.X, Y: item.Y, Width: item.Width, Height: item.Height}
			if c.Empty() || c.X < 0 || c.Right() > grid.Columns || c.Y < 0 {
				v.report(p, "cell %v is outside the grid", c)
			}
			cells = append(cells, c)
			paths = append(paths, p)
		}
		for i, child := range l.Grid.Items {
			p := fmt.Sprintf("%s.items[%d]", path, i)
			switch {
			case child.Item != nil:
				v.ref(p, child.Item.Element)
				v.repeat(p, child.Item.Repeat)
				addCell(p, *child.Item)
			case child.Row != nil:
				v.repeat(p, child.Row.Repeat)
				cells = append(cells, grid.Cell{X: 0, Y: child.Row.Y, Width: grid.Columns, Height: grid.RowHeight})
				paths = append(paths, p)
				for j, item := range child.Row.Elements {
					ip := fmt.Sprintf("%s.elements[%d]", p, j)
					v.ref(ip, item.Spec.Element)
					v.repeat(ip, item.Spec.Repeat)
					if !child.Row.Collapsed {
						addCell(ip, item.Spec)
					}
				}
			}
		}
		for i := range cells {
			for j := i + 1; j < len(cells); j++ {
				if cells[i].Overlaps(cells[j]) {
					v.report(paths[j], "overlaps %s", paths[i])
				}
			}
		}
	case KindAutoGridLayout:
		if l.AutoGrid == nil {
			return
		}
		for i, item := range l.AutoGrid.Items {
			p := fmt.Sprintf("%s.items[%d]", path, i)
			v.ref(p, item.Spec.Element)
			v.repeat(p, item.Spec.Repeat)
		}
	case KindRowsLayout:
		if l.Rows == nil {
			return
		}
		for i, row := range l.Rows.Rows {
			p := fmt.Sprintf("%s.rows[%d]", path, i)
			v.repeat(p, row.Spec.Repeat)
			v.layout(p+".layout", row.Spec.Layout)
		}
	case KindTabsLayout:
		if l.Tabs == nil {
			return
		}
		for i, tab := range l.Tabs.Tabs {
			p := fmt.Sprintf("%s.tabs[%d]", path, i)
			v.repeat(p, tab.Spec.Repeat)
			v.layout(p+".layout", tab.Spec.Layout)
		}
	default:
		v.report(path, "unknown layout kind %q", l.Kind)
	}
}
