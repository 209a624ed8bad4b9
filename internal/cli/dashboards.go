package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"dashgrid/config"
	"dashgrid/internal/layout"
	"dashgrid/internal/preview"
	"dashgrid/internal/schema"
	"dashgrid/internal/variables"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	checkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#87bf47"))
)

// LoadDashboard reads a dashboard file and builds its layout tree.
func LoadDashboard(path string) (*layout.Dashboard, error) {
	doc, err := schema.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return layout.Load(doc)
}

// Inspect prints the structure of a dashboard file.
func Inspect(out io.Writer, path string) error {
	d, err := LoadDashboard(path)
	if err != nil {
		return err
	}

	uid := d.UID
	if uid == "" {
		uid = "(not stored)"
	}
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Title: "), d.Title)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("UID:   "), uid)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Layout:"), d.Body().Kind())
	fmt.Fprintf(out, "%s %d\n", labelStyle.Render("Panels:"), len(d.Body().Panels()))

	if vars := d.Variables.Variables(); len(vars) > 0 {
		fmt.Fprintln(out, labelStyle.Render("Variables:"))
		for _, v := range vars {
			fmt.Fprintf(out, "  %s\n", describeVariable(v))
		}
	}

	fmt.Fprintln(out, labelStyle.Render("Outline:"))
	fmt.Fprint(out, preview.Outline(d.Body().Kind(), d.Body().Outline()))
	return nil
}

func describeVariable(v variables.Variable) string {
	switch v := v.(type) {
	case *variables.Custom:
		var flags []string
		if v.IsMulti() {
			flags = append(flags, "multi")
		}
		if v.IncludeAll() {
			flags = append(flags, "include-all")
		}
		values, _ := v.CurrentValuesAndTexts()
		s := fmt.Sprintf("%-16s custom", v.Name())
		if len(flags) > 0 {
			s += " (" + strings.Join(flags, ", ") + ")"
		}
		return s + fmt.Sprintf(" = %s of %d options", strings.Join(values, ","), len(v.Options()))
	case *variables.Constant:
		return fmt.Sprintf("%-16s constant = %s", v.Name(), v.Value())
	}
	return v.Name()
}

// RenderOptions configure Render.
type RenderOptions struct {
	Selections  Selections
	Color       string
	ColumnWidth int
	Outline     bool
}

// Render prints the layout of a dashboard file with its repeats expanded
// for the given selections.
func Render(out io.Writer, path string, opts RenderOptions) error {
	d, err := LoadDashboard(path)
	if err != nil {
		return err
	}
	if opts.Outline {
		fmt.Fprint(out, preview.Outline(d.Body().Kind(), d.Body().Outline()))
		return nil
	}
	if err := opts.Selections.Apply(d); err != nil {
		return err
	}
	deactivate := d.Activate()
	defer deactivate()

	if opts.Color == "" {
		settings, err := config.LoadSettings()
		if err != nil {
			return err
		}
		opts.Color = settings.Color
	}
	fmt.Fprint(out, preview.Render(d.Body(), preview.Options{
		ColumnWidth: opts.ColumnWidth,
		Profile:     preview.Profile(opts.Color, out),
		Legend:      true,
	}))
	return nil
}

// Repeat prints every placement of a dashboard once its repeats ran.
func Repeat(out io.Writer, path string, sel Selections) error {
	d, err := LoadDashboard(path)
	if err != nil {
		return err
	}
	if err := sel.Apply(d); err != nil {
		return err
	}
	deactivate := d.Activate()
	defer deactivate()

	fmt.Fprintf(out, "%-28s %-24s %-16s %s\n", "KEY", "TITLE", "CELL", "REPEAT")
	var walk func(f layout.Frame, prefix string)
	walk = func(f layout.Frame, prefix string) {
		for _, p := range f.Placements {
			title := p.Title
			if p.Header {
				title = "▾ " + title
			}
			group := p.Group
			if p.Clone {
				group += " (copy)"
			}
			fmt.Fprintf(out, "%-28s %-24s %-16s %s\n", prefix+p.Key, title, p.Cell, group)
		}
		for _, sub := range f.Frames {
			mark := ""
			if sub.Clone {
				mark = " (copy)"
			}
			fmt.Fprintf(out, "%s%s %q%s\n", prefix, sub.Key, sub.Title, mark)
			if !sub.Collapsed {
				walk(sub, prefix+"  ")
			}
		}
	}
	walk(layout.BuildFrame(d.Body()), "")
	return nil
}

// Convert changes the layout kind of a dashboard file. The result goes to
// output, or to out when output is empty. An empty kind uses the configured
// default layout.
func Convert(out io.Writer, path, kind, output string) error {
	if kind == "" {
		settings, err := config.LoadSettings()
		if err != nil {
			return err
		}
		kind = settings.DefaultLayout
	}
	k, err := layout.ParseKind(kind)
	if err != nil {
		return err
	}
	d, err := LoadDashboard(path)
	if err != nil {
		return err
	}
	if err := d.ChangeLayout(k); err != nil {
		return err
	}

	doc := d.Save()
	if output != "" {
		if err := schema.WriteFile(output, doc); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s Converted %s to %s: %s\n", checkStyle.Render("✓"), path, k, output)
		return nil
	}
	data, err := schema.Encode(doc, schema.FormatFromPath(path))
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

// Selections maps variable names to selected values.
type Selections map[string][]string

// ParseSelections parses name=value[,value...] arguments.
func ParseSelections(args []string) (Selections, error) {
	sel := make(Selections)
	for _, arg := range args {
		name, values, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid selection %q, expected name=value[,value]", arg)
		}
		var list []string
		for _, v := range strings.Split(values, ",") {
			if v = strings.TrimSpace(v); v != "" {
				list = append(list, v)
			}
		}
		if len(list) == 0 {
			return nil, fmt.Errorf("selection %q has no values", name)
		}
		if strings.EqualFold(values, "all") {
			list = []string{variables.AllValue}
		}
		sel[name] = list
	}
	return sel, nil
}

// ResolveSelections merges the selections of a saved preset with explicit
// name=value arguments, the arguments taking precedence.
func ResolveSelections(preset string, args []string) (Selections, error) {
	sel := make(Selections)
	if preset != "" {
		registry, err := config.LoadPresetRegistry()
		if err != nil {
			return nil, err
		}
		p, err := registry.Get(preset)
		if err != nil {
			return nil, err
		}
		for name, values := range p.Selections {
			sel[name] = slices.Clone(values)
		}
	}
	explicit, err := ParseSelections(args)
	if err != nil {
		return nil, err
	}
	for name, values := range explicit {
		sel[name] = values
	}
	return sel, nil
}

// Apply selects the values on d, in name order.
func (s Selections) Apply(d *layout.Dashboard) error {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := d.Variables.Select(name, s[name]...); err != nil {
			return fmt.Errorf("select %s: %w", name, err)
		}
	}
	return nil
}
