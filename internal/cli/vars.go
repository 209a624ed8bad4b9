package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"dashgrid/config"
	"dashgrid/internal/variables"
)

// ErrNotInteractive is returned by prompts when stdin is not a terminal.
var ErrNotInteractive = errors.New("stdin is not a terminal")

// PickVariables prompts for the selection of every custom variable of a
// dashboard file. With a preset name the result is saved as that preset,
// otherwise it is printed as name=value arguments.
func PickVariables(out io.Writer, path, preset, description string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ErrNotInteractive
	}

	d, err := LoadDashboard(path)
	if err != nil {
		return err
	}

	var customs []*variables.Custom
	for _, v := range d.Variables.Variables() {
		if c, ok := v.(*variables.Custom); ok && len(c.Options()) > 0 {
			customs = append(customs, c)
		}
	}
	if len(customs) == 0 {
		return fmt.Errorf("%s has no selectable variables", path)
	}

	picked := make([][]string, len(customs))
	var fields []huh.Field
	for i, c := range customs {
		current, _ := c.CurrentValuesAndTexts()
		var options []huh.Option[string]
		for _, o := range c.Options() {
			label := o.Text
			if label == "" {
				label = o.Value
			}
			options = append(options, huh.NewOption(label, o.Value).Selected(slices.Contains(current, o.Value)))
		}
		field := huh.NewMultiSelect[string]().
			Title(c.Name()).
			Options(options...).
			Value(&picked[i])
		if !c.IsMulti() {
			field = field.Limit(1)
		}
		fields = append(fields, field)
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return errors.New("cancelled")
	}

	sel := make(Selections)
	for i, c := range customs {
		if len(picked[i]) > 0 {
			sel[c.Name()] = picked[i]
		}
	}

	if preset == "" {
		fmt.Fprintln(out, formatSelections(sel))
		return nil
	}
	return SavePreset(out, preset, description, sel)
}

// SavePreset stores sel as a named preset.
func SavePreset(out io.Writer, name, description string, sel Selections) error {
	registry, err := config.LoadPresetRegistry()
	if err != nil {
		return fmt.Errorf("failed to load presets: %w", err)
	}
	registry.Put(config.Preset{Name: name, Description: description, Selections: sel})
	if err := config.SavePresetRegistry(registry); err != nil {
		return fmt.Errorf("failed to save presets: %w", err)
	}
	fmt.Fprintf(out, "%s Saved preset '%s'\n", checkStyle.Render("✓"), name)
	return nil
}

// ListPresets prints the saved presets.
func ListPresets(out io.Writer) error {
	registry, err := config.LoadPresetRegistry()
	if err != nil {
		return fmt.Errorf("failed to load presets: %w", err)
	}
	if len(registry.Presets) == 0 {
		fmt.Fprintln(out, "No presets saved")
		return nil
	}
	for _, p := range registry.Presets {
		fmt.Fprintf(out, "%s\t%s\n", p.Name, formatSelections(p.Selections))
		if p.Description != "" {
			fmt.Fprintf(out, "  %s\n", p.Description)
		}
	}
	return nil
}

// RemovePreset deletes a saved preset.
func RemovePreset(out io.Writer, name string) error {
	registry, err := config.LoadPresetRegistry()
	if err != nil {
		return fmt.Errorf("failed to load presets: %w", err)
	}
	if err := registry.Remove(name); err != nil {
		return err
	}
	if err := config.SavePresetRegistry(registry); err != nil {
		return fmt.Errorf("failed to save presets: %w", err)
	}
	fmt.Fprintf(out, "%s Removed preset '%s'\n", checkStyle.Render("✓"), name)
	return nil
}

// formatSelections renders sel as name=value arguments in name order.
func formatSelections(sel map[string][]string) string {
	names := make([]string, 0, len(sel))
	for name := range sel {
		names = append(names, name)
	}
	slices.Sort(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + strings.Join(sel[name], ",")
	}
	return strings.Join(parts, " ")
}
