package onboarding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"

	"dashgrid/config"
	"dashgrid/internal/store"
)

// ErrCancelled is returned when the user aborts the wizard.
var ErrCancelled = errors.New("cancelled")

const (
	primaryHex = "#f7c0af"
	accentHex  = "#3ccad7"
)

var wizardPrimary = lipgloss.Color(primaryHex)

// answers holds the form values as the fields edit them.
type answers struct {
	Layout        string
	DashboardsDir string
	DatabasePath  string
	Debounce      string
	Color         string
}

func answersFrom(s *config.Settings) answers {
	return answers{
		Layout:        s.DefaultLayout,
		DashboardsDir: s.DashboardsDir,
		DatabasePath:  s.DatabasePath,
		Debounce:      s.WatchDebounce.String(),
		Color:         s.Color,
	}
}

func (a answers) settings() (*config.Settings, error) {
	debounce, err := time.ParseDuration(strings.TrimSpace(a.Debounce))
	if err != nil {
		return nil, fmt.Errorf("invalid watch debounce %q: %w", a.Debounce, err)
	}
	s := &config.Settings{
		DefaultLayout: a.Layout,
		DashboardsDir: strings.TrimSpace(a.DashboardsDir),
		DatabasePath:  strings.TrimSpace(a.DatabasePath),
		WatchDebounce: debounce,
		Color:         a.Color,
	}
	if s.DashboardsDir == "" {
		s.DashboardsDir = "."
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func validateDuration(v string) error {
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return errors.New("enter a duration such as 250ms or 1s")
	}
	if d < 0 {
		return errors.New("duration cannot be negative")
	}
	return nil
}

func newForm(a *answers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default layout").
				Description("Used by 'dash convert' when --to is not given").
				Options(huh.NewOptions("grid", "auto-grid", "rows", "tabs")...).
				Value(&a.Layout),
			huh.NewInput().
				Title("Dashboards directory").
				Description("Where 'dash lint' looks when no files are given").
				Value(&a.DashboardsDir),
			huh.NewInput().
				Title("Database path").
				Description("Leave empty for ~/.config/dashgrid/dashgrid.db").
				Value(&a.DatabasePath),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Watch debounce").
				Description("Quiet period before a changed file is reloaded").
				Value(&a.Debounce).
				Validate(validateDuration),
			huh.NewSelect[string]().
				Title("Color").
				Options(huh.NewOptions("auto", "always", "never")...).
				Value(&a.Color),
		),
	).WithTheme(createHuhTheme())
}

// RunWizard asks for the settings, writes settings.yaml and prepares the
// dashboard store.
func RunWizard(ctx context.Context, out io.Writer) error {
	current, err := config.LoadSettings()
	if err != nil {
		current = &config.Settings{}
		*current = config.DefaultSettings()
	}
	a := answersFrom(current)

	fmt.Fprintln(out, header("dashgrid setup", termenv.ColorProfile()))
	fmt.Fprintln(out)
	if err := newForm(&a).Run(); err != nil {
		return ErrCancelled
	}

	settings, err := a.settings()
	if err != nil {
		return err
	}
	if err := config.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	dbPath, err := settings.ResolveDatabasePath()
	if err != nil {
		return err
	}
	var openErr error
	spinnerStyle := lipgloss.NewStyle().MarginLeft(2).Foreground(wizardPrimary)
	err = spinner.New().
		Title("Preparing dashboard store...").
		Style(spinnerStyle).
		Action(func() {
			var s *store.Store
			if s, openErr = store.Open(ctx, dbPath); openErr == nil {
				openErr = s.Close()
			}
		}).
		Run()
	if err != nil {
		return ErrCancelled
	}
	if openErr != nil {
		return fmt.Errorf("failed to prepare dashboard store: %w", openErr)
	}

	highlight := lipgloss.NewStyle().Foreground(wizardPrimary).Bold(true)
	fmt.Fprintln(out)
	fmt.Fprintf(out, " ✔︎ Settings saved, store ready at %s\n", dbPath)
	fmt.Fprintf(out, " Run '%s' to preview a dashboard.\n\n", highlight.Render("dash render <file>"))
	return nil
}

func header(title string, profile termenv.Profile) string {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(profile)
	label := r.NewStyle().Foreground(wizardPrimary).Bold(true).Render(title)
	return label + applyGradient(r, " "+strings.Repeat("▚", 40), primaryHex, accentHex)
}

// applyGradient colours text from one colour to another, one rune at a time.
// Without TrueColor the text gets the first colour only.
func applyGradient(r *lipgloss.Renderer, text, from, to string) string {
	rs := []rune(text)
	if len(rs) == 0 {
		return ""
	}
	if r.ColorProfile() != termenv.TrueColor {
		return r.NewStyle().Foreground(lipgloss.Color(from)).Render(text)
	}
	c1, err1 := colorful.Hex(from)
	c2, err2 := colorful.Hex(to)
	if err1 != nil || err2 != nil {
		return r.NewStyle().Foreground(lipgloss.Color(from)).Render(text)
	}
	var out strings.Builder
	for i, ch := range rs {
		t := 0.0
		if len(rs) > 1 {
			t = float64(i) / float64(len(rs)-1)
		}
		hex := c1.BlendLab(c2, t).Clamped().Hex()
		out.WriteString(r.NewStyle().Foreground(lipgloss.Color(hex)).Render(string(ch)))
	}
	return out.String()
}

func createHuhTheme() *huh.Theme {
	fg := lipgloss.Color("#dddddd")
	fgMuted := lipgloss.Color("#7f7f7f")
	errColor := lipgloss.Color("#bf5d47")
	success := lipgloss.Color("#87bf47")

	theme := huh.ThemeBase16()
	base := lipgloss.NewStyle().Foreground(fg)

	theme.Focused.Base = base.MarginLeft(1)
	theme.Focused.Title = base.Foreground(wizardPrimary).Bold(true)
	theme.Focused.Description = base.Foreground(fgMuted)
	theme.Focused.ErrorIndicator = base.Foreground(errColor)
	theme.Focused.ErrorMessage = base.Foreground(errColor)
	theme.Focused.SelectSelector = base.Foreground(wizardPrimary).Bold(true)
	theme.Focused.SelectedOption = base.Foreground(wizardPrimary).Bold(true)
	theme.Focused.SelectedPrefix = base.Foreground(success).Bold(true).SetString("✓ ")
	theme.Focused.TextInput.Cursor = base.Foreground(wizardPrimary)
	theme.Focused.TextInput.Prompt = base.Foreground(wizardPrimary)

	theme.Blurred.Base = base
	theme.Blurred.Title = base.Foreground(fgMuted)
	theme.Blurred.TextInput.Prompt = base.Foreground(fgMuted)
	return theme
}
