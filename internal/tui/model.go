// Package tui is an interactive viewer that cycles variable selections and
// shows the repeated layout as it changes.
package tui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"dashgrid/internal/layout"
	"dashgrid/internal/preview"
	"dashgrid/internal/scene"
	"dashgrid/internal/schema"
	"dashgrid/internal/variables"
)

// Options configure the viewer.
type Options struct {
	// Path is the dashboard file; empty disables reloading.
	Path     string
	Debounce time.Duration
	Profile  termenv.Profile
}

// reloadMsg carries a freshly read document. watched is set for documents
// delivered by the file watcher.
type reloadMsg struct {
	doc     *schema.Dashboard
	err     error
	watched bool
}

// Model is the bubbletea model of the viewer.
type Model struct {
	opts Options
	keys keyMap
	help help.Model

	dash       *layout.Dashboard
	deactivate scene.Deactivate
	unbind     scene.Unbind

	focus   int
	cursors map[string]int
	outline bool
	offset  int
	width   int
	height  int
	repeats int
	status  string
	err     error

	reloads chan reloadMsg
}

// New creates a viewer for d and activates its repeats.
func New(d *layout.Dashboard, opts Options) *Model {
	m := &Model{
		opts:    opts,
		keys:    defaultKeyMap(),
		help:    help.New(),
		cursors: make(map[string]int),
		reloads: make(chan reloadMsg, 1),
	}
	m.attach(d)
	return m
}

// Dashboard returns the dashboard on screen.
func (m *Model) Dashboard() *layout.Dashboard { return m.dash }

func (m *Model) attach(d *layout.Dashboard) {
	m.dash = d
	m.unbind = d.Bus.Subscribe(scene.EventRepeatsProcessed, func(scene.Event) { m.repeats++ })
	m.deactivate = d.Activate()
}

// Close stops the repeats of the dashboard on screen.
func (m *Model) Close() {
	if m.deactivate != nil {
		m.deactivate()
	}
	if m.unbind != nil {
		m.unbind()
	}
}

// replace swaps in a reloaded dashboard, keeping the selections of variables
// that still exist.
func (m *Model) replace(doc *schema.Dashboard) error {
	next, err := layout.Load(doc)
	if err != nil {
		return err
	}
	for _, v := range m.selectable() {
		if nv, ok := next.Variables.Lookup(v.Name()); ok {
			if c, ok := nv.(*variables.Custom); ok {
				c.SetCurrent(v.Current()...)
			}
		}
	}
	m.Close()
	m.attach(next)
	m.focus = min(m.focus, max(len(m.selectable())-1, 0))
	return nil
}

func (m *Model) selectable() []*variables.Custom {
	var out []*variables.Custom
	for _, v := range m.dash.Variables.Variables() {
		if c, ok := v.(*variables.Custom); ok {
			out = append(out, c)
		}
	}
	return out
}

func (m *Model) focused() *variables.Custom {
	vars := m.selectable()
	if len(vars) == 0 {
		return nil
	}
	return vars[m.focus%len(vars)]
}

// cursor returns the option cursor of c, starting on its first selected value.
func (m *Model) cursor(c *variables.Custom) int {
	if i, ok := m.cursors[c.Name()]; ok {
		return i
	}
	values, _ := c.CurrentValuesAndTexts()
	i := 0
	if len(values) > 0 {
		i = max(slices.IndexFunc(c.Options(), func(o variables.Option) bool { return o.Value == values[0] }), 0)
	}
	m.cursors[c.Name()] = i
	return i
}

// step moves the cursor by delta and selects that option alone.
func (m *Model) step(delta int) error {
	c := m.focused()
	if c == nil || len(c.Options()) == 0 {
		return nil
	}
	options := c.Options()
	i := (m.cursor(c) + delta + len(options)) % len(options)
	m.cursors[c.Name()] = i
	return m.dash.Variables.Select(c.Name(), options[i].Value)
}

// toggle adds or removes the option under the cursor. The last selected
// value cannot be removed.
func (m *Model) toggle() error {
	c := m.focused()
	if c == nil || !c.IsMulti() || len(c.Options()) == 0 {
		return nil
	}
	options := c.Options()
	target := options[m.cursor(c)].Value
	current, _ := c.CurrentValuesAndTexts()
	selected := slices.Contains(current, target)
	if selected && len(current) == 1 {
		return nil
	}

	var next []string
	for _, o := range options {
		in := slices.Contains(current, o.Value)
		if o.Value == target {
			in = !selected
		}
		if in {
			next = append(next, o.Value)
		}
	}
	return m.dash.Variables.Select(c.Name(), next...)
}

func (m *Model) selectAll() error {
	c := m.focused()
	if c == nil || !c.IsMulti() {
		return nil
	}
	if c.IncludeAll() {
		return m.dash.Variables.Select(c.Name(), variables.AllValue)
	}
	var all []string
	for _, o := range c.Options() {
		all = append(all, o.Value)
	}
	return m.dash.Variables.Select(c.Name(), all...)
}

func (m *Model) waitReload() tea.Cmd {
	return func() tea.Msg {
		return <-m.reloads
	}
}

func (m *Model) readFile() tea.Cmd {
	path := m.opts.Path
	return func() tea.Msg {
		doc, err := schema.ReadFile(path)
		return reloadMsg{doc: doc, err: err}
	}
}

func (m *Model) Init() tea.Cmd {
	if m.opts.Path == "" {
		return nil
	}
	return m.waitReload()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
	case reloadMsg:
		if msg.watched {
			cmd = m.waitReload()
		}
		if msg.err != nil {
			m.err = fmt.Errorf("reload: %w", msg.err)
			break
		}
		if err := m.replace(msg.doc); err != nil {
			m.err = fmt.Errorf("reload: %w", err)
			break
		}
		m.err = nil
		m.status = "reloaded " + time.Now().Format("15:04:05")
	case tea.KeyMsg:
		var err error
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.NextVariable):
			if n := len(m.selectable()); n > 0 {
				m.focus = (m.focus + 1) % n
			}
		case key.Matches(msg, m.keys.NextOption):
			err = m.step(1)
		case key.Matches(msg, m.keys.PrevOption):
			err = m.step(-1)
		case key.Matches(msg, m.keys.Toggle):
			err = m.toggle()
		case key.Matches(msg, m.keys.SelectAll):
			err = m.selectAll()
		case key.Matches(msg, m.keys.Outline):
			m.outline = !m.outline
			m.offset = 0
		case key.Matches(msg, m.keys.ScrollDown):
			m.offset++
		case key.Matches(msg, m.keys.ScrollUp):
			m.offset = max(m.offset-1, 0)
		case key.Matches(msg, m.keys.Reload):
			if m.opts.Path != "" {
				cmd = m.readFile()
			}
		}
		if err != nil {
			m.err = err
		}
	}
	return m, cmd
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	focusStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3ccad7"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f7c0af"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#bf5d47"))
)

func (m *Model) View() string {
	header := []string{m.titleLine()}
	for i, c := range m.selectable() {
		header = append(header, m.variableLine(c, i == m.focus))
	}
	header = append(header, "")

	var footer []string
	if m.err != nil {
		footer = append(footer, errorStyle.Render("Error: "+m.err.Error()))
	} else if m.status != "" {
		footer = append(footer, mutedStyle.Render(m.status))
	}
	footer = append(footer, m.help.View(m.keys))

	body := strings.Split(strings.TrimSuffix(m.body(), "\n"), "\n")
	if m.height > 0 {
		room := max(m.height-len(header)-len(footer), 1)
		m.offset = min(m.offset, max(len(body)-room, 0))
		body = body[m.offset:min(m.offset+room, len(body))]
	}

	lines := append(header, body...)
	lines = append(lines, footer...)
	return strings.Join(lines, "\n")
}

func (m *Model) titleLine() string {
	mode := "grid"
	if m.outline {
		mode = "outline"
	}
	return titleStyle.Render(m.dash.Title) + mutedStyle.Render(fmt.Sprintf("  %s · %s · repeats %d", m.dash.Body().Kind(), mode, m.repeats))
}

func (m *Model) variableLine(c *variables.Custom, focused bool) string {
	name := c.Name() + ":"
	if focused {
		name = focusStyle.Render(name)
	}
	current, _ := c.CurrentValuesAndTexts()
	parts := []string{name}
	for i, o := range c.Options() {
		text := o.Text
		if text == "" {
			text = o.Value
		}
		mark := "○ "
		if slices.Contains(current, o.Value) {
			mark = "● "
			text = selectedStyle.Render(text)
		}
		if focused && i == m.cursor(c) {
			text = "[" + text + "]"
		}
		parts = append(parts, mark+text)
	}
	return strings.Join(parts, " ")
}

func (m *Model) body() string {
	if m.outline {
		return preview.Outline(m.dash.Body().Kind(), m.dash.Body().Outline())
	}
	return preview.Render(m.dash.Body(), preview.Options{Profile: m.opts.Profile, Legend: true})
}
