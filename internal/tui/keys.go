package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NextVariable key.Binding
	PrevOption   key.Binding
	NextOption   key.Binding
	SelectAll    key.Binding
	Toggle       key.Binding
	Outline      key.Binding
	Reload       key.Binding
	ScrollUp     key.Binding
	ScrollDown   key.Binding
	Help         key.Binding
	Quit         key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		NextVariable: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next variable"),
		),
		PrevOption: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous value"),
		),
		NextOption: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next value"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select all"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle value"),
		),
		Outline: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "grid/outline"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextVariable, k.PrevOption, k.NextOption, k.Outline, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextVariable, k.PrevOption, k.NextOption, k.Toggle, k.SelectAll},
		{k.Outline, k.Reload, k.ScrollUp, k.ScrollDown},
		{k.Help, k.Quit},
	}
}
