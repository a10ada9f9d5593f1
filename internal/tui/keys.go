package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	NextFile    key.Binding
	PrevFile    key.Binding
	NextBlocker key.Binding
	PrevBlocker key.Binding
	Acknowledge key.Binding
	Dismiss     key.Binding
	Help        key.Binding
	Quit        key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	NextFile: key.NewBinding(
		key.WithKeys("n", "tab"),
		key.WithHelp("n/tab", "next file"),
	),
	PrevFile: key.NewBinding(
		key.WithKeys("N", "shift+tab"),
		key.WithHelp("N/S-tab", "prev file"),
	),
	NextBlocker: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "next blocker"),
	),
	PrevBlocker: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "prev blocker"),
	),
	Acknowledge: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "acknowledge"),
	),
	Dismiss: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "dismiss"),
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
