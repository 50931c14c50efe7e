package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the list focus. Text inputs take
// every key except Enter and Esc while focused.
type KeyMap struct {
	Up   key.Binding
	Down key.Binding
	Open key.Binding
	Back key.Binding

	Search   key.Binding
	OpenOnly key.Binding
	Compose  key.Binding
	Voice    key.Binding
	Solve    key.Binding // Admin only.
	New      key.Binding // Company only.

	Refresh key.Binding
	Theme   key.Binding
	Quit    key.Binding
}

var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "open chat"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "backspace"),
		key.WithHelp("Esc", "back"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	OpenOnly: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "open only"),
	),
	Compose: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "write"),
	),
	Voice: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "voice"),
	),
	Solve: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "mark solved"),
	),
	New: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new ticket"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("C-r", "refresh"),
	),
	Theme: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "theme"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
