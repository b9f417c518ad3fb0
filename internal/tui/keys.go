package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the bindings that are not control keys. Control keys come
// from the layout and change with the phase.
type KeyMap struct {
	Undo      key.Binding
	Submit    key.Binding
	NextField key.Binding
	Blur      key.Binding
	Quit      key.Binding
}

// DefaultKeyMap avoids every key the default layout assigns to a control.
var DefaultKeyMap = KeyMap{
	Undo: key.NewBinding(
		key.WithKeys("u", "ctrl+z"),
		key.WithHelp("u", "undo"),
	),
	Submit: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("C-s", "submit"),
	),
	NextField: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "comments"),
	),
	Blur: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "leave field"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "q"),
		key.WithHelp("q", "quit"),
	),
}
