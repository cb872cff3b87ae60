package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the dashboard key bindings. Anything not bound here is
// ignored.
type KeyMap struct {
	Quit key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
