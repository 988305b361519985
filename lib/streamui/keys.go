// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package streamui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the viewer's key bindings.
type KeyMap struct {
	Up       key.Binding // Scroll back one line.
	Down     key.Binding // Scroll forward one line.
	PageUp   key.Binding
	PageDown key.Binding
	Follow   key.Binding // Jump to the newest line and stay there.

	Pause key.Binding
	Clear key.Binding
	Quit  key.Binding
}

// DefaultKeyMap is the built-in binding set, with vim-style j/k next
// to the arrow keys.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "back"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "forward"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup", "ctrl+b"),
		key.WithHelp("pgup", "page back"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown", "ctrl+f"),
		key.WithHelp("pgdn", "page forward"),
	),
	Follow: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "follow"),
	),
	Pause: key.NewBinding(
		key.WithKeys(" ", "p"),
		key.WithHelp("space", "pause"),
	),
	Clear: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// helpBindings are the bindings listed in the status bar, in order.
func (keys KeyMap) helpBindings() []key.Binding {
	return []key.Binding{keys.Pause, keys.Clear, keys.Up, keys.Down, keys.Follow, keys.Quit}
}
