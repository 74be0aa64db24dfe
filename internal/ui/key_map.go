package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	refresh   key.Binding
	correct   key.Binding
	incorrect key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		correct:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "mark correct")),
		incorrect: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "mark incorrect")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.refresh, k.correct, k.incorrect, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down},
		{k.refresh, k.correct, k.incorrect},
		{k.quit},
	}
}
