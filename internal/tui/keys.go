package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the board view bindings. It implements help.KeyMap.
type keyMap struct {
	Left, Right, Up, Down  key.Binding
	MoveLeft, MoveRight    key.Binding
	Toggle, Pin, Priority  key.Binding
	Archive, ArchiveDone   key.Binding
	Delete, Add, NextBoard key.Binding
	HideEmpty, Help, Quit  key.Binding
	Confirm, Cancel        key.Binding
}

var keys = keyMap{
	Left:        key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("←/h", "column")),
	Right:       key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("→/l", "column")),
	Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
	Down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
	MoveLeft:    key.NewBinding(key.WithKeys("H", "shift+left"), key.WithHelp("H", "move left")),
	MoveRight:   key.NewBinding(key.WithKeys("L", "shift+right"), key.WithHelp("L", "move right")),
	Toggle:      key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("x", "done")),
	Pin:         key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pin")),
	Priority:    key.NewBinding(key.WithKeys("0", "1", "2", "3"), key.WithHelp("0-3", "priority")),
	Archive:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "archive")),
	ArchiveDone: key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "archive done")),
	Delete:      key.NewBinding(key.WithKeys("d", "D"), key.WithHelp("d", "delete")),
	Add:         key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
	NextBoard:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next board")),
	HideEmpty:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "hide empty")),
	Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:        key.NewBinding(key.WithKeys("q", keyEsc, "ctrl+c"), key.WithHelp("q", "quit")),
	Confirm:     key.NewBinding(key.WithKeys("y", "Y")),
	Cancel:      key.NewBinding(key.WithKeys("n", "N", keyEsc, "q")),
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.MoveLeft, k.MoveRight, k.Add, k.Delete, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.MoveLeft, k.MoveRight, k.Toggle, k.Add},
		{k.Pin, k.Priority, k.Archive, k.ArchiveDone},
		{k.Delete, k.NextBoard, k.HideEmpty, k.Quit},
	}
}
