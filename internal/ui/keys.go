package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Command is what a keystroke asks the loop to do.
type Command int

const (
	CommandNone Command = iota
	CommandQuit
	CommandConnect
	CommandDisconnect
)

func (c Command) String() string {
	switch c {
	case CommandQuit:
		return "quit"
	case CommandConnect:
		return "connect"
	case CommandDisconnect:
		return "disconnect"
	default:
		return "none"
	}
}

type keyMap struct {
	Quit       key.Binding
	Connect    key.Binding
	Disconnect key.Binding
}

// Bindings are case-sensitive. ctrl+c arrives as a key in raw mode, so it
// shares the quit path with q.
var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Connect: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "connect"),
	),
	Disconnect: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "disconnect"),
	),
}

// Dispatch maps a keystroke to a Command. Unknown keys map to CommandNone.
func Dispatch(msg tea.KeyMsg) Command {
	switch {
	case key.Matches(msg, keys.Quit):
		return CommandQuit
	case key.Matches(msg, keys.Connect):
		return CommandConnect
	case key.Matches(msg, keys.Disconnect):
		return CommandDisconnect
	default:
		return CommandNone
	}
}

// helpLine renders the footer from the bindings' help text.
func helpLine() string {
	parts := make([]string, 0, 3)
	for _, b := range []key.Binding{keys.Quit, keys.Connect, keys.Disconnect} {
		h := b.Help()
		parts = append(parts, fmt.Sprintf("'%s' to %s", h.Key, h.Desc))
	}
	return "Press " + strings.Join(parts, ", ")
}
