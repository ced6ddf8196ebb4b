package events

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/shellpal/internal/keys"
)

// PaneLocator reports which pane a mouse event is over.
type PaneLocator func(msg tea.MouseMsg) Pane

// Translate maps a raw input message to an Event. Global bindings win over
// pass-through. Messages that are not input (or input we ignore, such as
// mouse motion) return false.
func Translate(msg tea.Msg, km keys.KeyMap, locate PaneLocator) (Event, bool) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, km.Quit):
			return Quit{}, true
		case key.Matches(msg, km.ChangeMode):
			return ModeChanged{}, true
		case key.Matches(msg, km.ScrollTerminalUp):
			return ScrollTerminal{Direction: Up}, true
		case key.Matches(msg, km.ScrollTerminalDown):
			return ScrollTerminal{Direction: Down}, true
		case key.Matches(msg, km.ScrollChatUp):
			return ScrollChat{Direction: Up}, true
		case key.Matches(msg, km.ScrollChatDown):
			return ScrollChat{Direction: Down}, true
		}
		return KeyInput{Key: msg}, true

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress {
			return nil, false
		}
		var dir Direction
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			dir = Up
		case tea.MouseButtonWheelDown:
			dir = Down
		default:
			return nil, false
		}
		pane := PaneChat
		if locate != nil {
			pane = locate(msg)
		}
		return MouseScroll{Direction: dir, Pane: pane}, true

	case tea.WindowSizeMsg:
		return Resize{Cols: msg.Width, Rows: msg.Height}, true
	}
	return nil, false
}
