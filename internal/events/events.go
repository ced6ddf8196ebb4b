// Package events defines the closed set of events consumed by the
// application state machine and the merger that produces them.
package events

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Direction is a scroll direction.
type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// Pane identifies one half of the window.
type Pane int

const (
	PaneChat Pane = iota
	PaneTerminal
)

func (p Pane) String() string {
	if p == PaneTerminal {
		return "terminal"
	}
	return "chat"
}

// Event is one of the types below. The set is closed.
type Event interface {
	isEvent()
}

// Tick fires at a fixed interval to drive redraws.
type Tick struct{}

// KeyInput is a key press that no global binding intercepted.
type KeyInput struct {
	Key tea.KeyMsg
}

// MouseScroll is a wheel movement over a pane.
type MouseScroll struct {
	Direction Direction
	Pane      Pane
}

// Resize carries the new size of the whole window.
type Resize struct {
	Cols, Rows int
}

// ConversationToken is a fragment of assistant text.
type ConversationToken struct {
	Text string
}

// ConversationFinished is emitted with Done=false when a request is issued
// and Done=true when it completes.
type ConversationFinished struct {
	Done bool
}

// ModeChanged toggles between terminal and chat input.
type ModeChanged struct{}

// Quit ends the application.
type Quit struct{}

// ScrollChat moves the chat pane by one line.
type ScrollChat struct {
	Direction Direction
}

// ScrollTerminal moves the terminal pane by one line.
type ScrollTerminal struct {
	Direction Direction
}

// ShellExited reports that the shell process is gone.
type ShellExited struct {
	Err error
}

func (Tick) isEvent()                 {}
func (KeyInput) isEvent()             {}
func (MouseScroll) isEvent()          {}
func (Resize) isEvent()               {}
func (ConversationToken) isEvent()    {}
func (ConversationFinished) isEvent() {}
func (ModeChanged) isEvent()          {}
func (Quit) isEvent()                 {}
func (ScrollChat) isEvent()           {}
func (ScrollTerminal) isEvent()       {}
func (ShellExited) isEvent()          {}

// Name returns a short label for logging.
func Name(e Event) string {
	switch e := e.(type) {
	case Tick:
		return "tick"
	case KeyInput:
		return "key"
	case MouseScroll:
		return fmt.Sprintf("mouse:%s:%s", e.Pane, e.Direction)
	case Resize:
		return fmt.Sprintf("resize:%dx%d", e.Cols, e.Rows)
	case ConversationToken:
		return "token"
	case ConversationFinished:
		return fmt.Sprintf("finished:%t", e.Done)
	case ModeChanged:
		return "mode"
	case Quit:
		return "quit"
	case ScrollChat:
		return "scroll-chat:" + e.Direction.String()
	case ScrollTerminal:
		return "scroll-terminal:" + e.Direction.String()
	case ShellExited:
		return "shell-exited"
	default:
		return fmt.Sprintf("%T", e)
	}
}
