package app

import (
	"github.com/zjrosen/shellpal/internal/ui/chat"
)

// Mode selects where keystrokes go.
type Mode int

const (
	ModeTerminal Mode = iota
	ModeChat
)

func (m Mode) String() string {
	if m == ModeChat {
		return "chat"
	}
	return "terminal"
}

// State is the application state owned by the Machine.
type State struct {
	Mode Mode
	// Awaiting is set when a message is sent and cleared when the reply
	// finishes.
	Awaiting       bool
	TerminalScroll int
	ChatScroll     int
	// Input is the pending chat input.
	Input      string
	Transcript chat.Transcript
	Persona    string

	Width, Height      int
	TermRows, TermCols int

	// ShellExited is set once the shell is gone.
	ShellExited bool
	Quitting    bool
}
