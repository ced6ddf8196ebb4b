package app

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Control bytes written to the shell.
const (
	byteCtrlC     = 0x03
	byteBackspace = 0x08
	byteTab       = 0x09
	byteEnter     = 0x0D
	byteEsc       = 0x1B
)

var escapeKeys = map[tea.KeyType]string{
	tea.KeyUp:     "\x1b[A",
	tea.KeyDown:   "\x1b[B",
	tea.KeyRight:  "\x1b[C",
	tea.KeyLeft:   "\x1b[D",
	tea.KeyDelete: "\x1b[3~",
	tea.KeyHome:   "\x1b[H",
	tea.KeyEnd:    "\x1b[F",
	tea.KeyPgUp:   "\x1b[5~",
	tea.KeyPgDown: "\x1b[6~",
}

// KeyBytes converts a key press into the bytes a terminal sends for it.
// Keys with no terminal encoding return nil.
func KeyBytes(msg tea.KeyMsg) []byte {
	var out []byte
	if msg.Alt {
		out = append(out, byteEsc)
	}

	switch msg.Type {
	case tea.KeyRunes:
		return append(out, string(msg.Runes)...)
	case tea.KeySpace:
		return append(out, ' ')
	case tea.KeyEnter:
		return append(out, byteEnter)
	case tea.KeyBackspace:
		return append(out, byteBackspace)
	case tea.KeyEsc:
		return append(out, byteEsc)
	case tea.KeyTab:
		return append(out, byteTab)
	case tea.KeyCtrlC:
		return append(out, byteCtrlC)
	}

	if seq, ok := escapeKeys[msg.Type]; ok {
		return append(out, seq...)
	}

	// The remaining control keys (ctrl+@ through ctrl+_) are their own byte.
	if msg.Type >= tea.KeyCtrlAt && msg.Type <= tea.KeyCtrlUnderscore {
		return append(out, byte(msg.Type))
	}
	return nil
}
