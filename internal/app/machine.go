package app

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rivo/uniseg"

	"github.com/zjrosen/shellpal/internal/conversation"
	"github.com/zjrosen/shellpal/internal/events"
	"github.com/zjrosen/shellpal/internal/flags"
	"github.com/zjrosen/shellpal/internal/log"
)

// Shell receives keystrokes and geometry changes. *device.Device implements it.
type Shell interface {
	Write(ctx context.Context, p []byte) error
	Resize(rows, cols int) error
}

// ScreenResizer is implemented by *screen.Model.
type ScreenResizer interface {
	Resize(rows, cols int)
}

// Dispatcher is implemented by *conversation.Session.
type Dispatcher interface {
	Dispatch(a conversation.Action) bool
}

// ContextBuffer is implemented by *termctx.Buffer.
type ContextBuffer interface {
	Text() string
	Reset()
}

// Tailer is implemented by *termctx.Tokenizer.
type Tailer interface {
	Tail(s string, maxTokens int) (string, error)
}

// MachineConfig wires a Machine to its side effects. Nil fields disable
// the corresponding effect.
type MachineConfig struct {
	Shell        Shell
	Screen       ScreenResizer
	Conversation Dispatcher
	Context      ContextBuffer
	Tokenizer    Tailer
	Flags        *flags.Registry

	Ratio         float64
	ChromeRows    int
	ContextTokens int
	Persona       conversation.Persona
}

// Machine is the single-threaded application state machine. Handle is
// called with one event at a time.
type Machine struct {
	cfg   MachineConfig
	state State
}

// NewMachine creates a machine in terminal mode.
func NewMachine(cfg MachineConfig) *Machine {
	return &Machine{
		cfg:   cfg,
		state: State{Mode: ModeTerminal, Persona: cfg.Persona.Name()},
	}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Handle applies one event. It returns true when the application should quit.
func (m *Machine) Handle(ctx context.Context, ev events.Event) bool {
	switch ev.(type) {
	case events.Tick, events.KeyInput, events.ConversationToken:
	default:
		log.Debug(log.CatApp, "Handling event", "event", events.Name(ev))
	}

	switch ev := ev.(type) {
	case events.Tick:
	case events.KeyInput:
		if m.state.Mode == ModeTerminal {
			m.terminalKey(ctx, ev.Key)
		} else {
			m.chatKey(ev.Key)
		}
	case events.MouseScroll:
		if ev.Pane == events.PaneTerminal {
			m.state.TerminalScroll = scroll(m.state.TerminalScroll, ev.Direction)
		} else {
			m.state.ChatScroll = scroll(m.state.ChatScroll, ev.Direction)
		}
	case events.Resize:
		m.resize(ev.Cols, ev.Rows)
	case events.ConversationToken:
		m.state.Transcript.AppendAssistant(ev.Text)
	case events.ConversationFinished:
		if ev.Done {
			m.state.Awaiting = false
			m.state.Transcript.EndReply()
		}
	case events.ModeChanged:
		if m.state.Mode == ModeTerminal {
			m.state.Mode = ModeChat
		} else {
			m.state.Mode = ModeTerminal
		}
		log.Debug(log.CatApp, "mode changed", "mode", m.state.Mode)
	case events.ScrollChat:
		m.state.ChatScroll = scroll(m.state.ChatScroll, ev.Direction)
	case events.ScrollTerminal:
		m.state.TerminalScroll = scroll(m.state.TerminalScroll, ev.Direction)
	case events.Quit:
		m.state.Quitting = true
	case events.ShellExited:
		m.state.ShellExited = true
		m.state.Quitting = true
		if ev.Err != nil {
			log.Info(log.CatApp, "shell exited", "error", ev.Err)
		}
	}
	return m.state.Quitting
}

// scroll moves an offset one line, saturating at zero.
func scroll(offset int, dir events.Direction) int {
	if dir == events.Up {
		return offset + 1
	}
	return max(offset-1, 0)
}

func (m *Machine) terminalKey(ctx context.Context, key tea.KeyMsg) {
	p := KeyBytes(key)
	if len(p) == 0 || m.cfg.Shell == nil {
		return
	}
	m.state.TerminalScroll = 0
	if err := m.cfg.Shell.Write(ctx, p); err != nil {
		log.ErrorErr(log.CatApp, "write to shell failed", err)
	}
}

func (m *Machine) chatKey(key tea.KeyMsg) {
	switch key.Type {
	case tea.KeyRunes:
		if !m.state.Awaiting {
			m.state.Input += string(key.Runes)
		}
	case tea.KeySpace:
		if !m.state.Awaiting {
			m.state.Input += " "
		}
	case tea.KeyBackspace:
		m.state.Input = dropLastGrapheme(m.state.Input)
	case tea.KeyEnter:
		if !m.state.Awaiting {
			m.submit()
		}
	}
}

func (m *Machine) submit() {
	input := m.state.Input
	cmd := ResolveCommand(input)
	switch cmd.Kind {
	case CommandReset:
		m.dispatch(conversation.ClearHistory{})
		if m.cfg.Context != nil {
			m.cfg.Context.Reset()
		}
		m.clearChat()
		log.Info(log.CatApp, "conversation reset")
	case CommandPersona:
		m.dispatch(conversation.SwitchPersona{Persona: cmd.Persona})
		m.state.Persona = cmd.Persona.Name()
		m.clearChat()
	default:
		if strings.TrimSpace(input) == "" {
			return
		}
		if !m.dispatch(conversation.SendMessage{Text: m.compose(input)}) {
			return
		}
		m.state.Transcript.AddUser(input)
		m.state.Input = ""
		m.state.ChatScroll = 0
		m.state.Awaiting = true
	}
}

func (m *Machine) clearChat() {
	m.state.Input = ""
	m.state.Transcript.Reset()
	m.state.ChatScroll = 0
}

func (m *Machine) dispatch(a conversation.Action) bool {
	if m.cfg.Conversation == nil {
		return false
	}
	if !m.cfg.Conversation.Dispatch(a) {
		log.Warn(log.CatApp, "conversation closed, action dropped", "action", fmt.Sprintf("%T", a))
		return false
	}
	return true
}

// compose prefixes text with recent shell output when terminal context is on.
func (m *Machine) compose(text string) string {
	if !m.cfg.Flags.Enabled(flags.FlagTerminalContext) || m.cfg.Context == nil || m.cfg.Tokenizer == nil {
		return text
	}
	tail, err := m.cfg.Tokenizer.Tail(m.cfg.Context.Text(), m.cfg.ContextTokens)
	if err != nil {
		log.ErrorErr(log.CatApp, "terminal context unavailable", err)
		return text
	}
	tail = strings.TrimSpace(tail)
	if tail == "" {
		return text
	}
	return "Recent output from my terminal:\n```\n" + tail + "\n```\n\n" + text
}

func (m *Machine) resize(cols, rows int) {
	m.state.Width, m.state.Height = cols, rows
	termRows, termCols := Layout(cols, rows, m.cfg.Ratio, m.cfg.ChromeRows)
	m.state.TermRows, m.state.TermCols = termRows, termCols

	if m.cfg.Shell != nil {
		if err := m.cfg.Shell.Resize(termRows, termCols); err != nil {
			log.ErrorErr(log.CatApp, "resize shell failed", err, "rows", termRows, "cols", termCols)
		}
	}
	if m.cfg.Screen != nil {
		m.cfg.Screen.Resize(termRows, termCols)
	}
	log.Debug(log.CatApp, "resized", "width", cols, "height", rows, "rows", termRows, "cols", termCols)
}

// dropLastGrapheme removes the last user-perceived character.
func dropLastGrapheme(s string) string {
	if s == "" {
		return s
	}
	last := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		last, _ = g.Positions()
	}
	return s[:last]
}
