// Package app contains the application state machine and the root
// Bubble Tea model that feeds it.
package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/shellpal/internal/events"
	"github.com/zjrosen/shellpal/internal/keys"
	"github.com/zjrosen/shellpal/internal/queue"
	"github.com/zjrosen/shellpal/internal/screen"
	"github.com/zjrosen/shellpal/internal/ui"
)

// Snapshotter is implemented by *screen.Model.
type Snapshotter interface {
	Snapshot() screen.Snapshot
}

// TextSource is implemented by *termctx.Buffer.
type TextSource interface {
	Text() string
}

// ModelConfig wires the root model.
type ModelConfig struct {
	Machine  *Machine
	Merger   *events.Merger
	Input    *queue.Queue[events.Event]
	Screen   Snapshotter
	History  TextSource
	Renderer *ui.Renderer
	Keys     keys.KeyMap
}

// Model is the root Bubble Tea model. Update translates raw input into
// events and queues them; the merger hands events back one at a time and
// each is applied to the Machine in order.
type Model struct {
	ctx      context.Context
	machine  *Machine
	merger   *events.Merger
	input    *queue.Queue[events.Event]
	screen   Snapshotter
	history  TextSource
	renderer *ui.Renderer
	keys     keys.KeyMap
}

// New creates the root model. The zone manager must be initialized with
// zone.NewGlobal before the program starts.
func New(ctx context.Context, cfg ModelConfig) Model {
	renderer := cfg.Renderer
	if renderer == nil {
		renderer = ui.New(nil)
	}
	return Model{
		ctx:      ctx,
		machine:  cfg.Machine,
		merger:   cfg.Merger,
		input:    cfg.Input,
		screen:   cfg.Screen,
		history:  cfg.History,
		renderer: renderer,
		keys:     cfg.Keys,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.merger.WaitCmd(m.ctx)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(events.Msg); ok {
		if m.machine.Handle(m.ctx, msg.Event) {
			return m, tea.Quit
		}
		return m, m.merger.WaitCmd(m.ctx)
	}

	if ev, ok := events.Translate(msg, m.keys, locatePane); ok {
		m.input.Push(ev)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	s := m.machine.State()
	if s.Quitting {
		return ""
	}

	f := ui.Frame{
		Width:          s.Width,
		Height:         s.Height,
		TermRows:       s.TermRows,
		TermCols:       s.TermCols,
		ChatFocused:    s.Mode == ModeChat,
		TerminalScroll: s.TerminalScroll,
		ChatScroll:     s.ChatScroll,
		Entries:        s.Transcript.Entries(),
		Input:          s.Input,
		Awaiting:       s.Awaiting,
		Persona:        s.Persona,
		Hints:          m.keys.ShortHelp(),
	}
	if f.ChatFocused {
		f.Hints = m.keys.ChatHelp()
	}
	if m.screen != nil {
		f.Screen = m.screen.Snapshot()
	}
	if s.TerminalScroll > 0 && m.history != nil {
		f.History = m.history.Text()
	}
	return zone.Scan(m.renderer.View(f))
}

// Machine returns the state machine.
func (m Model) Machine() *Machine {
	return m.machine
}

func locatePane(msg tea.MouseMsg) events.Pane {
	if z := zone.Get(ui.ZoneTerminal); z != nil && z.InBounds(msg) {
		return events.PaneTerminal
	}
	return events.PaneChat
}
