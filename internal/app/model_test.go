package app

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/exp/teatest"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/shellpal/internal/conversation"
	"github.com/zjrosen/shellpal/internal/events"
	"github.com/zjrosen/shellpal/internal/flags"
	"github.com/zjrosen/shellpal/internal/keys"
	"github.com/zjrosen/shellpal/internal/queue"
	"github.com/zjrosen/shellpal/internal/screen"
	"github.com/zjrosen/shellpal/internal/termctx"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	zone.NewGlobal()
	os.Exit(m.Run())
}

type harness struct {
	model   Model
	shell   *fakeShell
	screen  *screen.Model
	session *conversation.Session
}

func newHarness(t *testing.T, ctx context.Context) *harness {
	t.Helper()
	scr := screen.New(24, 80)
	t.Cleanup(func() { _ = scr.Close() })

	session := conversation.NewSession(conversation.SessionConfig{
		Backend: stubBackend{fragments: []string{"It ", "is ", "Go."}},
		Model:   "test",
	})
	go func() { _ = session.Run(ctx) }()
	t.Cleanup(session.Close)

	shell := &fakeShell{}
	input := queue.New[events.Event]("input")
	merger := events.NewMerger(events.MergerConfig{
		Input:        input,
		Conversation: session.Events(),
		TickInterval: 50 * time.Millisecond,
	})
	t.Cleanup(merger.Stop)

	machine := NewMachine(MachineConfig{
		Shell:        shell,
		Screen:       scr,
		Conversation: session,
		Context:      termctx.New(termctx.DefaultMaxBytes),
		Flags:        flags.New(nil),
		Ratio:        0.57,
		ChromeRows:   5,
	})
	return &harness{
		model: New(ctx, ModelConfig{
			Machine: machine,
			Merger:  merger,
			Input:   input,
			Screen:  scr,
			Keys:    keys.DefaultKeyMap(),
		}),
		shell:   shell,
		screen:  scr,
		session: session,
	}
}

func TestModel_ChatRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := newHarness(t, ctx)

	tm := teatest.NewTestModel(t, h.model, teatest.WithInitialTermSize(100, 40))

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("Terminal")) && bytes.Contains(out, []byte("57x35"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlB})
	tm.Type("hi")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("It is Go."))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlQ})
	final := tm.FinalModel(t, teatest.WithFinalTimeout(3*time.Second)).(Model)

	s := final.Machine().State()
	require.True(t, s.Quitting)
	require.Equal(t, ModeChat, s.Mode)
	require.Equal(t, 2, s.Transcript.Len())
	require.Len(t, h.session.History(), 3)
	require.Equal(t, [][2]int{{35, 57}}, h.shell.resizes)
	rows, cols := h.screen.Size()
	require.Equal(t, 35, rows)
	require.Equal(t, 57, cols)
}

func TestModel_TerminalInputReachesShell(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := newHarness(t, ctx)

	tm := teatest.NewTestModel(t, h.model, teatest.WithInitialTermSize(100, 40))
	tm.Type("ls")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlQ})
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))

	require.Equal(t, []byte("ls\r"), h.shell.Written())
}

func TestModel_ShellExitQuits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := newHarness(t, ctx)

	exited := make(chan struct{})
	h.model.merger.Stop()
	h.model.merger = events.NewMerger(events.MergerConfig{
		Input:        h.model.input,
		Conversation: h.session.Events(),
		Exited:       exited,
		TickInterval: 50 * time.Millisecond,
	})
	t.Cleanup(h.model.merger.Stop)

	tm := teatest.NewTestModel(t, h.model, teatest.WithInitialTermSize(80, 24))
	close(exited)

	final := tm.FinalModel(t, teatest.WithFinalTimeout(3*time.Second)).(Model)
	require.True(t, final.Machine().State().ShellExited)
}

func TestModel_ViewBeforeResizeIsEmpty(t *testing.T) {
	h := newHarness(t, context.Background())
	require.Empty(t, h.model.View())
}
