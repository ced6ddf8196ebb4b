package ui

import (
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/shellpal/internal/keys"
	"github.com/zjrosen/shellpal/internal/screen"
	"github.com/zjrosen/shellpal/internal/ui/chat"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	zone.NewGlobal()
	os.Exit(m.Run())
}

func testFrame() Frame {
	lines := make([]string, 35)
	lines[0] = "$ ls"
	lines[1] = "main.go"
	lines[2] = "$ "
	return Frame{
		Width:    100,
		Height:   40,
		TermRows: 35,
		TermCols: 57,
		Screen: screen.Snapshot{
			Rows:   35,
			Cols:   57,
			Lines:  lines,
			Cursor: screen.Cursor{X: 2, Y: 2},
		},
		Persona: "general",
		Hints:   keys.DefaultKeyMap().ShortHelp(),
	}
}

func render(t *testing.T, r *Renderer, f Frame) []string {
	t.Helper()
	out := zone.Scan(r.View(f))
	lines := strings.Split(out, "\n")
	require.Len(t, lines, f.Height)
	for i, line := range lines {
		require.Equal(t, f.Width, lipgloss.Width(line), "line %d: %q", i, line)
	}
	return lines
}

func TestView_Layout(t *testing.T) {
	lines := render(t, New(nil), testFrame())

	require.Contains(t, lines[0], "shellpal · terminal mode · general")
	require.True(t, strings.HasPrefix(lines[1], "╭─ Terminal"))
	require.Contains(t, lines[1], "57x35")
	require.Contains(t, lines[1], "Chat")
	require.Contains(t, lines[2], "$ ls")
	require.Contains(t, lines[3], "main.go")
	require.Contains(t, lines[38], "Typing to the shell")
	require.Contains(t, lines[39], "ctrl+q quit")
	require.Contains(t, lines[39], "ctrl+b switch mode")
}

func TestView_ChatPaneShowsTranscriptAndInput(t *testing.T) {
	f := testFrame()
	f.ChatFocused = true
	f.Entries = []chat.Entry{
		{Role: chat.RoleUser, Text: "what is this"},
		{Role: chat.RoleAssistant, Text: "A Go project."},
	}
	f.Input = "next question"

	out := strings.Join(render(t, New(nil), f), "\n")
	require.Contains(t, out, "what is this")
	require.Contains(t, out, "A Go project.")
	require.Contains(t, out, "> next question")
	require.Contains(t, out, "Typing to the assistant")
}

func TestView_Thinking(t *testing.T) {
	f := testFrame()
	f.Awaiting = true
	lines := render(t, New(nil), f)
	require.Contains(t, lines[38], "thinking")
}

func TestView_TerminalScrollShowsHistory(t *testing.T) {
	f := testFrame()
	var hist []string
	for i := range 100 {
		hist = append(hist, "line"+strings.Repeat("x", i%3)+"-"+string(rune('a'+i%26)))
	}
	f.History = strings.Join(hist, "\n")
	f.TerminalScroll = 10

	out := strings.Join(render(t, New(nil), f), "\n")
	require.Contains(t, out, "↑10")
	require.NotContains(t, out, "$ ls")
}

func TestView_ChatScroll(t *testing.T) {
	f := testFrame()
	for i := range 60 {
		f.Entries = append(f.Entries, chat.Entry{Role: chat.RoleUser, Text: "message " + strings.Repeat("z", i%5)})
	}
	r := New(nil)

	bottom := strings.Join(render(t, r, f), "\n")
	f.ChatScroll = 5
	scrolled := strings.Join(render(t, r, f), "\n")
	require.NotEqual(t, bottom, scrolled)
	require.Contains(t, scrolled, "↑5")

	f.ChatScroll = 100000
	top := strings.Join(render(t, r, f), "\n")
	require.NotContains(t, top, "↑100000", "offset is clamped to the content")
}

func TestView_SmallChrome(t *testing.T) {
	f := testFrame()
	f.Height = 38
	lines := render(t, New(nil), f)
	require.True(t, strings.HasPrefix(lines[0], "╭─ Terminal"), "no header without room")
	require.Contains(t, lines[37], "Typing to the shell", "one status line, no hints")
}

func TestView_ZeroSize(t *testing.T) {
	require.Empty(t, New(nil).View(Frame{}))
}

func TestHistoryWindow(t *testing.T) {
	text := "1\n2\n3\n4\n5\n6\n"
	require.Equal(t, "4\n5", historyWindow(text, 2, 1))
	require.Equal(t, "1\n2", historyWindow(text, 2, 50), "saturates at the top")
	require.Equal(t, "1\n2\n3\n4\n5\n6", historyWindow(text, 10, 3))
}

func TestWithCursor(t *testing.T) {
	require.Equal(t, "abc", withCursor("abc", 1), "ascii profile renders the cell unstyled")
	require.Equal(t, "ab  ", withCursor("ab", 3))
	require.Equal(t, "ab", withCursor("ab", -1))
}

func TestInputLine(t *testing.T) {
	require.Equal(t, "> hi", inputLine("hi", 20, false))
	require.Equal(t, "> hi ", inputLine("hi", 20, true))
	require.Equal(t, "> 6789", inputLine("123456789", 6, false))
	require.Equal(t, "> 日本", inputLine("こ日本", 6, false), "wide runes are kept whole")
}

func TestHintLine(t *testing.T) {
	line := hintLine([]key.Binding{keys.DefaultKeyMap().Quit})
	require.Contains(t, line, "ctrl+q quit")
}
