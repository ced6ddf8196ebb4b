// Package ui renders the shellpal window: a terminal pane on the left, the
// chat pane on the right, a header line above and a status bar below.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/shellpal/internal/screen"
	"github.com/zjrosen/shellpal/internal/ui/chat"
	"github.com/zjrosen/shellpal/internal/ui/markdown"
	"github.com/zjrosen/shellpal/internal/ui/panes"
	"github.com/zjrosen/shellpal/internal/ui/styles"
)

// Zone IDs for mouse hit testing.
const (
	ZoneTerminal = "shellpal-terminal"
	ZoneChat     = "shellpal-chat"
)

// inputHeight is the chat input box height including its border.
const inputHeight = 3

// Frame is everything one render needs.
type Frame struct {
	Width, Height      int
	TermRows, TermCols int

	ChatFocused bool
	Screen      screen.Snapshot
	// History is the plain shell output shown while the terminal pane is
	// scrolled back.
	History        string
	TerminalScroll int
	ChatScroll     int

	Entries  []chat.Entry
	Input    string
	Awaiting bool
	Persona  string
	Hints    []key.Binding
}

// Renderer draws frames. It keeps the chat viewport between frames.
type Renderer struct {
	md *markdown.Renderer
	vp viewport.Model
}

// New creates a renderer. A nil md renders replies as plain text.
func New(md *markdown.Renderer) *Renderer {
	return &Renderer{md: md, vp: viewport.New(0, 0)}
}

// View renders f. Zone markers are included; the caller runs zone.Scan.
func (r *Renderer) View(f Frame) string {
	if f.Width <= 0 || f.Height <= 0 {
		return ""
	}

	paneHeight := min(f.TermRows+2, f.Height)
	extra := f.Height - paneHeight
	headerLines := 0
	if extra >= 3 {
		headerLines = 1
	}
	statusLines := min(extra-headerLines, 2)

	leftWidth := min(f.TermCols+2, f.Width)
	rightWidth := f.Width - leftWidth

	left := zone.Mark(ZoneTerminal, r.terminalPane(f, leftWidth, paneHeight))
	body := left
	if rightWidth >= 4 {
		right := zone.Mark(ZoneChat, r.chatPane(f, rightWidth, paneHeight))
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}

	var out []string
	if headerLines > 0 {
		out = append(out, fitLine(header(f), f.Width))
	}
	out = append(out, body)
	if statusLines > 0 {
		out = append(out, fitLine(statusLine(f), f.Width))
	}
	if statusLines > 1 {
		out = append(out, fitLine(hintLine(f.Hints), f.Width))
	}
	return strings.Join(out, "\n")
}

func (r *Renderer) terminalPane(f Frame, width, height int) string {
	innerHeight := max(height-2, 1)
	var content, scrollTitle string
	if f.TerminalScroll > 0 {
		content = historyWindow(f.History, innerHeight, f.TerminalScroll)
		scrollTitle = fmt.Sprintf("↑%d", f.TerminalScroll)
	} else {
		lines := append([]string(nil), f.Screen.Lines...)
		if !f.ChatFocused {
			c := f.Screen.Cursor
			if c.Y >= 0 && c.Y < len(lines) {
				lines[c.Y] = withCursor(lines[c.Y], c.X)
			}
		}
		content = strings.Join(lines, "\n")
	}
	return panes.BorderedPane(panes.BorderConfig{
		Content:            content,
		Width:              width,
		Height:             height,
		TopLeft:            "Terminal",
		TopRight:           fmt.Sprintf("%dx%d", f.TermCols, f.TermRows),
		BottomRight:        scrollTitle,
		Focused:            !f.ChatFocused,
		TitleColor:         styles.TerminalTitleColor,
		FocusedBorderColor: styles.BorderFocusColor,
	})
}

func (r *Renderer) chatPane(f Frame, width, height int) string {
	transcriptHeight := height - inputHeight
	if transcriptHeight < 3 {
		transcriptHeight = height
	}
	innerWidth := max(width-2, 1)
	innerHeight := max(transcriptHeight-2, 1)

	content := chat.Render(f.Entries, chat.RenderConfig{
		Width:          innerWidth,
		Markdown:       r.md,
		AssistantLabel: f.Persona,
	})
	r.vp.Width = innerWidth
	r.vp.Height = innerHeight
	r.vp.SetContent(content)
	maxOffset := max(r.vp.TotalLineCount()-innerHeight, 0)
	scroll := min(f.ChatScroll, maxOffset)
	r.vp.SetYOffset(maxOffset - scroll)

	var scrollTitle string
	if scroll > 0 {
		scrollTitle = fmt.Sprintf("↑%d", scroll)
	}
	transcript := panes.BorderedPane(panes.BorderConfig{
		Content:            r.vp.View(),
		Width:              width,
		Height:             transcriptHeight,
		TopLeft:            "Chat",
		TopRight:           f.Persona,
		BottomRight:        scrollTitle,
		Focused:            f.ChatFocused,
		TitleColor:         styles.ChatTitleColor,
		FocusedBorderColor: styles.BorderFocusColor,
	})
	if transcriptHeight == height {
		return transcript
	}

	input := panes.BorderedPane(panes.BorderConfig{
		Content:            inputLine(f.Input, innerWidth, f.ChatFocused && !f.Awaiting),
		Width:              width,
		Height:             inputHeight,
		Focused:            f.ChatFocused,
		FocusedBorderColor: styles.BorderFocusColor,
	})
	return transcript + "\n" + input
}

func header(f Frame) string {
	mode := "terminal"
	if f.ChatFocused {
		mode = "chat"
	}
	persona := f.Persona
	if persona == "" {
		persona = "general"
	}
	return styles.HeaderStyle.Render(fmt.Sprintf("shellpal · %s mode · %s", mode, persona))
}

func statusLine(f Frame) string {
	var parts []string
	if f.ChatFocused {
		parts = append(parts, "Typing to the assistant")
	} else {
		parts = append(parts, "Typing to the shell")
	}
	if f.Awaiting {
		parts = append(parts, styles.ThinkingStyle.Render("thinking…"))
	}
	return styles.StatusBarStyle.Render(strings.Join(parts, "  "))
}

func hintLine(bindings []key.Binding) string {
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, styles.HelpKeyStyle.Render(h.Key)+" "+styles.HelpDescStyle.Render(h.Desc))
	}
	return styles.StatusBarStyle.Render(strings.Join(hints, styles.HelpDescStyle.Render(" • ")))
}

// fitLine truncates or pads a single line to width.
func fitLine(s string, width int) string {
	return styles.PadRight(ansi.Truncate(s, width, ""), width)
}
