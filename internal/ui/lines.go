package ui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/zjrosen/shellpal/internal/ui/styles"
)

const inputPrompt = "> "

// historyWindow returns the height lines that end scroll lines above the
// bottom of text. The window saturates at the top of the history.
func historyWindow(text string, height, scroll int) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	end := max(len(lines)-scroll, min(height, len(lines)))
	start := max(end-height, 0)
	return strings.Join(lines[start:end], "\n")
}

// withCursor highlights the cell at column x of an ANSI-styled line,
// padding the line when the cursor is past its end.
func withCursor(line string, x int) string {
	if x < 0 {
		return line
	}
	width := ansi.StringWidth(line)
	if x >= width {
		return line + strings.Repeat(" ", x-width) + styles.CursorStyle.Render(" ")
	}
	cell := ansi.Strip(ansi.Cut(line, x, x+1))
	if cell == "" {
		cell = " "
	}
	return ansi.Cut(line, 0, x) + styles.CursorStyle.Render(cell) + ansi.Cut(line, x+1, width)
}

// inputLine renders the chat input. When the text is wider than the box,
// the tail is shown so the cursor stays visible.
func inputLine(input string, width int, cursor bool) string {
	avail := width - runewidth.StringWidth(inputPrompt)
	if cursor {
		avail--
	}
	visible := tailToWidth(input, max(avail, 0))
	if cursor {
		visible += styles.CursorStyle.Render(" ")
	}
	return inputPrompt + visible
}

// tailToWidth returns the longest suffix of s, on grapheme boundaries,
// that fits in width columns.
func tailToWidth(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	var clusters []string
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		clusters = append(clusters, g.Str())
	}
	used := 0
	i := len(clusters)
	for i > 0 {
		w := runewidth.StringWidth(clusters[i-1])
		if used+w > width {
			break
		}
		used += w
		i--
	}
	return strings.Join(clusters[i:], "")
}
