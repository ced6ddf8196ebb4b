// Package panes renders the bordered panes of the main view.
package panes

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/shellpal/internal/ui/styles"
)

// Border characters (rounded)
const (
	borderTopLeft     = "╭"
	borderTopRight    = "╮"
	borderBottomLeft  = "╰"
	borderBottomRight = "╯"
	borderHorizontal  = "─"
	borderVertical    = "│"
)

// BorderConfig configures the appearance of a bordered pane.
type BorderConfig struct {
	Content string // Lines beyond the inner width are truncated, not wrapped
	Width   int    // Total width including borders
	Height  int    // Total height including borders

	TopLeft     string
	TopRight    string
	BottomLeft  string
	BottomRight string

	Focused            bool
	TitleColor         lipgloss.TerminalColor
	BorderColor        lipgloss.TerminalColor // nil uses styles.BorderDefaultColor
	FocusedBorderColor lipgloss.TerminalColor // nil inherits BorderColor
}

// BorderedPane renders content inside a rounded border with optional titles
// embedded in the top and bottom edges. The result is exactly Height lines of
// exactly Width columns.
func BorderedPane(cfg BorderConfig) string {
	borderStyle := lipgloss.NewStyle().Foreground(resolveBorderColor(cfg.BorderColor, cfg.FocusedBorderColor, cfg.Focused))
	titleColor := cfg.TitleColor
	if titleColor == nil {
		titleColor = styles.BorderDefaultColor
	}
	titleStyle := lipgloss.NewStyle().Foreground(titleColor)

	innerWidth := max(cfg.Width-2, 1)
	innerHeight := max(cfg.Height-2, 1)

	top := buildEdge(borderTopLeft, borderTopRight, cfg.TopLeft, cfg.TopRight, innerWidth, borderStyle, titleStyle)
	bottom := buildEdge(borderBottomLeft, borderBottomRight, cfg.BottomLeft, cfg.BottomRight, innerWidth, borderStyle, titleStyle)

	lines := strings.Split(cfg.Content, "\n")
	side := borderStyle.Render(borderVertical)

	var b strings.Builder
	b.WriteString(top)
	for i := range innerHeight {
		var line string
		if i < len(lines) {
			line = ansi.Truncate(lines[i], innerWidth, "")
		}
		b.WriteString("\n")
		b.WriteString(side)
		b.WriteString(styles.PadRight(line, innerWidth))
		b.WriteString(side)
	}
	b.WriteString("\n")
	b.WriteString(bottom)
	return b.String()
}

// resolveBorderColor picks the border color for the focus state.
func resolveBorderColor(borderColor, focusedBorderColor lipgloss.TerminalColor, focused bool) lipgloss.TerminalColor {
	if borderColor == nil {
		borderColor = styles.BorderDefaultColor
	}
	if focused && focusedBorderColor != nil {
		return focusedBorderColor
	}
	return borderColor
}

// buildEdge renders one horizontal edge: ╭─ Left ───── Right ─╮.
// A title that does not fit is truncated; the right title is dropped first.
func buildEdge(leftCorner, rightCorner, leftTitle, rightTitle string, innerWidth int, borderStyle, titleStyle lipgloss.Style) string {
	plain := func() string {
		return borderStyle.Render(leftCorner + strings.Repeat(borderHorizontal, innerWidth) + rightCorner)
	}
	if leftTitle == "" && rightTitle == "" {
		return plain()
	}

	// Each title takes its width plus 3 cells of decoration.
	leftWidth, rightWidth := lipgloss.Width(leftTitle), lipgloss.Width(rightTitle)
	need := 1
	if leftTitle != "" {
		need += leftWidth + 3
	}
	if rightTitle != "" {
		need += rightWidth + 3
	}
	if need > innerWidth && rightTitle != "" {
		rightTitle, rightWidth = "", 0
		need = leftWidth + 4
	}
	if leftTitle == "" && rightTitle == "" {
		return plain()
	}
	if need > innerWidth && leftTitle != "" {
		avail := innerWidth - 4
		if avail < 1 {
			return plain()
		}
		leftTitle = styles.TruncateString(leftTitle, avail)
		leftWidth = lipgloss.Width(leftTitle)
	}

	used := 0
	var b strings.Builder
	b.WriteString(borderStyle.Render(leftCorner))
	if leftTitle != "" {
		b.WriteString(borderStyle.Render(borderHorizontal + " "))
		b.WriteString(titleStyle.Render(leftTitle))
		b.WriteString(borderStyle.Render(" "))
		used += leftWidth + 3
	}
	tail := 0
	if rightTitle != "" {
		tail = rightWidth + 3
	}
	b.WriteString(borderStyle.Render(strings.Repeat(borderHorizontal, max(innerWidth-used-tail, 0))))
	if rightTitle != "" {
		b.WriteString(borderStyle.Render(" "))
		b.WriteString(titleStyle.Render(rightTitle))
		b.WriteString(borderStyle.Render(" " + borderHorizontal))
	}
	b.WriteString(borderStyle.Render(rightCorner))
	return b.String()
}
