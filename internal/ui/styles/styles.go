// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Text hierarchy
	TextPrimaryColor   = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#CCCCCC"}
	TextSecondaryColor = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"}
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#696969"} // Hints, help text

	// Borders
	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"}
	BorderFocusColor   = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}

	// Status
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}

	// Chat roles
	UserColor      = lipgloss.AdaptiveColor{Light: "#FB923C", Dark: "#FB923C"}
	AssistantColor = lipgloss.AdaptiveColor{Light: "#179299", Dark: "#179299"}

	// Pane titles
	TerminalTitleColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	ChatTitleColor     = lipgloss.AdaptiveColor{Light: "#A066D3", Dark: "#A066D3"}

	// RoleStyle applies bold formatting to role labels.
	RoleStyle = lipgloss.NewStyle().Bold(true)

	// Header line above the panes
	HeaderStyle = lipgloss.NewStyle().
			Foreground(TextPrimaryColor).
			Bold(true).
			Padding(0, 1)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor).
			Padding(0, 1)

	HelpKeyStyle  = lipgloss.NewStyle().Foreground(TextSecondaryColor).Bold(true)
	HelpDescStyle = lipgloss.NewStyle().Foreground(TextMutedColor)

	// Shown while a reply is streaming.
	ThinkingStyle = lipgloss.NewStyle().Foreground(StatusWarningColor).Bold(true)

	// CursorStyle marks the cursor cell in the terminal pane and chat input.
	CursorStyle = lipgloss.NewStyle().Reverse(true)
)
