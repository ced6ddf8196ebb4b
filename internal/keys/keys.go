// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings. These are intercepted before any
// keystroke reaches the shell or the chat input.
type KeyMap struct {
	Quit               key.Binding
	ChangeMode         key.Binding
	ScrollTerminalUp   key.Binding
	ScrollTerminalDown key.Binding
	ScrollChatUp       key.Binding
	ScrollChatDown     key.Binding

	// Chat input
	Submit key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+q"),
			key.WithHelp("ctrl+q", "quit"),
		),
		ChangeMode: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("ctrl+b", "switch mode"),
		),
		ScrollTerminalUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "scroll terminal up"),
		),
		ScrollTerminalDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "scroll terminal down"),
		),
		ScrollChatUp: key.NewBinding(
			key.WithKeys("shift+up"),
			key.WithHelp("shift+↑", "scroll chat up"),
		),
		ScrollChatDown: key.NewBinding(
			key.WithKeys("shift+down"),
			key.WithHelp("shift+↓", "scroll chat down"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.ChangeMode, k.ScrollTerminalUp, k.ScrollTerminalDown}
}

// ChatHelp returns the bindings shown in the status bar while the chat pane has focus.
func (k KeyMap) ChatHelp() []key.Binding {
	return []key.Binding{k.Quit, k.ChangeMode, k.Submit, k.ScrollChatUp, k.ScrollChatDown}
}
