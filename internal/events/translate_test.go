package events

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/shellpal/internal/keys"
)

func TestTranslate(t *testing.T) {
	km := keys.DefaultKeyMap()
	overTerminal := func(tea.MouseMsg) Pane { return PaneTerminal }

	tests := []struct {
		name   string
		msg    tea.Msg
		locate PaneLocator
		want   Event
		ok     bool
	}{
		{name: "ctrl+q quits", msg: tea.KeyMsg{Type: tea.KeyCtrlQ}, want: Quit{}, ok: true},
		{name: "ctrl+b changes mode", msg: tea.KeyMsg{Type: tea.KeyCtrlB}, want: ModeChanged{}, ok: true},
		{name: "ctrl+u scrolls terminal up", msg: tea.KeyMsg{Type: tea.KeyCtrlU}, want: ScrollTerminal{Direction: Up}, ok: true},
		{name: "ctrl+d scrolls terminal down", msg: tea.KeyMsg{Type: tea.KeyCtrlD}, want: ScrollTerminal{Direction: Down}, ok: true},
		{name: "shift+up scrolls chat up", msg: tea.KeyMsg{Type: tea.KeyShiftUp}, want: ScrollChat{Direction: Up}, ok: true},
		{name: "shift+down scrolls chat down", msg: tea.KeyMsg{Type: tea.KeyShiftDown}, want: ScrollChat{Direction: Down}, ok: true},
		{
			name: "plain rune passes through",
			msg:  tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")},
			want: KeyInput{Key: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}},
			ok:   true,
		},
		{name: "ctrl+c passes through", msg: tea.KeyMsg{Type: tea.KeyCtrlC}, want: KeyInput{Key: tea.KeyMsg{Type: tea.KeyCtrlC}}, ok: true},
		{name: "enter passes through", msg: tea.KeyMsg{Type: tea.KeyEnter}, want: KeyInput{Key: tea.KeyMsg{Type: tea.KeyEnter}}, ok: true},
		{
			name: "wheel up defaults to chat",
			msg:  tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp},
			want: MouseScroll{Direction: Up, Pane: PaneChat},
			ok:   true,
		},
		{
			name:   "wheel down over terminal",
			msg:    tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown},
			locate: overTerminal,
			want:   MouseScroll{Direction: Down, Pane: PaneTerminal},
			ok:     true,
		},
		{name: "left click ignored", msg: tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}},
		{name: "motion ignored", msg: tea.MouseMsg{Action: tea.MouseActionMotion}},
		{name: "window size", msg: tea.WindowSizeMsg{Width: 100, Height: 40}, want: Resize{Cols: 100, Rows: 40}, ok: true},
		{name: "focus ignored", msg: tea.FocusMsg{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Translate(tt.msg, km, tt.locate)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestName(t *testing.T) {
	require.Equal(t, "resize:100x40", Name(Resize{Cols: 100, Rows: 40}))
	require.Equal(t, "mouse:terminal:up", Name(MouseScroll{Direction: Up, Pane: PaneTerminal}))
	require.Equal(t, "finished:true", Name(ConversationFinished{Done: true}))
	require.Equal(t, "key", Name(KeyInput{Key: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}}))
}
