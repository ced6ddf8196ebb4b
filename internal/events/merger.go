package events

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/shellpal/internal/log"
	"github.com/zjrosen/shellpal/internal/queue"
)

// DefaultTickInterval is used when MergerConfig.TickInterval is zero.
const DefaultTickInterval = 10 * time.Millisecond

// MergerConfig wires the merger's sources.
type MergerConfig struct {
	// Input receives translated input events.
	Input *queue.Queue[Event]
	// Conversation receives events from the conversation session.
	Conversation *queue.Queue[Event]
	// Exited is closed when the shell exits. Nil disables the source.
	Exited <-chan struct{}
	// ExitErr is called once after Exited closes.
	ExitErr      func() error
	TickInterval time.Duration
}

// Merger multiplexes every event source into one stream.
type Merger struct {
	input  *queue.Queue[Event]
	conv   *queue.Queue[Event]
	exited <-chan struct{}
	exitFn func() error
	ticker *time.Ticker
}

// NewMerger creates a merger and starts its ticker. Call Stop when done.
func NewMerger(cfg MergerConfig) *Merger {
	interval := cfg.TickInterval
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	input := cfg.Input
	if input == nil {
		input = queue.New[Event]("input")
	}
	conv := cfg.Conversation
	if conv == nil {
		conv = queue.New[Event]("conversation")
	}
	return &Merger{
		input:  input,
		conv:   conv,
		exited: cfg.Exited,
		exitFn: cfg.ExitErr,
		ticker: time.NewTicker(interval),
	}
}

// Next blocks until one event is available from any source and returns it.
// It returns an error only when ctx is done. Next must not be called
// concurrently with itself.
func (m *Merger) Next(ctx context.Context) (Event, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-m.input.Ready():
			if ev, ok := m.input.TryPop(); ok {
				return ev, nil
			}
		case <-m.conv.Ready():
			if ev, ok := m.conv.TryPop(); ok {
				return ev, nil
			}
		case <-m.exited:
			// Report the exit once; a nil channel never fires again.
			m.exited = nil
			var err error
			if m.exitFn != nil {
				err = m.exitFn()
			}
			log.Info(log.CatEvents, "shell exited", "error", err)
			return ShellExited{Err: err}, nil
		case <-m.ticker.C:
			return Tick{}, nil
		}
	}
}

// Stop releases the ticker.
func (m *Merger) Stop() {
	m.ticker.Stop()
}

// Msg wraps an Event for delivery through the Bubble Tea update loop.
type Msg struct {
	Event Event
}

// WaitCmd returns a tea.Cmd that waits for the next event. Issue a new one
// after handling each Msg so exactly one wait is outstanding at a time.
func (m *Merger) WaitCmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		ev, err := m.Next(ctx)
		if err != nil {
			return nil
		}
		return Msg{Event: ev}
	}
}
