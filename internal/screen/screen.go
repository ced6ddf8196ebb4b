// Package screen holds the terminal screen model fed by the shell's output.
//
// A single writer (the device reader loop) calls Process; any number of
// readers take Snapshots. The write lock is held for exactly one Process
// call, so a reader waits at most one chunk. Replies to terminal queries are
// drained into an unbounded queue as the emulator produces them, so Process
// never waits on whoever forwards them to the shell.
package screen

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/vt"

	"github.com/zjrosen/shellpal/internal/log"
	"github.com/zjrosen/shellpal/internal/queue"
)

const replyBufferSize = 256

// Cursor is a zero-based cell position.
type Cursor struct {
	X, Y int
}

// Snapshot is an immutable copy of the screen.
type Snapshot struct {
	Rows, Cols int
	// Lines are rendered rows including SGR styling.
	Lines []string
	// Plain are the same rows with styling removed.
	Plain  []string
	Cursor Cursor
}

// Text returns the plain rows joined by newlines with trailing blanks trimmed.
func (s Snapshot) Text() string {
	lines := make([]string, len(s.Plain))
	for i, l := range s.Plain {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// Model is the screen model.
type Model struct {
	mu    sync.RWMutex
	emu   *vt.Emulator
	rows  int
	cols  int
	carry []byte

	replies *queue.Queue[[]byte]
}

// New creates a screen of the given size. Call Close to stop the reply pump.
func New(rows, cols int) *Model {
	rows, cols = max(rows, 1), max(cols, 1)
	m := &Model{
		emu:     vt.NewEmulator(cols, rows),
		rows:    rows,
		cols:    cols,
		replies: queue.New[[]byte]("screen-replies"),
	}
	go m.pumpReplies()
	return m
}

// pumpReplies moves emulator replies into the queue until the emulator is closed.
func (m *Model) pumpReplies() {
	defer m.replies.Close()
	buf := make([]byte, replyBufferSize)
	for {
		n, err := m.emu.Read(buf)
		if n > 0 {
			m.replies.Push(append([]byte(nil), buf[:n]...))
		}
		if err != nil {
			log.Debug(log.CatScreen, "reply stream ended", "error", err)
			return
		}
	}
}

// Process interprets one chunk of shell output.
//
// A trailing incomplete UTF-8 sequence is held back and prepended to the
// next chunk, so splitting a byte stream at any boundary gives the same screen.
func (m *Model) Process(p []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data := p
	if len(m.carry) > 0 {
		data = append(m.carry, p...)
		m.carry = nil
	}
	if n := incompleteTail(data); n > 0 {
		m.carry = append([]byte(nil), data[len(data)-n:]...)
		data = data[:len(data)-n]
	}
	if len(data) == 0 {
		return
	}
	if _, err := m.emu.Write(data); err != nil {
		log.ErrorErr(log.CatScreen, "emulator write failed", err, "bytes", len(data))
	}
}

// Resize changes the grid size.
func (m *Model) Resize(rows, cols int) {
	rows, cols = max(rows, 1), max(cols, 1)

	m.mu.Lock()
	defer m.mu.Unlock()
	if rows == m.rows && cols == m.cols {
		return
	}
	m.emu.Resize(cols, rows)
	m.rows, m.cols = rows, cols
	log.Debug(log.CatScreen, "resized", "rows", rows, "cols", cols)
}

// Size returns (rows, cols).
func (m *Model) Size() (int, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rows, m.cols
}

// Snapshot copies the current screen.
func (m *Model) Snapshot() Snapshot {
	m.mu.RLock()
	out := m.emu.Render()
	pos := m.emu.CursorPosition()
	rows, cols := m.rows, m.cols
	m.mu.RUnlock()

	lines := strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n")
	switch {
	case len(lines) > rows:
		lines = lines[:rows]
	case len(lines) < rows:
		lines = append(lines, make([]string, rows-len(lines))...)
	}
	plain := make([]string, len(lines))
	for i, l := range lines {
		plain[i] = ansi.Strip(l)
	}

	return Snapshot{
		Rows:   rows,
		Cols:   cols,
		Lines:  lines,
		Plain:  plain,
		Cursor: Cursor{X: max(pos.X, 0), Y: max(pos.Y, 0)},
	}
}

// Responses returns the replies the emulator generates for terminal queries
// such as cursor position reports. The queue is closed after Close.
func (m *Model) Responses() *queue.Queue[[]byte] {
	return m.replies
}

// Close releases the emulator and ends the Responses stream.
func (m *Model) Close() error {
	err := m.emu.Close()
	m.replies.Close()
	return err
}

// incompleteTail returns how many trailing bytes of p form the start of a
// UTF-8 sequence that is not yet complete.
func incompleteTail(p []byte) int {
	// A sequence is at most utf8.UTFMax bytes, so only the last few bytes matter.
	for i := 1; i < utf8.UTFMax && i <= len(p); i++ {
		b := p[len(p)-i]
		if b < 0x80 {
			return 0
		}
		if !utf8.RuneStart(b) {
			continue
		}
		need := seqLen(b)
		if need > i {
			return i
		}
		return 0
	}
	return 0
}

func seqLen(b byte) int {
	switch {
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	default:
		return 1
	}
}
