// Package termctx mirrors raw shell output as text so recent terminal
// activity can be sent to the assistant along with a question.
package termctx

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/charmbracelet/x/ansi"
	"github.com/tiktoken-go/tokenizer"
)

// DefaultMaxBytes bounds how much output the buffer retains.
const DefaultMaxBytes = 256 * 1024

// Buffer accumulates shell output since the last Reset.
// Process is called by the device reader; everything else by the state machine.
type Buffer struct {
	mu       sync.Mutex
	data     []byte
	maxBytes int

	// gen counts changes to data. clean holds Text for cleanGen.
	gen      uint64
	clean    string
	cleanGen uint64
	hasClean bool
}

// New creates a buffer that keeps at most maxBytes of the newest output.
// A non-positive maxBytes uses DefaultMaxBytes.
func New(maxBytes int) *Buffer {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Buffer{maxBytes: maxBytes}
}

// Process appends a chunk of raw output.
func (b *Buffer) Process(p []byte) {
	b.mu.Lock()
	b.data = append(b.data, p...)
	if over := len(b.data) - b.maxBytes; over > 0 {
		b.data = append(b.data[:0], b.data[over:]...)
	}
	b.gen++
	b.mu.Unlock()
}

// Raw returns the retained bytes decoded as UTF-8, invalid sequences replaced.
func (b *Buffer) Raw() string {
	b.mu.Lock()
	s := string(b.data)
	b.mu.Unlock()
	return strings.ToValidUTF8(s, "�")
}

// Text returns the retained output with escape sequences and control
// characters removed. The result is reused until the next Process or Reset.
func (b *Buffer) Text() string {
	b.mu.Lock()
	if b.hasClean && b.cleanGen == b.gen {
		s := b.clean
		b.mu.Unlock()
		return s
	}
	gen := b.gen
	raw := string(b.data)
	b.mu.Unlock()

	s := Clean(strings.ToValidUTF8(raw, "�"))

	b.mu.Lock()
	if b.gen == gen {
		b.clean, b.cleanGen, b.hasClean = s, gen, true
	}
	b.mu.Unlock()
	return s
}

// Generation returns a counter that changes whenever the retained output does.
func (b *Buffer) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen
}

// Len returns the number of retained bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Reset discards all retained output.
func (b *Buffer) Reset() {
	b.mu.Lock()
	b.data = nil
	b.gen++
	b.mu.Unlock()
}

// Clean strips ANSI sequences, folds CRLF to LF and drops other control
// characters except tab.
func Clean(s string) string {
	s = ansi.Strip(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// Tokenizer counts and trims text by model tokens.
type Tokenizer struct {
	codec tokenizer.Codec
}

// NewTokenizer loads the cl100k_base encoding.
func NewTokenizer() (*Tokenizer, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer: %w", err)
	}
	return &Tokenizer{codec: codec}, nil
}

// Count returns the number of tokens in s.
func (t *Tokenizer) Count(s string) (int, error) {
	ids, _, err := t.codec.Encode(s)
	if err != nil {
		return 0, fmt.Errorf("encoding: %w", err)
	}
	return len(ids), nil
}

// Tail returns the suffix of s that fits in maxTokens. When s is trimmed the
// result starts at the first full line, if there is one.
func (t *Tokenizer) Tail(s string, maxTokens int) (string, error) {
	if maxTokens <= 0 || s == "" {
		return "", nil
	}
	ids, _, err := t.codec.Encode(s)
	if err != nil {
		return "", fmt.Errorf("encoding: %w", err)
	}
	if len(ids) <= maxTokens {
		return s, nil
	}
	tail, err := t.codec.Decode(ids[len(ids)-maxTokens:])
	if err != nil {
		return "", fmt.Errorf("decoding: %w", err)
	}
	tail = strings.ToValidUTF8(tail, "")
	if i := strings.IndexByte(tail, '\n'); i >= 0 && i < len(tail)-1 {
		tail = tail[i+1:]
	}
	return tail, nil
}
