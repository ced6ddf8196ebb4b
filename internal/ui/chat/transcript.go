// Package chat holds the chat pane's transcript and renders it.
package chat

// Role tags a transcript entry.
type Role int

const (
	RoleUser Role = iota
	RoleAssistant
)

// Entry is one block of the transcript.
type Entry struct {
	Role Role
	Text string
}

// Transcript is what the chat pane shows. It is separate from the
// conversation history: it holds the text the user typed, not the prompt
// that was sent, and it is cleared independently.
type Transcript struct {
	entries []Entry
	// open is true while assistant fragments extend the last entry.
	open bool
}

// AddUser appends a user entry and closes any open reply.
func (t *Transcript) AddUser(text string) {
	t.entries = append(t.entries, Entry{Role: RoleUser, Text: text})
	t.open = false
}

// AppendAssistant adds a reply fragment. Fragments join the open reply;
// otherwise a new assistant entry starts.
func (t *Transcript) AppendAssistant(fragment string) {
	if fragment == "" {
		return
	}
	if t.open && len(t.entries) > 0 {
		t.entries[len(t.entries)-1].Text += fragment
		return
	}
	t.entries = append(t.entries, Entry{Role: RoleAssistant, Text: fragment})
	t.open = true
}

// EndReply closes the open reply so the next fragment starts a new entry.
func (t *Transcript) EndReply() {
	t.open = false
}

// Reset removes every entry.
func (t *Transcript) Reset() {
	t.entries = nil
	t.open = false
}

// Entries returns a copy of the entries.
func (t *Transcript) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	return len(t.entries)
}
