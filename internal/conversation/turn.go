// Package conversation runs the assistant side of shellpal: it keeps the
// dialogue history, streams requests to a language model backend and
// reports fragments back as events.
package conversation

// Role tags a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry in the history.
type Turn struct {
	Role    Role
	Content string
}
