package app

import (
	"github.com/zjrosen/shellpal/internal/conversation"
)

// CommandKind identifies a reserved chat command.
type CommandKind int

const (
	CommandNone CommandKind = iota
	CommandReset
	CommandPersona
)

// Command is a resolved chat input. Persona is set for CommandPersona.
type Command struct {
	Kind    CommandKind
	Persona conversation.Persona
}

// ResolveCommand matches the whole input against the reserved commands:
// "/clear" and "/" followed by a persona name. Anything else, including
// surrounding whitespace, is CommandNone.
func ResolveCommand(input string) Command {
	if input == "/clear" {
		return Command{Kind: CommandReset}
	}
	if len(input) > 1 && input[0] == '/' {
		if p, err := conversation.ParsePersona(input[1:]); err == nil {
			return Command{Kind: CommandPersona, Persona: p}
		}
	}
	return Command{Kind: CommandNone}
}
