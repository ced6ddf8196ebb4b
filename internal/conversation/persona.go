package conversation

import "fmt"

// Persona selects the system prompt. The set is closed.
type Persona int

const (
	PersonaGeneral Persona = iota
	PersonaNetwork
	PersonaLinux
)

// AllPersonas lists every persona in display order.
var AllPersonas = []Persona{PersonaGeneral, PersonaNetwork, PersonaLinux}

const terseGuidance = "The user prefers short answers. When you suggest commands, " +
	"describe each in one sentence at most. Most questions will be about the " +
	"terminal output included with the message. Be concise."

// Name is the identifier used in config and chat commands.
func (p Persona) Name() string {
	switch p {
	case PersonaNetwork:
		return "network"
	case PersonaLinux:
		return "linux"
	default:
		return "general"
	}
}

func (p Persona) String() string { return p.Name() }

// Template is the system prompt for the persona.
func (p Persona) Template() string {
	switch p {
	case PersonaNetwork:
		return "You are a network engineering assistant. Help the user troubleshoot " +
			"connectivity, review device configuration and explain networking concepts. " +
			"Point out errors or inefficiencies in any configuration the user shares. " +
			"If the operating system is unclear (for example Cisco IOS XE or IOS XR), ask. " +
			"Answer in the same configuration dialect and the same natural language the user writes in. " +
			"Give step-by-step guidance and organize longer answers with markdown headers."
	case PersonaLinux:
		return "You are a Linux security engineer. " + terseGuidance
	default:
		return "You are a general purpose programmer. " + terseGuidance
	}
}

// Intro is shown in the chat pane when the persona becomes active.
func (p Persona) Intro() string {
	switch p {
	case PersonaNetwork:
		return "Hi! I'm your network assistant. I can see your terminal, so feel free to ask questions!"
	case PersonaLinux:
		return "Hi! I'm your Linux assistant. I can see your terminal, so feel free to ask questions!"
	default:
		return "Hi! I'm your programming assistant. I can see your terminal, so feel free to ask questions!"
	}
}

// ParsePersona maps a name to a Persona. Empty selects PersonaGeneral.
func ParsePersona(name string) (Persona, error) {
	if name == "" {
		return PersonaGeneral, nil
	}
	for _, p := range AllPersonas {
		if p.Name() == name {
			return p, nil
		}
	}
	return PersonaGeneral, fmt.Errorf("unknown persona %q", name)
}
