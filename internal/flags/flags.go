// Package flags provides feature flag support.
// Flags are read-only after initialization and provide safe defaults for unknown flags.
package flags

import (
	"maps"

	"github.com/zjrosen/shellpal/internal/log"
)

// Flag name constants for type-safe flag access.
const (
	// FlagTerminalContext prefixes chat messages with the tail of the shell output.
	FlagTerminalContext = "terminal-context"

	// FlagMarkdownChat renders assistant turns as markdown instead of plain text.
	FlagMarkdownChat = "markdown-chat"
)

// Defaults returns the value of every known flag when config does not set it.
func Defaults() map[string]bool {
	return map[string]bool{
		FlagTerminalContext: true,
		FlagMarkdownChat:    true,
	}
}

// Registry holds feature flag state loaded from configuration.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map layered over Defaults.
func New(overrides map[string]bool) *Registry {
	flags := Defaults()
	maps.Copy(flags, overrides)
	r := &Registry{flags: flags}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(flags), "flags", r.All())
	return r
}

// Enabled returns true if the named flag is enabled.
// Returns false for unknown flags and on a nil registry.
func (r *Registry) Enabled(name string) bool {
	if r == nil || r.flags == nil {
		return false
	}
	value, exists := r.flags[name]
	if !exists {
		log.Debug(log.CatConfig, "Unknown flag accessed", "flag", name, "result", false)
		return false
	}
	return value
}

// All returns a copy of all flags (for debugging/logging).
func (r *Registry) All() map[string]bool {
	if r == nil || r.flags == nil {
		return make(map[string]bool)
	}
	result := make(map[string]bool, len(r.flags))
	maps.Copy(result, r.flags)
	return result
}
