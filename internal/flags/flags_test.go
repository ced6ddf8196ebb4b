package flags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_Enabled(t *testing.T) {
	tests := []struct {
		name     string
		registry *Registry
		flag     string
		expected bool
	}{
		{
			name:     "default terminal context is on",
			registry: New(nil),
			flag:     FlagTerminalContext,
			expected: true,
		},
		{
			name:     "config can turn a default off",
			registry: New(map[string]bool{FlagMarkdownChat: false}),
			flag:     FlagMarkdownChat,
			expected: false,
		},
		{
			name:     "extra flag from config",
			registry: New(map[string]bool{"experimental": true}),
			flag:     "experimental",
			expected: true,
		},
		{
			name:     "unknown flag returns false",
			registry: New(nil),
			flag:     "unknown-flag",
			expected: false,
		},
		{
			name:     "nil registry returns false",
			registry: nil,
			flag:     FlagTerminalContext,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.registry.Enabled(tt.flag))
		})
	}
}

func TestRegistry_AllIsCopy(t *testing.T) {
	r := New(nil)
	all := r.All()
	all[FlagTerminalContext] = false

	require.True(t, r.Enabled(FlagTerminalContext), "mutating All() must not change the registry")
}

func TestRegistry_AllNil(t *testing.T) {
	var r *Registry
	require.Empty(t, r.All())
}
