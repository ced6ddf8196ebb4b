// Package config provides configuration types, defaults, and validation for shellpal.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/shellpal/internal/log"
)

// Config holds all shellpal configuration.
type Config struct {
	// Shell overrides $SHELL for the child process.
	Shell string `mapstructure:"shell" yaml:"shell"`

	// TickInterval is how often the event merger emits a Tick.
	TickInterval time.Duration `mapstructure:"tick_interval" yaml:"tick_interval"`

	// Persona is the persona active at startup.
	// Options: "general", "network", "linux"
	Persona string `mapstructure:"persona" yaml:"persona"`

	Layout  LayoutConfig    `mapstructure:"layout" yaml:"layout"`
	Backend BackendConfig   `mapstructure:"backend" yaml:"backend"`
	Context ContextConfig   `mapstructure:"context" yaml:"context"`
	UI      UIConfig        `mapstructure:"ui" yaml:"ui"`
	Tracing TracingConfig   `mapstructure:"tracing" yaml:"tracing"`
	Flags   map[string]bool `mapstructure:"flags" yaml:"flags,omitempty"`
}

// LayoutConfig controls how the window is split between the panes.
type LayoutConfig struct {
	// Ratio is the fraction of columns given to the terminal pane.
	// Default: 0.57
	Ratio float64 `mapstructure:"ratio" yaml:"ratio"`

	// ChromeRows is the number of rows reserved for borders and the status bar.
	// Default: 5
	ChromeRows int `mapstructure:"chrome_rows" yaml:"chrome_rows"`
}

// BackendConfig selects and configures the language model backend.
type BackendConfig struct {
	// Provider is "openai" or "anthropic".
	Provider string `mapstructure:"provider" yaml:"provider"`

	// Model is passed verbatim to the provider.
	Model string `mapstructure:"model" yaml:"model"`

	// APIBase overrides the provider's endpoint. Empty uses the SDK default.
	APIBase string `mapstructure:"api_base" yaml:"api_base,omitempty"`

	// APIKeyEnv names the environment variable holding the API key.
	// Empty uses the SDK default (OPENAI_API_KEY / ANTHROPIC_API_KEY).
	APIKeyEnv string `mapstructure:"api_key_env" yaml:"api_key_env,omitempty"`

	// MaxTokens caps the length of each response.
	MaxTokens int `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// ContextConfig controls how much shell output is sent along with a message.
type ContextConfig struct {
	// MaxTokens bounds the terminal output tail prepended to each message.
	MaxTokens int `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// UIConfig holds rendering options.
type UIConfig struct {
	// MarkdownStyle is "dark" or "light".
	MarkdownStyle string `mapstructure:"markdown_style" yaml:"markdown_style"`
}

// TracingConfig configures OpenTelemetry tracing of backend requests.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter" yaml:"exporter"`

	// FilePath is the output file for the "file" exporter.
	// Default: ~/.config/shellpal/traces/traces.jsonl
	FilePath string `mapstructure:"file_path" yaml:"file_path,omitempty"`

	// OTLPEndpoint is the collector endpoint for the "otlp" exporter.
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Personas lists the persona names accepted in config.
var Personas = []string{"general", "network", "linux"}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		TickInterval: 10 * time.Millisecond,
		Persona:      "general",
		Layout: LayoutConfig{
			Ratio:      0.57,
			ChromeRows: 5,
		},
		Backend: BackendConfig{
			Provider:  ProviderOpenAI,
			Model:     "gpt-4o",
			MaxTokens: 512,
		},
		Context: ContextConfig{
			MaxTokens: 2000,
		},
		UI: UIConfig{
			MarkdownStyle: "dark",
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// Validate checks the configuration for errors.
// Zero values that have a default are accepted.
func Validate(c Config) error {
	if c.Layout.Ratio <= 0 || c.Layout.Ratio >= 1 {
		return fmt.Errorf("layout.ratio must be between 0 and 1 (exclusive), got %v", c.Layout.Ratio)
	}
	if c.Layout.ChromeRows < 0 {
		return fmt.Errorf("layout.chrome_rows must not be negative, got %d", c.Layout.ChromeRows)
	}
	if c.TickInterval < 0 {
		return fmt.Errorf("tick_interval must not be negative, got %s", c.TickInterval)
	}
	switch c.Backend.Provider {
	case "", ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("backend.provider must be %q or %q, got %q", ProviderOpenAI, ProviderAnthropic, c.Backend.Provider)
	}
	if c.Backend.MaxTokens < 0 {
		return fmt.Errorf("backend.max_tokens must not be negative, got %d", c.Backend.MaxTokens)
	}
	if c.Context.MaxTokens < 0 {
		return fmt.Errorf("context.max_tokens must not be negative, got %d", c.Context.MaxTokens)
	}
	if c.Persona != "" && !slices.Contains(Personas, c.Persona) {
		return fmt.Errorf("persona must be one of %v, got %q", Personas, c.Persona)
	}
	switch c.UI.MarkdownStyle {
	case "", "dark", "light":
	default:
		return fmt.Errorf("ui.markdown_style must be \"dark\" or \"light\", got %q", c.UI.MarkdownStyle)
	}
	if err := ValidateTracing(c.Tracing); err != nil {
		return err
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
func ValidateTracing(t TracingConfig) error {
	switch t.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0 and 1, got %v", t.SampleRate)
	}
	return nil
}

// DefaultConfigDir returns ~/.config/shellpal, or "" if the home directory is unknown.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "shellpal")
}

// DefaultTracesFilePath returns the trace file used when tracing.file_path is empty.
func DefaultTracesFilePath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return filepath.Join(os.TempDir(), "shellpal-traces.jsonl")
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

const configHeader = `# shellpal configuration
#
# backend.provider: "openai" or "anthropic"
# persona: "general", "network" or "linux"
# flags:
#   terminal-context: true   # send recent shell output with each message
#   markdown-chat: true      # render assistant replies as markdown
`

// DefaultConfigYAML renders Defaults() as YAML with a comment header.
func DefaultConfigYAML() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(configHeader)
	buf.WriteString("\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Defaults()); err != nil {
		return nil, fmt.Errorf("marshaling default config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshaling default config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	data, err := DefaultConfigYAML()
	if err != nil {
		return err
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
