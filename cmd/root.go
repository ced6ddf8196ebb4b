package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/shellpal/internal/config"
	"github.com/zjrosen/shellpal/internal/log"
)

func init() {
	// Query the terminal background before Bubble Tea owns stdin so the
	// OSC 11 reply cannot land in the shell's input.
	_ = lipgloss.HasDarkBackground()
}

const (
	envPrefix      = "SHELLPAL"
	localConfig    = ".shellpal/config.yaml"
	defaultLogFile = "/tmp/shellpal.log"
)

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	logFile   string
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:   "shellpal",
	Short: "A shell with an assistant beside it",
	Long: `shellpal runs your shell on the left and a streaming chat assistant on
the right. The assistant sees the recent output of your shell, so you can ask
about errors and commands without copying anything.

Press ctrl+b to switch between typing into the shell and typing to the
assistant. In the chat, /clear starts over and /general, /network or /linux
switch persona.`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./.shellpal/config.yaml or ~/.config/shellpal/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write a debug log (also enabled by SHELLPAL_DEBUG=1)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", defaultLogFile,
		"debug log path")
	rootCmd.Flags().String("shell", "", "shell to run (default: $SHELL)")
	rootCmd.Flags().String("persona", "", "initial persona: general, network or linux")

	_ = viper.BindPFlag("shell", rootCmd.Flags().Lookup("shell"))
	_ = viper.BindPFlag("persona", rootCmd.Flags().Lookup("persona"))
}

func initConfig() {
	loaded, err := loadConfig(viper.GetViper(), cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	cfg = loaded
}

// setDefaults registers every config key so that env overrides and
// Unmarshal see the full tree.
func setDefaults(v *viper.Viper) {
	d := config.Defaults()
	v.SetDefault("shell", d.Shell)
	v.SetDefault("tick_interval", d.TickInterval)
	v.SetDefault("persona", d.Persona)
	v.SetDefault("layout.ratio", d.Layout.Ratio)
	v.SetDefault("layout.chrome_rows", d.Layout.ChromeRows)
	v.SetDefault("backend.provider", d.Backend.Provider)
	v.SetDefault("backend.model", d.Backend.Model)
	v.SetDefault("backend.api_base", d.Backend.APIBase)
	v.SetDefault("backend.api_key_env", d.Backend.APIKeyEnv)
	v.SetDefault("backend.max_tokens", d.Backend.MaxTokens)
	v.SetDefault("context.max_tokens", d.Context.MaxTokens)
	v.SetDefault("ui.markdown_style", d.UI.MarkdownStyle)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
}

// loadConfig reads configuration into a Config. Lookup order:
//  1. the --config file
//  2. ./.shellpal/config.yaml
//  3. ~/.config/shellpal/config.yaml
//
// When none exists a default file is written to the user config directory.
// A read failure returns the defaults together with the error.
func loadConfig(v *viper.Viper, path string) (config.Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case path != "":
		v.SetConfigFile(path)
	case fileExists(localConfig):
		v.SetConfigFile(localConfig)
	default:
		v.AddConfigPath(config.DefaultConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	var readErr error
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			defaultPath := filepath.Join(config.DefaultConfigDir(), "config.yaml")
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				v.SetConfigFile(defaultPath)
				readErr = v.ReadInConfig()
			}
			// Without a writable config dir the defaults still apply.
		} else {
			readErr = fmt.Errorf("reading config: %w", err)
		}
	}

	var c config.Config
	if err := v.Unmarshal(&c); err != nil {
		return config.Defaults(), fmt.Errorf("decoding config: %w", err)
	}
	return c, readErr
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// initLogging starts the debug log when requested. The returned cleanup is
// never nil.
func initLogging() (func(), error) {
	if !debugFlag && !log.EnabledFromEnv() {
		return func() {}, nil
	}
	cleanup, err := log.Init(logFile, "shellpal")
	if err != nil {
		return func() {}, fmt.Errorf("initializing logging: %w", err)
	}
	log.Info(log.CatConfig, "shellpal starting", "version", version, "config", viper.ConfigFileUsed())
	return cleanup, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
