package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zjrosen/shellpal/internal/app"
	"github.com/zjrosen/shellpal/internal/config"
	"github.com/zjrosen/shellpal/internal/conversation"
	"github.com/zjrosen/shellpal/internal/device"
	"github.com/zjrosen/shellpal/internal/events"
	"github.com/zjrosen/shellpal/internal/flags"
	"github.com/zjrosen/shellpal/internal/keys"
	"github.com/zjrosen/shellpal/internal/log"
	"github.com/zjrosen/shellpal/internal/queue"
	"github.com/zjrosen/shellpal/internal/screen"
	"github.com/zjrosen/shellpal/internal/termctx"
	"github.com/zjrosen/shellpal/internal/tracing"
	"github.com/zjrosen/shellpal/internal/ui"
	"github.com/zjrosen/shellpal/internal/ui/markdown"
)

// Geometry used until the first window size arrives.
const (
	initialCols = 80
	initialRows = 24
)

const shutdownTimeout = 5 * time.Second

func runApp(cmd *cobra.Command, _ []string) error {
	cleanup, err := initLogging()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	persona, err := conversation.ParsePersona(cfg.Persona)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	backend, err := conversation.NewBackend(cfg.Backend)
	if err != nil {
		return fmt.Errorf("creating backend: %w", err)
	}
	tokenizer, err := termctx.NewTokenizer()
	if err != nil {
		return err
	}
	featureFlags := flags.New(cfg.Flags)

	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.ErrorErr(log.CatApp, "tracing shutdown failed", err)
		}
	}()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	rows, cols := app.Layout(initialCols, initialRows, cfg.Layout.Ratio, cfg.Layout.ChromeRows)
	scr := screen.New(rows, cols)
	history := termctx.New(termctx.DefaultMaxBytes)

	// Spawn before the TUI takes the terminal so a failure prints normally.
	dev, err := device.Open(ctx, device.Config{Rows: rows, Cols: cols, Shell: cfg.Shell}, scr, history)
	if err != nil {
		_ = scr.Close()
		return err
	}

	session := conversation.NewSession(conversation.SessionConfig{
		Backend:   backend,
		Model:     cfg.Backend.Model,
		MaxTokens: cfg.Backend.MaxTokens,
		Persona:   persona,
		Tracer:    tp.Tracer(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return dev.Run(gctx) })
	g.Go(func() error { return dev.Respond(gctx, scr.Responses()) })
	g.Go(func() error { return session.Run(gctx) })

	input := queue.New[events.Event]("input")
	merger := events.NewMerger(events.MergerConfig{
		Input:        input,
		Conversation: session.Events(),
		Exited:       dev.Exited(),
		ExitErr:      dev.Err,
		TickInterval: cfg.TickInterval,
	})

	machine := app.NewMachine(app.MachineConfig{
		Shell:         dev,
		Screen:        scr,
		Conversation:  session,
		Context:       history,
		Tokenizer:     tokenizer,
		Flags:         featureFlags,
		Ratio:         cfg.Layout.Ratio,
		ChromeRows:    cfg.Layout.ChromeRows,
		ContextTokens: cfg.Context.MaxTokens,
		Persona:       persona,
	})

	var md *markdown.Renderer
	if featureFlags.Enabled(flags.FlagMarkdownChat) {
		md = markdown.New(cfg.UI.MarkdownStyle)
	}

	zone.NewGlobal()
	model := app.New(ctx, app.ModelConfig{
		Machine:  machine,
		Merger:   merger,
		Input:    input,
		Screen:   scr,
		History:  history,
		Renderer: ui.New(md),
		Keys:     keys.DefaultKeyMap(),
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, runErr := p.Run()

	// Structured shutdown: stop every task, kill the shell, then wait.
	cancel()
	merger.Stop()
	session.Close()
	input.Close()
	if err := dev.Close(); err != nil {
		log.ErrorErr(log.CatApp, "closing device failed", err)
	}
	if err := scr.Close(); err != nil {
		log.ErrorErr(log.CatApp, "closing screen failed", err)
	}
	waitErr := g.Wait()
	if errors.Is(waitErr, context.Canceled) {
		waitErr = nil
	}
	log.Info(log.CatApp, "shellpal stopped", "error", errors.Join(runErr, waitErr))

	if runErr != nil {
		return fmt.Errorf("running program: %w", runErr)
	}
	if machine.State().ShellExited {
		if err := dev.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "shell exited: %v\n", err)
		}
	}
	return waitErr
}
