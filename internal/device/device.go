// Package device runs the user's shell on a pseudo-terminal.
//
// A Device owns three loops: the reader hands every chunk of output to its
// sinks in arrival order, the writer drains a bounded input channel into the
// PTY, and a waiter records the child's exit. Run starts them under one
// errgroup; Close tears the child and PTY down.
package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/charmbracelet/x/xpty"
	"golang.org/x/sync/errgroup"

	"github.com/zjrosen/shellpal/internal/log"
	"github.com/zjrosen/shellpal/internal/queue"
)

// InputCapacity is the number of pending writes the input channel holds
// before Write blocks.
const InputCapacity = 32

const readBufferSize = 4096

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("device closed")

// SpawnError reports that the shell could not be started.
type SpawnError struct {
	Shell string
	Err   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawning %s: %v", e.Shell, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// IOError reports a failed read or write on the PTY. It ends only the loop
// that hit it.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("pty %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Replies is a source of bytes to forward to the shell, such as the screen
// model's answers to terminal queries.
type Replies interface {
	Pop(ctx context.Context) ([]byte, error)
}

// Sink receives shell output. Process must not retain p.
type Sink interface {
	Process(p []byte)
}

// Config describes the shell to spawn.
type Config struct {
	Rows, Cols int
	// Shell overrides $SHELL. Empty falls back to $SHELL, then bash, then sh.
	Shell string
	Args  []string
	Dir   string
	// Env is appended to the current environment.
	Env []string
}

type pty interface {
	io.ReadWriteCloser
	Resize(width, height int) error
}

// Device is a shell attached to a pseudo-terminal.
type Device struct {
	pty   pty
	cmd   *exec.Cmd
	sinks []Sink
	input chan []byte

	mu   sync.Mutex
	rows int
	cols int

	closeOnce sync.Once
	closed    chan struct{}

	// writerDone is closed when the writer loop returns; writerErr is set first.
	writerDone chan struct{}
	writerErr  error

	exitOnce sync.Once
	exited   chan struct{}
	exitErr  error
}

// Open creates the PTY and starts the shell. The returned error is a
// *SpawnError when the shell could not be started.
func Open(ctx context.Context, cfg Config, sinks ...Sink) (*Device, error) {
	rows, cols := max(cfg.Rows, 1), max(cfg.Cols, 1)
	shell := ResolveShell(cfg.Shell)

	p, err := xpty.NewPty(cols, rows)
	if err != nil {
		return nil, &SpawnError{Shell: shell, Err: fmt.Errorf("creating pty: %w", err)}
	}

	cmd := exec.CommandContext(ctx, shell, cfg.Args...)
	cmd.Dir = cfg.Dir
	cmd.Env = append(os.Environ(), cfg.Env...)
	cmd.Env = append(cmd.Env, "TERM=xterm-256color")

	if err := p.Start(cmd); err != nil {
		_ = p.Close()
		return nil, &SpawnError{Shell: shell, Err: err}
	}

	log.Info(log.CatPTY, "shell started", "shell", shell, "rows", rows, "cols", cols)
	d := newDevice(p, rows, cols, sinks)
	d.cmd = cmd
	return d, nil
}

func newDevice(p pty, rows, cols int, sinks []Sink) *Device {
	return &Device{
		pty:    p,
		sinks:  sinks,
		input:  make(chan []byte, InputCapacity),
		rows:   rows,
		cols:   cols,
		closed:     make(chan struct{}),
		writerDone: make(chan struct{}),
		exited:     make(chan struct{}),
	}
}

// ResolveShell picks the shell binary.
func ResolveShell(override string) string {
	if override != "" {
		return override
	}
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	if _, err := exec.LookPath("bash"); err == nil {
		return "bash"
	}
	return "sh"
}

// Run runs the reader, writer and waiter loops until the shell exits and the
// device is closed or ctx is cancelled. The first IOError is returned.
func (d *Device) Run(ctx context.Context) error {
	var g errgroup.Group
	g.Go(d.readLoop)
	g.Go(func() error {
		err := d.writeLoop(ctx)
		d.writerErr = err
		close(d.writerDone)
		return err
	})
	if d.cmd != nil {
		g.Go(func() error { return d.waitLoop(ctx) })
	}
	return g.Wait()
}

func (d *Device) readLoop() error {
	buf := make([]byte, readBufferSize)
	for {
		n, err := d.pty.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			for _, s := range d.sinks {
				s.Process(chunk)
			}
		}
		if err == nil && n > 0 {
			continue
		}

		switch {
		case d.isClosed():
			return nil
		case err == nil, errors.Is(err, io.EOF), errors.Is(err, syscall.EIO):
			// Linux reports EIO on the master once the child side is gone.
			log.Info(log.CatPTY, "shell output closed")
			d.markExited(nil)
			return nil
		default:
			ioErr := &IOError{Op: "read", Err: err}
			log.ErrorErr(log.CatPTY, "read failed", ioErr)
			d.markExited(ioErr)
			return ioErr
		}
	}
}

func (d *Device) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-d.closed:
			return nil
		case p := <-d.input:
			if _, err := d.pty.Write(p); err != nil {
				if d.isClosed() {
					return nil
				}
				ioErr := &IOError{Op: "write", Err: err}
				log.ErrorErr(log.CatPTY, "write failed", ioErr, "bytes", len(p))
				return ioErr
			}
		}
	}
}

func (d *Device) waitLoop(ctx context.Context) error {
	err := xpty.WaitProcess(ctx, d.cmd)
	log.Info(log.CatPTY, "shell exited", "error", err)
	d.markExited(err)
	return nil
}

// Write queues a copy of p for the shell. It blocks while the input channel
// is full. Once the writer loop has stopped, Write returns its IOError, or
// ErrClosed if it stopped cleanly.
func (d *Device) Write(ctx context.Context, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if d.isClosed() {
		return ErrClosed
	}
	if stopped, err := d.writerStopped(); stopped {
		return err
	}
	buf := make([]byte, len(p))
	copy(buf, p)
	select {
	case d.input <- buf:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.closed:
		return ErrClosed
	case <-d.writerDone:
		_, err := d.writerStopped()
		return err
	}
}

func (d *Device) writerStopped() (bool, error) {
	select {
	case <-d.writerDone:
		if d.writerErr != nil {
			return true, d.writerErr
		}
		return true, ErrClosed
	default:
		return false, nil
	}
}

// Respond forwards replies into the shell's input until the source is
// closed, ctx is cancelled or the device stops accepting input.
func (d *Device) Respond(ctx context.Context, r Replies) error {
	for {
		p, err := r.Pop(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrClosed) || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("reading terminal responses: %w", err)
		}
		if werr := d.Write(ctx, p); werr != nil {
			var ioErr *IOError
			if errors.Is(werr, ErrClosed) || errors.Is(werr, context.Canceled) || errors.As(werr, &ioErr) {
				return nil
			}
			return werr
		}
	}
}

// Resize changes the PTY geometry.
func (d *Device) Resize(rows, cols int) error {
	rows, cols = max(rows, 1), max(cols, 1)

	d.mu.Lock()
	defer d.mu.Unlock()
	if rows == d.rows && cols == d.cols {
		return nil
	}
	if err := d.pty.Resize(cols, rows); err != nil {
		log.ErrorErr(log.CatPTY, "resize failed", err, "rows", rows, "cols", cols)
		return fmt.Errorf("resizing pty: %w", err)
	}
	d.rows, d.cols = rows, cols
	log.Debug(log.CatPTY, "resized", "rows", rows, "cols", cols)
	return nil
}

// Size returns (rows, cols).
func (d *Device) Size() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rows, d.cols
}

// Exited is closed once the shell has exited or its output has ended.
func (d *Device) Exited() <-chan struct{} {
	return d.exited
}

// Err returns the exit error, if any. Valid after Exited is closed.
func (d *Device) Err() error {
	select {
	case <-d.exited:
		return d.exitErr
	default:
		return nil
	}
}

// Close kills the shell and closes the PTY. Safe to call more than once.
func (d *Device) Close() error {
	var err error
	d.closeOnce.Do(func() {
		close(d.closed)
		if d.cmd != nil && d.cmd.Process != nil {
			_ = d.cmd.Process.Kill()
		}
		err = d.pty.Close()
		log.Debug(log.CatPTY, "device closed")
	})
	return err
}

func (d *Device) isClosed() bool {
	select {
	case <-d.closed:
		return true
	default:
		return false
	}
}

func (d *Device) markExited(err error) {
	d.exitOnce.Do(func() {
		d.exitErr = err
		close(d.exited)
	})
}
