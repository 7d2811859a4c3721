package shell

import (
	"context"
	"sync"
)

// Logger is the minimal structured-logging seam the bridge needs for
// lifecycle events. *log.Logger satisfies it.
type Logger interface {
	Printf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...any) {}

// Bridge enforces the CustomShell lifecycle contract: no I/O before a
// successful Start, InvalidOperation after the shell terminates, and
// ObjectDisposed after Dispose (idempotent). It is safe for concurrent use.
type Bridge struct {
	mu       sync.Mutex
	shell    CustomShell
	started  bool
	running  bool
	disposed bool
	logger   Logger
	onTerm   TerminatedFunc
}

// BridgeOption configures a Bridge at construction time.
type BridgeOption func(*Bridge)

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) BridgeOption {
	return func(b *Bridge) { b.logger = l }
}

// NewBridge wraps shell in lifecycle guards. The shell's Terminated
// callback is intercepted to flip the bridge's running flag before any
// caller-supplied termination handler runs.
func NewBridge(s CustomShell, opts ...BridgeOption) *Bridge {
	b := &Bridge{shell: s, logger: noopLogger{}}
	for _, opt := range opts {
		opt(b)
	}
	s.OnTerminated(func(exitCode int, reason *string) {
		b.mu.Lock()
		b.running = false
		fn := b.onTerm
		b.mu.Unlock()
		b.logger.Printf("shell: terminated (exit %d)", exitCode)
		if fn != nil {
			fn(exitCode, reason)
		}
	})
	return b
}

// Start runs the shell's StartAsync. On success the bridge accepts Write,
// Resize and Stop; on failure the bridge remains unstarted and the error
// is returned unwrapped.
func (b *Bridge) Start(ctx context.Context, opts StartOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return ErrObjectDisposed
	}
	if err := b.shell.StartAsync(ctx, opts); err != nil {
		b.logger.Printf("shell: start failed: %v", err)
		return err
	}
	b.started = true
	b.running = true
	b.logger.Printf("shell: started %q (%dx%d)", b.shell.Metadata().Name, opts.Width, opts.Height)
	return nil
}

// Stop runs the shell's StopAsync. Valid only on a started, not-yet-
// disposed bridge.
func (b *Bridge) Stop(ctx context.Context) error {
	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		return ErrObjectDisposed
	}
	if !b.started {
		b.mu.Unlock()
		return ErrInvalidOperation
	}
	b.mu.Unlock()
	return b.shell.StopAsync(ctx)
}

// Write delivers data to the shell's input handler. Safe to call
// concurrently with other Write calls and with shell-originated output.
func (b *Bridge) Write(ctx context.Context, data []byte) error {
	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		return ErrObjectDisposed
	}
	if !b.started || !b.running {
		b.mu.Unlock()
		return ErrInvalidOperation
	}
	b.mu.Unlock()

	buf := append([]byte(nil), data...)
	return b.shell.WriteInputAsync(ctx, buf)
}

// WriteString UTF-8 encodes s and calls Write.
func (b *Bridge) WriteString(ctx context.Context, s string) error {
	return b.Write(ctx, []byte(s))
}

// Resize notifies the shell of a terminal dimension change. Last-call-wins:
// concurrent Resize calls observe no particular order beyond that
// guarantee, delivered synchronously and one at a time.
func (b *Bridge) Resize(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return ErrObjectDisposed
	}
	if !b.started || !b.running {
		return ErrInvalidOperation
	}
	b.shell.NotifyTerminalResize(width, height)
	return nil
}

// IsRunning reports whether the underlying shell is currently running.
func (b *Bridge) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// OnOutput registers a callback invoked for every byte chunk the shell
// produces.
func (b *Bridge) OnOutput(fn OutputFunc) {
	b.shell.OnOutputReceived(fn)
}

// OnTerminated registers a callback invoked exactly once when the shell
// process exits.
func (b *Bridge) OnTerminated(fn TerminatedFunc) {
	b.mu.Lock()
	b.onTerm = fn
	b.mu.Unlock()
}

// Dispose releases the underlying shell. Idempotent: the first call
// disposes the shell and returns its error (if any); subsequent calls
// return ErrObjectDisposed without touching the shell again.
func (b *Bridge) Dispose() error {
	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		return ErrObjectDisposed
	}
	b.disposed = true
	b.running = false
	b.mu.Unlock()
	return b.shell.Dispose()
}
