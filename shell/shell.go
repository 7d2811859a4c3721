// Package shell adapts a pluggable, non-process "shell" to the same
// byte-I/O contract a kernel pseudo-terminal exposes: input sink, output
// event source, resize notifier, and a termination event.
package shell

import (
	"context"

	"github.com/pkg/errors"
)

// ErrInvalidOperation is returned when an operation is attempted on a
// bridge that has not been started, or whose shell has already terminated.
var ErrInvalidOperation = errors.New("shell: invalid operation")

// ErrObjectDisposed is returned for any operation attempted after Dispose.
var ErrObjectDisposed = errors.New("shell: object disposed")

// Metadata describes a CustomShell implementation.
type Metadata struct {
	Name        string
	Description string
	Version     string
	Author      string
	Features    []string
}

// NewMetadata builds a Metadata, defaulting Author to "Unknown" and
// Features to an empty (non-nil) slice when not supplied.
func NewMetadata(name, description, version, author string, features []string) Metadata {
	if author == "" {
		author = "Unknown"
	}
	if features == nil {
		features = []string{}
	}
	return Metadata{
		Name:        name,
		Description: description,
		Version:     version,
		Author:      author,
		Features:    features,
	}
}

// StartOptions configures a CustomShell at start time.
type StartOptions struct {
	Width            int
	Height           int
	WorkingDirectory string
	Environment      map[string]string
	Config           map[string]any
}

// DefaultStartOptions returns the spec-mandated defaults: 80x24, the
// current working directory, and a non-empty environment map.
func DefaultStartOptions() StartOptions {
	return StartOptions{
		Width:       80,
		Height:      24,
		Environment: map[string]string{"TERM": "xterm-256color"},
		Config:      map[string]any{},
	}
}

// OutputFunc receives bytes produced by a running shell.
type OutputFunc func(data []byte)

// TerminatedFunc receives the shell's exit code and an optional reason.
type TerminatedFunc func(exitCode int, reason *string)

// CustomShell is a pluggable, possibly non-process, command interpreter.
// Implementations might wrap a real pseudo-terminal, an in-process
// interpreter, or a remote session — the Bridge only depends on this
// interface.
type CustomShell interface {
	Metadata() Metadata
	IsRunning() bool

	StartAsync(ctx context.Context, opts StartOptions) error
	StopAsync(ctx context.Context) error
	WriteInputAsync(ctx context.Context, data []byte) error
	NotifyTerminalResize(width, height int)
	RequestCancellation()
	SendInitialOutput()
	Dispose() error

	OnOutputReceived(fn OutputFunc)
	OnTerminated(fn TerminatedFunc)
}
