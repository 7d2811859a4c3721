// Package session manages independent Emulator+Shell pairs and routes
// input to whichever one is currently active.
package session

import (
	"github.com/google/uuid"
	"github.com/nullsector/termkit"
	"github.com/nullsector/termkit/shell"
)

// State is the lifecycle state of a Session.
type State int

const (
	StateCreating State = iota
	StateActive
	StateInactive
	StateFailed
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateCreating:
		return "Creating"
	case StateActive:
		return "Active"
	case StateInactive:
		return "Inactive"
	case StateFailed:
		return "Failed"
	case StateDisposed:
		return "Disposed"
	default:
		return "Unknown"
	}
}

// Settings holds the per-session configuration. Every Session owns a
// distinct Settings instance — mutating one session's Settings must never
// be observable through another session's Settings.
type Settings struct {
	Cols             int
	Rows             int
	WorkingDirectory string
	Environment      map[string]string
	ProcessMetadata  map[string]string
}

// DefaultSettings returns the spec-mandated defaults: 80x24, fresh maps.
func DefaultSettings() Settings {
	return Settings{
		Cols:            80,
		Rows:            24,
		Environment:     map[string]string{},
		ProcessMetadata: map[string]string{},
	}
}

// clone returns a deep copy, preserving per-session settings-object
// identity when a session's Settings are read out for broadcast updates.
func (s Settings) clone() Settings {
	env := make(map[string]string, len(s.Environment))
	for k, v := range s.Environment {
		env[k] = v
	}
	meta := make(map[string]string, len(s.ProcessMetadata))
	for k, v := range s.ProcessMetadata {
		meta[k] = v
	}
	return Settings{
		Cols:             s.Cols,
		Rows:             s.Rows,
		WorkingDirectory: s.WorkingDirectory,
		Environment:      env,
		ProcessMetadata:  meta,
	}
}

// Session couples one emulator with one shell bridge and a state.
type Session struct {
	ID          string
	Title       string
	Settings    Settings
	Terminal    *termkit.Terminal
	ShellBridge *shell.Bridge
	State       State
}

// newSession allocates a session with a fresh id, default settings, and a
// freshly constructed terminal sized to those settings.
func newSession(title string, bridge *shell.Bridge) *Session {
	settings := DefaultSettings()
	return &Session{
		ID:          uuid.NewString(),
		Title:       title,
		Settings:    settings,
		Terminal:    termkit.New(termkit.WithSize(settings.Rows, settings.Cols)),
		ShellBridge: bridge,
		State:       StateCreating,
	}
}
