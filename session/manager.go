package session

import (
	"context"
	"sync"

	"github.com/nullsector/termkit/shell"
	"github.com/pkg/errors"
)

// ErrCapacityExceeded is returned by CreateSession when the manager already
// holds maxSessions sessions.
var ErrCapacityExceeded = errors.New("session: manager at capacity")

// ErrNotFound is returned when an operation names a session id the
// manager does not hold.
var ErrNotFound = errors.New("session: not found")

// Logger is the minimal structured-logging seam the manager needs for
// capacity and lifecycle events. *log.Logger satisfies it.
type Logger interface {
	Printf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...any) {}

// Manager owns up to maxSessions independent sessions and tracks which one
// (if any) is active. All methods are safe for concurrent use.
type Manager struct {
	mu          sync.RWMutex
	maxSessions int
	sessions    map[string]*Session
	order       []string
	activeID    string
	logger      Logger
}

// ManagerOption configures a Manager at construction time.
type ManagerOption func(*Manager)

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a manager with the given capacity. A non-positive
// maxSessions is treated as unlimited.
func NewManager(maxSessions int, opts ...ManagerOption) *Manager {
	m := &Manager{
		maxSessions: maxSessions,
		sessions:    make(map[string]*Session),
		logger:      noopLogger{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateSession allocates a new session with a fresh emulator, defaulted
// to 80x24 with a clean scrollback. It does not become active
// automatically; call SwitchTo. Returns ErrCapacityExceeded, never a
// silent drop, once the manager is full.
func (m *Manager) CreateSession(title string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		m.logger.Printf("session: capacity exceeded creating %q (max %d)", title, m.maxSessions)
		return nil, errors.Wrapf(ErrCapacityExceeded, "max %d sessions", m.maxSessions)
	}

	s := newSession(title, nil)
	s.State = StateInactive
	m.sessions[s.ID] = s
	m.order = append(m.order, s.ID)
	m.logger.Printf("session: created %q (%s)", title, s.ID)
	return s, nil
}

// AttachShell installs the shell bridge for a session created with
// CreateSession. Callers are expected to hook bridge.OnOutput to the
// session's Terminal.Write themselves, since the pairing policy (e.g.
// whether to also feed a trace sink) is host-specific.
func (m *Manager) AttachShell(id string, bridge *shell.Bridge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return errors.Wrapf(ErrNotFound, "session %q", id)
	}
	s.ShellBridge = bridge
	return nil
}

// SwitchTo makes the named session Active and the previously active
// session (if any) Inactive. The transition is atomic: no other goroutine
// observes two sessions Active, or none, in between.
func (m *Manager) SwitchTo(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	target, ok := m.sessions[id]
	if !ok {
		return errors.Wrapf(ErrNotFound, "session %q", id)
	}

	if m.activeID != "" {
		if prev, ok := m.sessions[m.activeID]; ok && prev.State == StateActive {
			prev.State = StateInactive
		}
	}
	target.State = StateActive
	m.activeID = id
	return nil
}

// Active returns the currently active session, or nil if none is active.
func (m *Manager) Active() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.activeID == "" {
		return nil
	}
	return m.sessions[m.activeID]
}

// Get returns a session by id, or nil if it does not exist.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Sessions returns all sessions in creation order. The slice is a fresh
// copy; mutating it does not affect the manager.
func (m *Manager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.order))
	for _, id := range m.order {
		if s, ok := m.sessions[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// WriteToActive forwards data to the active session's shell bridge. A
// no-op, not an error, when no session is active or the active session
// has no shell bridge attached.
func (m *Manager) WriteToActive(ctx context.Context, data []byte) error {
	m.mu.RLock()
	var bridge *shell.Bridge
	if m.activeID != "" {
		if s, ok := m.sessions[m.activeID]; ok {
			bridge = s.ShellBridge
		}
	}
	m.mu.RUnlock()

	if bridge == nil {
		return nil
	}
	return bridge.Write(ctx, data)
}

// Dispose marks a session Disposed and removes it from the manager. If it
// was the active session, no session becomes active automatically.
func (m *Manager) Dispose(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return errors.Wrapf(ErrNotFound, "session %q", id)
	}
	s.State = StateDisposed
	delete(m.sessions, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if m.activeID == id {
		m.activeID = ""
	}
	m.logger.Printf("session: disposed %s", id)
	return nil
}

// ApplySettingsToAll applies fn to a clone of every session's Settings and
// writes the result back. Each session receives its own independently
// allocated clone, so a broadcast update can only ever touch session-
// scoped settings fields — it never reaches a session's Terminal or
// ShellBridge, and can never corrupt another session's objects. Session
// order, active selection, identity, and aliveness are all untouched.
func (m *Manager) ApplySettingsToAll(fn func(Settings) Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		s.Settings = fn(s.Settings.clone())
	}
}
