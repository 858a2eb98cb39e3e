package session

import (
	"sync"

	"go.uber.org/zap"
)

// Manager owns exactly one live State at a time. Replacing the session
// discards the previous state and its stash entirely; the only thing carried
// over is whatever the caller re-seeds, typically the clerk user id.
type Manager struct {
	lg *zap.Logger

	mu  sync.Mutex
	cur *State
}

// NewManager creates a Manager with no live session yet.
func NewManager(lg *zap.Logger) *Manager {
	return &Manager{lg: lg}
}

// Current returns the live session state, creating one owned by no clerk if
// none exists yet.
func (m *Manager) Current() *State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		m.cur = NewState(0)
		m.lg.Info("session created lazily", zap.String("session", m.cur.id.String()))
	}
	return m.cur
}

// NewSession replaces the live session with a fresh one seeded with userID.
func (m *Manager) NewSession(userID int64) *State {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := NewState(userID)
	if m.cur != nil {
		m.lg.Info("session replaced",
			zap.String("old", m.cur.id.String()),
			zap.String("new", next.id.String()),
			zap.Int64("user_id", userID))
	}
	m.cur = next
	return next
}

// Reset re-initializes the live session in place, seeding it with userID.
// Equivalent in effect to NewSession; kept as a separate entry point because
// callers that hold a State reference treat "reset" and "replace"
// differently.
func (m *Manager) Reset(userID int64) *State {
	return m.NewSession(userID)
}
