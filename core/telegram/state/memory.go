package state

import (
	"context"
	"sync"
	"time"
)

// MemoryManager keeps sessions in process memory.
type MemoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]Session
	now      func() time.Time
}

// NewMemoryManager constructs an in-memory Manager; sessions are lost on restart.
func NewMemoryManager() *MemoryManager {
	return &MemoryManager{
		sessions: make(map[int64]Session),
		now:      time.Now,
	}
}

// Get returns a copy of the user's session, or an idle session.
func (m *MemoryManager) Get(_ context.Context, userID int64) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[userID]; ok {
		return s.Clone(), nil
	}
	return NewSession(StateIdle), nil
}

// Set stores a copy of s. Storing an idle session removes the entry.
func (m *MemoryManager) Set(_ context.Context, userID int64, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.Idle() {
		delete(m.sessions, userID)
		return nil
	}
	s = s.Clone()
	s.UpdatedAt = m.now()
	m.sessions[userID] = s
	return nil
}

// Clear removes the user's session.
func (m *MemoryManager) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

// InProgress reports whether the user has an active conversation.
func (m *MemoryManager) InProgress(_ context.Context, userID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return ok && !s.Idle(), nil
}

// Len returns the number of active sessions.
func (m *MemoryManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
