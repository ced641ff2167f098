package store

import (
	"sync"
)

// SessionManager owns one independent Store per user session. Sessions
// never share conversations; a store lives until its session is
// dropped.
type SessionManager struct {
	mu     sync.RWMutex
	stores map[string]*Store
}

// NewSessionManager creates an empty session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		stores: make(map[string]*Store),
	}
}

// Store returns the store for a session, creating it on first use.
func (m *SessionManager) Store(sessionID string) *Store {
	m.mu.RLock()
	s, exists := m.stores[sessionID]
	m.mu.RUnlock()
	if exists {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, exists := m.stores[sessionID]; exists {
		return s
	}
	s = NewStore()
	m.stores[sessionID] = s
	return s
}

// Drop discards a session's store entirely. The next access starts
// from an empty store.
func (m *SessionManager) Drop(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, sessionID)
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.stores)
}
