package onboarding

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process SessionStore. Sessions idle for longer than
// the TTL are treated as absent.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates a store. A non-positive ttl disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create implements SessionStore.
func (m *MemoryStore) Create(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[s.Actor]; ok && !m.expired(existing) {
		return ErrSessionExists
	}
	m.sessions[s.Actor] = *s
	return nil
}

// Get implements SessionStore.
func (m *MemoryStore) Get(ctx context.Context, actor string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[actor]
	if !ok {
		return nil, ErrNoSession
	}
	if m.expired(s) {
		delete(m.sessions, actor)
		return nil, ErrNoSession
	}
	return &s, nil
}

// Put implements SessionStore.
func (m *MemoryStore) Put(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Actor] = *s
	return nil
}

// Delete implements SessionStore.
func (m *MemoryStore) Delete(ctx context.Context, actor string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, actor)
	return nil
}

// Sweep implements SessionStore.
func (m *MemoryStore) Sweep(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for actor, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, actor)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *MemoryStore) expired(s Session) bool {
	if m.ttl <= 0 {
		return false
	}
	return m.now().Sub(s.UpdatedAt) > m.ttl
}

var _ SessionStore = (*MemoryStore)(nil)
