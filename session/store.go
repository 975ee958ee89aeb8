package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// STORE - Interface for session lookup
// =============================================================================

// Store keeps sessions for the lifetime of the process. Sessions are not
// persisted.
type Store interface {
	Create(ctx context.Context) (*Session, error)
	Get(ctx context.Context, id ID) (*Session, error)
	List(ctx context.Context) ([]*Session, error)
	Delete(ctx context.Context, id ID) error
}

// =============================================================================
// MEMORY STORE
// =============================================================================

// Memory is the in-process Store.
type Memory struct {
	mu       sync.RWMutex
	sessions map[ID]*Session
	now      func() time.Time
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[ID]*Session),
		now:      time.Now,
	}
}

// Create registers a new session with a random ID.
func (m *Memory) Create(_ context.Context) (*Session, error) {
	s := New(ID(uuid.NewString()), m.now())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.id] = s
	return s, nil
}

// Get returns the session or ErrSessionNotFound.
func (m *Memory) Get(_ context.Context, id ID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// List returns every session, oldest first.
func (m *Memory) List(_ context.Context) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].createdAt.Equal(out[j].createdAt) {
			return out[i].createdAt.Before(out[j].createdAt)
		}
		return out[i].id < out[j].id
	})
	return out, nil
}

// Delete removes the session. Deleting an unknown ID returns
// ErrSessionNotFound.
func (m *Memory) Delete(_ context.Context, id ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Expire removes sessions not updated since cutoff and returns how many
// were removed. Sessions busy in a transaction are skipped. The store lock
// is never held while waiting on a session.
func (m *Memory) Expire(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.RLock()
	candidates := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		candidates = append(candidates, s)
	}
	m.mu.RUnlock()

	stale := candidates[:0]
	for _, s := range candidates {
		if expired(s, cutoff) {
			stale = append(stale, s)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range stale {
		// Re-check: the session may have been replaced or touched meanwhile.
		if m.sessions[s.id] != s || !expired(s, cutoff) {
			continue
		}
		delete(m.sessions, s.id)
		n++
	}
	return n, nil
}

func expired(s *Session, cutoff time.Time) bool {
	t, ok := s.idleSince()
	return ok && t.Before(cutoff)
}
