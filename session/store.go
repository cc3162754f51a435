package session

import (
	"context"
	"sync"
)

// Store is the single owner of the persisted session. Set and Clear replace
// the whole session atomically from the caller's perspective; Get returns a
// copy. Subscribe registers a listener for session changes and returns its
// deregistration handle. Implementations must be safe for concurrent use.
type Store interface {
	Set(ctx context.Context, s Session) error
	Get(ctx context.Context) (Session, error)
	Clear(ctx context.Context) error
	Subscribe(fn func(Session)) (cancel func())
	Close() error
}

// MemoryStore holds the session in process memory. It is the fallback when
// persistent storage is unavailable: the session then lives only as long as
// the process, which is the documented degraded mode, not an error.
type MemoryStore struct {
	mu        sync.RWMutex
	current   Session
	listeners map[int]func(Session)
	nextID    int
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		listeners: make(map[int]func(Session)),
	}
}

// Set replaces the session and notifies subscribers.
func (m *MemoryStore) Set(_ context.Context, s Session) error {
	m.mu.Lock()
	m.current = s
	fns := m.snapshotListeners()
	m.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
	return nil
}

// Get returns the current session.
func (m *MemoryStore) Get(_ context.Context) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, nil
}

// Clear removes the session and notifies subscribers with the zero session.
func (m *MemoryStore) Clear(ctx context.Context) error {
	return m.Set(ctx, Session{})
}

// Subscribe registers fn for every subsequent session change. The returned
// cancel func is idempotent.
func (m *MemoryStore) Subscribe(fn func(Session)) (cancel func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

// snapshotListeners must be called with m.mu held.
func (m *MemoryStore) snapshotListeners() []func(Session) {
	fns := make([]func(Session), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	return fns
}
