package store

import (
	"context"
	"sync"
)

// Store persists the set of already-notified dates. The memory backend
// keeps state for one process lifetime only; redis and memcache make the
// dedup survive restarts.
type Store interface {
	// LoadNotified returns the persisted notified dates
	LoadNotified(ctx context.Context) ([]string, error)

	// SaveNotified replaces the persisted notified dates
	SaveNotified(ctx context.Context, dates []string) error

	// Close closes the backend connection
	Close() error
}

// MemoryStore keeps the notified set in process memory only
type MemoryStore struct {
	mu    sync.Mutex
	dates []string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// LoadNotified returns a copy of the held dates
func (m *MemoryStore) LoadNotified(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.dates))
	copy(out, m.dates)
	return out, nil
}

// SaveNotified replaces the held dates
func (m *MemoryStore) SaveNotified(ctx context.Context, dates []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dates = make([]string, len(dates))
	copy(m.dates, dates)
	return nil
}

// Close is a no-op for the memory backend
func (m *MemoryStore) Close() error {
	return nil
}
