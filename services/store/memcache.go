package store

import (
	"context"
	"encoding/json"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcacheStore persists the notified set as a JSON array under a single key
type MemcacheStore struct {
	client *memcache.Client
	key    string
}

var _ Store = (*MemcacheStore)(nil)

// NewMemcacheStore creates a new memcache-backed store
func NewMemcacheStore(serverAddr, key string) *MemcacheStore {
	return &MemcacheStore{
		client: memcache.New(serverAddr),
		key:    key,
	}
}

// LoadNotified reads the persisted dates; a cache miss is an empty set
func (m *MemcacheStore) LoadNotified(ctx context.Context) ([]string, error) {
	item, err := m.client.Get(m.key)
	if err == memcache.ErrCacheMiss {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var dates []string
	if err := json.Unmarshal(item.Value, &dates); err != nil {
		return nil, err
	}
	return dates, nil
}

// SaveNotified replaces the persisted dates. Expiration zero: the dedup
// state has no natural TTL, it only shrinks when the desired dates change.
func (m *MemcacheStore) SaveNotified(ctx context.Context, dates []string) error {
	raw, err := json.Marshal(dates)
	if err != nil {
		return err
	}
	return m.client.Set(&memcache.Item{
		Key:        m.key,
		Value:      raw,
		Expiration: 0,
	})
}

// Close is a no-op; gomemcache holds no persistent connection state to release
func (m *MemcacheStore) Close() error {
	return nil
}
