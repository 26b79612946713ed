package store

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists the notified set as a JSON array under a single key
type RedisStore struct {
	client *redis.Client
	key    string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a new Redis-backed store
func NewRedisStore(addr string, db int, key string) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	return &RedisStore{
		client: client,
		key:    key,
	}
}

// LoadNotified reads the persisted dates; a missing key is an empty set
func (r *RedisStore) LoadNotified(ctx context.Context) ([]string, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var dates []string
	if err := json.Unmarshal(raw, &dates); err != nil {
		return nil, err
	}
	return dates, nil
}

// SaveNotified replaces the persisted dates
func (r *RedisStore) SaveNotified(ctx context.Context, dates []string) error {
	raw, err := json.Marshal(dates)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, raw, 0).Err()
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}
