package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// This test requires a running Redis instance
// If Redis is not available, the test will be skipped
func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewRedisStore("localhost:6379", 0, "ikonwatch_test:notified")
	defer s.Close()

	if _, err := s.client.Ping(ctx).Result(); err != nil {
		t.Skip("Redis is not available, skipping test")
	}
	defer s.client.Del(ctx, s.key)

	s.client.Del(ctx, s.key)

	dates, err := s.LoadNotified(ctx)
	assert.NoError(t, err)
	assert.Empty(t, dates)

	err = s.SaveNotified(ctx, []string{"2026-03-01", "2026-03-02"})
	assert.NoError(t, err)

	dates, err = s.LoadNotified(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"2026-03-01", "2026-03-02"}, dates)
}
