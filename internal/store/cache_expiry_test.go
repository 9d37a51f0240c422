package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// Exercises the cache against a real Redis protocol implementation,
// including TTL behaviour redismock cannot observe.
func TestStatusCacheAgainstMiniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cache := NewStatusCache(client)
	result := sampleStatusResult()

	assert.NoError(t, cache.Set(context.Background(), "ayse@example.com", result))

	got, err := cache.Get(context.Background(), result.ReferenceNumber, "ayse@example.com")
	assert.NoError(t, err)
	assert.Equal(t, result, got)

	// A different email never sees the cached entry.
	other, err := cache.Get(context.Background(), result.ReferenceNumber, "other@example.com")
	assert.NoError(t, err)
	assert.Nil(t, other)

	// Entries expire after the TTL.
	mr.FastForward(5*time.Minute + time.Second)
	expired, err := cache.Get(context.Background(), result.ReferenceNumber, "ayse@example.com")
	assert.NoError(t, err)
	assert.Nil(t, expired)
}
