package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"eta-service/internal/models"
)

// StatusCache keeps recent status-lookup results in Redis so repeated polling
// of the status page does not hit PostgreSQL every time.
type StatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

const statusCacheTTL = 5 * time.Minute

func NewStatusCache(client *redis.Client) *StatusCache {
	return &StatusCache{client: client, ttl: statusCacheTTL}
}

// statusCacheKey includes the lowercased email so a cached status is only
// served to a caller who also knows the address the application was made
// with, matching the store's lookup contract.
func statusCacheKey(referenceNumber, email string) string {
	return "eta:status:" + referenceNumber + ":" + strings.ToLower(email)
}

// Get returns the cached result for a lookup, or (nil, nil) on a miss.
func (c *StatusCache) Get(ctx context.Context, referenceNumber, email string) (*models.StatusResult, error) {
	data, err := c.client.Get(ctx, statusCacheKey(referenceNumber, email)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("status cache get failed: %w", err)
	}

	var result models.StatusResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("status cache entry corrupt: %w", err)
	}
	return &result, nil
}

// Set stores a lookup result under its reference number and email.
func (c *StatusCache) Set(ctx context.Context, email string, result *models.StatusResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal status result: %w", err)
	}
	if err := c.client.Set(ctx, statusCacheKey(result.ReferenceNumber, email), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("status cache set failed: %w", err)
	}
	return nil
}

// Invalidate drops a cached entry, used when back-office tooling changes an
// application's status.
func (c *StatusCache) Invalidate(ctx context.Context, referenceNumber, email string) error {
	if err := c.client.Del(ctx, statusCacheKey(referenceNumber, email)).Err(); err != nil {
		return fmt.Errorf("status cache invalidate failed: %w", err)
	}
	return nil
}
