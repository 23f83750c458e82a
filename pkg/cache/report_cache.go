package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// ReportListTTL is the time-to-live for cached per-user report lists.
	// The TTL is a safety net behind invalidate-on-write, not a freshness
	// guarantee.
	ReportListTTL = time.Hour

	reportListKeyPrefix = "reports"
)

// ReportListCache stores each user's serialized report list in Redis.
// Key format: "reports:{userID}". The value is an opaque JSON payload owned
// by the report service; the cache is a disposable projection of Postgres and
// is never a source of truth. Writes to a user's reports delete the key; the
// next read repopulates it (invalidate-on-write, no write-through population).
type ReportListCache struct {
	client *RedisClient
}

// NewReportListCache creates a ReportListCache backed by the given RedisClient.
func NewReportListCache(r *RedisClient) *ReportListCache {
	return &ReportListCache{client: r}
}

// Get retrieves the cached report list for a user.
// Returns redis.Nil error when the key does not exist or has expired.
func (c *ReportListCache) Get(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	payload, err := c.client.Client().Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	return payload, nil
}

// Set writes a user's serialized report list with the standard TTL.
func (c *ReportListCache) Set(ctx context.Context, userID uuid.UUID, payload []byte) error {
	if err := c.client.Client().Set(ctx, c.key(userID), payload, ReportListTTL).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Delete invalidates a user's cached report list. Deleting an absent key is
// a no-op, so invalidation is idempotent.
func (c *ReportListCache) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Client().Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// key builds the Redis key: "reports:{userID}"
func (c *ReportListCache) key(userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", reportListKeyPrefix, userID)
}
