package cache

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ghuser/foundly/pkg/config"
)

func TestReportListCache_KeyFormat(t *testing.T) {
	c := &ReportListCache{}
	userID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

	want := "reports:550e8400-e29b-41d4-a716-446655440000"
	if got := c.key(userID); got != want {
		t.Fatalf("expected key %q, got %q", want, got)
	}
}

// TestReportListCache_Integration exercises the full get/set/delete cycle
// against a real Redis. Skipped unless REDIS_URL is set.
func TestReportListCache_Integration(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set; skipping Redis integration test")
	}

	client, err := NewRedisClient(&config.Config{RedisURL: url})
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	defer client.Close() //nolint:errcheck

	c := NewReportListCache(client)
	ctx := context.Background()
	userID := uuid.New()
	payload := []byte(`[{"id":"abc","title":"lost backpack"}]`)

	t.Run("miss before set", func(t *testing.T) {
		_, err := c.Get(ctx, userID)
		if !errors.Is(err, redis.Nil) {
			t.Fatalf("expected redis.Nil, got %v", err)
		}
	})

	t.Run("set then get", func(t *testing.T) {
		if err := c.Set(ctx, userID, payload); err != nil {
			t.Fatalf("set: %v", err)
		}
		got, err := c.Get(ctx, userID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if string(got) != string(payload) {
			t.Fatalf("expected %s, got %s", payload, got)
		}
	})

	t.Run("ttl set", func(t *testing.T) {
		ttl, err := client.Client().TTL(ctx, c.key(userID)).Result()
		if err != nil {
			t.Fatalf("ttl: %v", err)
		}
		if ttl <= 0 || ttl > ReportListTTL {
			t.Fatalf("expected TTL in (0, %v], got %v", ReportListTTL, ttl)
		}
	})

	t.Run("delete then miss", func(t *testing.T) {
		if err := c.Delete(ctx, userID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		_, err := c.Get(ctx, userID)
		if !errors.Is(err, redis.Nil) {
			t.Fatalf("expected redis.Nil after delete, got %v", err)
		}
	})

	t.Run("delete absent key is idempotent", func(t *testing.T) {
		if err := c.Delete(ctx, userID); err != nil {
			t.Fatalf("expected nil error deleting absent key, got %v", err)
		}
	})
}
