package staleness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/adwriter/internal/types"
)

// RedisMarkers keeps generation markers in Redis, keyed per tenant and job.
// This is the session-style variant: when the TTL lapses the marker reads as
// zero, and a zero marker means "never generated", so the cached ad is served
// as fresh rather than regenerated. The document-stored variant is preferred;
// this one exists for deployments that cannot grow the document schema.
type RedisMarkers struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMarkers connects to Redis and verifies the connection.
func NewRedisMarkers(ctx context.Context, redisURL string, ttl time.Duration) (*RedisMarkers, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisMarkers{client: client, ttl: ttl}, nil
}

func markerKey(tenantKey string, jobID int) string {
	return fmt.Sprintf("adwriter:marker:%s:%d", tenantKey, jobID)
}

// Marker returns the recorded stamp, or the zero time when the key is absent
// or expired.
func (m *RedisMarkers) Marker(ctx context.Context, tenantKey string, profile *types.JobProfile) (time.Time, error) {
	val, err := m.client.Get(ctx, markerKey(tenantKey, profile.JobID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read staleness marker: %w", err)
	}
	stamp, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt staleness marker %q: %w", val, err)
	}
	return stamp, nil
}

// Record stores the generation stamp under the marker key.
func (m *RedisMarkers) Record(ctx context.Context, tenantKey string, jobID int, stamp time.Time) error {
	val := stamp.UTC().Format(time.RFC3339Nano)
	if err := m.client.Set(ctx, markerKey(tenantKey, jobID), val, m.ttl).Err(); err != nil {
		return fmt.Errorf("failed to record staleness marker: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (m *RedisMarkers) Close() error {
	return m.client.Close()
}
