package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupKeyPrefix = "processed-event:"

// RedisDedupAdapter is the fast-path processed-event cache. The
// processed_events mongo collection stays authoritative; a cache miss only
// costs one extra lookup there.
type RedisDedupAdapter struct {
	client *redis.Client
}

func NewRedisDedupAdapter(client *redis.Client) *RedisDedupAdapter {
	return &RedisDedupAdapter{client: client}
}

func (a *RedisDedupAdapter) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	val, err := a.client.Exists(ctx, dedupKeyPrefix+eventID).Result()
	if err != nil {
		return false, err
	}
	return val > 0, nil
}

func (a *RedisDedupAdapter) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return a.client.Set(ctx, dedupKeyPrefix+eventID, "1", ttl).Err()
}
