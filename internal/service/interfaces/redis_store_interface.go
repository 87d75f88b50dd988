package interfaces

import (
	"context"
	"time"
)

// DedupCacheInterface is the fast-path processed-event cache in front of
// the authoritative processed_events set.
type DedupCacheInterface interface {
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) error
}
