package interfaces

import (
	"context"

	storemodels "collectionsync/internal/pkg/store/models"
)

// ProcessedEventsRepoInterface guards idempotency: one logical consumption
// per event id.
type ProcessedEventsRepoInterface interface {
	FindByEventID(ctx context.Context, eventID string) (*storemodels.ProcessedEvent, error)
	Insert(ctx context.Context, event *storemodels.ProcessedEvent) error
}

// ParkedEventsRepoInterface stores events flagged for manual review.
type ParkedEventsRepoInterface interface {
	Insert(ctx context.Context, event *storemodels.ParkedEvent) error
	FindUnresolved(ctx context.Context, limit int64) ([]storemodels.ParkedEvent, error)
}
