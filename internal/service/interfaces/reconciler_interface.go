package interfaces

import (
	"context"

	"collectionsync/internal/pkg/models"
)

// ReconcilerInterface applies one normalized provider event.
type ReconcilerInterface interface {
	Process(ctx context.Context, event *models.ReconciliationEvent) (*models.ReconciliationOutcome, error)
}
