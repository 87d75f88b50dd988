package interfaces

import (
	"context"

	storemodels "collectionsync/internal/pkg/store/models"
)

// AuditRepoInterface is append-only; audit records are never updated or
// deleted.
type AuditRepoInterface interface {
	Insert(ctx context.Context, record *storemodels.AuditRecord) error
	FindByEntity(ctx context.Context, entityType, entityID string) ([]storemodels.AuditRecord, error)
}
