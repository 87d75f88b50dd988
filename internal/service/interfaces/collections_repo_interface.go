package interfaces

import (
	"context"
	"time"

	"collectionsync/internal/pkg/consts"
	storemodels "collectionsync/internal/pkg/store/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CollectionsRepoInterface is the persistence contract for the collections
// mirror table.
type CollectionsRepoInterface interface {
	Create(ctx context.Context, collection *storemodels.Collection) (primitive.ObjectID, error)
	FindActiveByExternalID(ctx context.Context, externalID string) (*storemodels.Collection, error)
	FindByExternalID(ctx context.Context, externalID string) (*storemodels.Collection, error)
	FindActiveByProposalID(ctx context.Context, proposalID string) ([]storemodels.Collection, error)
	FindPendingSettlement(ctx context.Context, limit int64) ([]storemodels.Collection, error)
	UpdateStatus(ctx context.Context, externalID string, status consts.CollectionStatus,
		lastEventAt time.Time) error
	UpdateDueDate(ctx context.Context, externalID string, dueDate time.Time) error
	Deactivate(ctx context.Context, externalID string) error
}
