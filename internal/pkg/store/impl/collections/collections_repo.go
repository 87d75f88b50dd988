package collections

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"collectionsync/internal/pkg/consts"
	mongodb "collectionsync/internal/pkg/db/mongo"
	"collectionsync/internal/pkg/logger"
	storemodels "collectionsync/internal/pkg/store/models"
	"collectionsync/internal/pkg/store/repository"
	"collectionsync/internal/service/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CollectionsRepository struct {
	repo *repository.MongoRepository[storemodels.Collection]
}

func NewCollectionsRepository(client *mongodb.MongoClient) *CollectionsRepository {
	collection := client.Database.Collection(consts.CollectionsCollection)
	return &CollectionsRepository{
		repo: repository.NewMongoRepository[storemodels.Collection](collection),
	}
}

func NewCollectionsRepositoryWithInterface(raw interfaces.MongoRepositoryInterface) *CollectionsRepository {
	return &CollectionsRepository{
		repo: repository.NewMongoRepository[storemodels.Collection](raw),
	}
}

func (cr *CollectionsRepository) Create(ctx context.Context, collection *storemodels.Collection) (primitive.ObjectID, error) {
	now := time.Now().UTC()
	collection.CreatedAt = now
	collection.UpdatedAt = now

	result, err := cr.repo.Create(ctx, collection)
	if err != nil {
		logger.CtxError(ctx, "Error inserting collection", err,
			slog.String("external_id", collection.ExternalID))
		return primitive.NilObjectID, err
	}

	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("unexpected inserted id type")
	}
	collection.ID = id
	return id, nil
}

// FindActiveByExternalID returns the single active mirror row for the
// provider-assigned id. At most one row per (proposalId, installmentNumber)
// is active at any time.
func (cr *CollectionsRepository) FindActiveByExternalID(ctx context.Context, externalID string) (*storemodels.Collection, error) {
	filter := bson.M{"externalId": externalID, "isActive": true}

	collection, err := cr.repo.FindOne(ctx, filter, options.FindOne())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			logger.CtxWarn(ctx, "No active collection found",
				slog.String("external_id", externalID))
			return nil, err
		}
		logger.CtxError(ctx, "Error finding collection by external id", err,
			slog.String("external_id", externalID))
		return nil, err
	}

	return &collection, nil
}

func (cr *CollectionsRepository) FindByExternalID(ctx context.Context, externalID string) (*storemodels.Collection, error) {
	collection, err := cr.repo.FindOne(ctx, bson.M{"externalId": externalID}, options.FindOne())
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

func (cr *CollectionsRepository) FindActiveByProposalID(ctx context.Context, proposalID string) ([]storemodels.Collection, error) {
	filter := bson.M{"proposalId": proposalID, "isActive": true}

	collections, err := cr.repo.Find(ctx, filter)
	if err != nil {
		logger.CtxError(ctx, "Error fetching collections for proposal", err,
			slog.String("proposal_id", proposalID))
		return nil, err
	}

	logger.CtxDebug(ctx, "Fetched active collections",
		slog.String("proposal_id", proposalID),
		slog.Int("count", len(collections)))

	return collections, nil
}

// FindPendingSettlement lists active collections that still await a
// terminal status, for the status sweep.
func (cr *CollectionsRepository) FindPendingSettlement(ctx context.Context, limit int64) ([]storemodels.Collection, error) {
	filter := bson.M{
		"isActive": true,
		"status": bson.M{"$in": []consts.CollectionStatus{
			consts.CollectionIssued,
			consts.CollectionPayable,
			consts.CollectionOverdue,
		}},
	}

	opts := options.Find().SetLimit(limit).SetSort(bson.M{"lastEventAt": 1})
	return cr.repo.Find(ctx, filter, opts)
}

func (cr *CollectionsRepository) UpdateStatus(ctx context.Context, externalID string, status consts.CollectionStatus, lastEventAt time.Time) error {
	filter := bson.M{"externalId": externalID, "isActive": true}
	update := bson.M{
		"status":      status,
		"lastEventAt": lastEventAt,
		"updatedAt":   time.Now().UTC(),
	}

	if err := cr.repo.UpdateOne(ctx, filter, update); err != nil {
		logger.CtxError(ctx, "Error updating collection status", err,
			slog.String("external_id", externalID),
			slog.String("status", string(status)))
		return err
	}
	return nil
}

func (cr *CollectionsRepository) UpdateDueDate(ctx context.Context, externalID string, dueDate time.Time) error {
	filter := bson.M{"externalId": externalID, "isActive": true}
	update := bson.M{
		"dueDate":   dueDate,
		"updatedAt": time.Now().UTC(),
	}
	return cr.repo.UpdateOne(ctx, filter, update)
}

// Deactivate flips isActive off; the row itself is retained for audit.
func (cr *CollectionsRepository) Deactivate(ctx context.Context, externalID string) error {
	filter := bson.M{"externalId": externalID, "isActive": true}
	update := bson.M{
		"isActive":  false,
		"updatedAt": time.Now().UTC(),
	}

	if err := cr.repo.UpdateOne(ctx, filter, update); err != nil {
		logger.CtxError(ctx, "Error deactivating collection", err,
			slog.String("external_id", externalID))
		return err
	}

	logger.CtxInfo(ctx, "Collection deactivated", slog.String("external_id", externalID))
	return nil
}
