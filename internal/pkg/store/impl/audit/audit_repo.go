package audit

import (
	"context"
	"log/slog"
	"time"

	"collectionsync/internal/pkg/consts"
	mongodb "collectionsync/internal/pkg/db/mongo"
	"collectionsync/internal/pkg/logger"
	storemodels "collectionsync/internal/pkg/store/models"
	"collectionsync/internal/pkg/store/repository"
	"collectionsync/internal/service/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AuditRepository struct {
	repo *repository.MongoRepository[storemodels.AuditRecord]
}

func NewAuditRepository(client *mongodb.MongoClient) *AuditRepository {
	collection := client.Database.Collection(consts.AuditRecordsCollection)
	return &AuditRepository{
		repo: repository.NewMongoRepository[storemodels.AuditRecord](collection),
	}
}

func NewAuditRepositoryWithInterface(raw interfaces.MongoRepositoryInterface) *AuditRepository {
	return &AuditRepository{
		repo: repository.NewMongoRepository[storemodels.AuditRecord](raw),
	}
}

func (ar *AuditRepository) Insert(ctx context.Context, record *storemodels.AuditRecord) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	if _, err := ar.repo.Create(ctx, record); err != nil {
		logger.CtxError(ctx, "Error inserting audit record", err,
			slog.String("entity_type", record.EntityType),
			slog.String("entity_id", record.EntityID),
			slog.String("action", record.Action))
		return err
	}
	return nil
}

func (ar *AuditRepository) FindByEntity(ctx context.Context, entityType, entityID string) ([]storemodels.AuditRecord, error) {
	filter := bson.M{"entityType": entityType, "entityId": entityID}
	opts := options.Find().SetSort(bson.M{"timestamp": 1})
	return ar.repo.Find(ctx, filter, opts)
}
