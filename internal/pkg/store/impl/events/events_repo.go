package events

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
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProcessedEventsRepository is the durable side of webhook dedup. Redis
// answers first; this collection is the source of truth when the cache
// entry has expired.
type ProcessedEventsRepository struct {
	repo *repository.MongoRepository[storemodels.ProcessedEvent]
}

func NewProcessedEventsRepository(client *mongodb.MongoClient) *ProcessedEventsRepository {
	collection := client.Database.Collection(consts.ProcessedEventsCollection)
	return &ProcessedEventsRepository{
		repo: repository.NewMongoRepository[storemodels.ProcessedEvent](collection),
	}
}

func NewProcessedEventsRepositoryWithInterface(raw interfaces.MongoRepositoryInterface) *ProcessedEventsRepository {
	return &ProcessedEventsRepository{
		repo: repository.NewMongoRepository[storemodels.ProcessedEvent](raw),
	}
}

func (pr *ProcessedEventsRepository) FindByEventID(ctx context.Context, eventID string) (*storemodels.ProcessedEvent, error) {
	event, err := pr.repo.FindOne(ctx, bson.M{"eventId": eventID}, options.FindOne())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		logger.CtxError(ctx, "Error looking up processed event", err,
			slog.String("event_id", eventID))
		return nil, err
	}
	return &event, nil
}

func (pr *ProcessedEventsRepository) Insert(ctx context.Context, event *storemodels.ProcessedEvent) error {
	event.RecordedAt = time.Now().UTC()

	if _, err := pr.repo.Create(ctx, event); err != nil {
		logger.CtxError(ctx, "Error inserting processed event", err,
			slog.String("event_id", event.EventID))
		return err
	}
	return nil
}

type ParkedEventsRepository struct {
	repo *repository.MongoRepository[storemodels.ParkedEvent]
}

func NewParkedEventsRepository(client *mongodb.MongoClient) *ParkedEventsRepository {
	collection := client.Database.Collection(consts.ParkedEventsCollection)
	return &ParkedEventsRepository{
		repo: repository.NewMongoRepository[storemodels.ParkedEvent](collection),
	}
}

func NewParkedEventsRepositoryWithInterface(raw interfaces.MongoRepositoryInterface) *ParkedEventsRepository {
	return &ParkedEventsRepository{
		repo: repository.NewMongoRepository[storemodels.ParkedEvent](raw),
	}
}

func (pr *ParkedEventsRepository) Insert(ctx context.Context, event *storemodels.ParkedEvent) error {
	event.ParkedAt = time.Now().UTC()

	if _, err := pr.repo.Create(ctx, event); err != nil {
		logger.CtxError(ctx, "Error parking event", err,
			slog.String("external_id", event.ExternalID),
			slog.String("reason", event.Reason))
		return err
	}

	logger.CtxWarn(ctx, "Event parked for manual review",
		slog.String("external_id", event.ExternalID),
		slog.String("reason", event.Reason))
	return nil
}

func (pr *ParkedEventsRepository) FindUnresolved(ctx context.Context, limit int64) ([]storemodels.ParkedEvent, error) {
	opts := options.Find().SetSort(bson.M{"parkedAt": 1}).SetLimit(limit)
	return pr.repo.Find(ctx, bson.M{"resolved": false}, opts)
}
