package audit

import (
	"context"
	"testing"
	"time"

	"collectionsync/internal/pkg/consts"
	storemodels "collectionsync/internal/pkg/store/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MockMongoCollection struct {
	mock.Mock
}

func (m *MockMongoCollection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	args := m.Called(ctx, document)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mongo.InsertOneResult), args.Error(1)
}

func (m *MockMongoCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	args := m.Called(ctx, filter)
	return args.Get(0).(*mongo.SingleResult)
}

func (m *MockMongoCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mongo.Cursor), args.Error(1)
}

func (m *MockMongoCollection) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	args := m.Called(ctx, filter, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mongo.UpdateResult), args.Error(1)
}

func (m *MockMongoCollection) UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	args := m.Called(ctx, filter, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mongo.UpdateResult), args.Error(1)
}

func (m *MockMongoCollection) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mongo.DeleteResult), args.Error(1)
}

func (m *MockMongoCollection) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMongoCollection) Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (*mongo.Cursor, error) {
	args := m.Called(ctx, pipeline)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mongo.Cursor), args.Error(1)
}

func TestInsertStampsTimestamp(t *testing.T) {
	mockColl := new(MockMongoCollection)
	repo := NewAuditRepositoryWithInterface(mockColl)

	mockColl.On("InsertOne", mock.Anything, mock.MatchedBy(func(doc interface{}) bool {
		record, ok := doc.(*storemodels.AuditRecord)
		return ok && record.Action == consts.ActionStatusTransition && !record.Timestamp.IsZero()
	})).Return(&mongo.InsertOneResult{}, nil)

	err := repo.Insert(context.Background(), &storemodels.AuditRecord{
		EntityType: consts.EntityCollection,
		EntityID:   "ext-1",
		Action:     consts.ActionStatusTransition,
		Actor:      consts.ActorSystem,
	})

	assert.NoError(t, err)
	mockColl.AssertExpectations(t)
}

func TestInsertKeepsExplicitTimestamp(t *testing.T) {
	mockColl := new(MockMongoCollection)
	repo := NewAuditRepositoryWithInterface(mockColl)

	stamped := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	mockColl.On("InsertOne", mock.Anything, mock.MatchedBy(func(doc interface{}) bool {
		record, ok := doc.(*storemodels.AuditRecord)
		return ok && record.Timestamp.Equal(stamped)
	})).Return(&mongo.InsertOneResult{}, nil)

	err := repo.Insert(context.Background(), &storemodels.AuditRecord{
		EntityType: consts.EntityInstallment,
		EntityID:   "p-1:3",
		Action:     consts.ActionInstallmentPaid,
		Timestamp:  stamped,
	})

	assert.NoError(t, err)
	mockColl.AssertExpectations(t)
}

func TestFindByEntityReturnsOrderedTrail(t *testing.T) {
	mockColl := new(MockMongoCollection)
	repo := NewAuditRepositoryWithInterface(mockColl)

	cursor, err := mongo.NewCursorFromDocuments([]interface{}{
		storemodels.AuditRecord{EntityID: "ext-1", Action: consts.ActionStatusTransition},
		storemodels.AuditRecord{EntityID: "ext-1", Action: consts.ActionInstallmentPaid},
	}, nil, nil)
	assert.NoError(t, err)

	mockColl.On("Find", mock.Anything, bson.M{
		"entityType": consts.EntityCollection,
		"entityId":   "ext-1",
	}).Return(cursor, nil)

	trail, err := repo.FindByEntity(context.Background(), consts.EntityCollection, "ext-1")

	assert.NoError(t, err)
	assert.Len(t, trail, 2)
	assert.Equal(t, consts.ActionStatusTransition, trail[0].Action)
}
