package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"collectionsync/internal/pkg/consts"
	"collectionsync/internal/pkg/models"
)

type MockBatchService struct {
	mock.Mock
}

func (m *MockBatchService) ExtendDueDates(ctx context.Context, actor string, req *models.ExtendDueDatesRequest) (*models.ExtendDueDatesResponse, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExtendDueDatesResponse), args.Error(1)
}

func (m *MockBatchService) ApplySettlementDiscount(ctx context.Context, actor string, req *models.SettlementDiscountRequest) (*models.SettlementDiscountResponse, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementDiscountResponse), args.Error(1)
}

func (m *MockBatchService) GetDebtSummary(ctx context.Context, proposalID string) (*models.DebtSummary, error) {
	args := m.Called(ctx, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DebtSummary), args.Error(1)
}

type MockSweepService struct {
	mock.Mock
}

func (m *MockSweepService) SyncPendingCollections(ctx context.Context, actor string) (*models.SweepResponse, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SweepResponse), args.Error(1)
}

func newCollectionsRouter(batch *MockBatchService, sweep *MockSweepService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewCollectionsHandler(batch, sweep)
	router := gin.New()
	router.GET("/api/collections/debt-summary/:proposalId", handler.DebtSummary)
	router.POST("/api/collections/extend-due-dates", handler.ExtendDueDates)
	router.POST("/api/collections/settlement-discount", handler.SettlementDiscount)
	router.POST("/api/collections/sync", handler.Sync)
	return router
}

func TestDebtSummaryReturnsAggregates(t *testing.T) {
	batch := new(MockBatchService)
	router := newCollectionsRouter(batch, new(MockSweepService))

	next := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	batch.On("GetDebtSummary", mock.Anything, "p-1").Return(&models.DebtSummary{
		ProposalID:     "p-1",
		TotalDueCents:  18000,
		TotalPaidCents: 12000,
		PendingCount:   2,
		PaidCount:      4,
		NextDueDate:    &next,
	}, nil)

	req, _ := http.NewRequest(http.MethodGet, "/api/collections/debt-summary/p-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_due_cents":18000`)
	assert.Contains(t, w.Body.String(), `"pending_count":2`)
	batch.AssertExpectations(t)
}

func TestDebtSummaryUnknownProposal(t *testing.T) {
	batch := new(MockBatchService)
	router := newCollectionsRouter(batch, new(MockSweepService))

	batch.On("GetDebtSummary", mock.Anything, "ghost").Return(nil, models.ErrCollectionNotFound)

	req, _ := http.NewRequest(http.MethodGet, "/api/collections/debt-summary/ghost", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExtendDueDatesPassesActorHeader(t *testing.T) {
	batch := new(MockBatchService)
	router := newCollectionsRouter(batch, new(MockSweepService))

	batch.On("ExtendDueDates", mock.Anything, "ops-user", mock.MatchedBy(func(req *models.ExtendDueDatesRequest) bool {
		return len(req.ExternalIDs) == 2 && req.NewDueDate == "2026-10-01"
	})).Return(&models.ExtendDueDatesResponse{
		Succeeded: []string{"ext-1", "ext-2"},
		Failed:    []models.FailedItem{},
	}, nil)

	body := []byte(`{"external_ids":["ext-1","ext-2"],"new_due_date":"2026-10-01"}`)
	req, _ := http.NewRequest(http.MethodPost, "/api/collections/extend-due-dates", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(consts.ActorHeader, "ops-user")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"succeeded":["ext-1","ext-2"]`)
	batch.AssertExpectations(t)
}

func TestExtendDueDatesRejectsInvalidBody(t *testing.T) {
	batch := new(MockBatchService)
	router := newCollectionsRouter(batch, new(MockSweepService))

	body := []byte(`{"external_ids":[],"new_due_date":"not-a-date"}`)
	req, _ := http.NewRequest(http.MethodPost, "/api/collections/extend-due-dates", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	batch.AssertNotCalled(t, "ExtendDueDates", mock.Anything, mock.Anything, mock.Anything)
}

func TestExtendDueDatesUnauthorizedActor(t *testing.T) {
	batch := new(MockBatchService)
	router := newCollectionsRouter(batch, new(MockSweepService))

	batch.On("ExtendDueDates", mock.Anything, "intruder", mock.Anything).Return(nil, models.ErrUnauthorized)

	body := []byte(`{"external_ids":["ext-1"],"new_due_date":"2026-10-01"}`)
	req, _ := http.NewRequest(http.MethodPost, "/api/collections/extend-due-dates", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(consts.ActorHeader, "intruder")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSettlementDiscountRestructuresPlan(t *testing.T) {
	batch := new(MockBatchService)
	router := newCollectionsRouter(batch, new(MockSweepService))

	batch.On("ApplySettlementDiscount", mock.Anything, "ops-user", mock.MatchedBy(func(req *models.SettlementDiscountRequest) bool {
		return req.ProposalID == "p-1" && req.DiscountCents == 8000 && len(req.NewPlan) == 2
	})).Return(&models.SettlementDiscountResponse{
		ProposalID:            "p-1",
		RemainingBalanceCents: 18000,
		DiscountCents:         8000,
		NewTotalCents:         10000,
		CanceledCollections:   []string{"ext-2", "ext-3"},
		IssuedCollections:     []string{"ext-new-1", "ext-new-2"},
	}, nil)

	body := []byte(`{
		"proposal_id": "p-1",
		"discount_cents": 8000,
		"new_plan": [
			{"amount_cents": 5000, "due_date": "2026-10-01"},
			{"amount_cents": 5000, "due_date": "2026-11-01"}
		]
	}`)
	req, _ := http.NewRequest(http.MethodPost, "/api/collections/settlement-discount", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(consts.ActorHeader, "ops-user")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"new_total_cents":10000`)
	batch.AssertExpectations(t)
}

func TestSettlementDiscountRejectsEmptyPlan(t *testing.T) {
	batch := new(MockBatchService)
	router := newCollectionsRouter(batch, new(MockSweepService))

	body := []byte(`{"proposal_id":"p-1","discount_cents":8000,"new_plan":[]}`)
	req, _ := http.NewRequest(http.MethodPost, "/api/collections/settlement-discount", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	batch.AssertNotCalled(t, "ApplySettlementDiscount", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncTriggersSweep(t *testing.T) {
	sweep := new(MockSweepService)
	router := newCollectionsRouter(new(MockBatchService), sweep)

	sweep.On("SyncPendingCollections", mock.Anything, "ops-user").Return(&models.SweepResponse{
		Checked: 5,
		Updated: 2,
	}, nil)

	req, _ := http.NewRequest(http.MethodPost, "/api/collections/sync", nil)
	req.Header.Set(consts.ActorHeader, "ops-user")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"checked":5`)
	sweep.AssertExpectations(t)
}

func TestSyncUnauthorizedActor(t *testing.T) {
	sweep := new(MockSweepService)
	router := newCollectionsRouter(new(MockBatchService), sweep)

	sweep.On("SyncPendingCollections", mock.Anything, "").Return(nil, models.ErrUnauthorized)

	req, _ := http.NewRequest(http.MethodPost, "/api/collections/sync", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
