package interfaces

import (
	"context"

	"collectionsync/internal/pkg/models"
)

// BatchServiceInterface exposes the operator-facing bulk mutations and
// the proposal debt summary to the HTTP layer.
type BatchServiceInterface interface {
	ExtendDueDates(ctx context.Context, actor string, req *models.ExtendDueDatesRequest) (*models.ExtendDueDatesResponse, error)
	ApplySettlementDiscount(ctx context.Context, actor string, req *models.SettlementDiscountRequest) (*models.SettlementDiscountResponse, error)
	GetDebtSummary(ctx context.Context, proposalID string) (*models.DebtSummary, error)
}

// SweepServiceInterface triggers the provider status poll for
// collections still awaiting settlement.
type SweepServiceInterface interface {
	SyncPendingCollections(ctx context.Context, actor string) (*models.SweepResponse, error)
}
