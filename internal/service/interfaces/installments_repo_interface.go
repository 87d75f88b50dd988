package interfaces

import (
	"context"
	"time"

	storemodels "collectionsync/internal/pkg/store/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InstallmentsRepoInterface is the persistence contract for the installment
// ledger.
type InstallmentsRepoInterface interface {
	Create(ctx context.Context, installment *storemodels.Installment) (primitive.ObjectID, error)
	FindByProposalAndNumber(ctx context.Context, proposalID string, number int) (*storemodels.Installment, error)
	FindActiveUnpaidByProposal(ctx context.Context, proposalID string) ([]storemodels.Installment, error)
	FindByProposal(ctx context.Context, proposalID string) ([]storemodels.Installment, error)
	RecordPayment(ctx context.Context, proposalID string, number int,
		amountPaidCents int64, paidAt time.Time, settled bool) error
	MarkCanceled(ctx context.Context, proposalID string, number int) error
}
