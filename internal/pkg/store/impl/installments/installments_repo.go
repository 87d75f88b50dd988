package installments

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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type InstallmentsRepository struct {
	repo *repository.MongoRepository[storemodels.Installment]
}

func NewInstallmentsRepository(client *mongodb.MongoClient) *InstallmentsRepository {
	collection := client.Database.Collection(consts.InstallmentsCollection)
	return &InstallmentsRepository{
		repo: repository.NewMongoRepository[storemodels.Installment](collection),
	}
}

func NewInstallmentsRepositoryWithInterface(raw interfaces.MongoRepositoryInterface) *InstallmentsRepository {
	return &InstallmentsRepository{
		repo: repository.NewMongoRepository[storemodels.Installment](raw),
	}
}

func (ir *InstallmentsRepository) Create(ctx context.Context, installment *storemodels.Installment) (primitive.ObjectID, error) {
	now := time.Now().UTC()
	installment.CreatedAt = now
	installment.UpdatedAt = now

	result, err := ir.repo.Create(ctx, installment)
	if err != nil {
		logger.CtxError(ctx, "Error inserting installment", err,
			slog.String("proposal_id", installment.ProposalID),
			slog.Int("installment_number", installment.Number))
		return primitive.NilObjectID, err
	}

	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("unexpected inserted id type")
	}
	installment.ID = id
	return id, nil
}

func (ir *InstallmentsRepository) FindByProposalAndNumber(ctx context.Context, proposalID string, number int) (*storemodels.Installment, error) {
	filter := bson.M{"proposalId": proposalID, "number": number}

	installment, err := ir.repo.FindOne(ctx, filter, options.FindOne())
	if err != nil {
		return nil, err
	}
	return &installment, nil
}

// FindActiveUnpaidByProposal returns unpaid installments ordered by
// number, the working set for due date extensions and settlement quotes.
func (ir *InstallmentsRepository) FindActiveUnpaidByProposal(ctx context.Context, proposalID string) ([]storemodels.Installment, error) {
	filter := bson.M{
		"proposalId": proposalID,
		"status":     consts.InstallmentPending,
	}

	opts := options.Find().SetSort(bson.M{"number": 1})
	installments, err := ir.repo.Find(ctx, filter, opts)
	if err != nil {
		logger.CtxError(ctx, "Error fetching unpaid installments", err,
			slog.String("proposal_id", proposalID))
		return nil, err
	}
	return installments, nil
}

func (ir *InstallmentsRepository) FindByProposal(ctx context.Context, proposalID string) ([]storemodels.Installment, error) {
	opts := options.Find().SetSort(bson.M{"number": 1})
	return ir.repo.Find(ctx, bson.M{"proposalId": proposalID}, opts)
}

// RecordPayment accumulates amountPaidCents and stamps the installment
// paid once the running total covers the amount due.
func (ir *InstallmentsRepository) RecordPayment(ctx context.Context, proposalID string, number int, amountPaidCents int64, paidAt time.Time, settled bool) error {
	filter := bson.M{"proposalId": proposalID, "number": number}

	update := bson.M{
		"$inc": bson.M{"amountPaidCents": amountPaidCents},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	if settled {
		update["$set"] = bson.M{
			"status":    consts.InstallmentPaid,
			"paidAt":    paidAt,
			"updatedAt": time.Now().UTC(),
		}
	}

	if err := ir.repo.UpdateOneRaw(ctx, filter, update); err != nil {
		logger.CtxError(ctx, "Error recording installment payment", err,
			slog.String("proposal_id", proposalID),
			slog.Int("installment_number", number))
		return err
	}

	logger.CtxInfo(ctx, "Installment payment recorded",
		slog.String("proposal_id", proposalID),
		slog.Int("installment_number", number),
		slog.Int64("amount_paid_cents", amountPaidCents),
		slog.Bool("settled", settled))
	return nil
}

func (ir *InstallmentsRepository) MarkCanceled(ctx context.Context, proposalID string, number int) error {
	filter := bson.M{"proposalId": proposalID, "number": number}
	update := bson.M{
		"status":    consts.InstallmentCanceled,
		"updatedAt": time.Now().UTC(),
	}
	return ir.repo.UpdateOne(ctx, filter, update)
}
