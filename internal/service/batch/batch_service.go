// Package batch implements the operator-facing bulk mutations: due
// date extensions, settlement discounts and the proposal debt summary.
// The provider is the system of record for every instrument, so each
// mutation goes remote-first and only then touches the local mirror.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"collectionsync/internal/pkg/consts"
	"collectionsync/internal/pkg/downstreams"
	"collectionsync/internal/pkg/logger"
	"collectionsync/internal/pkg/models"
	storemodels "collectionsync/internal/pkg/store/models"
	"collectionsync/internal/pkg/utils/worker"
	"collectionsync/internal/service/interfaces"
	"collectionsync/internal/service/statemachine"
	"collectionsync/utils"

	"go.mongodb.org/mongo-driver/bson"
)

const dueDateLayout = "2006-01-02"

type Service struct {
	collections   interfaces.CollectionsRepoInterface
	installments  interfaces.InstallmentsRepoInterface
	auditRepo     interfaces.AuditRepoInterface
	provider      interfaces.ProviderClientInterface
	accessControl interfaces.AccessControlInterface
	docPipeline   interfaces.DocumentPipelineInterface
	docArchive    interfaces.DocumentArchiveInterface
	txnRunner     interfaces.TxnRunnerInterface
	pool          *worker.WorkerPool

	maxDiscountPercent int
}

type ServiceDeps struct {
	Collections   interfaces.CollectionsRepoInterface
	Installments  interfaces.InstallmentsRepoInterface
	AuditRepo     interfaces.AuditRepoInterface
	Provider      interfaces.ProviderClientInterface
	AccessControl interfaces.AccessControlInterface
	DocPipeline   interfaces.DocumentPipelineInterface
	DocArchive    interfaces.DocumentArchiveInterface
	TxnRunner     interfaces.TxnRunnerInterface
	WorkerCount   int
	MaxDiscount   int
}

func NewService(deps ServiceDeps) *Service {
	if deps.MaxDiscount <= 0 || deps.MaxDiscount > 100 {
		deps.MaxDiscount = 50
	}
	return &Service{
		collections:        deps.Collections,
		installments:       deps.Installments,
		auditRepo:          deps.AuditRepo,
		provider:           deps.Provider,
		accessControl:      deps.AccessControl,
		docPipeline:        deps.DocPipeline,
		docArchive:         deps.DocArchive,
		txnRunner:          deps.TxnRunner,
		pool:               worker.NewWorkerPool(deps.WorkerCount),
		maxDiscountPercent: deps.MaxDiscount,
	}
}

func (s *Service) Stop() {
	s.pool.Stop()
}

func (s *Service) authorize(ctx context.Context, actor, operation string) error {
	allowed, err := s.accessControl.Authorize(ctx, actor, operation)
	if err != nil {
		return fmt.Errorf("authorization check failed: %w", err)
	}
	if !allowed {
		logger.CtxWarn(ctx, "Operation denied",
			slog.String("actor", actor),
			slog.String("operation", operation))
		return models.ErrUnauthorized
	}
	return nil
}

// ExtendDueDates moves the due date of each given collection at the
// provider, then mirrors the change locally. Items fail independently;
// the response reports both lists.
func (s *Service) ExtendDueDates(ctx context.Context, actor string, req *models.ExtendDueDatesRequest) (*models.ExtendDueDatesResponse, error) {
	if err := s.authorize(ctx, actor, consts.OperationExtendDueDates); err != nil {
		return nil, err
	}

	newDueDate, err := time.Parse(dueDateLayout, req.NewDueDate)
	if err != nil {
		return nil, fmt.Errorf("invalid new_due_date %q: %w", req.NewDueDate, err)
	}

	resp := &models.ExtendDueDatesResponse{
		Succeeded: []string{},
		Failed:    []models.FailedItem{},
	}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, externalID := range req.ExternalIDs {
		externalID := externalID
		wg.Add(1)
		s.pool.Submit(func() {
			defer wg.Done()

			if err := s.extendOne(ctx, actor, externalID, newDueDate); err != nil {
				mu.Lock()
				resp.Failed = append(resp.Failed, models.FailedItem{ID: externalID, Reason: err.Error()})
				mu.Unlock()
				return
			}
			mu.Lock()
			resp.Succeeded = append(resp.Succeeded, externalID)
			mu.Unlock()
		})
	}
	wg.Wait()

	logger.CtxInfo(ctx, "Due date extension batch finished",
		slog.String("actor", actor),
		slog.Int("succeeded", len(resp.Succeeded)),
		slog.Int("failed", len(resp.Failed)))
	return resp, nil
}

func (s *Service) extendOne(ctx context.Context, actor, externalID string, newDueDate time.Time) error {
	collection, err := s.collections.FindActiveByExternalID(ctx, externalID)
	if err != nil {
		return fmt.Errorf("collection not found")
	}
	if statemachine.IsTerminal(collection.Status) {
		return fmt.Errorf("collection is %s and cannot be extended", collection.Status)
	}
	if !newDueDate.After(collection.DueDate) {
		return fmt.Errorf("new due date %s does not extend current %s",
			newDueDate.Format(dueDateLayout), collection.DueDate.Format(dueDateLayout))
	}

	// remote first; the mirror only moves if the provider accepted
	if _, err := s.provider.ExtendDueDate(ctx, externalID, newDueDate.Format(dueDateLayout)); err != nil {
		return err
	}

	return s.txnRunner.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.collections.UpdateDueDate(txCtx, externalID, newDueDate); err != nil {
			return err
		}
		return s.auditRepo.Insert(txCtx, &storemodels.AuditRecord{
			EntityType:     consts.EntityCollection,
			EntityID:       externalID,
			Action:         consts.ActionDueDateExtended,
			BeforeSnapshot: bson.M{"dueDate": collection.DueDate},
			AfterSnapshot:  bson.M{"dueDate": newDueDate},
			Actor:          actor,
		})
	})
}

// ApplySettlementDiscount restructures a proposal's outstanding debt:
// every unpaid instrument is canceled and a fresh plan is issued for
// the discounted balance.
func (s *Service) ApplySettlementDiscount(ctx context.Context, actor string, req *models.SettlementDiscountRequest) (*models.SettlementDiscountResponse, error) {
	if err := s.authorize(ctx, actor, consts.OperationSettlementDiscount); err != nil {
		return nil, err
	}

	unpaid, err := s.installments.FindActiveUnpaidByProposal(ctx, req.ProposalID)
	if err != nil {
		return nil, err
	}
	if len(unpaid) == 0 {
		return nil, fmt.Errorf("proposal %s has no outstanding installments", req.ProposalID)
	}

	var remaining int64
	maxNumber := 0
	for _, inst := range unpaid {
		remaining += inst.AmountDueCents - inst.AmountPaidCents
		if inst.Number > maxNumber {
			maxNumber = inst.Number
		}
	}

	maxDiscount := utils.MaxDiscountCents(remaining, s.maxDiscountPercent)
	if req.DiscountCents > maxDiscount {
		return nil, fmt.Errorf("discount %d exceeds the allowed maximum %d (%d%% of %d outstanding)",
			req.DiscountCents, maxDiscount, s.maxDiscountPercent, remaining)
	}

	newTotal := remaining - req.DiscountCents
	plan, err := normalizePlan(req.NewPlan, newTotal)
	if err != nil {
		return nil, err
	}

	canceled, err := s.cancelOutstanding(ctx, actor, req.ProposalID, unpaid)
	if err != nil {
		return nil, err
	}

	issued, err := s.issuePlan(ctx, actor, req.ProposalID, maxNumber, plan)
	if err != nil {
		return nil, err
	}

	if err := s.auditRepo.Insert(ctx, &storemodels.AuditRecord{
		EntityType: consts.EntityProposal,
		EntityID:   req.ProposalID,
		Action:     consts.ActionSettlementDiscount,
		BeforeSnapshot: bson.M{
			"outstandingCents": remaining,
			"installments":     len(unpaid),
		},
		AfterSnapshot: bson.M{
			"discountCents": req.DiscountCents,
			"newTotalCents": newTotal,
			"installments":  len(plan),
		},
		Actor: actor,
	}); err != nil {
		logger.CtxError(ctx, "Failed to audit settlement discount", err,
			slog.String("proposal_id", req.ProposalID))
	}

	return &models.SettlementDiscountResponse{
		ProposalID:            req.ProposalID,
		RemainingBalanceCents: remaining,
		DiscountCents:         req.DiscountCents,
		NewTotalCents:         newTotal,
		CanceledCollections:   canceled,
		IssuedCollections:     issued,
	}, nil
}

// normalizePlan validates that the plan covers the discounted total.
// Rounding drift of at most one cent over the whole plan is absorbed by
// the last installment; anything larger is rejected.
func normalizePlan(entries []models.PlanEntry, newTotal int64) ([]models.PlanEntry, error) {
	var sum int64
	for _, e := range entries {
		if _, err := time.Parse(dueDateLayout, e.DueDate); err != nil {
			return nil, fmt.Errorf("invalid plan due date %q: %w", e.DueDate, err)
		}
		sum += e.AmountCents
	}

	drift := newTotal - sum
	if drift == 0 {
		return entries, nil
	}
	if drift < -1 || drift > 1 {
		return nil, fmt.Errorf("plan total %d does not match discounted balance %d", sum, newTotal)
	}

	adjusted := make([]models.PlanEntry, len(entries))
	copy(adjusted, entries)
	adjusted[len(adjusted)-1].AmountCents += drift
	if adjusted[len(adjusted)-1].AmountCents <= 0 {
		return nil, fmt.Errorf("plan total %d does not match discounted balance %d", sum, newTotal)
	}
	return adjusted, nil
}

func (s *Service) cancelOutstanding(ctx context.Context, actor, proposalID string, unpaid []storemodels.Installment) ([]string, error) {
	collections, err := s.collections.FindActiveByProposalID(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	byNumber := make(map[int]*storemodels.Collection, len(collections))
	for i := range collections {
		if !statemachine.IsTerminal(collections[i].Status) {
			byNumber[collections[i].InstallmentNumber] = &collections[i]
		}
	}

	canceled := make([]string, 0, len(unpaid))
	for _, inst := range unpaid {
		collection, ok := byNumber[inst.Number]
		if !ok {
			continue
		}

		if err := s.provider.CancelCollection(ctx, collection.ExternalID, "settlement discount"); err != nil {
			return nil, fmt.Errorf("canceling collection %s: %w", collection.ExternalID, err)
		}

		inst := inst
		err := s.txnRunner.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := s.collections.UpdateStatus(txCtx, collection.ExternalID, consts.CollectionCanceled, time.Now().UTC()); err != nil {
				return err
			}
			if err := s.collections.Deactivate(txCtx, collection.ExternalID); err != nil {
				return err
			}
			if err := s.installments.MarkCanceled(txCtx, proposalID, inst.Number); err != nil {
				return err
			}
			return s.auditRepo.Insert(txCtx, &storemodels.AuditRecord{
				EntityType:     consts.EntityCollection,
				EntityID:       collection.ExternalID,
				Action:         consts.ActionCollectionCanceled,
				BeforeSnapshot: bson.M{"status": collection.Status},
				AfterSnapshot:  bson.M{"status": consts.CollectionCanceled},
				Actor:          actor,
			})
		})
		if err != nil {
			return nil, err
		}
		canceled = append(canceled, collection.ExternalID)
	}
	return canceled, nil
}

// issuePlan creates the replacement installments and instruments. If
// the provider rejects one issuance mid-plan, the already issued
// replacements are canceled again before the error is returned.
func (s *Service) issuePlan(ctx context.Context, actor, proposalID string, maxNumber int, plan []models.PlanEntry) ([]string, error) {
	issued := make([]string, 0, len(plan))

	for i, entry := range plan {
		number := maxNumber + i + 1
		dueDate, _ := time.Parse(dueDateLayout, entry.DueDate)
		ourRef := utils.FormatCollectionReference(proposalID, number)

		resp, err := s.provider.IssueCollection(ctx, downstreams.IssueCollectionRequest{
			OurReference: ourRef,
			AmountCents:  entry.AmountCents,
			DueDate:      entry.DueDate,
		})
		if err != nil {
			s.compensateIssued(ctx, issued)
			return nil, fmt.Errorf("issuing replacement %s: %w", ourRef, err)
		}

		installment := &storemodels.Installment{
			ProposalID:     proposalID,
			Number:         number,
			AmountDueCents: entry.AmountCents,
			DueDate:        dueDate,
			Status:         consts.InstallmentPending,
		}
		collection := &storemodels.Collection{
			ExternalID:         resp.ExternalID,
			OurReference:       ourRef,
			ProposalID:         proposalID,
			InstallmentNumber:  number,
			TotalInstallments:  len(plan),
			NominalAmountCents: entry.AmountCents,
			DueDate:            dueDate,
			Status:             consts.CollectionIssued,
			IsActive:           true,
		}

		err = s.txnRunner.WithTransaction(ctx, func(txCtx context.Context) error {
			if _, err := s.installments.Create(txCtx, installment); err != nil {
				return err
			}
			if _, err := s.collections.Create(txCtx, collection); err != nil {
				return err
			}
			return s.auditRepo.Insert(txCtx, &storemodels.AuditRecord{
				EntityType: consts.EntityCollection,
				EntityID:   resp.ExternalID,
				Action:     consts.ActionCollectionIssued,
				AfterSnapshot: bson.M{
					"ourReference": ourRef,
					"amountCents":  entry.AmountCents,
					"dueDate":      entry.DueDate,
				},
				Actor: actor,
			})
		})
		if err != nil {
			s.compensateIssued(ctx, issued)
			return nil, err
		}

		issued = append(issued, resp.ExternalID)
		s.archiveDocument(ctx, proposalID, resp.ExternalID, installment)
	}
	return issued, nil
}

// compensateIssued unwinds provider-side issuances after a mid-plan
// failure. Local rows for these ids were never committed.
func (s *Service) compensateIssued(ctx context.Context, issued []string) {
	for _, externalID := range issued {
		if err := s.provider.CancelCollection(ctx, externalID, "settlement rollback"); err != nil {
			logger.CtxError(ctx, "Failed to roll back issued collection", err,
				slog.String("external_id", externalID))
		}
	}
}

// archiveDocument stores the printable instrument in object storage.
// Document capture is best effort and never fails the issuance.
func (s *Service) archiveDocument(ctx context.Context, proposalID, externalID string, installment *storemodels.Installment) {
	doc, err := s.provider.DownloadDocument(ctx, externalID)
	if err != nil {
		logger.CtxWarn(ctx, "Provider document unavailable, generating locally",
			slog.String("external_id", externalID),
			slog.String("error", err.Error()))
		doc, err = s.docPipeline.GenerateCollectionDocument(ctx, installment)
		if err != nil {
			logger.CtxError(ctx, "Failed to generate collection document", err,
				slog.String("external_id", externalID))
			return
		}
	}

	if _, err := s.docArchive.Archive(ctx, proposalID, externalID, doc); err != nil {
		logger.CtxError(ctx, "Failed to archive collection document", err,
			slog.String("external_id", externalID))
	}
}

// GetDebtSummary aggregates the proposal's ledger position.
func (s *Service) GetDebtSummary(ctx context.Context, proposalID string) (*models.DebtSummary, error) {
	installments, err := s.installments.FindByProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if len(installments) == 0 {
		return nil, models.ErrCollectionNotFound
	}

	collections, err := s.collections.FindActiveByProposalID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	overdueByNumber := make(map[int]bool)
	for _, c := range collections {
		if c.Status == consts.CollectionOverdue {
			overdueByNumber[c.InstallmentNumber] = true
		}
	}

	summary := &models.DebtSummary{ProposalID: proposalID}

	for _, inst := range installments {
		switch inst.Status {
		case consts.InstallmentPaid:
			summary.PaidCount++
			summary.TotalPaidCents += inst.AmountPaidCents
		case consts.InstallmentCanceled:
			summary.CanceledCount++
		default:
			summary.PendingCount++
			summary.TotalDueCents += inst.AmountDueCents - inst.AmountPaidCents
			summary.TotalPaidCents += inst.AmountPaidCents
			if overdueByNumber[inst.Number] {
				summary.OverdueCount++
			}
			if summary.NextDueDate == nil || inst.DueDate.Before(*summary.NextDueDate) {
				due := inst.DueDate
				summary.NextDueDate = &due
			}
		}
	}
	return summary, nil
}
