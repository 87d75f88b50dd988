// Package reconciliation applies normalized provider events to the
// local mirror and ledger. Processing one event is atomic: the status
// move, the installment payment, the audit trail and the idempotency
// record commit together or not at all.
package reconciliation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"collectionsync/internal/pkg/consts"
	"collectionsync/internal/pkg/logger"
	"collectionsync/internal/pkg/models"
	storemodels "collectionsync/internal/pkg/store/models"
	"collectionsync/internal/service/interfaces"
	"collectionsync/internal/service/statemachine"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type Engine struct {
	collections  interfaces.CollectionsRepoInterface
	installments interfaces.InstallmentsRepoInterface
	auditRepo    interfaces.AuditRepoInterface
	processed    interfaces.ProcessedEventsRepoInterface
	parked       interfaces.ParkedEventsRepoInterface
	dedupCache   interfaces.DedupCacheInterface
	txnRunner    interfaces.TxnRunnerInterface
	parkedTopic  interfaces.KafkaPublisherInterface
	notifier     interfaces.PubSubPublisherInterface
	dedupTTL     time.Duration

	mu    sync.Mutex
	locks map[string]*keyedLock
}

// keyedLock is a per-collection mutex with a waiter count so unused
// entries can be dropped from the map instead of accumulating forever.
type keyedLock struct {
	mu   sync.Mutex
	refs int
}

type EngineDeps struct {
	Collections  interfaces.CollectionsRepoInterface
	Installments interfaces.InstallmentsRepoInterface
	AuditRepo    interfaces.AuditRepoInterface
	Processed    interfaces.ProcessedEventsRepoInterface
	Parked       interfaces.ParkedEventsRepoInterface
	DedupCache   interfaces.DedupCacheInterface
	TxnRunner    interfaces.TxnRunnerInterface
	ParkedTopic  interfaces.KafkaPublisherInterface
	Notifier     interfaces.PubSubPublisherInterface
	DedupTTL     time.Duration
}

func NewEngine(deps EngineDeps) *Engine {
	if deps.DedupTTL <= 0 {
		deps.DedupTTL = 72 * time.Hour
	}
	return &Engine{
		collections:  deps.Collections,
		installments: deps.Installments,
		auditRepo:    deps.AuditRepo,
		processed:    deps.Processed,
		parked:       deps.Parked,
		dedupCache:   deps.DedupCache,
		txnRunner:    deps.TxnRunner,
		parkedTopic:  deps.ParkedTopic,
		notifier:     deps.Notifier,
		dedupTTL:     deps.DedupTTL,
	}
}

// lockFor serializes processing per provider collection so two
// deliveries for the same instrument never interleave. The entry stays
// in the map only while a caller holds or waits on it.
func (e *Engine) lockFor(externalID string) *keyedLock {
	e.mu.Lock()
	if e.locks == nil {
		e.locks = make(map[string]*keyedLock)
	}
	l, ok := e.locks[externalID]
	if !ok {
		l = &keyedLock{}
		e.locks[externalID] = l
	}
	l.refs++
	e.mu.Unlock()

	l.mu.Lock()
	return l
}

func (e *Engine) unlockFor(externalID string, l *keyedLock) {
	l.mu.Unlock()
	e.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(e.locks, externalID)
	}
	e.mu.Unlock()
}

// Process reconciles one event. It only returns an error for
// infrastructure failures; business rejections (duplicate, stale,
// orphan, illegal transition) come back as outcomes so the webhook can
// acknowledge the delivery.
func (e *Engine) Process(ctx context.Context, event *models.ReconciliationEvent) (*models.ReconciliationOutcome, error) {
	// fast path before taking the lock
	if hit, err := e.dedupCache.IsProcessed(ctx, event.EventID); err != nil {
		logger.CtxWarn(ctx, "Dedup cache lookup failed, falling back to store",
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()))
	} else if hit {
		if outcome, err := e.replayOutcome(ctx, event.EventID); err == nil {
			return outcome, nil
		}
	}

	lock := e.lockFor(event.ExternalID)
	defer e.unlockFor(event.ExternalID, lock)

	// authoritative dedup check under the lock
	prior, err := e.processed.FindByEventID(ctx, event.EventID)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		e.cacheProcessed(ctx, event.EventID)
		return outcomeFromRecord(prior), nil
	}

	collection, err := e.collections.FindActiveByExternalID(ctx, event.ExternalID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return e.park(ctx, event, consts.ParkReasonOrphan, "")
		}
		return nil, err
	}

	if err := statemachine.Validate(collection.Status, event.NewStatus, event.OccurredAt, collection.LastEventAt); err != nil {
		var stale *models.StaleEventError
		if errors.As(err, &stale) {
			return e.reject(ctx, event, models.ResultStale)
		}
		var illegal *models.IllegalTransitionError
		if errors.As(err, &illegal) {
			return e.park(ctx, event, consts.ParkReasonIllegalTransition, string(collection.Status))
		}
		return nil, err
	}

	if collection.Status == event.NewStatus {
		// a further RECEIVED event is a new partial payment while the
		// installment is still open, not a redelivery
		if event.NewStatus == consts.CollectionReceived {
			installment, err := e.installments.FindByProposalAndNumber(ctx, collection.ProposalID, collection.InstallmentNumber)
			if err != nil {
				return nil, err
			}
			if installment.Status != consts.InstallmentPaid {
				return e.apply(ctx, event, collection)
			}
		}
		return e.reject(ctx, event, models.ResultDuplicate)
	}

	return e.apply(ctx, event, collection)
}

// apply commits the transition, the ledger write and the idempotency
// record in one transaction, then emits the post-commit notification.
func (e *Engine) apply(ctx context.Context, event *models.ReconciliationEvent, collection *storemodels.Collection) (*models.ReconciliationOutcome, error) {
	var settled bool

	err := e.txnRunner.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.collections.UpdateStatus(txCtx, event.ExternalID, event.NewStatus, event.OccurredAt); err != nil {
			return err
		}

		if err := e.auditRepo.Insert(txCtx, &storemodels.AuditRecord{
			EntityType: consts.EntityCollection,
			EntityID:   event.ExternalID,
			Action:     consts.ActionStatusTransition,
			BeforeSnapshot: bson.M{
				"status":      collection.Status,
				"lastEventAt": collection.LastEventAt,
			},
			AfterSnapshot: bson.M{
				"status":      event.NewStatus,
				"lastEventAt": event.OccurredAt,
			},
			Actor: consts.ActorSystem,
		}); err != nil {
			return err
		}

		if event.NewStatus == consts.CollectionReceived {
			var err error
			settled, err = e.recordPayment(txCtx, event, collection)
			if err != nil {
				return err
			}
		}

		return e.processed.Insert(txCtx, &storemodels.ProcessedEvent{
			EventID:    event.EventID,
			ExternalID: event.ExternalID,
			Result:     string(models.ResultApplied),
			NewStatus:  string(event.NewStatus),
			Paid:       settled,
		})
	})
	if err != nil {
		logger.CtxError(ctx, "Reconciliation transaction failed", err,
			slog.String("event_id", event.EventID),
			slog.String("external_id", event.ExternalID))
		return nil, err
	}

	e.cacheProcessed(ctx, event.EventID)

	logger.CtxInfo(ctx, "Reconciliation applied",
		slog.String("event_id", event.EventID),
		slog.String("external_id", event.ExternalID),
		slog.String("from", string(collection.Status)),
		slog.String("to", string(event.NewStatus)),
		slog.Bool("installment_settled", settled))

	if settled {
		e.notifyPayment(ctx, event, collection)
	}

	return &models.ReconciliationOutcome{
		EventID:         event.EventID,
		Result:          models.ResultApplied,
		ExternalID:      event.ExternalID,
		NewStatus:       string(event.NewStatus),
		InstallmentPaid: settled,
	}, nil
}

// recordPayment applies the paid amount to the ledger installment.
// Partial payments accumulate; the installment is only closed once the
// running total covers the amount due. A payment event without an
// amount is taken to settle the full nominal value.
func (e *Engine) recordPayment(ctx context.Context, event *models.ReconciliationEvent, collection *storemodels.Collection) (bool, error) {
	installment, err := e.installments.FindByProposalAndNumber(ctx, collection.ProposalID, collection.InstallmentNumber)
	if err != nil {
		return false, err
	}

	amount := event.AmountPaidCents
	if amount == 0 {
		amount = collection.NominalAmountCents
	}

	settled := installment.AmountPaidCents+amount >= installment.AmountDueCents
	if err := e.installments.RecordPayment(ctx, collection.ProposalID, collection.InstallmentNumber, amount, event.PaidAt, settled); err != nil {
		return false, err
	}

	action := consts.ActionPartialPayment
	if settled {
		action = consts.ActionInstallmentPaid
	}
	return settled, e.auditRepo.Insert(ctx, &storemodels.AuditRecord{
		EntityType: consts.EntityInstallment,
		EntityID:   collection.ProposalID,
		Action:     action,
		BeforeSnapshot: bson.M{
			"number":          installment.Number,
			"status":          installment.Status,
			"amountPaidCents": installment.AmountPaidCents,
		},
		AfterSnapshot: bson.M{
			"number":          installment.Number,
			"amountPaidCents": installment.AmountPaidCents + amount,
			"settled":         settled,
		},
		Actor: consts.ActorSystem,
	})
}

// reject records a non-applied terminal outcome (stale or duplicate)
// so replays of the same delivery answer identically.
func (e *Engine) reject(ctx context.Context, event *models.ReconciliationEvent, result models.ReconciliationResult) (*models.ReconciliationOutcome, error) {
	if err := e.processed.Insert(ctx, &storemodels.ProcessedEvent{
		EventID:    event.EventID,
		ExternalID: event.ExternalID,
		Result:     string(result),
	}); err != nil {
		return nil, err
	}
	e.cacheProcessed(ctx, event.EventID)

	logger.CtxInfo(ctx, "Reconciliation event discarded",
		slog.String("event_id", event.EventID),
		slog.String("external_id", event.ExternalID),
		slog.String("result", string(result)))

	return &models.ReconciliationOutcome{
		EventID:    event.EventID,
		Result:     result,
		ExternalID: event.ExternalID,
	}, nil
}

// park stores the event for manual review and announces it on the
// review topic. Parked events are acknowledged to the provider.
func (e *Engine) park(ctx context.Context, event *models.ReconciliationEvent, reason, currentStatus string) (*models.ReconciliationOutcome, error) {
	result := models.ResultOrphan
	if reason == consts.ParkReasonIllegalTransition {
		result = models.ResultIllegalTransition
	}

	err := e.txnRunner.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.parked.Insert(txCtx, &storemodels.ParkedEvent{
			EventID:    event.EventID,
			ExternalID: event.ExternalID,
			Reason:     reason,
			Status:     string(event.NewStatus),
			OccurredAt: event.OccurredAt,
			Payload: bson.M{
				"amountPaidCents": event.AmountPaidCents,
				"receivedVia":     event.ReceivedVia,
				"currentStatus":   currentStatus,
			},
		}); err != nil {
			return err
		}
		return e.processed.Insert(txCtx, &storemodels.ProcessedEvent{
			EventID:    event.EventID,
			ExternalID: event.ExternalID,
			Result:     string(result),
		})
	})
	if err != nil {
		return nil, err
	}

	e.cacheProcessed(ctx, event.EventID)

	if err := e.parkedTopic.Publish(ctx, event.ExternalID, models.ParkedEventMessage{
		EventID:    event.EventID,
		ExternalID: event.ExternalID,
		Reason:     reason,
		Status:     string(event.NewStatus),
		OccurredAt: event.OccurredAt,
		ParkedAt:   time.Now().UTC(),
	}); err != nil {
		// the durable parked row is already committed
		logger.CtxError(ctx, "Failed to publish parked event", err,
			slog.String("event_id", event.EventID))
	}

	return &models.ReconciliationOutcome{
		EventID:    event.EventID,
		Result:     result,
		ExternalID: event.ExternalID,
	}, nil
}

func (e *Engine) replayOutcome(ctx context.Context, eventID string) (*models.ReconciliationOutcome, error) {
	prior, err := e.processed.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if prior == nil {
		// cache said yes but the store disagrees; trust the store
		logger.CtxWarn(ctx, "Dedup cache hit without a processed record",
			slog.String("event_id", eventID))
		return nil, mongo.ErrNoDocuments
	}
	return outcomeFromRecord(prior), nil
}

func outcomeFromRecord(record *storemodels.ProcessedEvent) *models.ReconciliationOutcome {
	return &models.ReconciliationOutcome{
		EventID:         record.EventID,
		Result:          models.ResultDuplicate,
		ExternalID:      record.ExternalID,
		NewStatus:       record.NewStatus,
		InstallmentPaid: record.Paid,
	}
}

func (e *Engine) cacheProcessed(ctx context.Context, eventID string) {
	if err := e.dedupCache.MarkProcessed(ctx, eventID, e.dedupTTL); err != nil {
		logger.CtxWarn(ctx, "Failed to cache processed event",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()))
	}
}

func (e *Engine) notifyPayment(ctx context.Context, event *models.ReconciliationEvent, collection *storemodels.Collection) {
	amount := event.AmountPaidCents
	if amount == 0 {
		amount = collection.NominalAmountCents
	}

	if _, err := e.notifier.PublishMessage(ctx, models.PaymentNotification{
		ProposalID:        collection.ProposalID,
		InstallmentNumber: collection.InstallmentNumber,
		ExternalID:        event.ExternalID,
		AmountPaidCents:   amount,
		PaidAt:            event.PaidAt,
		ReceivedVia:       event.ReceivedVia,
	}); err != nil {
		logger.CtxError(ctx, "Failed to publish payment notification", err,
			slog.String("external_id", event.ExternalID))
	}
}
