// Package sweep implements the fallback poll against the provider for
// collections whose webhooks may have been missed.
package sweep

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"collectionsync/internal/pkg/consts"
	"collectionsync/internal/pkg/downstreams"
	"collectionsync/internal/pkg/logger"
	"collectionsync/internal/pkg/models"
	"collectionsync/internal/service/interfaces"
	"collectionsync/internal/service/statemachine"
)

type Service struct {
	collections   interfaces.CollectionsRepoInterface
	provider      interfaces.ProviderClientInterface
	reconciler    interfaces.ReconcilerInterface
	accessControl interfaces.AccessControlInterface
	batchSize     int64
}

func NewService(
	collections interfaces.CollectionsRepoInterface,
	provider interfaces.ProviderClientInterface,
	reconciler interfaces.ReconcilerInterface,
	accessControl interfaces.AccessControlInterface,
	batchSize int,
) *Service {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Service{
		collections:   collections,
		provider:      provider,
		reconciler:    reconciler,
		accessControl: accessControl,
		batchSize:     int64(batchSize),
	}
}

// SyncPendingCollections asks the provider for the current status of
// every locally non-terminal collection and routes any change through
// the reconciliation engine, exactly as a webhook would have.
func (s *Service) SyncPendingCollections(ctx context.Context, actor string) (*models.SweepResponse, error) {
	allowed, err := s.accessControl.Authorize(ctx, actor, consts.OperationStatusSweep)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, models.ErrUnauthorized
	}

	pending, err := s.collections.FindPendingSettlement(ctx, s.batchSize)
	if err != nil {
		return nil, err
	}

	resp := &models.SweepResponse{Checked: len(pending)}

	for _, collection := range pending {
		detail, err := s.provider.GetCollection(ctx, collection.ExternalID)
		if err != nil {
			resp.Failed = append(resp.Failed, models.FailedItem{
				ID:     collection.ExternalID,
				Reason: err.Error(),
			})
			continue
		}

		status, ok := statemachine.FromProviderStatus(detail.Status)
		if !ok {
			resp.Failed = append(resp.Failed, models.FailedItem{
				ID:     collection.ExternalID,
				Reason: "unknown provider status " + detail.Status,
			})
			continue
		}
		if status == collection.Status {
			continue
		}

		event, err := s.eventFromDetail(collection.ExternalID, status, detail)
		if err != nil {
			resp.Failed = append(resp.Failed, models.FailedItem{
				ID:     collection.ExternalID,
				Reason: err.Error(),
			})
			continue
		}

		outcome, err := s.reconciler.Process(ctx, event)
		if err != nil {
			resp.Failed = append(resp.Failed, models.FailedItem{
				ID:     collection.ExternalID,
				Reason: err.Error(),
			})
			continue
		}
		if outcome.Result == models.ResultApplied {
			resp.Updated++
		}
	}

	logger.CtxInfo(ctx, "Status sweep finished",
		slog.String("actor", actor),
		slog.Int("checked", resp.Checked),
		slog.Int("updated", resp.Updated),
		slog.Int("failed", len(resp.Failed)))
	return resp, nil
}

// eventFromDetail synthesizes a reconciliation event from a polled
// status. The event id derivation matches the webhook path, so a late
// webhook for the same change dedups against the sweep and vice versa.
func (s *Service) eventFromDetail(externalID string, status consts.CollectionStatus, detail *downstreams.CollectionDetail) (*models.ReconciliationEvent, error) {
	occurredAt, err := parseChangeTime(detail.StatusChangedAt)
	if err != nil {
		return nil, err
	}

	event := &models.ReconciliationEvent{
		EventID:     deriveEventID(externalID, status, occurredAt),
		ExternalID:  externalID,
		NewStatus:   status,
		ReceivedVia: consts.RailSweep,
		OccurredAt:  occurredAt,
	}
	if status == consts.CollectionReceived {
		event.AmountPaidCents = detail.AmountReceived
		event.PaidAt = occurredAt
	}
	return event, nil
}

func parseChangeTime(value string) (time.Time, error) {
	if value == "" {
		return time.Now().UTC(), nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Now().UTC(), nil
}

func deriveEventID(externalID string, status consts.CollectionStatus, occurredAt time.Time) string {
	sum := sha256.Sum256([]byte(
		externalID + "|" + string(status) + "|" + occurredAt.UTC().Format(time.RFC3339Nano),
	))
	return hex.EncodeToString(sum[:])
}
