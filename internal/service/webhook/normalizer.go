package webhook

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"collectionsync/internal/pkg/consts"
	"collectionsync/internal/pkg/models"
	"collectionsync/internal/service/statemachine"
)

// eventStatusMap resolves named event types the provider sends instead
// of a bare status field.
var eventStatusMap = map[string]consts.CollectionStatus{
	consts.EventCollectionPaid:      consts.CollectionReceived,
	consts.EventPaymentConfirmed:    consts.CollectionReceived,
	consts.EventCollectionCancelled: consts.CollectionCanceled,
	consts.EventCollectionOverdue:   consts.CollectionOverdue,
}

// Normalize turns one raw webhook payload into a ReconciliationEvent.
// The event id is deterministic over (externalId, status, occurredAt)
// so redeliveries of the same provider event always collide in the
// processed-events set.
func Normalize(payload *models.ProviderWebhookPayload) (*models.ReconciliationEvent, error) {
	status, err := resolveStatus(payload)
	if err != nil {
		return nil, err
	}

	occurredAt, err := parseProviderTime(payload.OccurredAt)
	if err != nil {
		return nil, fmt.Errorf("invalid occurredAt %q: %w", payload.OccurredAt, err)
	}

	event := &models.ReconciliationEvent{
		EventID:     deriveEventID(payload.ExternalID, status, occurredAt),
		ExternalID:  payload.ExternalID,
		NewStatus:   status,
		ReceivedVia: payload.PaymentRail,
		OccurredAt:  occurredAt,
	}

	if status == consts.CollectionReceived {
		event.AmountPaidCents = toCents(payload.AmountPaid)

		if payload.PaidAt != "" {
			paidAt, err := parseProviderTime(payload.PaidAt)
			if err != nil {
				return nil, fmt.Errorf("invalid paidAt %q: %w", payload.PaidAt, err)
			}
			event.PaidAt = paidAt
		} else {
			event.PaidAt = occurredAt
		}
	}

	return event, nil
}

func resolveStatus(payload *models.ProviderWebhookPayload) (consts.CollectionStatus, error) {
	if payload.Event != "" {
		if status, ok := eventStatusMap[payload.Event]; ok {
			return status, nil
		}
		return "", fmt.Errorf("unknown event type %q", payload.Event)
	}
	if payload.Status == "" {
		return "", fmt.Errorf("payload carries neither event nor status")
	}
	status, ok := statemachine.FromProviderStatus(payload.Status)
	if !ok {
		return "", fmt.Errorf("unknown provider status %q", payload.Status)
	}
	return status, nil
}

// parseProviderTime accepts RFC 3339 with or without sub-second digits,
// and the provider's date-only form for due-date driven events.
func parseProviderTime(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format")
}

// toCents converts the provider's decimal amount to integer cents,
// rounding half away from zero.
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func deriveEventID(externalID string, status consts.CollectionStatus, occurredAt time.Time) string {
	sum := sha256.Sum256([]byte(
		externalID + "|" + string(status) + "|" + occurredAt.UTC().Format(time.RFC3339Nano),
	))
	return hex.EncodeToString(sum[:])
}
