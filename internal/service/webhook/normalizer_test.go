package webhook

import (
	"testing"
	"time"

	"collectionsync/internal/pkg/consts"
	"collectionsync/internal/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStatusPayload(t *testing.T) {
	payload := &models.ProviderWebhookPayload{
		ExternalID:  "ext-1",
		Status:      "RECEBIDO",
		OccurredAt:  "2026-03-10T09:30:00Z",
		AmountPaid:  150.75,
		PaidAt:      "2026-03-10T09:29:58Z",
		PaymentRail: consts.RailPix,
	}

	event, err := Normalize(payload)
	require.NoError(t, err)

	assert.Equal(t, consts.CollectionReceived, event.NewStatus)
	assert.Equal(t, int64(15075), event.AmountPaidCents)
	assert.Equal(t, consts.RailPix, event.ReceivedVia)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 29, 58, 0, time.UTC), event.PaidAt)
	assert.NotEmpty(t, event.EventID)
}

func TestNormalizeNamedEventTypes(t *testing.T) {
	cases := []struct {
		event  string
		status consts.CollectionStatus
	}{
		{"collection.paid", consts.CollectionReceived},
		{"payment.confirmed", consts.CollectionReceived},
		{"collection.cancelled", consts.CollectionCanceled},
		{"collection.overdue", consts.CollectionOverdue},
	}

	for _, tc := range cases {
		t.Run(tc.event, func(t *testing.T) {
			payload := &models.ProviderWebhookPayload{
				Event:      tc.event,
				ExternalID: "ext-1",
				OccurredAt: "2026-03-10T09:30:00Z",
			}
			got, err := Normalize(payload)
			require.NoError(t, err)
			assert.Equal(t, tc.status, got.NewStatus)
		})
	}
}

func TestNormalizePaidAtDefaultsToOccurredAt(t *testing.T) {
	payload := &models.ProviderWebhookPayload{
		Event:      "collection.paid",
		ExternalID: "ext-1",
		OccurredAt: "2026-03-10T09:30:00Z",
		AmountPaid: 100,
	}

	event, err := Normalize(payload)
	require.NoError(t, err)
	assert.Equal(t, event.OccurredAt, event.PaidAt)
	assert.Equal(t, int64(10000), event.AmountPaidCents)
}

func TestNormalizeDateOnlyOccurredAt(t *testing.T) {
	payload := &models.ProviderWebhookPayload{
		Event:      "collection.overdue",
		ExternalID: "ext-1",
		OccurredAt: "2026-03-10",
	}

	event, err := Normalize(payload)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), event.OccurredAt)
}

func TestNormalizeRejectsUnknownInputs(t *testing.T) {
	t.Run("unknown event type", func(t *testing.T) {
		_, err := Normalize(&models.ProviderWebhookPayload{
			Event:      "collection.reopened",
			ExternalID: "ext-1",
			OccurredAt: "2026-03-10T09:30:00Z",
		})
		assert.Error(t, err)
	})

	t.Run("unknown provider status", func(t *testing.T) {
		_, err := Normalize(&models.ProviderWebhookPayload{
			ExternalID: "ext-1",
			Status:     "PENDENTE",
			OccurredAt: "2026-03-10T09:30:00Z",
		})
		assert.Error(t, err)
	})

	t.Run("missing both event and status", func(t *testing.T) {
		_, err := Normalize(&models.ProviderWebhookPayload{
			ExternalID: "ext-1",
			OccurredAt: "2026-03-10T09:30:00Z",
		})
		assert.Error(t, err)
	})

	t.Run("bad timestamp", func(t *testing.T) {
		_, err := Normalize(&models.ProviderWebhookPayload{
			ExternalID: "ext-1",
			Status:     "RECEBIDO",
			OccurredAt: "10/03/2026",
		})
		assert.Error(t, err)
	})
}

func TestDeriveEventIDIsDeterministic(t *testing.T) {
	mk := func() *models.ProviderWebhookPayload {
		return &models.ProviderWebhookPayload{
			ExternalID: "ext-1",
			Status:     "RECEBIDO",
			OccurredAt: "2026-03-10T09:30:00Z",
			AmountPaid: 100,
		}
	}

	first, err := Normalize(mk())
	require.NoError(t, err)
	second, err := Normalize(mk())
	require.NoError(t, err)
	assert.Equal(t, first.EventID, second.EventID)

	// different occurrence time means a different event
	other := mk()
	other.OccurredAt = "2026-03-10T09:31:00Z"
	third, err := Normalize(other)
	require.NoError(t, err)
	assert.NotEqual(t, first.EventID, third.EventID)
}

func TestToCentsRounding(t *testing.T) {
	assert.Equal(t, int64(10), toCents(0.1))
	assert.Equal(t, int64(15075), toCents(150.75))
	assert.Equal(t, int64(1), toCents(0.005))
	assert.Equal(t, int64(33), toCents(0.333))
}
