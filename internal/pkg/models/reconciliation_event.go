package models

import (
	"time"

	"collectionsync/internal/pkg/consts"
)

// ProviderWebhookPayload is the raw, loosely shaped body the banking
// provider delivers. Different event types populate different subsets;
// normalization into a ReconciliationEvent happens at the boundary.
type ProviderWebhookPayload struct {
	Event       string  `json:"event,omitempty"`
	ExternalID  string  `json:"externalId" binding:"required"`
	Status      string  `json:"status,omitempty"`
	OccurredAt  string  `json:"occurredAt" binding:"required"`
	AmountPaid  float64 `json:"amountPaid,omitempty"`
	PaidAt      string  `json:"paidAt,omitempty"`
	PaymentRail string  `json:"paymentRail,omitempty"`
}

// ReconciliationEvent is the normalized, idempotent unit of work derived
// from one webhook delivery.
type ReconciliationEvent struct {
	EventID         string
	ExternalID      string
	NewStatus       consts.CollectionStatus
	AmountPaidCents int64
	PaidAt          time.Time
	ReceivedVia     string
	OccurredAt      time.Time
}

// ReconciliationResult classifies what the engine did with an event.
type ReconciliationResult string

const (
	ResultApplied           ReconciliationResult = "applied"
	ResultDuplicate         ReconciliationResult = "duplicate"
	ResultStale             ReconciliationResult = "stale"
	ResultIllegalTransition ReconciliationResult = "illegal_transition"
	ResultOrphan            ReconciliationResult = "orphan"
)

// ReconciliationOutcome is returned from the engine and recorded in the
// processed-events set so replays answer identically.
type ReconciliationOutcome struct {
	EventID         string               `json:"event_id"`
	Result          ReconciliationResult `json:"result"`
	ExternalID      string               `json:"external_id"`
	NewStatus       string               `json:"new_status,omitempty"`
	InstallmentPaid bool                 `json:"installment_paid,omitempty"`
}

// PaymentNotification is published to Pub/Sub after a reconciliation
// commits that closed an installment.
type PaymentNotification struct {
	ProposalID        string    `json:"proposal_id"`
	InstallmentNumber int       `json:"installment_number"`
	ExternalID        string    `json:"external_id"`
	AmountPaidCents   int64     `json:"amount_paid_cents"`
	PaidAt            time.Time `json:"paid_at"`
	ReceivedVia       string    `json:"received_via"`
}

// ParkedEventMessage is published to the manual-review Kafka topic when an
// event cannot be reconciled automatically.
type ParkedEventMessage struct {
	EventID    string    `json:"event_id"`
	ExternalID string    `json:"external_id"`
	Reason     string    `json:"reason"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
	ParkedAt   time.Time `json:"parked_at"`
}
