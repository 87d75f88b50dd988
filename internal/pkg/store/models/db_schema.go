package models

import (
	"time"

	"collectionsync/internal/pkg/consts"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection mirrors one externally issued payment instrument. Rows are
// append-only: supersession flips isActive and links the replacement via
// supersedes, nothing is ever physically deleted.
type Collection struct {
	ID                 primitive.ObjectID      `bson:"_id,omitempty"`
	ExternalID         string                  `bson:"externalId"`
	OurReference       string                  `bson:"ourReference"`
	ProposalID         string                  `bson:"proposalId"`
	InstallmentNumber  int                     `bson:"installmentNumber"`
	TotalInstallments  int                     `bson:"totalInstallments"`
	NominalAmountCents int64                   `bson:"nominalAmountCents"`
	DueDate            time.Time               `bson:"dueDate"`
	Status             consts.CollectionStatus `bson:"status"`
	PayerDocument      string                  `bson:"payerDocument"`
	LastEventAt        time.Time               `bson:"lastEventAt"`
	IsActive           bool                    `bson:"isActive"`
	Supersedes         primitive.ObjectID      `bson:"supersedes,omitempty"`
	DocumentPath       string                  `bson:"documentPath,omitempty"`
	CreatedAt          time.Time               `bson:"createdAt"`
	UpdatedAt          time.Time               `bson:"updatedAt"`
}

// Installment is the platform's authoritative ledger row for one repayment
// obligation. AmountPaidCents accumulates across partial payments.
type Installment struct {
	ID              primitive.ObjectID       `bson:"_id,omitempty"`
	ProposalID      string                   `bson:"proposalId"`
	Number          int                      `bson:"number"`
	AmountDueCents  int64                    `bson:"amountDueCents"`
	DueDate         time.Time                `bson:"dueDate"`
	Status          consts.InstallmentStatus `bson:"status"`
	PaidAt          *time.Time               `bson:"paidAt,omitempty"`
	AmountPaidCents int64                    `bson:"amountPaidCents"`
	CreatedAt       time.Time                `bson:"createdAt"`
	UpdatedAt       time.Time                `bson:"updatedAt"`
}

// AuditRecord is an immutable before/after log entry for every mutation.
type AuditRecord struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	EntityType     string             `bson:"entityType"`
	EntityID       string             `bson:"entityId"`
	Action         string             `bson:"action"`
	BeforeSnapshot bson.M             `bson:"beforeSnapshot,omitempty"`
	AfterSnapshot  bson.M             `bson:"afterSnapshot,omitempty"`
	Actor          string             `bson:"actor"`
	Timestamp      time.Time          `bson:"timestamp"`
}

// ProcessedEvent keys the idempotency set. The recorded outcome is returned
// verbatim when the provider redelivers the same event.
type ProcessedEvent struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	EventID    string             `bson:"eventId"`
	ExternalID string             `bson:"externalId"`
	Result     string             `bson:"result"`
	NewStatus  string             `bson:"newStatus,omitempty"`
	Paid       bool               `bson:"paid,omitempty"`
	RecordedAt time.Time          `bson:"recordedAt"`
}

// ParkedEvent holds events that could not be reconciled automatically
// (orphans, illegal transitions) for the manual-review sweep.
type ParkedEvent struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	EventID    string             `bson:"eventId"`
	ExternalID string             `bson:"externalId"`
	Reason     string             `bson:"reason"`
	Status     string             `bson:"status"`
	OccurredAt time.Time          `bson:"occurredAt"`
	Payload    bson.M             `bson:"payload,omitempty"`
	ParkedAt   time.Time          `bson:"parkedAt"`
	Resolved   bool               `bson:"resolved"`
}
