package models

import "time"

// ExtendDueDatesRequest asks the provider to move the due date of the given
// collections.
type ExtendDueDatesRequest struct {
	ExternalIDs []string `json:"external_ids" binding:"required,min=1"`
	NewDueDate  string   `json:"new_due_date" binding:"required,datetime=2006-01-02"`
}

// FailedItem reports one batch item that could not be mutated.
type FailedItem struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// ExtendDueDatesResponse is the structured partial-success report of a
// due-date extension batch.
type ExtendDueDatesResponse struct {
	Succeeded []string     `json:"succeeded"`
	Failed    []FailedItem `json:"failed"`
}

// PlanEntry is one installment of the post-discount repayment plan.
type PlanEntry struct {
	AmountCents int64  `json:"amount_cents" binding:"required,min=1"`
	DueDate     string `json:"due_date" binding:"required,datetime=2006-01-02"`
}

// SettlementDiscountRequest restructures a proposal's outstanding debt.
type SettlementDiscountRequest struct {
	ProposalID    string      `json:"proposal_id" binding:"required"`
	DiscountCents int64       `json:"discount_cents" binding:"required,min=1"`
	NewPlan       []PlanEntry `json:"new_plan" binding:"required,min=1,dive"`
}

// SettlementDiscountResponse summarizes a completed restructuring.
type SettlementDiscountResponse struct {
	ProposalID            string   `json:"proposal_id"`
	RemainingBalanceCents int64    `json:"remaining_balance_cents"`
	DiscountCents         int64    `json:"discount_cents"`
	NewTotalCents         int64    `json:"new_total_cents"`
	CanceledCollections   []string `json:"canceled_collections"`
	IssuedCollections     []string `json:"issued_collections"`
}

// DebtSummary aggregates a proposal's ledger position.
type DebtSummary struct {
	ProposalID     string     `json:"proposal_id"`
	TotalDueCents  int64      `json:"total_due_cents"`
	TotalPaidCents int64      `json:"total_paid_cents"`
	PendingCount   int        `json:"pending_count"`
	PaidCount      int        `json:"paid_count"`
	CanceledCount  int        `json:"canceled_count"`
	OverdueCount   int        `json:"overdue_count"`
	NextDueDate    *time.Time `json:"next_due_date,omitempty"`
}

// SweepResponse reports one status-sweep run.
type SweepResponse struct {
	Checked int          `json:"checked"`
	Updated int          `json:"updated"`
	Failed  []FailedItem `json:"failed,omitempty"`
}
