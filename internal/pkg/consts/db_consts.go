package consts

// MongoDB collection names.
const (
	CollectionsCollection     = "collections"
	InstallmentsCollection    = "installments"
	AuditRecordsCollection    = "audit_records"
	ProcessedEventsCollection = "processed_events"
	ParkedEventsCollection    = "parked_events"
)

// Audit entity types and actions.
const (
	EntityCollection  = "collection"
	EntityInstallment = "installment"
	EntityProposal    = "proposal"

	ActionStatusTransition   = "status_transition"
	ActionInstallmentPaid    = "installment_paid"
	ActionPartialPayment     = "partial_payment"
	ActionDueDateExtended    = "due_date_extended"
	ActionSettlementDiscount = "settlement_discount"
	ActionCollectionIssued   = "collection_issued"
	ActionCollectionCanceled = "collection_canceled"
)

// Reasons a webhook event is parked for manual review.
const (
	ParkReasonOrphan            = "orphan"
	ParkReasonIllegalTransition = "illegal_transition"
)
