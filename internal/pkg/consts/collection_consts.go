package consts

// CollectionStatus is the lifecycle state of one externally issued collection.
type CollectionStatus string

const (
	CollectionIssued   CollectionStatus = "ISSUED"
	CollectionPayable  CollectionStatus = "PAYABLE"
	CollectionReceived CollectionStatus = "RECEIVED"
	CollectionOverdue  CollectionStatus = "OVERDUE"
	CollectionCanceled CollectionStatus = "CANCELED"
	CollectionExpired  CollectionStatus = "EXPIRED"
)

// InstallmentStatus is the ledger-side state of one repayment obligation.
type InstallmentStatus string

const (
	InstallmentPending  InstallmentStatus = "pending"
	InstallmentPaid     InstallmentStatus = "paid"
	InstallmentCanceled InstallmentStatus = "canceled"
)

// Provider wire statuses as the banking provider reports them.
const (
	ProviderStatusInProcessing = "EM_PROCESSAMENTO"
	ProviderStatusPayable      = "A_RECEBER"
	ProviderStatusReceived     = "RECEBIDO"
	ProviderStatusOverdue      = "ATRASADO"
	ProviderStatusCanceled     = "CANCELADO"
	ProviderStatusExpired      = "EXPIRADO"
)

// Named webhook event types; the provider sends these for some deliveries
// instead of a bare status.
const (
	EventCollectionPaid      = "collection.paid"
	EventPaymentConfirmed    = "payment.confirmed"
	EventCollectionCancelled = "collection.cancelled"
	EventCollectionOverdue   = "collection.overdue"
)

const (
	ActorSystem = "system"

	SignatureHeader = "X-Webhook-Signature"
	ActorHeader     = "X-Actor-Id"
)

// Payment rails reported in webhook payloads.
const (
	RailBoleto = "BOLETO"
	RailPix    = "PIX"
	RailSweep  = "SWEEP"
)

// Elevated operations checked against the access-control collaborator.
const (
	OperationExtendDueDates     = "collections.extend_due_dates"
	OperationSettlementDiscount = "collections.settlement_discount"
	OperationStatusSweep        = "collections.status_sweep"
)

// Rate limiter service keys. Mutations and reads are paced separately.
const (
	ServiceKeyBilling = "billing"
	ServiceKeyQueries = "queries"
)
