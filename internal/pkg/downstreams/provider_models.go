package downstreams

// IssueCollectionRequest creates one payment instrument at the provider.
type IssueCollectionRequest struct {
	OurReference  string `json:"ourReference"`
	AmountCents   int64  `json:"amountCents"`
	DueDate       string `json:"dueDate"`
	PayerDocument string `json:"payerDocument"`
	PayerName     string `json:"payerName,omitempty"`
	MessageLine1  string `json:"messageLine1,omitempty"`
	MessageLine2  string `json:"messageLine2,omitempty"`
}

// IssueCollectionResponse is the provider's acknowledgment of an issuance.
type IssueCollectionResponse struct {
	ExternalID    string `json:"externalId"`
	OurReference  string `json:"ourReference"`
	Status        string `json:"status"`
	DigitableLine string `json:"digitableLine,omitempty"`
	PixCopyPaste  string `json:"pixCopyPaste,omitempty"`
}

// CollectionDetail is the provider's current view of one collection.
type CollectionDetail struct {
	ExternalID      string `json:"externalId"`
	OurReference    string `json:"ourReference"`
	Status          string `json:"status"`
	StatusChangedAt string `json:"statusChangedAt"`
	AmountCents     int64  `json:"amountCents"`
	AmountReceived  int64  `json:"amountReceivedCents,omitempty"`
	DueDate         string `json:"dueDate"`
}

// ExtendDueDateResponse acknowledges a due-date mutation.
type ExtendDueDateResponse struct {
	ExternalID string `json:"externalId"`
	Status     string `json:"status"`
	DueDate    string `json:"dueDate"`
}
