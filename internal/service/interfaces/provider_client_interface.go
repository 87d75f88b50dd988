package interfaces

import (
	"context"

	"collectionsync/internal/pkg/downstreams"
)

// ProviderClientInterface covers every outbound call to the banking
// provider. Implementations must respect the provider's request rate.
type ProviderClientInterface interface {
	IssueCollection(ctx context.Context,
		req downstreams.IssueCollectionRequest) (*downstreams.IssueCollectionResponse, error)
	CancelCollection(ctx context.Context, externalID, reason string) error
	ExtendDueDate(ctx context.Context, externalID,
		newDueDate string) (*downstreams.ExtendDueDateResponse, error)
	GetCollection(ctx context.Context, externalID string) (*downstreams.CollectionDetail, error)
	DownloadDocument(ctx context.Context, externalID string) ([]byte, error)
}
