package interfaces

import (
	"context"

	storemodels "collectionsync/internal/pkg/store/models"
)

// AccessControlInterface is the external authorization collaborator.
// Elevated batch operations must pass this check before mutating anything.
type AccessControlInterface interface {
	Authorize(ctx context.Context, actor, operation string) (bool, error)
}

// DocumentPipelineInterface is the external document-generation
// collaborator; used only when issuing new collections.
type DocumentPipelineInterface interface {
	GenerateCollectionDocument(ctx context.Context,
		installment *storemodels.Installment) ([]byte, error)
}

// DocumentArchiveInterface persists issued-collection documents to object
// storage and returns the stored path.
type DocumentArchiveInterface interface {
	Archive(ctx context.Context, proposalID, externalID string, document []byte) (string, error)
}
