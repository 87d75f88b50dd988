// Package gcs archives issued-collection documents to a Cloud Storage
// bucket, keyed by proposal so an operator can pull every instrument
// for one loan in a single listing.
package gcs

import (
	"context"
	"fmt"
	"log/slog"

	"collectionsync/internal/pkg/logger"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const documentFolder = "collection-documents"

type DocumentArchive struct {
	client     *storage.Client
	bucketName string
}

func NewDocumentArchive(ctx context.Context, bucketName string, opts ...option.ClientOption) (*DocumentArchive, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &DocumentArchive{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// Archive writes the document and returns the object path. Existing
// objects are never overwritten; re-archiving the same instrument is a
// no-op at the storage layer.
func (g *DocumentArchive) Archive(ctx context.Context, proposalID, externalID string, document []byte) (string, error) {
	objectName := fmt.Sprintf("%s/%s/%s.pdf", documentFolder, proposalID, externalID)
	object := g.client.Bucket(g.bucketName).Object(objectName)

	writer := object.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = "application/pdf"

	if _, err := writer.Write(document); err != nil {
		logger.CtxError(ctx, "Failed to write document to bucket", err,
			slog.String("object", objectName))
		return "", err
	}
	if err := writer.Close(); err != nil {
		logger.CtxError(ctx, "Failed to finalize document upload", err,
			slog.String("object", objectName))
		return "", err
	}

	logger.CtxInfo(ctx, "Collection document archived",
		slog.String("object", objectName),
		slog.Int("bytes", len(document)))
	return objectName, nil
}

func (g *DocumentArchive) Close(ctx context.Context) {
	if g.client == nil {
		return
	}
	if err := g.client.Close(); err != nil {
		logger.CtxError(ctx, "Failed to close storage client", err)
	}
}
