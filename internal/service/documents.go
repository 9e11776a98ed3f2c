package service

import (
	"context"
	"fmt"

	"github.com/emrgen/filesearch/internal/model"
	"github.com/emrgen/filesearch/internal/rag"
)

// NewDocumentService creates a new document management service.
func NewDocumentService(backend rag.Backend, audit *AuditService) *DocumentService {
	return &DocumentService{
		backend: backend,
		audit:   audit,
	}
}

// DocumentService manages documents uploaded directly into a store, outside
// of any sync link.
type DocumentService struct {
	backend rag.Backend
	audit   *AuditService
}

// UploadDocument uploads content into a store under the given display name.
func (d *DocumentService) UploadDocument(ctx context.Context, storeID, displayName string, content []byte, metadata map[string]string) (*rag.Document, error) {
	if displayName == "" {
		return nil, validationErr("display_name", "must not be empty")
	}
	if len(content) == 0 {
		return nil, validationErr("content", "must not be empty")
	}
	if len(metadata) > model.MaxCustomMetadata {
		return nil, validationErr("metadata", fmt.Sprintf("at most %d pairs", model.MaxCustomMetadata))
	}

	id, err := d.backend.UploadDocument(ctx, storeID, content, displayName, metadata)
	if err != nil {
		return nil, err
	}

	d.audit.Record(ctx, AuditDocUploaded, "document", id, map[string]any{
		"store":        storeID,
		"display_name": displayName,
		"size_bytes":   len(content),
	}, nil)

	return &rag.Document{
		ID:          id,
		StoreID:     storeID,
		DisplayName: displayName,
		Metadata:    metadata,
		SizeBytes:   int64(len(content)),
	}, nil
}

// ListDocuments lists the documents of a store.
func (d *DocumentService) ListDocuments(ctx context.Context, storeID string) ([]*rag.Document, error) {
	return d.backend.ListDocuments(ctx, storeID)
}

// GetDocument reads one document.
func (d *DocumentService) GetDocument(ctx context.Context, storeID, documentID string) (*rag.Document, error) {
	return d.backend.GetDocument(ctx, storeID, documentID)
}

// DeleteDocument removes a document from a store.
func (d *DocumentService) DeleteDocument(ctx context.Context, storeID, documentID string) error {
	if err := d.backend.DeleteDocument(ctx, storeID, documentID); err != nil {
		return err
	}

	d.audit.Record(ctx, AuditDocDeleted, "document", documentID, map[string]any{
		"store": storeID,
	}, nil)

	return nil
}
