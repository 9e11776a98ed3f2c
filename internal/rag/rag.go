package rag

import (
	"context"
	"errors"
)

var (
	// ErrNotFound marks a store or document the backend does not know.
	// Delete callers tolerate it, a prior partial failure may already have
	// removed the document.
	ErrNotFound = errors.New("file search: not found")
	// ErrAuth marks a rejected or missing API key.
	ErrAuth = errors.New("file search: authentication failed")
	// ErrBackend marks any other failed backend call.
	ErrBackend = errors.New("file search: backend failure")
)

// Store is one hosted File Search document store.
type Store struct {
	ID            string `json:"id"`
	DisplayName   string `json:"display_name"`
	CreateTime    string `json:"create_time,omitempty"`
	DocumentCount int64  `json:"document_count,omitempty"`
}

// Document is one uploaded document inside a store.
type Document struct {
	ID          string            `json:"id"`
	StoreID     string            `json:"store_id"`
	DisplayName string            `json:"display_name"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	SizeBytes   int64             `json:"size_bytes,omitempty"`
	CreateTime  string            `json:"create_time,omitempty"`
}

// Chunk is one retrieved passage with its relevance score.
type Chunk struct {
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name,omitempty"`
	Content      string  `json:"content"`
	Score        float64 `json:"score"`
}

// QueryResult is the retrieval response for one query.
type QueryResult struct {
	Query  string   `json:"query"`
	Chunks []*Chunk `json:"chunks"`
}

// Backend is the capability contract the sync core consumes. The hosted
// service owns all document state, the console only holds links to it.
type Backend interface {
	CreateStore(ctx context.Context, displayName string) (*Store, error)
	ListStores(ctx context.Context) ([]*Store, error)
	GetStore(ctx context.Context, id string) (*Store, error)
	DeleteStore(ctx context.Context, id string, force bool) error
	// UploadDocument stores content under displayName and returns the new
	// remote document id.
	UploadDocument(ctx context.Context, storeID string, content []byte, displayName string, metadata map[string]string) (string, error)
	// DeleteDocument removes a document. Missing documents return ErrNotFound.
	DeleteDocument(ctx context.Context, storeID, documentID string) error
	GetDocument(ctx context.Context, storeID, documentID string) (*Document, error)
	ListDocuments(ctx context.Context, storeID string) ([]*Document, error)
	Query(ctx context.Context, storeID, query string, topK int, filter map[string]string) (*QueryResult, error)
}
