package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentService_UploadDocument(t *testing.T) {
	e := newEnv("store-1")
	documents := NewDocumentService(e.backend, e.audit)

	doc, err := documents.UploadDocument(context.TODO(), "store-1", "notes.md", []byte("hello"), map[string]string{"team": "search"})
	require.NoError(t, err)

	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, "store-1", doc.StoreID)
	assert.Equal(t, "notes.md", doc.DisplayName)
	assert.Equal(t, int64(5), doc.SizeBytes)

	listed, err := documents.ListDocuments(context.TODO(), "store-1")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestDocumentService_UploadDocument_Validation(t *testing.T) {
	e := newEnv("store-1")
	documents := NewDocumentService(e.backend, e.audit)

	var verr *ValidationError

	_, err := documents.UploadDocument(context.TODO(), "store-1", "", []byte("hello"), nil)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "display_name", verr.Field)

	_, err = documents.UploadDocument(context.TODO(), "store-1", "notes.md", nil, nil)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "content", verr.Field)
}

func TestDocumentService_DeleteDocument(t *testing.T) {
	e := newEnv("store-1")
	documents := NewDocumentService(e.backend, e.audit)

	doc, err := documents.UploadDocument(context.TODO(), "store-1", "notes.md", []byte("hello"), nil)
	require.NoError(t, err)

	require.NoError(t, documents.DeleteDocument(context.TODO(), "store-1", doc.ID))

	_, err = documents.GetDocument(context.TODO(), "store-1", doc.ID)
	assert.Error(t, err)
}
