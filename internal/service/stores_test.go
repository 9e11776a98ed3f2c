package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreService_CreateStore(t *testing.T) {
	e := newEnv()
	stores := NewStoreService(e.backend, e.store, e.audit)

	created, err := stores.CreateStore(context.TODO(), "release notes")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "release notes", created.DisplayName)

	_, err = stores.CreateStore(context.TODO(), "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "display_name", verr.Field)
}

func TestStoreService_DeleteStore_InUse(t *testing.T) {
	e := newEnv("store-1")
	stores := NewStoreService(e.backend, e.store, e.audit)

	_, err := e.createLink(&CreateLinkRequest{})
	require.NoError(t, err)

	err = stores.DeleteStore(context.TODO(), "store-1", false)
	assert.ErrorIs(t, err, ErrStoreInUse)

	// force bypasses the link guard
	err = stores.DeleteStore(context.TODO(), "store-1", true)
	require.NoError(t, err)
	assert.Empty(t, e.backend.stores)
}

func TestStoreService_DeleteStore_Unused(t *testing.T) {
	e := newEnv("store-1")
	stores := NewStoreService(e.backend, e.store, e.audit)

	err := stores.DeleteStore(context.TODO(), "store-1", false)
	require.NoError(t, err)
}
