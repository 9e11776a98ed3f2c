package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/emrgen/filesearch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkService_CreateLink(t *testing.T) {
	e := newEnv("store-1")

	link, err := e.createLink(&CreateLinkRequest{})
	require.NoError(t, err)
	require.NotNil(t, link)

	assert.NotEmpty(t, link.ID)
	assert.Equal(t, model.SourceLocal, link.SourceKind)
	assert.Equal(t, "store-1", link.DestinationStore)
	// display name falls back to the provider reported name
	assert.Equal(t, "notes.md", link.DisplayName)
	assert.Equal(t, model.ModeManual, link.SyncMode)
	assert.Equal(t, int64(1), link.CurrentVersion)
	assert.Equal(t, model.StatusPending, link.Status)
	assert.Empty(t, link.CurrentRemoteDocumentID)
	assert.Nil(t, link.LastSyncedAt)

	got, err := e.links.GetLink(context.TODO(), link.ID)
	require.NoError(t, err)
	assert.Equal(t, link.ID, got.ID)
}

func TestLinkService_CreateLink_AutoDefaults(t *testing.T) {
	e := newEnv("store-1")

	link, err := e.createLink(&CreateLinkRequest{SyncMode: model.ModeAuto})
	require.NoError(t, err)

	assert.Equal(t, model.ModeAuto, link.SyncMode)
	assert.Equal(t, model.DefaultSyncIntervalMinutes, link.SyncIntervalMinutes)

	link, err = e.createLink(&CreateLinkRequest{SyncMode: model.ModeAuto, SyncIntervalMinutes: 15})
	require.NoError(t, err)
	assert.Equal(t, 15, link.SyncIntervalMinutes)
}

func TestLinkService_CreateLink_Validation(t *testing.T) {
	e := newEnv("store-1")

	tooMuchMeta := map[string]string{}
	for i := 0; i <= model.MaxCustomMetadata; i++ {
		tooMuchMeta[fmt.Sprintf("key-%d", i)] = "v"
	}

	tests := []struct {
		name  string
		req   *CreateLinkRequest
		field string
	}{
		{
			name:  "unknown source kind",
			req:   &CreateLinkRequest{SourceKind: "ftp", SourceReference: "/x", DestinationStore: "store-1"},
			field: "source_kind",
		},
		{
			name:  "relative local path",
			req:   &CreateLinkRequest{SourceKind: model.SourceLocal, SourceReference: "notes.md", DestinationStore: "store-1"},
			field: "source_reference",
		},
		{
			name:  "empty destination store",
			req:   &CreateLinkRequest{SourceKind: model.SourceLocal, SourceReference: "/x"},
			field: "destination_store",
		},
		{
			name:  "unknown sync mode",
			req:   &CreateLinkRequest{SourceKind: model.SourceLocal, SourceReference: "/x", DestinationStore: "store-1", SyncMode: "hourly"},
			field: "sync_mode",
		},
		{
			name:  "interval below the minimum",
			req:   &CreateLinkRequest{SourceKind: model.SourceLocal, SourceReference: "/x", DestinationStore: "store-1", SyncMode: model.ModeAuto, SyncIntervalMinutes: 2},
			field: "sync_interval_minutes",
		},
		{
			name:  "too many metadata pairs",
			req:   &CreateLinkRequest{SourceKind: model.SourceLocal, SourceReference: "/x", DestinationStore: "store-1", CustomMetadata: tooMuchMeta},
			field: "custom_metadata",
		},
		{
			name:  "destination store does not exist",
			req:   &CreateLinkRequest{SourceKind: model.SourceLocal, SourceReference: "/x", DestinationStore: "store-9"},
			field: "destination_store",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.links.CreateLink(context.TODO(), tt.req)
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestLinkService_CreateLink_BrokenSource(t *testing.T) {
	e := newEnv("store-1")
	e.source.describeErr = fmt.Errorf("no such file")

	_, err := e.createLink(&CreateLinkRequest{})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "source_reference", verr.Field)
}

func TestLinkService_GetLink_NotFound(t *testing.T) {
	e := newEnv("store-1")

	_, err := e.links.GetLink(context.TODO(), "2f9a4c9e-7a63-4a73-9a30-0f4f4f2d8c11")
	assert.ErrorIs(t, err, ErrLinkNotFound)

	// a malformed id is indistinguishable from an unknown one
	_, err = e.links.GetLink(context.TODO(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestLinkService_ListLinks(t *testing.T) {
	e := newEnv("store-1")

	_, err := e.createLink(&CreateLinkRequest{ProjectID: "proj-a"})
	require.NoError(t, err)
	_, err = e.createLink(&CreateLinkRequest{ProjectID: "proj-a"})
	require.NoError(t, err)
	_, err = e.createLink(&CreateLinkRequest{ProjectID: "proj-b"})
	require.NoError(t, err)

	all, err := e.links.ListLinks(context.TODO(), "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	scoped, err := e.links.ListLinks(context.TODO(), "proj-a")
	require.NoError(t, err)
	assert.Len(t, scoped, 2)
}

func TestLinkService_DeleteLink(t *testing.T) {
	e := newEnv("store-1")

	link, err := e.createLink(&CreateLinkRequest{})
	require.NoError(t, err)

	_, err = e.syncer.SyncNow(context.TODO(), link.ID, false)
	require.NoError(t, err)

	e.source.set("v2 content", "sig-2")
	_, err = e.syncer.SyncNow(context.TODO(), link.ID, false)
	require.NoError(t, err)

	err = e.links.DeleteLink(context.TODO(), link.ID, true)
	require.NoError(t, err)

	// live document removed from the backend
	assert.Empty(t, e.backend.docs)

	_, err = e.links.GetLink(context.TODO(), link.ID)
	assert.ErrorIs(t, err, ErrLinkNotFound)

	// the ledger outlives the link
	records, err := e.store.ListVersions(context.TODO(), mustParse(t, link.ID))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLinkService_DeleteLink_WhileSyncing(t *testing.T) {
	e := newEnv("store-1")

	link, err := e.createLink(&CreateLinkRequest{})
	require.NoError(t, err)

	link.Status = model.StatusSyncing
	require.NoError(t, e.store.UpdateSyncLink(context.TODO(), link))

	err = e.links.DeleteLink(context.TODO(), link.ID, false)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLinkService_GetHistory(t *testing.T) {
	e := newEnv("store-1")

	link, err := e.createLink(&CreateLinkRequest{})
	require.NoError(t, err)

	history, err := e.links.GetHistory(context.TODO(), link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), history.CurrentVersion)
	assert.Empty(t, history.Records)

	_, err = e.syncer.SyncNow(context.TODO(), link.ID, false)
	require.NoError(t, err)
	e.source.set("v2 content", "sig-2")
	_, err = e.syncer.SyncNow(context.TODO(), link.ID, false)
	require.NoError(t, err)
	e.source.set("v3 content", "sig-3")
	_, err = e.syncer.SyncNow(context.TODO(), link.ID, false)
	require.NoError(t, err)

	history, err = e.links.GetHistory(context.TODO(), link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), history.CurrentVersion)
	require.Len(t, history.Records, 2)

	// newest first
	assert.Equal(t, int64(2), history.Records[0].VersionNumber)
	assert.Equal(t, "doc-2", history.Records[0].RemoteDocumentID)
	assert.Equal(t, int64(1), history.Records[1].VersionNumber)
	assert.Equal(t, "doc-1", history.Records[1].RemoteDocumentID)
}
