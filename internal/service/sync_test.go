package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/emrgen/filesearch/internal/model"
	"github.com/emrgen/filesearch/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncService_FirstSync(t *testing.T) {
	e := newEnv("store-1")

	link, err := e.createLink(&CreateLinkRequest{})
	require.NoError(t, err)

	synced, err := e.syncer.SyncNow(context.TODO(), link.ID, false)
	require.NoError(t, err)

	assert.Equal(t, model.StatusSynced, synced.Status)
	// the first upload does not advance the version, nothing was replaced
	assert.Equal(t, int64(1), synced.CurrentVersion)
	assert.Equal(t, "doc-1", synced.CurrentRemoteDocumentID)
	assert.Equal(t, source.Fingerprint([]byte("v1 content")), synced.ContentFingerprint)
	assert.Equal(t, "sig-1", synced.SourceSignal)
	assert.NotNil(t, synced.LastSyncedAt)
	assert.Empty(t, synced.ErrorMessage)

	assert.Equal(t, 1, e.backend.uploads)
	assert.Equal(t, 0, e.backend.deletes)

	history, err := e.links.GetHistory(context.TODO(), link.ID)
	require.NoError(t, err)
	assert.Empty(t, history.Records)
}

func TestSyncService_UnchangedSignalSkipsFetch(t *testing.T) {
	e := newEnv("store-1")

	link, err := e.createLink(&CreateLinkRequest{})
	require.NoError(t, err)

	_, err = e.syncer.SyncNow(context.TODO(), link.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, e.source.fetchCalls)

	synced, err := e.syncer.SyncNow(context.TODO(), link.ID, false)
	require.NoError(t, err)

	// the matching signal short-circuits before any download
	assert.Equal(t, 1, e.source.fetchCalls)
	assert.Equal(t, 1, e.source.signalCalls)
	assert.Equal(t, 1, e.backend.uploads)
	assert.Equal(t, int64(1), synced.CurrentVersion)
	assert.Equal(t, model.StatusSynced, synced.Status)
}

func TestSyncService_ChangedSignalSameContent(t *testing.T) {
	e := newEnv("store-1")

	link, err := e.createLink(&CreateLinkRequest{})
	require.NoError(t, err)

	_, err = e.syncer.SyncNow(context.TODO(), link.ID, false)
	require.NoError(t, err)

	// a touched file changes the signal but not the bytes, the fingerprint
	// decides and nothing is uploaded
	e.source.set("v1 content", "sig-2")
	synced, err := e.syncer.SyncNow(context.TODO(), link.ID, false)
	require.NoError(t, err)

	assert.Equal(t, 2, e.source.fetchCalls)
	assert.Equal(t, 1, e.backend.uploads)
	assert.Equal(t, int64(1), synced.CurrentVersion)
	// the fresh signal is stored so the next sweep short-circuits again
	assert.Equal(t, "sig-2", synced.SourceSignal)
}

func TestSyncService_ChangedContentReplaces(t *testing.T) {
	e := newEnv("store-1")

	link, err := e.createLink(&CreateLinkRequest{})
	require.NoError(t, err)

	_, err = e.syncer.SyncNow(context.TODO(), link.ID, false)
	require.NoError(t, err)

	e.source.set("v2 content", "sig-2")
	synced, err := e.syncer.SyncNow(context.TODO(), link.ID, false)
	require.NoError(t, err)

	assert.Equal(t, int64(2), synced.CurrentVersion)
	assert.Equal(t, "doc-2", synced.CurrentRemoteDocumentID)
	assert.Equal(t, source.Fingerprint([]byte("v2 content")), synced.ContentFingerprint)
	assert.Equal(t, 2, e.backend.uploads)
	assert.Equal(t, 1, e.backend.deletes)

	history, err := e.links.GetHistory(context.TODO(), link.ID)
	require.NoError(t, err)
	require.Len(t, history.Records, 1)
	assert.Equal(t, int64(1), history.Records[0].VersionNumber)
	assert.Equal(t, "doc-1", history.Records[0].RemoteDocumentID)
	assert.False(t, history.Records[0].ReplacedAt.IsZero())
}

func TestSyncService_ForceReuploadsUnchanged(t *testing.T) {
	e := newEnv("store-1")

	link, err := e.createLink(&CreateLinkRequest{})
	require.NoError(t, err)

	_, err = e.syncer.SyncNow(context.TODO(), link.ID, false)
	require.NoError(t, err)

	synced, err := e.syncer.SyncNow(context.TODO(), link.ID, true)
	require.NoError(t, err)

	// force replaces the document even though the bytes are identical
	assert.Equal(t, 2, e.backend.uploads)
	assert.Equal(t, 1, e.backend.deletes)
	assert.Equal(t, int64(2), synced.CurrentVersion)
	assert.Equal(t, "doc-2", synced.CurrentRemoteDocumentID)
}

func TestSyncService_FetchFailureMarksError(t *testing.T) {
	e := newEnv("store-1")

	link, err := e.createLink(&CreateLinkRequest{})
	require.NoError(t, err)

	e.source.fetchErr = fmt.Errorf("disk detached")
	failed, err := e.syncer.SyncNow(context.TODO(), link.ID, false)
	require.Error(t, err)

	assert.Equal(t, model.StatusError, failed.Status)
	assert.Contains(t, failed.ErrorMessage, "disk detached")
	assert.Equal(t, 0, e.backend.uploads)

	// the error state is persisted, not just in memory
	stored, err := e.links.GetLink(context.TODO(), link.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusError, stored.Status)

	// an errored link is claimable again once the source recovers
	e.source.fetchErr = nil
	recovered, err := e.syncer.SyncNow(context.TODO(), link.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSynced, recovered.Status)
	assert.Empty(t, recovered.ErrorMessage)
	assert.Equal(t, int64(1), recovered.CurrentVersion)
}

func TestSyncService_AuthFailureDistinct(t *testing.T) {
	e := newEnv("store-1")

	link, err := e.createLink(&CreateLinkRequest{})
	require.NoError(t, err)

	e.source.fetchErr = fmt.Errorf("drive token: %w", source.ErrAuthRequired)
	failed, err := e.syncer.SyncNow(context.TODO(), link.ID, false)
	require.Error(t, err)

	// a credential problem stays distinguishable from a missing source
	assert.ErrorIs(t, err, source.ErrAuthRequired)
	assert.NotErrorIs(t, err, source.ErrUnavailable)
	assert.Equal(t, model.StatusError, failed.Status)
	assert.Equal(t, int64(1), failed.CurrentVersion)
	assert.Equal(t, 0, e.backend.uploads)
}

func TestSyncService_ConcurrentClaimConflicts(t *testing.T) {
	e := newEnv("store-1")

	link, err := e.createLink(&CreateLinkRequest{})
	require.NoError(t, err)

	link.Status = model.StatusSyncing
	require.NoError(t, e.store.UpdateSyncLink(context.TODO(), link))

	_, err = e.syncer.SyncNow(context.TODO(), link.ID, false)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSyncService_ConcurrentSyncNow(t *testing.T) {
	e := newEnv("store-1")

	link, err := e.createLink(&CreateLinkRequest{})
	require.NoError(t, err)

	gate := make(chan struct{})
	e.source.fetchGate = gate

	done := make(chan error, 1)
	go func() {
		_, err := e.syncer.SyncNow(context.TODO(), link.ID, false)
		done <- err
	}()

	// the claim is persisted before the download starts
	require.Eventually(t, func() bool {
		current, err := e.links.GetLink(context.TODO(), link.ID)
		return err == nil && current.Status == model.StatusSyncing
	}, 2*time.Second, 5*time.Millisecond)

	_, err = e.syncer.SyncNow(context.TODO(), link.ID, false)
	assert.ErrorIs(t, err, ErrConflict)

	close(gate)
	require.NoError(t, <-done)

	final, err := e.links.GetLink(context.TODO(), link.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSynced, final.Status)
	assert.Equal(t, int64(1), final.CurrentVersion)
	assert.Equal(t, 1, e.backend.uploads)
}

func TestSyncService_UploadMetadata(t *testing.T) {
	e := newEnv("store-1")

	link, err := e.createLink(&CreateLinkRequest{
		SourceReference: "/data/notes.md",
		CustomMetadata: map[string]string{
			"team": "search",
			// colliding keys lose to the automatic fields
			"file_hash": "user-supplied",
		},
	})
	require.NoError(t, err)

	_, err = e.syncer.SyncNow(context.TODO(), link.ID, false)
	require.NoError(t, err)

	meta := e.backend.lastUploadMeta
	require.NotNil(t, meta)
	assert.Equal(t, "search", meta["team"])
	assert.Equal(t, "/data/notes.md", meta["local_file_path"])
	assert.Equal(t, "local_filesystem", meta["synced_from"])
	assert.Equal(t, source.Fingerprint([]byte("v1 content")), meta["file_hash"])
	assert.Equal(t, "2025-04-01T12:00:00Z", meta["last_modified"])
}

func TestSyncService_ReplaceFile(t *testing.T) {
	e := newEnv("store-1")

	link, err := e.createLink(&CreateLinkRequest{})
	require.NoError(t, err)

	// nothing to replace before the first sync
	_, err = e.syncer.ReplaceFile(context.TODO(), link.ID, "manual.md", []byte("manual content"))
	assert.ErrorIs(t, err, ErrNotSynced)

	_, err = e.syncer.SyncNow(context.TODO(), link.ID, false)
	require.NoError(t, err)

	replaced, err := e.syncer.ReplaceFile(context.TODO(), link.ID, "manual.md", []byte("manual content"))
	require.NoError(t, err)

	assert.Equal(t, int64(2), replaced.CurrentVersion)
	assert.Equal(t, "doc-2", replaced.CurrentRemoteDocumentID)
	assert.Equal(t, source.Fingerprint([]byte("manual content")), replaced.ContentFingerprint)
	// the stale source signal is dropped so the next sweep re-compares bytes
	assert.Empty(t, replaced.SourceSignal)
	assert.Equal(t, "manual.md", e.backend.lastUploadName)
	assert.Equal(t, []byte("manual content"), e.backend.lastUploadContent)

	// the next sync sees the source differs from the manual upload
	synced, err := e.syncer.SyncNow(context.TODO(), link.ID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(3), synced.CurrentVersion)
	assert.Equal(t, source.Fingerprint([]byte("v1 content")), synced.ContentFingerprint)
}

func TestSyncService_ReplaceFile_EmptyContent(t *testing.T) {
	e := newEnv("store-1")

	link, err := e.createLink(&CreateLinkRequest{})
	require.NoError(t, err)

	_, err = e.syncer.ReplaceFile(context.TODO(), link.ID, "manual.md", nil)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "content", verr.Field)
}

func TestSyncService_FailedUploadForcesReupload(t *testing.T) {
	e := newEnv("store-1")

	link, err := e.createLink(&CreateLinkRequest{})
	require.NoError(t, err)

	_, err = e.syncer.SyncNow(context.TODO(), link.ID, false)
	require.NoError(t, err)

	// the replacement deletes the old document, then the upload dies
	e.source.set("v2 content", "sig-2")
	e.backend.uploadErr = fmt.Errorf("backend down")
	_, err = e.syncer.SyncNow(context.TODO(), link.ID, false)
	require.Error(t, err)

	// the cleared reference is persisted, the link no longer claims a
	// document that was already deleted
	stored, err := e.links.GetLink(context.TODO(), link.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusError, stored.Status)
	assert.Empty(t, stored.CurrentRemoteDocumentID)
	assert.Empty(t, stored.ContentFingerprint)
	assert.Empty(t, stored.SourceSignal)

	// recovery re-uploads instead of trusting a stale signal
	e.backend.uploadErr = nil
	recovered, err := e.syncer.SyncNow(context.TODO(), link.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSynced, recovered.Status)
	assert.Equal(t, "doc-2", recovered.CurrentRemoteDocumentID)
	assert.Equal(t, 2, e.backend.uploads)

	// the destroyed document was never superseded by a live one, so the
	// recovery upload does not advance the version or grow the ledger
	assert.Equal(t, int64(1), recovered.CurrentVersion)
	history, err := e.links.GetHistory(context.TODO(), link.ID)
	require.NoError(t, err)
	assert.Empty(t, history.Records)
}

func TestSyncService_SyncAllAuto(t *testing.T) {
	e := newEnv("store-1")

	first, err := e.createLink(&CreateLinkRequest{SyncMode: model.ModeAuto})
	require.NoError(t, err)
	second, err := e.createLink(&CreateLinkRequest{SyncMode: model.ModeAuto, SyncIntervalMinutes: 15})
	require.NoError(t, err)
	manual, err := e.createLink(&CreateLinkRequest{})
	require.NoError(t, err)

	// never synced auto links are always due
	synced, err := e.syncer.SyncAllAuto(context.TODO(), model.SourceLocal)
	require.NoError(t, err)
	assert.Equal(t, 2, synced)

	for _, id := range []string{first.ID, second.ID} {
		link, err := e.links.GetLink(context.TODO(), id)
		require.NoError(t, err)
		assert.Equal(t, model.StatusSynced, link.Status)
	}

	// manual links are never swept
	got, err := e.links.GetLink(context.TODO(), manual.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)

	// intervals have not elapsed, the next sweep is a no-op
	synced, err = e.syncer.SyncAllAuto(context.TODO(), model.SourceLocal)
	require.NoError(t, err)
	assert.Equal(t, 0, synced)

	// age one link past its interval
	link, err := e.links.GetLink(context.TODO(), second.ID)
	require.NoError(t, err)
	past := time.Now().Add(-16 * time.Minute)
	link.LastSyncedAt = &past
	require.NoError(t, e.store.UpdateSyncLink(context.TODO(), link))

	synced, err = e.syncer.SyncAllAuto(context.TODO(), model.SourceLocal)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)
}

func TestDue(t *testing.T) {
	now := time.Now()
	past := func(minutes int) *time.Time {
		at := now.Add(-time.Duration(minutes) * time.Minute)
		return &at
	}

	tests := []struct {
		name string
		link *model.SyncLink
		want bool
	}{
		{
			name: "never synced",
			link: &model.SyncLink{SyncIntervalMinutes: 60},
			want: true,
		},
		{
			name: "interval not elapsed",
			link: &model.SyncLink{SyncIntervalMinutes: 10, LastSyncedAt: past(5)},
			want: false,
		},
		{
			name: "interval elapsed",
			link: &model.SyncLink{SyncIntervalMinutes: 10, LastSyncedAt: past(11)},
			want: true,
		},
		{
			name: "stored interval below the floor",
			link: &model.SyncLink{SyncIntervalMinutes: 1, LastSyncedAt: past(3)},
			want: false,
		},
		{
			name: "floor elapsed",
			link: &model.SyncLink{SyncIntervalMinutes: 1, LastSyncedAt: past(6)},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, due(tt.link, now))
		})
	}
}
