package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emrgen/filesearch/internal/cache"
	"github.com/emrgen/filesearch/internal/model"
	"github.com/emrgen/filesearch/internal/queue"
	"github.com/emrgen/filesearch/internal/rag"
	"github.com/emrgen/filesearch/internal/source"
	"github.com/emrgen/filesearch/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultSyncTimeout = 2 * time.Minute

// persistTimeout bounds the terminal write of an attempt. It runs on a
// background context because the attempt context may already be expired.
const persistTimeout = 10 * time.Second

// Attempt results, recorded in the audit trail.
const (
	resultNoChange = "no_change"
	resultUploaded = "uploaded"
	resultReplaced = "replaced"
)

// NewSyncService creates a new sync executor.
func NewSyncService(store store.Store, sources source.Registry, backend rag.Backend, events queue.SyncEventQueue, links cache.LinkCache, audit *AuditService, timeout time.Duration) *SyncService {
	if timeout <= 0 {
		timeout = defaultSyncTimeout
	}

	return &SyncService{
		store:   store,
		sources: sources,
		backend: backend,
		events:  events,
		cache:   links,
		audit:   audit,
		timeout: timeout,
	}
}

// SyncService runs sync attempts. At most one attempt runs per link at a
// time, enforced by a conditional status claim in the store. Every claimed
// attempt terminates in synced or error, never in syncing.
type SyncService struct {
	store   store.Store
	sources source.Registry
	backend rag.Backend
	events  queue.SyncEventQueue
	cache   cache.LinkCache
	audit   *AuditService
	timeout time.Duration
}

// SyncNow claims the link and runs one attempt. A link already syncing
// returns ErrConflict. With force the content comparison is skipped and the
// document is re-uploaded even when unchanged.
func (s *SyncService) SyncNow(ctx context.Context, id string, force bool) (*model.SyncLink, error) {
	linkID, err := parseLinkID(id)
	if err != nil {
		return nil, err
	}

	link, err := s.claim(ctx, linkID)
	if err != nil {
		return nil, err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	record, result, attemptErr := s.attempt(attemptCtx, link, force)
	return s.resolve(ctx, link, record, result, AuditLinkSynced, attemptErr)
}

// ReplaceFile uploads caller supplied content as the link's next version,
// bypassing the source. The link must have a synced document to replace.
// The stored source signal is cleared so the next sweep compares content
// against the manual upload instead of trusting a stale signal.
func (s *SyncService) ReplaceFile(ctx context.Context, id, filename string, content []byte) (*model.SyncLink, error) {
	linkID, err := parseLinkID(id)
	if err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, validationErr("content", "must not be empty")
	}

	link, err := s.store.GetSyncLink(ctx, linkID)
	if err != nil {
		return nil, mapStoreErr(err, id)
	}
	if link.CurrentRemoteDocumentID == "" {
		return nil, fmt.Errorf("%w: link %s", ErrNotSynced, id)
	}

	link, err = s.claim(ctx, linkID)
	if err != nil {
		return nil, err
	}

	displayName := filename
	if displayName == "" {
		displayName = link.DisplayName
	}

	attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := time.Now()
	record, result, attemptErr := s.replace(attemptCtx, link, displayName, content, source.Fingerprint(content), "", now, now)
	return s.resolve(ctx, link, record, result, AuditLinkReplaced, attemptErr)
}

// SyncAllAuto runs one sweep over the auto links of a source kind, syncing
// the ones whose interval has elapsed. Failures are isolated per link. It
// returns how many links were synced.
func (s *SyncService) SyncAllAuto(ctx context.Context, sourceKind string) (int, error) {
	links, err := s.store.ListAutoSyncLinks(ctx, sourceKind)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	synced := 0
	for _, link := range links {
		if !due(link, now) {
			continue
		}

		if _, err := s.SyncNow(ctx, link.ID, false); err != nil {
			if errors.Is(err, ErrConflict) {
				logrus.Debugf("link %s already syncing, skipped", link.ID)
				continue
			}
			logrus.Errorf("auto sync link %s: %v", link.ID, err)
			continue
		}
		synced++
	}

	return synced, nil
}

// due reports whether an auto link's interval has elapsed. Links that never
// synced are always due.
func due(link *model.SyncLink, now time.Time) bool {
	if link.LastSyncedAt == nil {
		return true
	}

	interval := link.SyncIntervalMinutes
	if interval < model.MinSyncIntervalMinutes {
		interval = model.MinSyncIntervalMinutes
	}

	return now.Sub(*link.LastSyncedAt) >= time.Duration(interval)*time.Minute
}

// claim moves the link into syncing status. The store update is conditional
// on the link not already being in syncing, so concurrent claims resolve to
// exactly one winner.
func (s *SyncService) claim(ctx context.Context, linkID uuid.UUID) (*model.SyncLink, error) {
	link, err := s.store.GetSyncLink(ctx, linkID)
	if err != nil {
		return nil, mapStoreErr(err, linkID.String())
	}
	if link.Status == model.StatusSyncing {
		return nil, fmt.Errorf("%w: link %s", ErrConflict, linkID)
	}

	ok, err := s.store.ClaimSyncLink(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: link %s", ErrConflict, linkID)
	}

	// re-read after winning so the attempt sees the fingerprint and remote
	// document id left by the last finished attempt
	link, err = s.store.GetSyncLink(ctx, linkID)
	if err != nil {
		return nil, mapStoreErr(err, linkID.String())
	}

	if err := s.cache.DeleteLink(ctx, linkID); err != nil {
		logrus.Debugf("evict link %s: %v", linkID, err)
	}

	return link, nil
}

// attempt decides between no-op and replacement for a claimed link. It
// mutates the link in memory only, resolve persists the outcome.
func (s *SyncService) attempt(ctx context.Context, link *model.SyncLink, force bool) (*model.VersionRecord, string, error) {
	src, err := s.sources.For(link.SourceKind)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()

	// cheap pre-check: an unchanged source signal means the content cannot
	// have changed, skip the fetch entirely
	if !force && link.ContentFingerprint != "" && link.SourceSignal != "" {
		signal, err := src.FetchSignal(ctx, link.SourceReference)
		if err == nil && signal == link.SourceSignal {
			s.markSynced(link, now)
			return nil, resultNoChange, nil
		}
		// a failed probe falls through to the full fetch, which owns the
		// error reporting
	}

	file, err := src.Fetch(ctx, link.SourceReference)
	if err != nil {
		return nil, "", err
	}

	fingerprint := source.Fingerprint(file.Content)
	if !force && fingerprint == link.ContentFingerprint {
		link.SourceSignal = file.Signal
		s.markSynced(link, now)
		return nil, resultNoChange, nil
	}

	return s.replace(ctx, link, link.DisplayName, file.Content, fingerprint, file.Signal, file.Modified, now)
}

// replace deletes the superseded remote document, uploads the new content
// and advances the version. The superseded document id lands in the ledger.
func (s *SyncService) replace(ctx context.Context, link *model.SyncLink, displayName string, content []byte, fingerprint, signal string, modified, now time.Time) (*model.VersionRecord, string, error) {
	previousID := link.CurrentRemoteDocumentID
	if previousID != "" {
		err := s.backend.DeleteDocument(ctx, link.DestinationStore, previousID)
		if err != nil && !errors.Is(err, rag.ErrNotFound) {
			return nil, "", fmt.Errorf("delete previous document %s: %w", previousID, err)
		}

		// the old document is gone, the link must not claim it still exists.
		// Persisting the cleared reference now means a crash before the new
		// upload forces a re-upload instead of a silent no-op.
		link.CurrentRemoteDocumentID = ""
		link.ContentFingerprint = ""
		link.SourceSignal = ""
		if err := s.store.UpdateSyncLink(ctx, link); err != nil {
			return nil, "", fmt.Errorf("clear document reference: %w", err)
		}
	}

	meta, err := s.uploadMetadata(link, fingerprint, modified)
	if err != nil {
		return nil, "", err
	}

	documentID, err := s.backend.UploadDocument(ctx, link.DestinationStore, content, displayName, meta)
	if err != nil {
		return nil, "", fmt.Errorf("upload document: %w", err)
	}

	var record *model.VersionRecord
	result := resultUploaded
	if previousID != "" {
		record = &model.VersionRecord{
			LinkID:           link.ID,
			VersionNumber:    link.CurrentVersion,
			RemoteDocumentID: previousID,
			ReplacedAt:       now,
		}
		link.CurrentVersion++
		result = resultReplaced
	}

	link.CurrentRemoteDocumentID = documentID
	link.ContentFingerprint = fingerprint
	link.SourceSignal = signal
	s.markSynced(link, now)

	return record, result, nil
}

func (s *SyncService) markSynced(link *model.SyncLink, now time.Time) {
	link.Status = model.StatusSynced
	link.ErrorMessage = ""
	link.LastSyncedAt = &now
}

// uploadMetadata merges the link's custom metadata with the automatic sync
// fields. Automatic fields win on key collisions.
func (s *SyncService) uploadMetadata(link *model.SyncLink, fingerprint string, modified time.Time) (map[string]string, error) {
	meta, err := link.Metadata()
	if err != nil {
		return nil, fmt.Errorf("decode custom metadata: %w", err)
	}

	switch link.SourceKind {
	case model.SourceLocal:
		meta["local_file_path"] = link.SourceReference
		meta["synced_from"] = "local_filesystem"
	case model.SourceDrive:
		meta["drive_file_id"] = link.SourceReference
		meta["synced_from"] = "google_drive"
	}
	meta["file_hash"] = fingerprint
	meta["last_modified"] = modified.UTC().Format(time.RFC3339)

	return meta, nil
}

// resolve persists the attempt outcome, publishes the sync event and writes
// the audit record. The attempt error, if any, is passed through.
func (s *SyncService) resolve(ctx context.Context, link *model.SyncLink, record *model.VersionRecord, result, action string, attemptErr error) (*model.SyncLink, error) {
	if attemptErr != nil {
		link.Status = model.StatusError
		link.ErrorMessage = attemptErr.Error()
		if err := s.persist(link, nil); err != nil {
			logrus.Errorf("link %s: persist error state: %v", link.ID, err)
		}
		s.publish(link, attemptErr)
		s.audit.Record(ctx, action, "link", link.ID, map[string]any{"result": "error"}, attemptErr)
		return link, attemptErr
	}

	if err := s.persist(link, record); err != nil {
		return link, fmt.Errorf("persist sync outcome: %w", err)
	}

	s.publish(link, nil)
	s.audit.Record(ctx, action, "link", link.ID, map[string]any{
		"result":  result,
		"version": link.CurrentVersion,
	}, nil)

	return link, nil
}

// persist writes the terminal link state, together with the ledger record
// when one was produced. It runs on a fresh context so an expired attempt
// context cannot leave the link stuck in syncing.
func (s *SyncService) persist(link *model.SyncLink, record *model.VersionRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	var err error
	if record != nil {
		err = s.store.Transaction(ctx, func(tx store.Store) error {
			if err := tx.AppendVersion(ctx, record); err != nil {
				return err
			}
			return tx.UpdateSyncLink(ctx, link)
		})
	} else {
		err = s.store.UpdateSyncLink(ctx, link)
	}
	if err != nil {
		return err
	}

	if linkID, perr := uuid.Parse(link.ID); perr == nil {
		if cerr := s.cache.DeleteLink(ctx, linkID); cerr != nil {
			logrus.Debugf("evict link %s: %v", link.ID, cerr)
		}
	}

	return nil
}

func (s *SyncService) publish(link *model.SyncLink, attemptErr error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event := &queue.SyncEvent{
		LinkID:     link.ID,
		SourceKind: link.SourceKind,
		Store:      link.DestinationStore,
		Status:     link.Status,
		Version:    link.CurrentVersion,
		At:         time.Now(),
	}
	if attemptErr != nil {
		event.Error = attemptErr.Error()
	}

	if err := s.events.PublishSyncEvent(ctx, event); err != nil {
		logrus.Warnf("publish sync event for link %s: %v", link.ID, err)
	}
}
