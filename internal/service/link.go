package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/emrgen/filesearch/internal/cache"
	"github.com/emrgen/filesearch/internal/model"
	"github.com/emrgen/filesearch/internal/rag"
	"github.com/emrgen/filesearch/internal/source"
	"github.com/emrgen/filesearch/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// NewLinkService creates a new sync link service.
func NewLinkService(store store.Store, sources source.Registry, backend rag.Backend, links cache.LinkCache, audit *AuditService) *LinkService {
	return &LinkService{
		store:   store,
		sources: sources,
		backend: backend,
		cache:   links,
		audit:   audit,
	}
}

// LinkService owns the sync link registry: create, read, list, history and
// delete. Sync attempts live in SyncService.
type LinkService struct {
	store   store.Store
	sources source.Registry
	backend rag.Backend
	cache   cache.LinkCache
	audit   *AuditService
}

// CreateLinkRequest carries the create parameters.
type CreateLinkRequest struct {
	SourceKind          string
	SourceReference     string
	DestinationStore    string
	DisplayName         string
	SyncMode            string
	SyncIntervalMinutes int
	CustomMetadata      map[string]string
	ProjectID           string
}

// History is the current version plus the replacement records, newest first.
type History struct {
	LinkID         string                 `json:"link_id"`
	CurrentVersion int64                  `json:"current_version"`
	Records        []*model.VersionRecord `json:"records"`
}

// CreateLink validates the request and persists a pending link. Nothing is
// uploaded yet, the first sync does that.
func (l *LinkService) CreateLink(ctx context.Context, req *CreateLinkRequest) (*model.SyncLink, error) {
	if err := l.validateCreate(req); err != nil {
		return nil, err
	}

	// the destination store must exist before anything points at it
	if _, err := l.backend.GetStore(ctx, req.DestinationStore); err != nil {
		if errors.Is(err, rag.ErrNotFound) {
			return nil, validationErr("destination_store", "store not found")
		}
		return nil, err
	}

	src, err := l.sources.For(req.SourceKind)
	if err != nil {
		return nil, validationErr("source_kind", err.Error())
	}

	name, err := src.Describe(ctx, req.SourceReference)
	if err != nil {
		// a broken local reference is a create time mistake, drive access
		// problems keep their own taxonomy so the operator knows what to fix
		if req.SourceKind == model.SourceLocal {
			return nil, validationErr("source_reference", err.Error())
		}
		return nil, err
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = name
	}

	mode := req.SyncMode
	if mode == "" {
		mode = model.ModeManual
	}

	interval := req.SyncIntervalMinutes
	if mode == model.ModeAuto && interval == 0 {
		interval = model.DefaultSyncIntervalMinutes
	}

	link := &model.SyncLink{
		ID:                  uuid.New().String(),
		SourceKind:          req.SourceKind,
		SourceReference:     req.SourceReference,
		DestinationStore:    req.DestinationStore,
		DisplayName:         displayName,
		SyncMode:            mode,
		SyncIntervalMinutes: interval,
		CurrentVersion:      1,
		Status:              model.StatusPending,
		ProjectID:           req.ProjectID,
	}
	if err := link.SetMetadata(req.CustomMetadata); err != nil {
		return nil, validationErr("custom_metadata", err.Error())
	}

	if err := l.store.CreateSyncLink(ctx, link); err != nil {
		return nil, err
	}

	l.audit.Record(ctx, AuditLinkCreated, "link", link.ID, map[string]any{
		"source_kind":       link.SourceKind,
		"source_reference":  link.SourceReference,
		"destination_store": link.DestinationStore,
		"sync_mode":         link.SyncMode,
	}, nil)

	return link, nil
}

func (l *LinkService) validateCreate(req *CreateLinkRequest) error {
	switch req.SourceKind {
	case model.SourceLocal, model.SourceDrive:
	default:
		return validationErr("source_kind", fmt.Sprintf("must be %q or %q", model.SourceLocal, model.SourceDrive))
	}

	if req.SourceReference == "" {
		return validationErr("source_reference", "must not be empty")
	}
	if req.SourceKind == model.SourceLocal && !filepath.IsAbs(req.SourceReference) {
		return validationErr("source_reference", "must be an absolute path")
	}

	if req.DestinationStore == "" {
		return validationErr("destination_store", "must not be empty")
	}

	switch req.SyncMode {
	case "", model.ModeManual, model.ModeAuto:
	default:
		return validationErr("sync_mode", fmt.Sprintf("must be %q or %q", model.ModeManual, model.ModeAuto))
	}

	if req.SyncIntervalMinutes != 0 && req.SyncIntervalMinutes < model.MinSyncIntervalMinutes {
		return validationErr("sync_interval_minutes", fmt.Sprintf("must be at least %d minutes", model.MinSyncIntervalMinutes))
	}

	if len(req.CustomMetadata) > model.MaxCustomMetadata {
		return validationErr("custom_metadata", fmt.Sprintf("at most %d pairs", model.MaxCustomMetadata))
	}

	return nil
}

// GetLink reads one link, through the cache.
func (l *LinkService) GetLink(ctx context.Context, id string) (*model.SyncLink, error) {
	linkID, err := parseLinkID(id)
	if err != nil {
		return nil, err
	}

	if link, err := l.cache.GetLink(ctx, linkID); err == nil {
		return link, nil
	}

	link, err := l.store.GetSyncLink(ctx, linkID)
	if err != nil {
		return nil, mapStoreErr(err, id)
	}

	if err := l.cache.SetLink(ctx, link); err != nil {
		logrus.Debugf("cache link %s: %v", id, err)
	}

	return link, nil
}

// ListLinks returns all links, optionally narrowed to one project.
func (l *LinkService) ListLinks(ctx context.Context, projectID string) ([]*model.SyncLink, error) {
	return l.store.ListSyncLinks(ctx, projectID)
}

// GetHistory returns the link's current version and its replacement ledger,
// newest first.
func (l *LinkService) GetHistory(ctx context.Context, id string) (*History, error) {
	linkID, err := parseLinkID(id)
	if err != nil {
		return nil, err
	}

	link, err := l.store.GetSyncLink(ctx, linkID)
	if err != nil {
		return nil, mapStoreErr(err, id)
	}

	records, err := l.store.ListVersions(ctx, linkID)
	if err != nil {
		return nil, err
	}

	return &History{
		LinkID:         link.ID,
		CurrentVersion: link.CurrentVersion,
		Records:        records,
	}, nil
}

// DeleteLink removes a link. With alsoDeleteFromStore the live remote
// document is deleted first, a missing document is tolerated. The ledger is
// kept, history outlives the link.
func (l *LinkService) DeleteLink(ctx context.Context, id string, alsoDeleteFromStore bool) error {
	linkID, err := parseLinkID(id)
	if err != nil {
		return err
	}

	link, err := l.store.GetSyncLink(ctx, linkID)
	if err != nil {
		return mapStoreErr(err, id)
	}

	if link.Status == model.StatusSyncing {
		return fmt.Errorf("%w: link %s", ErrConflict, id)
	}

	if alsoDeleteFromStore && link.CurrentRemoteDocumentID != "" {
		err := l.backend.DeleteDocument(ctx, link.DestinationStore, link.CurrentRemoteDocumentID)
		if err != nil && !errors.Is(err, rag.ErrNotFound) {
			return fmt.Errorf("delete remote document %s: %w", link.CurrentRemoteDocumentID, err)
		}
	}

	if err := l.store.DeleteSyncLink(ctx, linkID); err != nil {
		return err
	}

	if err := l.cache.DeleteLink(ctx, linkID); err != nil {
		logrus.Debugf("evict link %s: %v", id, err)
	}

	l.audit.Record(ctx, AuditLinkDeleted, "link", link.ID, map[string]any{
		"deleted_from_store": alsoDeleteFromStore,
	}, nil)

	return nil
}

func parseLinkID(id string) (uuid.UUID, error) {
	linkID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrLinkNotFound, id)
	}
	return linkID, nil
}

func mapStoreErr(err error, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrLinkNotFound, id)
	}
	return err
}
