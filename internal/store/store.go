package store

import (
	"context"
	"github.com/google/uuid"

	"github.com/emrgen/filesearch/internal/model"
)

type Store interface {
	SyncLinkStore
	VersionStore
	AuditStore
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

type SyncLinkStore interface {
	// CreateSyncLink creates a new sync link.
	CreateSyncLink(ctx context.Context, link *model.SyncLink) error
	// GetSyncLink retrieves a sync link by ID.
	GetSyncLink(ctx context.Context, id uuid.UUID) (*model.SyncLink, error)
	// ListSyncLinks retrieves sync links, optionally filtered by project ID.
	ListSyncLinks(ctx context.Context, projectID string) ([]*model.SyncLink, error)
	// ListAutoSyncLinks retrieves auto mode links of one source kind.
	ListAutoSyncLinks(ctx context.Context, sourceKind string) ([]*model.SyncLink, error)
	// CountSyncLinksForStore counts the links targeting a destination store.
	CountSyncLinksForStore(ctx context.Context, destinationStore string) (int64, error)
	// UpdateSyncLink saves a sync link.
	UpdateSyncLink(ctx context.Context, link *model.SyncLink) error
	// ClaimSyncLink moves a link into syncing status unless it already is
	// syncing. It reports whether the claim won.
	ClaimSyncLink(ctx context.Context, id uuid.UUID) (bool, error)
	// DeleteSyncLink deletes a sync link by ID.
	DeleteSyncLink(ctx context.Context, id uuid.UUID) error
}

// VersionStore is the append only replacement ledger. There are no update or
// delete operations.
type VersionStore interface {
	// AppendVersion appends a version record.
	AppendVersion(ctx context.Context, record *model.VersionRecord) error
	// ListVersions retrieves the version records of a link, newest first.
	ListVersions(ctx context.Context, linkID uuid.UUID) ([]*model.VersionRecord, error)
	// ListAllVersions retrieves every version record, for exports.
	ListAllVersions(ctx context.Context) ([]*model.VersionRecord, error)
}

type AuditStore interface {
	// CreateAuditRecord appends an audit record.
	CreateAuditRecord(ctx context.Context, record *model.AuditRecord) error
	// ListAuditRecords retrieves audit records, newest first.
	ListAuditRecords(ctx context.Context, filter AuditFilter) ([]*model.AuditRecord, error)
}

// AuditFilter narrows audit listings. Zero values match everything. Limit 0
// applies the default page size, a negative limit lists everything.
type AuditFilter struct {
	Action       string
	ResourceType string
	ResourceID   string
	Limit        int
}
