package store

import (
	"context"
	"github.com/emrgen/filesearch/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

func (g *GormStore) CreateSyncLink(ctx context.Context, link *model.SyncLink) error {
	return g.db.WithContext(ctx).Create(link).Error
}

func (g *GormStore) GetSyncLink(ctx context.Context, id uuid.UUID) (*model.SyncLink, error) {
	var link model.SyncLink
	err := g.db.WithContext(ctx).Where("id = ?", id.String()).First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (g *GormStore) ListSyncLinks(ctx context.Context, projectID string) ([]*model.SyncLink, error) {
	var links []*model.SyncLink
	q := g.db.WithContext(ctx).Order("created_at desc")
	if projectID != "" {
		q = q.Where("project_id = ?", projectID)
	}
	err := q.Find(&links).Error
	return links, err
}

func (g *GormStore) ListAutoSyncLinks(ctx context.Context, sourceKind string) ([]*model.SyncLink, error) {
	var links []*model.SyncLink
	err := g.db.WithContext(ctx).
		Where("sync_mode = ? AND source_kind = ?", model.ModeAuto, sourceKind).
		Find(&links).Error
	return links, err
}

func (g *GormStore) CountSyncLinksForStore(ctx context.Context, destinationStore string) (int64, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&model.SyncLink{}).
		Where("destination_store = ?", destinationStore).
		Count(&count).Error
	return count, err
}

func (g *GormStore) UpdateSyncLink(ctx context.Context, link *model.SyncLink) error {
	return g.db.WithContext(ctx).Save(link).Error
}

// ClaimSyncLink is the at-most-one in-flight guard. The conditional update
// makes concurrent claims race on the database row, not in memory.
func (g *GormStore) ClaimSyncLink(ctx context.Context, id uuid.UUID) (bool, error) {
	res := g.db.WithContext(ctx).Model(&model.SyncLink{}).
		Where("id = ? AND status <> ?", id.String(), model.StatusSyncing).
		Update("status", model.StatusSyncing)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (g *GormStore) DeleteSyncLink(ctx context.Context, id uuid.UUID) error {
	return g.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&model.SyncLink{}).Error
}

func (g *GormStore) AppendVersion(ctx context.Context, record *model.VersionRecord) error {
	return g.db.WithContext(ctx).Create(record).Error
}

func (g *GormStore) ListVersions(ctx context.Context, linkID uuid.UUID) ([]*model.VersionRecord, error) {
	var records []*model.VersionRecord
	err := g.db.WithContext(ctx).
		Where("link_id = ?", linkID.String()).
		Order("version_number desc").
		Find(&records).Error
	return records, err
}

func (g *GormStore) ListAllVersions(ctx context.Context) ([]*model.VersionRecord, error) {
	var records []*model.VersionRecord
	err := g.db.WithContext(ctx).
		Order("link_id, version_number").
		Find(&records).Error
	return records, err
}

func (g *GormStore) CreateAuditRecord(ctx context.Context, record *model.AuditRecord) error {
	return g.db.WithContext(ctx).Create(record).Error
}

func (g *GormStore) ListAuditRecords(ctx context.Context, filter AuditFilter) ([]*model.AuditRecord, error) {
	var records []*model.AuditRecord
	q := g.db.WithContext(ctx).Order("id desc")
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.ResourceType != "" {
		q = q.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		q = q.Where("resource_id = ?", filter.ResourceID)
	}
	if filter.Limit >= 0 {
		limit := filter.Limit
		if limit == 0 {
			limit = 100
		}
		q = q.Limit(limit)
	}
	err := q.Find(&records).Error
	return records, err
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx})
	})
}
