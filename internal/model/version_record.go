package model

import "time"

// VersionRecord is one superseded remote document generation of a sync link.
// Rows are append only: they are never updated or deleted, and they survive
// link deletion so the replacement history stays auditable.
type VersionRecord struct {
	LinkID           string    `gorm:"primaryKey;uuid;not null;index:idx_version_records_link_id" json:"link_id"`
	VersionNumber    int64     `gorm:"primaryKey;not null" json:"version_number"`
	RemoteDocumentID string    `gorm:"not null" json:"remote_document_id"`
	ReplacedAt       time.Time `gorm:"not null" json:"replaced_at"`
}

func (VersionRecord) TableName() string {
	return "version_records"
}
