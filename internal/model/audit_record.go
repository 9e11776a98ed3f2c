package model

import "gorm.io/gorm"

// AuditRecord is one console action, insert only.
type AuditRecord struct {
	gorm.Model
	Action       string `gorm:"not null;index"`
	ResourceType string `gorm:"index"`
	ResourceID   string
	Details      string // JSON object with action specific fields
	Success      bool   `gorm:"not null;default:true"`
	ErrorMessage string
	ClientIP     string
}

func (AuditRecord) TableName() string {
	return "audit_records"
}
