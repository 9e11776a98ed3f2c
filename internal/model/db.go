package model

import "gorm.io/gorm"

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&SyncLink{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&VersionRecord{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&AuditRecord{}); err != nil {
		return err
	}

	return nil
}
