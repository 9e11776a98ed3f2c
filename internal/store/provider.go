package store

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens the database named by url, picking the driver from the scheme.
// postgres:// and postgresql:// urls use the postgres driver, everything else
// is treated as a sqlite file path (an optional sqlite:// prefix is stripped).
func NewDB(url string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		db, err := gorm.Open(postgres.Open(url), cfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres database: %w", err)
		}
		return db, nil
	default:
		path := strings.TrimPrefix(url, "sqlite://")
		db, err := gorm.Open(sqlite.Open(path), cfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database %q: %w", path, err)
		}
		return db, nil
	}
}

// SQLitePath returns the database file path when url names a sqlite database,
// and "" for server databases. Backups include the raw file only for sqlite.
func SQLitePath(url string) string {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return ""
	}
	return strings.TrimPrefix(url, "sqlite://")
}

// Provide opens the database and returns a migrated store.
func Provide(url string) (Store, error) {
	db, err := NewDB(url)
	if err != nil {
		return nil, err
	}

	gs := NewGormStore(db)
	if err := gs.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return gs, nil
}
