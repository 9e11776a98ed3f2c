package job

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emrgen/filesearch/internal/service"
	"github.com/sirupsen/logrus"
)

// RetentionCleaner deletes backup archives older than the retention window.
// It only ever touches files carrying the backup prefix.
type RetentionCleaner struct {
	dir       string
	retention time.Duration
	done      chan struct{}
}

// NewRetentionCleaner creates a cleaner for dir. A retention of zero or less
// disables cleaning.
func NewRetentionCleaner(dir string, retentionDays int) *RetentionCleaner {
	return &RetentionCleaner{
		dir:       dir,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		done:      make(chan struct{}),
	}
}

func (c *RetentionCleaner) Name() string {
	return "backup_retention"
}

func (c *RetentionCleaner) Stop() {
	close(c.done)
}

func (c *RetentionCleaner) Run() {
	if c.retention <= 0 {
		return
	}

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	c.clean()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.clean()
		}
	}
}

func (c *RetentionCleaner) clean() {
	cutoff := time.Now().Add(-c.retention)

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.Errorf("backup retention: read %s: %v", c.dir, err)
		}
		return
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), service.BackupPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			logrus.Errorf("backup retention: remove %s: %v", entry.Name(), err)
			continue
		}
		removed++
	}

	if removed > 0 {
		logrus.Infof("backup retention: removed %d archives past %s", removed, c.retention)
	}
}
