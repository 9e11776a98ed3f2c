package service

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/emrgen/filesearch/internal/compress"
	"github.com/emrgen/filesearch/internal/store"
	"github.com/sirupsen/logrus"
)

// BackupPrefix names the archives this service owns. The retention cleaner
// only ever touches files carrying it.
const BackupPrefix = "filesearch-"

// NewBackupService creates a new backup service.
func NewBackupService(store store.Store, codec compress.Compress, dir, dbPath string, audit *AuditService) *BackupService {
	return &BackupService{
		store:  store,
		codec:  codec,
		dir:    dir,
		dbPath: dbPath,
		audit:  audit,
	}
}

// BackupService writes registry snapshots as tar archives under the backup
// directory. Each archive holds JSON exports of the links, the version
// ledger and the audit trail, plus the raw database file when the registry
// runs on sqlite.
type BackupService struct {
	store  store.Store
	codec  compress.Compress
	dir    string
	dbPath string
	audit  *AuditService
}

// BackupInfo describes one archive on disk.
type BackupInfo struct {
	Name      string    `json:"name"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateBackup snapshots the registry into a new archive.
func (b *BackupService) CreateBackup(ctx context.Context) (*BackupInfo, error) {
	links, err := b.store.ListSyncLinks(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("export links: %w", err)
	}
	versions, err := b.store.ListAllVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("export versions: %w", err)
	}
	audits, err := b.store.ListAuditRecords(ctx, store.AuditFilter{Limit: -1})
	if err != nil {
		return nil, fmt.Errorf("export audit records: %w", err)
	}

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := addJSON(tw, "links.json", links); err != nil {
		return nil, err
	}
	if err := addJSON(tw, "versions.json", versions); err != nil {
		return nil, err
	}
	if err := addJSON(tw, "audit.json", audits); err != nil {
		return nil, err
	}
	if b.dbPath != "" {
		data, err := os.ReadFile(b.dbPath)
		if err != nil {
			logrus.Warnf("backup: skip database file %s: %v", b.dbPath, err)
		} else if err := addEntry(tw, "registry.db", data); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}

	encoded, err := b.codec.Encode(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("compress archive: %w", err)
	}

	now := time.Now().UTC()
	name := BackupPrefix + now.Format("20060102T150405Z") + ".tar" + archiveExt(b.codec.Name())
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir %s: %w", b.dir, err)
	}
	if err := os.WriteFile(filepath.Join(b.dir, name), encoded, 0o644); err != nil {
		return nil, fmt.Errorf("write archive %s: %w", name, err)
	}

	b.audit.Record(ctx, AuditBackupCreated, "backup", name, map[string]any{
		"links":      len(links),
		"versions":   len(versions),
		"size_bytes": len(encoded),
	}, nil)

	return &BackupInfo{Name: name, SizeBytes: int64(len(encoded)), CreatedAt: now}, nil
}

// ListBackups lists the archives on disk, newest first. A missing backup
// directory is an empty listing, not an error.
func (b *BackupService) ListBackups(ctx context.Context) ([]*BackupInfo, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*BackupInfo{}, nil
		}
		return nil, fmt.Errorf("read backup dir %s: %w", b.dir, err)
	}

	backups := make([]*BackupInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), BackupPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, &BackupInfo{
			Name:      entry.Name(),
			SizeBytes: info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})

	return backups, nil
}

func addJSON(tw *tar.Writer, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	return addEntry(tw, name, data)
}

func addEntry(tw *tar.Writer, name string, data []byte) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: time.Now(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write %s header: %w", name, err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func archiveExt(codec string) string {
	switch codec {
	case "gzip":
		return ".gz"
	case "brotli":
		return ".br"
	case "lz4":
		return ".lz4"
	default:
		return ""
	}
}
