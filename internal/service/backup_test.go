package service

import (
	"archive/tar"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/emrgen/filesearch/internal/compress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService_CreateBackup(t *testing.T) {
	e := newEnv("store-1")
	dir := t.TempDir()
	backups := NewBackupService(e.store, compress.NewNop(), dir, "", e.audit)

	link, err := e.createLink(&CreateLinkRequest{})
	require.NoError(t, err)
	_, err = e.syncer.SyncNow(context.TODO(), link.ID, false)
	require.NoError(t, err)
	e.source.set("v2 content", "sig-2")
	_, err = e.syncer.SyncNow(context.TODO(), link.ID, false)
	require.NoError(t, err)

	info, err := backups.CreateBackup(context.TODO())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(info.Name, BackupPrefix))
	assert.True(t, strings.HasSuffix(info.Name, ".tar"))
	assert.Greater(t, info.SizeBytes, int64(0))

	raw, err := os.ReadFile(filepath.Join(dir, info.Name))
	require.NoError(t, err)

	entries := map[string][]byte{}
	tr := tar.NewReader(bytes.NewReader(raw))
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		content, err := io.ReadAll(tr)
		require.NoError(t, err)
		entries[hdr.Name] = content
	}

	require.Contains(t, entries, "links.json")
	require.Contains(t, entries, "versions.json")
	require.Contains(t, entries, "audit.json")

	assert.Contains(t, string(entries["links.json"]), link.ID)
	// one replacement happened, the ledger entry is in the export
	assert.Contains(t, string(entries["versions.json"]), "doc-1")
}

func TestBackupService_ListBackups(t *testing.T) {
	e := newEnv()
	dir := t.TempDir()
	backups := NewBackupService(e.store, compress.NewNop(), dir, "", e.audit)

	// an empty or missing directory lists cleanly
	infos, err := backups.ListBackups(context.TODO())
	require.NoError(t, err)
	assert.Empty(t, infos)

	created, err := backups.CreateBackup(context.TODO())
	require.NoError(t, err)

	// stray files in the directory are not backups
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	infos, err = backups.ListBackups(context.TODO())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, created.Name, infos[0].Name)
}
