package job

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/emrgen/filesearch/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBackupFile(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("archive"), 0o644))
	stamp := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, stamp, stamp))

	return path
}

func TestRetentionCleaner_Clean(t *testing.T) {
	dir := t.TempDir()

	old := writeBackupFile(t, dir, service.BackupPrefix+"20250101T000000Z.tar", 10*24*time.Hour)
	fresh := writeBackupFile(t, dir, service.BackupPrefix+"20250601T000000Z.tar", time.Hour)
	stray := writeBackupFile(t, dir, "notes.txt", 10*24*time.Hour)

	cleaner := NewRetentionCleaner(dir, 7)
	cleaner.clean()

	_, err := os.Stat(old)
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(fresh)
	assert.NoError(t, err)

	// unrelated files are never touched
	_, err = os.Stat(stray)
	assert.NoError(t, err)
}

func TestRetentionCleaner_MissingDir(t *testing.T) {
	cleaner := NewRetentionCleaner(filepath.Join(t.TempDir(), "nope"), 7)

	// nothing to clean is not an error
	cleaner.clean()
}
