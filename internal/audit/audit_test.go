package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditor_SaveSnapshot(t *testing.T) {
	auditDir := filepath.Join(t.TempDir(), "audit")
	auditor := NewAuditor(auditDir)
	raw := []byte("Foo (Bar, Baz)\r\nHighlight on page 1: text\r\n")

	t.Run("creates directory and stores raw bytes", func(t *testing.T) {
		filename, err := auditor.SaveSnapshot("run-123", raw)
		require.NoError(t, err)
		assert.Equal(t, "run-123.txt", filename)

		content, err := os.ReadFile(auditor.SnapshotPath(filename))
		require.NoError(t, err)
		assert.Equal(t, raw, content)
	})

	t.Run("generates uuid names when id is empty", func(t *testing.T) {
		first, err := auditor.SaveSnapshot("", raw)
		require.NoError(t, err)
		second, err := auditor.SaveSnapshot("", raw)
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
		_, err = uuid.Parse(strings.TrimSuffix(first, ".txt"))
		assert.NoError(t, err)
	})
}

func TestAuditor_SnapshotPath_StaysInAuditDir(t *testing.T) {
	auditor := NewAuditor("/var/audit")
	assert.Equal(t, filepath.Join("/var/audit", "passwd"), auditor.SnapshotPath("../../etc/passwd"))
}

func TestAuditor_DeleteSnapshotsBefore(t *testing.T) {
	auditDir := t.TempDir()
	auditor := NewAuditor(auditDir)

	oldName, err := auditor.SaveSnapshot("old", []byte("old"))
	require.NoError(t, err)
	newName, err := auditor.SaveSnapshot("new", []byte("new"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(auditDir, "keep.json"), []byte("{}"), 0644))

	past := time.Now().AddDate(0, 0, -40)
	require.NoError(t, os.Chtimes(auditor.SnapshotPath(oldName), past, past))

	removed, err := auditor.DeleteSnapshotsBefore(time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(auditor.SnapshotPath(oldName))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(auditor.SnapshotPath(newName))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(auditDir, "keep.json"))
	assert.NoError(t, err)
}

func TestAuditor_DeleteSnapshotsBefore_MissingDir(t *testing.T) {
	auditor := NewAuditor(filepath.Join(t.TempDir(), "missing"))

	removed, err := auditor.DeleteSnapshotsBefore(time.Now())
	require.NoError(t, err)
	assert.Zero(t, removed)
}
