package audit

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const snapshotExt = ".txt"

// Auditor keeps a verbatim copy of every notes export that was imported.
type Auditor struct {
	AuditDir string
}

func NewAuditor(auditDir string) *Auditor {
	return &Auditor{
		AuditDir: auditDir,
	}
}

// SaveSnapshot writes raw as "<id>.txt" in the audit directory and returns the file name.
// A random UUID is used when id is empty.
func (a *Auditor) SaveSnapshot(id string, raw []byte) (string, error) {
	if err := a.ensureAuditDir(); err != nil {
		return "", fmt.Errorf("failed to ensure audit directory: %w", err)
	}

	if id == "" {
		id = uuid.New().String()
	}
	filename := id + snapshotExt
	path := filepath.Join(a.AuditDir, filename)

	if err := os.WriteFile(path, raw, 0644); err != nil {
		return "", fmt.Errorf("failed to write audit file: %w", err)
	}

	slog.Debug("saved notes snapshot", "path", path, "bytes", len(raw))
	return filename, nil
}

// SnapshotPath returns the absolute location of a snapshot returned by SaveSnapshot.
func (a *Auditor) SnapshotPath(filename string) string {
	return filepath.Join(a.AuditDir, filepath.Base(filename))
}

// DeleteSnapshotsBefore removes snapshots last modified before cutoff.
// Returns the number of removed files.
func (a *Auditor) DeleteSnapshotsBefore(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(a.AuditDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to list audit directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), snapshotExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(a.AuditDir, entry.Name())); err != nil {
			return removed, fmt.Errorf("failed to remove snapshot %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// ensureAuditDir creates the audit directory if it doesn't exist
func (a *Auditor) ensureAuditDir() error {
	if _, err := os.Stat(a.AuditDir); os.IsNotExist(err) {
		if err := os.MkdirAll(a.AuditDir, 0755); err != nil {
			return fmt.Errorf("failed to create audit directory: %w", err)
		}
	}
	return nil
}
