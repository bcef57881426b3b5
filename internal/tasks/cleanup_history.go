package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mikestefanello/backlite"
)

const defaultRetentionDays = 30

// ImportHistoryCleaner deletes old import runs.
type ImportHistoryCleaner interface {
	DeleteRunsBefore(olderThan time.Time) (int64, error)
}

// AuditEventCleaner provides the ability to delete old audit events.
type AuditEventCleaner interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
}

// SnapshotCleaner deletes raw notes snapshots.
type SnapshotCleaner interface {
	DeleteSnapshotsBefore(cutoff time.Time) (int, error)
}

// HistoryCleaners groups everything the cleanup task prunes. Nil members are skipped.
type HistoryCleaners struct {
	Runs      ImportHistoryCleaner
	Events    AuditEventCleaner
	Snapshots SnapshotCleaner
}

// CleanupImportHistoryTask removes import runs, audit events and snapshots older
// than the retention period.
type CleanupImportHistoryTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config returns the queue configuration for history cleanup tasks.
func (t CleanupImportHistoryTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_import_history",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupImportHistoryProcessor creates a processor function for CleanupImportHistoryTask.
func CleanupImportHistoryProcessor(cleaners HistoryCleaners, logger *slog.Logger) backlite.QueueProcessor[CleanupImportHistoryTask] {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, task CleanupImportHistoryTask) error {
		retentionDays := task.RetentionDays
		if retentionDays <= 0 {
			retentionDays = defaultRetentionDays
		}
		retention := time.Duration(retentionDays) * 24 * time.Hour
		cutoff := time.Now().Add(-retention)

		var runs, events int64
		var snapshots int
		var err error

		if cleaners.Runs != nil {
			if runs, err = cleaners.Runs.DeleteRunsBefore(cutoff); err != nil {
				return fmt.Errorf("cleanup import runs: %w", err)
			}
		}
		if cleaners.Events != nil {
			if events, err = cleaners.Events.DeleteOldEvents(retention); err != nil {
				return fmt.Errorf("cleanup audit events: %w", err)
			}
		}
		if cleaners.Snapshots != nil {
			if snapshots, err = cleaners.Snapshots.DeleteSnapshotsBefore(cutoff); err != nil {
				return fmt.Errorf("cleanup snapshots: %w", err)
			}
		}

		logger.Info("cleaned up import history",
			"retention_days", retentionDays,
			"runs", runs,
			"audit_events", events,
			"snapshots", snapshots)
		return nil
	}
}

// NewCleanupImportHistoryQueue creates a backlite queue for history cleanup tasks.
func NewCleanupImportHistoryQueue(cleaners HistoryCleaners, logger *slog.Logger) backlite.Queue {
	return backlite.NewQueue(CleanupImportHistoryProcessor(cleaners, logger))
}
