package http

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/tolino-notes/internal/entities"
	"github.com/mrlokans/tolino-notes/internal/importers"
	"github.com/mrlokans/tolino-notes/internal/settingsstore"
)

// This file consolidates the interfaces HTTP controllers depend on.

// NotesImporter runs notes.txt imports.
type NotesImporter interface {
	ImportBytes(ctx context.Context, raw []byte, req importers.Request) (*importers.Report, error)
	Preview(ctx context.Context, raw []byte, req importers.Request) (*importers.Report, error)
	ImportDrive(ctx context.Context, req importers.Request) (*importers.Report, error)
}

// ImportHistory provides read access to past import runs.
type ImportHistory interface {
	ListRuns(limit, offset int) ([]entities.ImportRun, int64, error)
	GetRun(runID string) (*entities.ImportRun, error)
	LatestRun(source entities.ImportSource) (*entities.ImportRun, error)
}

// AuditLog provides read access to audit events.
type AuditLog interface {
	GetEvents(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error)
	GetEventsForRun(runID string) ([]entities.AuditEvent, error)
}

// SettingsStore reads and overrides the effective import and sync settings.
type SettingsStore interface {
	GetImportSettings() settingsstore.ImportSettings
	GetImportSettingsInfo() settingsstore.ImportSettingsInfo
	SetDriveDir(dir string) error
	SetNotesDir(dir string) error
	SetNoteTags(tags string) error
	ClearImportSettings() error

	GetSyncConfig() settingsstore.SyncConfig
	GetSyncConfigInfo() settingsstore.SyncConfigInfo
	GetSyncStatus() settingsstore.SyncStatus
	SetSyncEnabled(enabled bool) error
	SetSyncSchedule(schedule string) error
	ClearSyncSettings() error
}

// SettingsAuditor records settings changes.
type SettingsAuditor interface {
	LogSettings(action, description, ipAddr string)
}

// SyncScheduler controls the periodic drive import.
type SyncScheduler interface {
	Reschedule() error
	RunNow(ctx context.Context)
	IsRunning() bool
	GetNextRunTime() *time.Time
}

// TaskQueue enqueues background tasks and reports their status.
type TaskQueue interface {
	Add(tasks ...backlite.Task) *backlite.TaskAddOp
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}
