package http

import (
	"github.com/mrlokans/tolino-notes/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Importer NotesImporter
	History  ImportHistory

	// Effective import and sync settings
	Settings SettingsStore
	// Records settings changes in the audit log (optional)
	Auditor SettingsAuditor
	// Serves /api/audit and the events of each import run (optional)
	AuditLog AuditLog

	// Drive sync scheduler (optional)
	Scheduler SyncScheduler

	// Task queue client (optional). Without it /api/import/run runs inline
	TaskClient TaskQueue

	// Maximum accepted notes.txt upload in bytes
	MaxUploadSize int64
	// Import requests allowed per minute, 0 disables the limit
	ImportsPerMinute int

	// Application info
	Version string
}
