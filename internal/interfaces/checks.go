package interfaces

// Compile-time checks that the concrete types wired in entrypoint satisfy the
// narrow interfaces their consumers declare.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/tolino-notes/internal/audit"
	auditRepo "github.com/mrlokans/tolino-notes/internal/database/audit"
	"github.com/mrlokans/tolino-notes/internal/database/imports"
	"github.com/mrlokans/tolino-notes/internal/database/settings"
	"github.com/mrlokans/tolino-notes/internal/exporters"
	"github.com/mrlokans/tolino-notes/internal/http"
	"github.com/mrlokans/tolino-notes/internal/importers"
	"github.com/mrlokans/tolino-notes/internal/scheduler"
	"github.com/mrlokans/tolino-notes/internal/settingsstore"
	"github.com/mrlokans/tolino-notes/internal/tasks"
	"github.com/mrlokans/tolino-notes/internal/watcher"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ settingsstore.Repository = (*settings.Repository)(nil)
var _ audit.EventStore = (*auditRepo.Repository)(nil)

var _ importers.RunStore = (*imports.Repository)(nil)
var _ http.ImportHistory = (*imports.Repository)(nil)
var _ tasks.ImportHistoryCleaner = (*imports.Repository)(nil)

// =============================================================================
// Import Pipeline
// =============================================================================

var _ importers.DocumentWriter = (*exporters.DocumentWriter)(nil)
var _ importers.SnapshotStore = (*audit.Auditor)(nil)
var _ importers.AuditLogger = (*audit.Service)(nil)

// Every trigger drives the same pipeline
var _ http.NotesImporter = (*importers.Pipeline)(nil)
var _ scheduler.DriveImporter = (*importers.Pipeline)(nil)
var _ tasks.DriveImporter = (*importers.Pipeline)(nil)
var _ watcher.DriveImporter = (*importers.Pipeline)(nil)

// =============================================================================
// Settings, Sync and Audit
// =============================================================================

var _ http.SettingsStore = (*settingsstore.SettingsStore)(nil)
var _ http.ImportSettingsReader = (*settingsstore.SettingsStore)(nil)
var _ scheduler.SyncSettings = (*settingsstore.SettingsStore)(nil)

var _ http.SettingsAuditor = (*audit.Service)(nil)
var _ http.AuditLog = (*audit.Service)(nil)
var _ scheduler.SyncAuditor = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
var _ tasks.SnapshotCleaner = (*audit.Auditor)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ http.SyncScheduler = (*scheduler.DriveSyncScheduler)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)
