// Package interfaces documents the core abstractions used throughout the application.
//
// Consumers declare the narrow interface they need next to the code that uses it;
// this package only holds the compile-time checks tying them to concrete types.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - settingsstore.Repository: key/value settings (internal/database/settings)
//   - audit.EventStore: audit events (internal/database/audit)
//   - importers.RunStore, http.ImportHistory: import runs (internal/database/imports)
//
// ## Import Pipeline Interfaces
//
//   - importers.DocumentWriter: writes book documents (internal/exporters/writer.go)
//   - importers.SnapshotStore: raw notes.txt copies (internal/audit/audit.go)
//   - importers.AuditLogger: import audit events (internal/audit/service.go)
//
// ## Trigger Interfaces
//
// Every trigger depends on its own DriveImporter or NotesImporter, all satisfied by
// *importers.Pipeline:
//
//   - http.NotesImporter (internal/http/stores.go)
//   - scheduler.DriveImporter (internal/scheduler/drive_sync.go)
//   - tasks.DriveImporter (internal/tasks/import_drive.go)
//   - watcher.DriveImporter (internal/watcher/watcher.go)
//
// # Adding a New Trigger
//
//  1. Declare the interface in the new package:
//
//     type DriveImporter interface {
//         ImportDrive(ctx context.Context, req importers.Request) (*importers.Report, error)
//     }
//
//  2. Set Request.Source so the run is attributed in the import history.
//
//  3. Wire it in entrypoint.go and add a check to checks.go:
//
//     var _ trigger.DriveImporter = (*importers.Pipeline)(nil)
//
// # Compile-Time Interface Checks
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go.
package interfaces
