// Package importers runs the Tolino notes import end to end.
//
// # Flow
//
//	notes.txt bytes → snapshot → tolino.Normalize → NoteParser → NoteAggregator → DocumentWriter
//	                                                                           ↓
//	                                                  ImportRun + ImportedDocument rows, audit event
//
// Every entry point funnels into the same pipeline:
//
//   - ImportDrive reads <drive>/notes.txt from a mounted reader (CLI, HTTP, scheduler, watcher, tasks)
//   - ImportBytes takes an uploaded export
//
// A Request with DryRun set stops after aggregation and reports the files that would be
// written. Imports are serialized per Pipeline so two runs never write the same directory
// at once.
//
// # Example Usage
//
//	pipeline := importers.NewPipeline(importers.Dependencies{
//		Writer:    exporters.NewDocumentWriter(4, logger),
//		Runs:      imports.NewRepository(db.DB),
//		Snapshots: audit.NewAuditor("./audit"),
//		Audit:     audit.NewService(auditRepo),
//	})
//
//	report, err := pipeline.ImportDrive(ctx, importers.Request{
//		Source:   entities.ImportSourceCLI,
//		DriveDir: "/media/tolino",
//		NotesDir: "./notes",
//		Tags:     "#tolino,#book",
//	})
package importers
