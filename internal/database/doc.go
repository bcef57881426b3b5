// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── imports/         # Import runs and per-document outcomes
//	├── settings/        # Runtime settings (drive dir, notes dir, tags, sync)
//	└── audit/           # Audit events
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./tolino-notes.db")
//
//	importsRepo := imports.NewRepository(db.DB)
//	run, err := importsRepo.GetRun(runID)
//
// Each sub-package exposes a Repository struct with a *gorm.DB field and a
// NewRepository(db *gorm.DB) constructor. Consumers declare the narrow interface they
// need and assert it at compile time: var _ SomeInterface = (*Repository)(nil)
package database
