package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/mrlokans/tolino-notes/internal/audit"
	"github.com/mrlokans/tolino-notes/internal/database"
	auditRepo "github.com/mrlokans/tolino-notes/internal/database/audit"
	"github.com/mrlokans/tolino-notes/internal/database/imports"
	"github.com/mrlokans/tolino-notes/internal/exporters"
	"github.com/mrlokans/tolino-notes/internal/importers"
)

// importApp is the pipeline a command runs, optionally backed by the history database.
type importApp struct {
	pipeline *importers.Pipeline
	db       *database.Database
	audit    *audit.Service
}

func newImportApp(dbPath string, auditDir string, logger *slog.Logger) (*importApp, error) {
	deps := importers.Dependencies{
		Writer: exporters.NewDocumentWriter(exporters.DefaultWriteWorkers, logger),
		Logger: logger,
	}

	app := &importApp{}
	if dbPath != "" {
		absDBPath, err := filepath.Abs(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for database: %w", err)
		}

		db, err := database.NewDatabase(absDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		app.db = db
		app.audit = audit.NewService(auditRepo.NewRepository(db.DB))

		deps.Runs = imports.NewRepository(db.DB)
		deps.Audit = app.audit
		if auditDir != "" {
			deps.Snapshots = audit.NewAuditor(auditDir)
		}
	}

	app.pipeline = importers.NewPipeline(deps)
	return app, nil
}

func (a *importApp) Close() error {
	if a.audit != nil {
		a.audit.Wait()
	}
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
