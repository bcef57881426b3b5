package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/tolino-notes/internal/entities"
	"github.com/mrlokans/tolino-notes/internal/importers"
)

// DriveImporter runs an import of notes.txt from a reader drive.
type DriveImporter interface {
	ImportDrive(ctx context.Context, req importers.Request) (*importers.Report, error)
}

// ImportDriveTask imports <DriveDir>/notes.txt in the background.
type ImportDriveTask struct {
	Source   entities.ImportSource `json:"source"`
	DriveDir string                `json:"drive_dir"`
	NotesDir string                `json:"notes_dir"`
	Tags     string                `json:"tags"`
	DryRun   bool                  `json:"dry_run"`
}

// Config returns the queue configuration for drive import tasks.
func (t ImportDriveTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name: "import_drive",
		// A notes file that fails to parse will fail the same way again
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImportDriveProcessor creates a processor function for ImportDriveTask.
func ImportDriveProcessor(importer DriveImporter, logger *slog.Logger) backlite.QueueProcessor[ImportDriveTask] {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, task ImportDriveTask) error {
		if importer == nil {
			return fmt.Errorf("drive importer not configured")
		}

		source := task.Source
		if source == "" {
			source = entities.ImportSourceDrive
		}

		report, err := importer.ImportDrive(ctx, importers.Request{
			Source:   source,
			DriveDir: task.DriveDir,
			NotesDir: task.NotesDir,
			Tags:     task.Tags,
			DryRun:   task.DryRun,
		})
		if err != nil {
			return fmt.Errorf("import drive %s: %w", task.DriveDir, err)
		}

		logger.Info("drive import task finished", "run_id", report.RunID, "status", string(report.Status), "message", report.Message)
		return nil
	}
}

// NewImportDriveQueue creates a backlite queue for drive import tasks.
func NewImportDriveQueue(importer DriveImporter, logger *slog.Logger) backlite.Queue {
	return backlite.NewQueue(ImportDriveProcessor(importer, logger))
}
