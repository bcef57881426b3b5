package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mrlokans/tolino-notes/internal/config"
	"github.com/mrlokans/tolino-notes/internal/entities"
	"github.com/mrlokans/tolino-notes/internal/importers"
	"github.com/mrlokans/tolino-notes/internal/logging"
	"github.com/mrlokans/tolino-notes/internal/watcher"
)

// WatchCommand imports notes.txt every time the reader rewrites it
type WatchCommand struct {
	DriveDir     string
	OutputDir    string
	Tags         string
	DatabasePath string
	Debounce     time.Duration
	Initial      bool
	Verbose      bool
}

func NewWatchCommand() *WatchCommand {
	return &WatchCommand{}
}

func (cmd *WatchCommand) ParseFlags(args []string) error {
	defaults := config.NewConfig()

	fs := flag.NewFlagSet("watch", flag.ContinueOnError)

	fs.StringVar(&cmd.DriveDir, "dir", defaults.Tolino.DriveDir, "Directory holding notes.txt (required)")
	fs.StringVar(&cmd.OutputDir, "output", defaults.Notes.Dir, "Output directory for markdown notes (required)")
	fs.StringVar(&cmd.Tags, "tags", defaults.Notes.Tags, "Comma separated tags for the front matter")
	fs.StringVar(&cmd.DatabasePath, "db", "", "Record imports in this history database (disabled when empty)")
	fs.DurationVar(&cmd.Debounce, "debounce", defaults.Watch.Debounce, "Quiet period after the last change before importing")
	fs.BoolVar(&cmd.Initial, "initial", false, "Import once on startup before waiting for changes")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s watch -dir <drive> -output <dir> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Watch the reader drive and import notes.txt whenever it changes. Stop with Ctrl+C.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.DriveDir == "" {
		return fmt.Errorf("required flag -dir not provided")
	}
	if cmd.OutputDir == "" {
		return fmt.Errorf("required flag -output not provided")
	}
	if cmd.Debounce <= 0 {
		cmd.Debounce = watcher.DefaultDebounce
	}

	return nil
}

func (cmd *WatchCommand) request() importers.Request {
	return importers.Request{
		Source:   entities.ImportSourceWatch,
		DriveDir: cmd.DriveDir,
		NotesDir: cmd.OutputDir,
		Tags:     cmd.Tags,
	}
}

// Run blocks until ctx is cancelled.
func (cmd *WatchCommand) Run(ctx context.Context) error {
	level := "info"
	if cmd.Verbose {
		level = "debug"
	}
	logger := logging.Setup(level)

	absOutputDir, err := filepath.Abs(cmd.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for output: %w", err)
	}
	cmd.OutputDir = absOutputDir

	app, err := newImportApp(cmd.DatabasePath, "", logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if cmd.Initial {
		if _, err := app.pipeline.ImportDrive(ctx, cmd.request()); err != nil {
			logger.Warn("initial import failed", "error", err)
		}
	}

	w := watcher.New(watcher.Options{
		DriveDir: cmd.DriveDir,
		Debounce: cmd.Debounce,
		Request:  cmd.request,
	}, app.pipeline, logger)

	return w.Run(ctx)
}
