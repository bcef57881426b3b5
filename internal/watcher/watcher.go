// Package watcher imports notes.txt whenever the reader rewrites it on a mounted drive.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mrlokans/tolino-notes/internal/entities"
	"github.com/mrlokans/tolino-notes/internal/importers"
	"github.com/mrlokans/tolino-notes/internal/tolino"
)

const DefaultDebounce = 2 * time.Second

// DriveImporter imports notes.txt from a drive directory.
type DriveImporter interface {
	ImportDrive(ctx context.Context, req importers.Request) (*importers.Report, error)
}

type Options struct {
	DriveDir string
	// Quiet period after the last change before importing
	Debounce time.Duration
	// Request builds the import request at trigger time. DriveDir and Source are
	// filled in when left empty.
	Request func() importers.Request
}

type Watcher struct {
	opts     Options
	importer DriveImporter
	logger   *slog.Logger

	wg sync.WaitGroup
}

func New(opts Options, importer DriveImporter, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Watcher{
		opts:     opts,
		importer: importer,
		logger:   logger.With("component", "watcher", "drive_dir", opts.DriveDir),
	}
}

// Start begins watching the drive directory. The watch is established when Start
// returns; events are handled in the background until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if w.opts.DriveDir == "" {
		return importers.ErrDriveNotConfigured
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(w.opts.DriveDir); err != nil {
		_ = fw.Close()
		return fmt.Errorf("watch %s: %w", w.opts.DriveDir, err)
	}

	w.logger.Info("watching drive for notes changes", "debounce", w.opts.Debounce)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() { _ = fw.Close() }()
		w.loop(ctx, fw)
	}()
	return nil
}

// Wait blocks until the watch loop has exited.
func (w *Watcher) Wait() {
	w.wg.Wait()
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	w.Wait()
	return nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	var timer *time.Timer
	var fire <-chan time.Time

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if !isNotesChange(event) {
				continue
			}
			w.logger.Debug("notes file changed", "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.opts.Debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			w.importNotes(ctx)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("error watching drive", "error", err)
		}
	}
}

func isNotesChange(event fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Base(event.Name), tolino.NotesFileName) {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

func (w *Watcher) importNotes(ctx context.Context) {
	var req importers.Request
	if w.opts.Request != nil {
		req = w.opts.Request()
	}
	if req.DriveDir == "" {
		req.DriveDir = w.opts.DriveDir
	}
	if req.Source == "" {
		req.Source = entities.ImportSourceWatch
	}

	report, err := w.importer.ImportDrive(ctx, req)
	switch {
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		w.logger.Error("import after drive change failed", "error", err)
	default:
		w.logger.Info("imported notes after drive change", "run_id", report.RunID, "message", report.Message)
	}
}
