package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/tolino-notes/internal/audit"
	"github.com/mrlokans/tolino-notes/internal/config"
	"github.com/mrlokans/tolino-notes/internal/database"
	auditRepo "github.com/mrlokans/tolino-notes/internal/database/audit"
	"github.com/mrlokans/tolino-notes/internal/database/imports"
	settingsRepo "github.com/mrlokans/tolino-notes/internal/database/settings"
	"github.com/mrlokans/tolino-notes/internal/entities"
	"github.com/mrlokans/tolino-notes/internal/exporters"
	http_controllers "github.com/mrlokans/tolino-notes/internal/http"
	"github.com/mrlokans/tolino-notes/internal/importers"
	"github.com/mrlokans/tolino-notes/internal/logging"
	"github.com/mrlokans/tolino-notes/internal/scheduler"
	"github.com/mrlokans/tolino-notes/internal/settingsstore"
	"github.com/mrlokans/tolino-notes/internal/tasks"
	"github.com/mrlokans/tolino-notes/internal/watcher"
)

const historyCleanupInterval = 24 * time.Hour

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// checkNotesDir creates the notes directory when needed and verifies it is writable.
func checkNotesDir(dir string) error {
	if dir == "" {
		return errors.New("notes directory is not set")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("notes directory %s cannot be created: %w", dir, err)
	}

	probe := filepath.Join(dir, ".tolino-notes")
	f, err := os.Create(probe)
	if err != nil {
		return fmt.Errorf("notes directory %s is not writable: %w", dir, err)
	}
	f.Close()
	return os.Remove(probe)
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server", "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Background work stops before the listener closes
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	slog.Info("server exiting")
}

func Run(cfg *config.Config, version string) {
	logger := logging.Setup(cfg.Logging.Level)
	logger.Info("starting tolino-notes", "version", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to initialize database", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	logger.Info("database initialized", "path", cfg.Database.Path)

	settings := settingsstore.New(settingsRepo.NewRepository(db.DB))
	notesDir := settings.GetNotesDir()
	if err := checkNotesDir(notesDir); err != nil {
		logger.Error("notes directory check failed", "error", err)
		os.Exit(1)
	}
	logger.Info("notes directory ready", "path", notesDir)

	runs := imports.NewRepository(db.DB)
	auditService := audit.NewService(auditRepo.NewRepository(db.DB))
	snapshots := audit.NewAuditor(cfg.Audit.Dir)

	pipeline := importers.NewPipeline(importers.Dependencies{
		Writer:    exporters.NewDocumentWriter(cfg.Notes.WriteWorkers, logger),
		Runs:      runs,
		Snapshots: snapshots,
		Audit:     auditService,
		Logger:    logger,
	})

	// Background work lives until shutdown
	bgCtx, bgCancel := context.WithCancel(context.Background())

	routerCfg := http_controllers.RouterConfig{
		Database:         db,
		Importer:         pipeline,
		History:          runs,
		Settings:         settings,
		Auditor:          auditService,
		AuditLog:         auditService,
		MaxUploadSize:    http_controllers.DefaultMaxUploadSize,
		ImportsPerMinute: cfg.HTTP.ImportsPerMinute,
		Version:          version,
	}

	var taskClient *tasks.Client
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.NewConfig(cfg.Tasks), logger)
		if err != nil {
			logger.Error("failed to initialize task queue", "error", err)
			os.Exit(1)
		}

		taskClient.Register(
			tasks.NewImportDriveQueue(pipeline, logger),
			tasks.NewCleanupImportHistoryQueue(tasks.HistoryCleaners{
				Runs:      runs,
				Events:    auditService,
				Snapshots: snapshots,
			}, logger),
		)
		taskClient.Start(bgCtx)
		routerCfg.TaskClient = taskClient

		go scheduleHistoryCleanup(bgCtx, taskClient, cfg.Audit.RetentionDays, logger)
	}

	syncScheduler := scheduler.NewDriveSyncScheduler(settings, pipeline, auditService, logger)
	if err := syncScheduler.Start(bgCtx); err != nil {
		logger.Warn("drive sync scheduler not started", "error", err)
	}
	routerCfg.Scheduler = syncScheduler

	var driveWatcher *watcher.Watcher
	if cfg.Watch.Enabled {
		driveWatcher = watcher.New(watcher.Options{
			DriveDir: settings.GetDriveDir(),
			Debounce: cfg.Watch.Debounce,
			Request: func() importers.Request {
				current := settings.GetImportSettings()
				return importers.Request{
					Source:   entities.ImportSourceWatch,
					DriveDir: current.DriveDir,
					NotesDir: current.NotesDir,
					Tags:     current.Tags,
				}
			},
		}, pipeline, logger)

		if err := driveWatcher.Start(bgCtx); err != nil {
			logger.Warn("drive watcher not started", "error", err)
			driveWatcher = nil
		}
	}

	router := http_controllers.NewRouter(routerCfg)

	Serve(router, cfg, func(ctx context.Context) {
		syncScheduler.Stop()
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
		bgCancel()

		if taskClient != nil {
			if err := taskClient.Close(); err != nil {
				logger.Warn("failed to close task queue", "error", err)
			}
		}
		if driveWatcher != nil {
			driveWatcher.Wait()
		}
		syncScheduler.Wait()
		auditService.Wait()

		if err := db.Close(); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	})
}

// scheduleHistoryCleanup enqueues a cleanup task at startup and then once a day.
func scheduleHistoryCleanup(ctx context.Context, client *tasks.Client, retentionDays int, logger *slog.Logger) {
	enqueue := func() {
		ids, err := client.Add(tasks.CleanupImportHistoryTask{RetentionDays: retentionDays}).Save()
		if err != nil {
			logger.Warn("failed to enqueue history cleanup", "error", err)
			return
		}
		logger.Debug("history cleanup enqueued", "task_id", ids[0])
	}

	enqueue()

	ticker := time.NewTicker(historyCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			enqueue()
		}
	}
}
