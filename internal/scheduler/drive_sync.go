package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/tolino-notes/internal/entities"
	"github.com/mrlokans/tolino-notes/internal/importers"
	"github.com/mrlokans/tolino-notes/internal/settingsstore"
)

// SyncSettings is the part of the settings store the scheduler reads and updates.
type SyncSettings interface {
	GetSyncConfig() settingsstore.SyncConfig
	SetSyncStatus(status, message string) error
}

// DriveImporter imports notes.txt from the configured drive directory.
type DriveImporter interface {
	ImportDrive(ctx context.Context, req importers.Request) (*importers.Report, error)
}

// SyncAuditor records sync audit events.
type SyncAuditor interface {
	LogSync(action, description string, err error)
}

const (
	SyncStatusSuccess = "success"
	SyncStatusPartial = "partial"
	SyncStatusFailed  = "failed"
)

// DriveSyncScheduler periodically imports notes.txt from the mounted reader drive
type DriveSyncScheduler struct {
	settings SyncSettings
	importer DriveImporter
	auditor  SyncAuditor
	logger   *slog.Logger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
	baseCtx    context.Context

	// Waits for RunNow goroutines
	runs sync.WaitGroup
}

// NewDriveSyncScheduler creates a new scheduler instance
func NewDriveSyncScheduler(settings SyncSettings, importer DriveImporter, auditor SyncAuditor, logger *slog.Logger) *DriveSyncScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DriveSyncScheduler{
		settings: settings,
		importer: importer,
		auditor:  auditor,
		logger:   logger.With("component", "drive_sync"),
	}
}

func newCron() *cron.Cron {
	return cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)))
}

// Start begins the scheduler if sync is enabled
func (s *DriveSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	s.baseCtx = ctx

	config := s.settings.GetSyncConfig()

	if !config.Enabled {
		s.logger.Info("drive sync scheduler disabled")
		return nil
	}

	if config.DriveDir == "" {
		s.logger.Info("drive directory not configured, scheduler not started")
		return nil
	}

	if err := settingsstore.ValidateCronSchedule(config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", config.Schedule, err)
	}

	// Entries of a stopped cron would fire again after a restart
	s.cron = newCron()
	entryID, err := s.cron.AddFunc(config.Schedule, func() {
		s.runSync(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := settingsstore.GetNextRunTime(config.Schedule)
	s.logger.Info("drive sync scheduler started",
		"schedule", config.Schedule,
		"description", settingsstore.GetCronDescription(config.Schedule),
		"next_run", nextRun)

	go func(c *cron.Cron) {
		<-cancelCtx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.cron == c {
			s.stopLocked()
		}
	}(s.cron)

	return nil
}

// Stop stops the scheduler and waits for a running sync to complete
func (s *DriveSyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *DriveSyncScheduler) stopLocked() {
	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning = false
	s.cancelFunc = nil

	s.logger.Info("drive sync scheduler stopped")
}

// Reschedule updates the schedule (call after settings change)
func (s *DriveSyncScheduler) Reschedule() error {
	s.Stop()

	s.mu.RLock()
	ctx := s.baseCtx
	s.mu.RUnlock()
	if ctx == nil {
		ctx = context.Background()
	}
	return s.Start(ctx)
}

// RunNow triggers an immediate sync in the background
func (s *DriveSyncScheduler) RunNow(ctx context.Context) {
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		s.runSync(context.WithoutCancel(ctx))
	}()
}

// Wait blocks until every sync started by RunNow has finished.
func (s *DriveSyncScheduler) Wait() {
	s.runs.Wait()
}

// IsRunning returns whether the scheduler is active
func (s *DriveSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next sync will occur
func (s *DriveSyncScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runSync performs one import and records its outcome as the last sync status
func (s *DriveSyncScheduler) runSync(ctx context.Context) {
	config := s.settings.GetSyncConfig()

	if config.DriveDir == "" {
		s.logger.Warn("sync skipped, drive directory not configured")
		s.record(SyncStatusFailed, "Drive directory not configured", importers.ErrDriveNotConfigured)
		return
	}

	s.logger.Info("starting drive sync", "drive_dir", config.DriveDir, "notes_dir", config.NotesDir)
	startTime := time.Now()

	report, err := s.importer.ImportDrive(ctx, importers.Request{
		Source:   entities.ImportSourceSync,
		DriveDir: config.DriveDir,
		NotesDir: config.NotesDir,
		Tags:     config.Tags,
	})
	if err != nil {
		message := err.Error()
		if report != nil && report.Message != "" {
			message = report.Message
		}
		s.logger.Error("drive sync failed", "error", err)
		s.record(SyncStatusFailed, message, err)
		return
	}

	status := SyncStatusSuccess
	if report.Status == entities.ImportStatusPartial {
		status = SyncStatusPartial
	}

	s.logger.Info("drive sync finished", "status", status, "duration", time.Since(startTime).Round(time.Millisecond))
	s.record(status, report.Message, nil)
}

func (s *DriveSyncScheduler) record(status, message string, err error) {
	if setErr := s.settings.SetSyncStatus(status, message); setErr != nil {
		s.logger.Warn("failed to store sync status", "error", setErr)
	}
	if s.auditor != nil {
		s.auditor.LogSync("drive_sync", message, err)
	}
}
