package audit

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/mrlokans/tolino-notes/internal/entities"
)

// EventStore persists audit events.
type EventStore interface {
	LogEvent(event *entities.AuditEvent) error
	GetEvents(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error)
	GetEventsForRun(runID string) ([]entities.AuditEvent, error)
	DeleteOldEvents(olderThan time.Time) (int64, error)
}

// Service provides high-level audit logging functionality.
type Service struct {
	repo EventStore
	wg   sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo EventStore) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logOrWarn(event)
	}()
}

// Wait blocks until every event passed to LogAsync has been stored.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) logOrWarn(event *entities.AuditEvent) {
	if err := s.repo.LogEvent(event); err != nil {
		slog.Warn("failed to log audit event", "action", event.Action, "error", err)
	}
}

// LogImport records the outcome of an import run. It blocks until the event is stored.
func (s *Service) LogImport(run *entities.ImportRun, ipAddr string, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventImport,
		Action:      string(run.Source) + "_import",
		Description: truncate(run.Message, 500),
		RunID:       run.RunID,
		IPAddress:   ipAddr,
		Status:      importAuditStatus(run.Status),
	}

	metadata := map[string]any{
		"records_parsed":    run.RecordsParsed,
		"records_skipped":   run.RecordsSkipped,
		"documents_built":   run.DocumentsBuilt,
		"documents_written": run.DocumentsWritten,
		"documents_failed":  run.DocumentsFailed,
		"snapshot_file":     run.SnapshotFile,
	}
	if mdBytes, e := json.Marshal(metadata); e == nil {
		event.Metadata = string(mdBytes)
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.logOrWarn(event)
}

func importAuditStatus(status entities.ImportStatus) entities.AuditStatus {
	switch status {
	case entities.ImportStatusFailed:
		return entities.AuditStatusFailed
	case entities.ImportStatusPartial:
		return entities.AuditStatusPartial
	default:
		return entities.AuditStatusSuccess
	}
}

// LogSettings records a settings change event.
func (s *Service) LogSettings(action, description, ipAddr string) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventSettings,
		Action:      action,
		Description: truncate(description, 500),
		IPAddress:   ipAddr,
		Status:      entities.AuditStatusSuccess,
	}

	s.LogAsync(event)
}

// LogSync records a sync event.
func (s *Service) LogSync(action, description string, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventSync,
		Action:      action,
		Description: truncate(description, 500),
		Status:      entities.AuditStatusSuccess,
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events, optionally filtered by type.
func (s *Service) GetEvents(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(eventType, limit, offset)
}

// GetEventsForRun returns the events recorded for one import run, oldest first.
func (s *Service) GetEventsForRun(runID string) ([]entities.AuditEvent, error) {
	return s.repo.GetEventsForRun(runID)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
