package settingsstore

import (
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/tolino-notes/internal/config"
	"github.com/mrlokans/tolino-notes/internal/entities"
)

// SyncConfig represents the effective configuration for the scheduled drive sync
type SyncConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule"`
	ImportSettings
}

// SyncConfigInfo includes source information for each field
type SyncConfigInfo struct {
	Enabled       bool   `json:"enabled"`
	EnabledSource string `json:"enabled_source"`

	Schedule       string `json:"schedule"`
	ScheduleSource string `json:"schedule_source"`
}

// SyncStatus represents the outcome of the last sync
type SyncStatus struct {
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	Status     string     `json:"status,omitempty"`  // "success", "partial", "failed", ""
	Message    string     `json:"message,omitempty"` // Error message or import summary
}

func parseBool(value string) bool {
	return value == "true" || value == "1"
}

// GetSyncEnabled returns whether sync is enabled (database > env > default)
func (s *SettingsStore) GetSyncEnabled() bool {
	value, _ := s.resolve(entities.SettingKeySyncEnabled, "SYNC_ENABLED", "false")
	return parseBool(value)
}

func (s *SettingsStore) SetSyncEnabled(enabled bool) error {
	return s.repo.SetSetting(entities.SettingKeySyncEnabled, strconv.FormatBool(enabled))
}

// GetSyncSchedule returns the cron schedule (database > env > every 30 minutes)
func (s *SettingsStore) GetSyncSchedule() string {
	value, _ := s.resolve(entities.SettingKeySyncSchedule, "SYNC_SCHEDULE", config.DefaultSyncSchedule)
	return value
}

func (s *SettingsStore) SetSyncSchedule(schedule string) error {
	return s.repo.SetSetting(entities.SettingKeySyncSchedule, schedule)
}

func (s *SettingsStore) GetSyncConfig() SyncConfig {
	return SyncConfig{
		Enabled:        s.GetSyncEnabled(),
		Schedule:       s.GetSyncSchedule(),
		ImportSettings: s.GetImportSettings(),
	}
}

func (s *SettingsStore) GetSyncConfigInfo() SyncConfigInfo {
	enabled, enabledSource := s.resolve(entities.SettingKeySyncEnabled, "SYNC_ENABLED", "false")
	schedule, scheduleSource := s.resolve(entities.SettingKeySyncSchedule, "SYNC_SCHEDULE", config.DefaultSyncSchedule)

	return SyncConfigInfo{
		Enabled:        parseBool(enabled),
		EnabledSource:  enabledSource,
		Schedule:       schedule,
		ScheduleSource: scheduleSource,
	}
}

// GetSyncStatus returns the last sync status
func (s *SettingsStore) GetSyncStatus() SyncStatus {
	status := SyncStatus{}

	if value, found, err := s.repo.GetValue(entities.SettingKeySyncLastAt); err == nil && found && value != "" {
		if ts, err := time.Parse(time.RFC3339, value); err == nil {
			status.LastSyncAt = &ts
		}
	}
	if value, found, err := s.repo.GetValue(entities.SettingKeySyncLastStatus); err == nil && found {
		status.Status = value
	}
	if value, found, err := s.repo.GetValue(entities.SettingKeySyncLastMessage); err == nil && found {
		status.Message = value
	}

	return status
}

// SetSyncStatus records the outcome of a sync run
func (s *SettingsStore) SetSyncStatus(status, message string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	if err := s.repo.SetSetting(entities.SettingKeySyncLastAt, now); err != nil {
		return err
	}
	if err := s.repo.SetSetting(entities.SettingKeySyncLastStatus, status); err != nil {
		return err
	}
	return s.repo.SetSetting(entities.SettingKeySyncLastMessage, message)
}

// ClearSyncSettings clears the database overrides, reverting to env/default
func (s *SettingsStore) ClearSyncSettings() error {
	return s.clear(entities.SettingKeySyncEnabled, entities.SettingKeySyncSchedule)
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule validates a five-field cron schedule string
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// GetCronDescription returns a human-readable description of a cron schedule
func GetCronDescription(schedule string) string {
	switch schedule {
	case "*/5 * * * *":
		return "Every 5 minutes"
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "*/30 * * * *":
		return "Every 30 minutes"
	case "0 * * * *":
		return "Every hour at :00"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// GetNextRunTime calculates when the next sync will run based on the schedule
func GetNextRunTime(schedule string) (*time.Time, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(time.Now())
	return &next, nil
}
