package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Tolino
		Notes
		Sync
		Watch
		Audit
		Global
		Logging
		Database
		Tasks
	}

	HTTP struct {
		Port             int32
		Host             string
		ImportsPerMinute int // Rate limit for /api/import endpoints, 0 disables it
	}
	Tolino struct {
		DriveDir string // Mounted reader drive, the directory holding notes.txt
	}
	Notes struct {
		Dir          string // Destination directory for markdown notes
		Tags         string // Raw comma separated tag list, "#" prefixes allowed
		WriteWorkers int    // Concurrent file writes per import
	}
	Sync struct {
		Enabled  bool
		Schedule string // Cron format: "*/30 * * * *" = every 30 minutes
	}
	Watch struct {
		Enabled  bool
		Debounce time.Duration
	}
	Audit struct {
		Dir           string
		RetentionDays int // Days to keep import history and audit events (default: 30)
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Logging struct {
		Level string
	}
	Database struct {
		Path string
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8189)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("imports_per_minute", 30)
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("tolino_drive_dir", "")
	v.SetDefault("notes_dir", DefaultNotesDir)
	v.SetDefault("note_tags", DefaultNoteTags)
	v.SetDefault("write_workers", 4)
	v.SetDefault("sync_enabled", false)
	v.SetDefault("sync_schedule", DefaultSyncSchedule)
	v.SetDefault("watch_enabled", false)
	v.SetDefault("watch_debounce", "2s")
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("audit_dir", "./audit")
	v.SetDefault("audit_retention_days", 30)
	v.SetDefault("log_level", "info")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port:             v.GetInt32("PORT"),
			Host:             v.GetString("HOST"),
			ImportsPerMinute: v.GetInt("IMPORTS_PER_MINUTE"),
		},
		Tolino: Tolino{
			DriveDir: v.GetString("TOLINO_DRIVE_DIR"),
		},
		Notes: Notes{
			Dir:          v.GetString("NOTES_DIR"),
			Tags:         v.GetString("NOTE_TAGS"),
			WriteWorkers: v.GetInt("WRITE_WORKERS"),
		},
		Sync: Sync{
			Enabled:  v.GetBool("SYNC_ENABLED"),
			Schedule: v.GetString("SYNC_SCHEDULE"),
		},
		Watch: Watch{
			Enabled:  v.GetBool("WATCH_ENABLED"),
			Debounce: v.GetDuration("WATCH_DEBOUNCE"),
		},
		Audit: Audit{
			Dir:           v.GetString("AUDIT_DIR"),
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Logging: Logging{
			Level: v.GetString("LOG_LEVEL"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
	}
}
