package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// Import settings (mirror the reader plugin settings)
	SettingKeyTolinoDriveDir = "tolino_drive_dir"
	SettingKeyNotesDir       = "notes_dir"
	SettingKeyNoteTags       = "note_tags"

	// Drive sync settings
	SettingKeySyncEnabled     = "sync_enabled"
	SettingKeySyncSchedule    = "sync_schedule"
	SettingKeySyncLastAt      = "sync_last_at"
	SettingKeySyncLastStatus  = "sync_last_status"
	SettingKeySyncLastMessage = "sync_last_message"
)
