package settingsstore

import (
	"os"

	"github.com/mrlokans/tolino-notes/internal/config"
	"github.com/mrlokans/tolino-notes/internal/entities"
)

const (
	SourceDatabase    = "database"
	SourceEnvironment = "environment"
	SourceDefault     = "default"
)

// Repository is the subset of the settings repository the store needs.
type Repository interface {
	GetValue(key string) (string, bool, error)
	SetSetting(key, value string) error
	DeleteSetting(key string) error
}

// Priority: database > environment > default
type SettingsStore struct {
	repo Repository
}

func New(repo Repository) *SettingsStore {
	return &SettingsStore{repo: repo}
}

// resolve returns the effective value for a setting and where it came from.
func (s *SettingsStore) resolve(key, envVar, fallback string) (string, string) {
	if value, found, err := s.repo.GetValue(key); err == nil && found && value != "" {
		return value, SourceDatabase
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal, SourceEnvironment
	}
	return fallback, SourceDefault
}

// ImportSettings is the effective configuration of a notes import.
type ImportSettings struct {
	DriveDir string `json:"drive_dir"`
	NotesDir string `json:"notes_dir"`
	Tags     string `json:"tags"`
}

// ImportSettingsInfo includes source information for each field
type ImportSettingsInfo struct {
	DriveDir       string `json:"drive_dir"`
	DriveDirSource string `json:"drive_dir_source"` // "database", "environment", "default"

	NotesDir       string `json:"notes_dir"`
	NotesDirSource string `json:"notes_dir_source"`

	Tags       string `json:"tags"`
	TagsSource string `json:"tags_source"`
}

// GetDriveDir returns the mounted reader directory holding notes.txt (database > env > "")
func (s *SettingsStore) GetDriveDir() string {
	value, _ := s.resolve(entities.SettingKeyTolinoDriveDir, "TOLINO_DRIVE_DIR", "")
	return value
}

func (s *SettingsStore) SetDriveDir(dir string) error {
	return s.repo.SetSetting(entities.SettingKeyTolinoDriveDir, dir)
}

// GetNotesDir returns the destination directory for markdown notes (database > env > "./notes")
func (s *SettingsStore) GetNotesDir() string {
	value, _ := s.resolve(entities.SettingKeyNotesDir, "NOTES_DIR", config.DefaultNotesDir)
	return value
}

func (s *SettingsStore) SetNotesDir(dir string) error {
	return s.repo.SetSetting(entities.SettingKeyNotesDir, dir)
}

// GetNoteTags returns the raw tag list (database > env > "#tolino,#book")
func (s *SettingsStore) GetNoteTags() string {
	value, _ := s.resolve(entities.SettingKeyNoteTags, "NOTE_TAGS", config.DefaultNoteTags)
	return value
}

func (s *SettingsStore) SetNoteTags(tags string) error {
	return s.repo.SetSetting(entities.SettingKeyNoteTags, tags)
}

func (s *SettingsStore) GetImportSettings() ImportSettings {
	return ImportSettings{
		DriveDir: s.GetDriveDir(),
		NotesDir: s.GetNotesDir(),
		Tags:     s.GetNoteTags(),
	}
}

func (s *SettingsStore) GetImportSettingsInfo() ImportSettingsInfo {
	driveDir, driveSource := s.resolve(entities.SettingKeyTolinoDriveDir, "TOLINO_DRIVE_DIR", "")
	notesDir, notesSource := s.resolve(entities.SettingKeyNotesDir, "NOTES_DIR", config.DefaultNotesDir)
	tags, tagsSource := s.resolve(entities.SettingKeyNoteTags, "NOTE_TAGS", config.DefaultNoteTags)

	return ImportSettingsInfo{
		DriveDir:       driveDir,
		DriveDirSource: driveSource,
		NotesDir:       notesDir,
		NotesDirSource: notesSource,
		Tags:           tags,
		TagsSource:     tagsSource,
	}
}

// ClearImportSettings removes the database overrides, reverting to env/default
func (s *SettingsStore) ClearImportSettings() error {
	return s.clear(
		entities.SettingKeyTolinoDriveDir,
		entities.SettingKeyNotesDir,
		entities.SettingKeyNoteTags,
	)
}

func (s *SettingsStore) clear(keys ...string) error {
	for _, key := range keys {
		if err := s.repo.DeleteSetting(key); err != nil {
			return err
		}
	}
	return nil
}
