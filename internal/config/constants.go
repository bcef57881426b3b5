package config

const (
	// DefaultDatabasePath is the default path for the application database
	DefaultDatabasePath = "./tolino-notes.db"

	// DefaultNotesDir is where markdown notes are written when nothing else is configured
	DefaultNotesDir = "./notes"

	// DefaultNoteTags is the raw tag list placed in every note's front matter
	DefaultNoteTags = "#tolino,#book"

	// DefaultSyncSchedule runs the drive sync every 30 minutes
	DefaultSyncSchedule = "*/30 * * * *"
)
