package entities

import "time"

type ImportStatus string

const (
	ImportStatusRunning   ImportStatus = "running"
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusPartial   ImportStatus = "partial" // some documents failed to write
	ImportStatusFailed    ImportStatus = "failed"
	ImportStatusDryRun    ImportStatus = "dry_run"
)

type ImportSource string

const (
	ImportSourceDrive  ImportSource = "drive"
	ImportSourceUpload ImportSource = "upload"
	ImportSourceCLI    ImportSource = "cli"
	ImportSourceSync   ImportSource = "sync"
	ImportSourceWatch  ImportSource = "watch"
)

// ImportRun is one execution of the notes.txt import.
type ImportRun struct {
	ID               uint               `gorm:"primaryKey" json:"-"`
	RunID            string             `gorm:"uniqueIndex;size:36" json:"run_id"`
	Source           ImportSource       `gorm:"index;size:20" json:"source"`
	SourcePath       string             `gorm:"size:1024" json:"source_path,omitempty"`
	NotesDir         string             `gorm:"size:1024" json:"notes_dir,omitempty"`
	Tags             string             `gorm:"size:512" json:"tags,omitempty"`
	Status           ImportStatus       `gorm:"index;size:20" json:"status"`
	RecordsParsed    int                `json:"records_parsed"`
	RecordsSkipped   int                `json:"records_skipped"`
	DocumentsBuilt   int                `json:"documents_built"`
	DocumentsWritten int                `json:"documents_written"`
	DocumentsFailed  int                `json:"documents_failed"`
	Message          string             `gorm:"type:text" json:"message,omitempty"`
	SnapshotFile     string             `gorm:"size:256" json:"snapshot_file,omitempty"`
	Documents        []ImportedDocument `gorm:"foreignKey:ImportRunID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
	StartedAt        time.Time          `gorm:"index" json:"started_at"`
	CompletedAt      *time.Time         `json:"completed_at,omitempty"`
}

func (ImportRun) TableName() string {
	return "import_runs"
}

// ImportedDocument records the write outcome of one BookDocument within a run.
type ImportedDocument struct {
	ID          uint   `gorm:"primaryKey" json:"-"`
	ImportRunID uint   `gorm:"index" json:"-"`
	BookName    string `gorm:"size:512" json:"book_name"`
	Title       string `gorm:"size:512" json:"title"`
	Author      string `gorm:"size:256" json:"author"`
	FileName    string `gorm:"size:512" json:"file_name"`
	Path        string `gorm:"size:1024" json:"path,omitempty"`
	Entries     int    `json:"entries"`
	Error       string `gorm:"type:text" json:"error,omitempty"`
}

func (ImportedDocument) TableName() string {
	return "imported_documents"
}
