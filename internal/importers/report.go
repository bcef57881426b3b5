package importers

import (
	"time"

	"github.com/mrlokans/tolino-notes/internal/entities"
	"github.com/mrlokans/tolino-notes/internal/exporters"
	"github.com/mrlokans/tolino-notes/internal/tolino"
)

// Request describes one import.
type Request struct {
	Source    entities.ImportSource
	DriveDir  string // Directory holding notes.txt, used by ImportDrive
	NotesDir  string // Destination for markdown notes
	Tags      string // Raw tag list, e.g. "#tolino,#book"
	DryRun    bool
	IPAddress string
}

type DocumentReport struct {
	BookName string `json:"book_name" yaml:"book_name"`
	Title    string `json:"title" yaml:"title"`
	Author   string `json:"author" yaml:"author"`
	FileName string `json:"file_name" yaml:"file_name"`
	Path     string `json:"path" yaml:"path"`
	Entries  int    `json:"entries" yaml:"entries"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
	// Body is only filled for dry runs
	Body string `json:"body,omitempty" yaml:"-"`
}

// Report is the outcome of one import, returned to the caller and persisted as an ImportRun.
type Report struct {
	RunID            string                        `json:"run_id" yaml:"run_id"`
	Source           entities.ImportSource         `json:"source" yaml:"source"`
	Status           entities.ImportStatus         `json:"status" yaml:"status"`
	SourcePath       string                        `json:"source_path,omitempty" yaml:"source_path,omitempty"`
	NotesDir         string                        `json:"notes_dir" yaml:"notes_dir"`
	Tags             string                        `json:"tags" yaml:"tags"`
	RecordsParsed    int                           `json:"records_parsed" yaml:"records_parsed"`
	RecordsSkipped   int                           `json:"records_skipped" yaml:"records_skipped"`
	DocumentsBuilt   int                           `json:"documents_built" yaml:"documents_built"`
	DocumentsWritten int                           `json:"documents_written" yaml:"documents_written"`
	DocumentsFailed  int                           `json:"documents_failed" yaml:"documents_failed"`
	Warnings         []tolino.SkippedRecordWarning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Documents        []DocumentReport              `json:"documents" yaml:"documents"`
	Message          string                        `json:"message" yaml:"message"`
	SnapshotFile     string                        `json:"snapshot_file,omitempty" yaml:"snapshot_file,omitempty"`
	StartedAt        time.Time                     `json:"started_at" yaml:"started_at"`
	CompletedAt      time.Time                     `json:"completed_at" yaml:"completed_at"`
}

func (r *Report) applyDocuments(docs []entities.BookDocument, outcomes []exporters.WriteOutcome, withBodies bool) {
	r.Documents = make([]DocumentReport, len(docs))
	for i, doc := range docs {
		report := DocumentReport{
			BookName: doc.BookName,
			Title:    doc.Title,
			Author:   doc.Author,
			FileName: outcomes[i].FileName,
			Path:     outcomes[i].Path,
			Entries:  doc.Entries,
			Error:    outcomes[i].Error(),
		}
		if withBodies {
			report.Body = doc.Body
		}
		r.Documents[i] = report
	}
}

// ImportRun converts the report into its persisted form.
func (r *Report) ImportRun() *entities.ImportRun {
	run := &entities.ImportRun{
		RunID:            r.RunID,
		Source:           r.Source,
		SourcePath:       r.SourcePath,
		NotesDir:         r.NotesDir,
		Tags:             r.Tags,
		Status:           r.Status,
		RecordsParsed:    r.RecordsParsed,
		RecordsSkipped:   r.RecordsSkipped,
		DocumentsBuilt:   r.DocumentsBuilt,
		DocumentsWritten: r.DocumentsWritten,
		DocumentsFailed:  r.DocumentsFailed,
		Message:          r.Message,
		SnapshotFile:     r.SnapshotFile,
		StartedAt:        r.StartedAt,
	}
	if !r.CompletedAt.IsZero() {
		completed := r.CompletedAt
		run.CompletedAt = &completed
	}
	for _, doc := range r.Documents {
		run.Documents = append(run.Documents, entities.ImportedDocument{
			BookName: doc.BookName,
			Title:    doc.Title,
			Author:   doc.Author,
			FileName: doc.FileName,
			Path:     doc.Path,
			Entries:  doc.Entries,
			Error:    doc.Error,
		})
	}
	return run
}
