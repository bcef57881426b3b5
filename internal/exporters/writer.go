package exporters

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/mrlokans/tolino-notes/internal/entities"
	"github.com/mrlokans/tolino-notes/internal/tolino"
	"github.com/mrlokans/tolino-notes/internal/utils"
)

const (
	DefaultWriteWorkers = 4
	dirPermissions      = 0o755
	filePermissions     = 0o644
)

// DocumentWriter stores book documents as markdown files, one file per book.
type DocumentWriter struct {
	workers int
	logger  *slog.Logger
}

func NewDocumentWriter(workers int, logger *slog.Logger) *DocumentWriter {
	if workers <= 0 {
		workers = DefaultWriteWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentWriter{workers: workers, logger: logger}
}

type WriteOutcome struct {
	BookName string `json:"book_name" yaml:"book_name"`
	FileName string `json:"file_name" yaml:"file_name"`
	Path     string `json:"path" yaml:"path"`
	Entries  int    `json:"entries" yaml:"entries"`
	Err      error  `json:"-" yaml:"-"`
}

// Error returns the failure message, or an empty string when the document was written.
func (o WriteOutcome) Error() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

type WriteReport struct {
	Dir      string         `json:"dir" yaml:"dir"`
	Outcomes []WriteOutcome `json:"outcomes" yaml:"outcomes"`
	Written  int            `json:"written" yaml:"written"`
	Failed   int            `json:"failed" yaml:"failed"`
}

func (r WriteReport) Summary() string {
	switch {
	case len(r.Outcomes) == 0:
		return "No notes to write"
	case r.Failed == 0:
		return fmt.Sprintf("Imported notes for %d book(s) into %s", r.Written, r.Dir)
	case r.Written == 0:
		return fmt.Sprintf("Failed to write notes for all %d book(s) into %s", r.Failed, r.Dir)
	default:
		return fmt.Sprintf("Imported notes for %d book(s) into %s, %d failed", r.Written, r.Dir, r.Failed)
	}
}

// Write stores every document in dir, overwriting files of the same name. Documents whose
// file names collide within the batch get " (2)", " (3)" suffixes in sequence order.
// A failure never stops the other writes; each outcome carries its own error.
func (w *DocumentWriter) Write(ctx context.Context, dir string, docs []entities.BookDocument) WriteReport {
	report := WriteReport{Dir: dir, Outcomes: make([]WriteOutcome, len(docs))}

	names := PlanFileNames(docs)
	for i, doc := range docs {
		report.Outcomes[i] = WriteOutcome{
			BookName: doc.BookName,
			FileName: names[i],
			Path:     filepath.Join(dir, names[i]),
			Entries:  doc.Entries,
		}
	}

	if len(docs) == 0 {
		return report
	}

	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		dirErr := &FileSystemError{Op: "create directory", Path: dir, Err: err}
		w.logger.Error("failed to create notes directory", "dir", dir, "error", err)
		for i := range report.Outcomes {
			report.Outcomes[i].Err = dirErr
		}
		report.Failed = len(docs)
		return report
	}

	p := pool.New().WithMaxGoroutines(w.workers)
	for i := range docs {
		i := i
		p.Go(func() {
			outcome := &report.Outcomes[i]
			if err := ctx.Err(); err != nil {
				outcome.Err = &FileSystemError{Op: "write", Path: outcome.Path, Err: err}
				return
			}
			if err := os.WriteFile(outcome.Path, []byte(docs[i].Body), filePermissions); err != nil {
				outcome.Err = &FileSystemError{Op: "write", Path: outcome.Path, Err: err}
				w.logger.Error("failed to write notes file", "book", outcome.BookName, "path", outcome.Path, "error", err)
				return
			}
			w.logger.Debug("wrote notes file", "book", outcome.BookName, "path", outcome.Path, "entries", outcome.Entries)
		})
	}
	p.Wait()

	for _, outcome := range report.Outcomes {
		if outcome.Err != nil {
			report.Failed++
		} else {
			report.Written++
		}
	}

	return report
}

// PlanFileNames returns the sanitized, batch-unique file name for every document.
func PlanFileNames(docs []entities.BookDocument) []string {
	names := make([]string, len(docs))
	taken := make(map[string]bool, len(docs))

	for i, doc := range docs {
		name := utils.SanitizeMarkdownFilename(tolino.DocumentFileName(doc.BookName))
		stem := strings.TrimSuffix(name, ".md")
		candidate := name
		for n := 2; taken[strings.ToLower(candidate)]; n++ {
			candidate = fmt.Sprintf("%s (%d).md", stem, n)
		}
		taken[strings.ToLower(candidate)] = true
		names[i] = candidate
	}

	return names
}
