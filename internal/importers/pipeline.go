package importers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/tolino-notes/internal/entities"
	"github.com/mrlokans/tolino-notes/internal/exporters"
	"github.com/mrlokans/tolino-notes/internal/tolino"
)

// ErrDriveNotConfigured is returned by ImportDrive when no drive directory is set.
var ErrDriveNotConfigured = errors.New("tolino drive directory is not configured")

// DocumentWriter stores book documents in a directory.
type DocumentWriter interface {
	Write(ctx context.Context, dir string, docs []entities.BookDocument) exporters.WriteReport
}

// RunStore persists import history.
type RunStore interface {
	SaveRun(run *entities.ImportRun) error
}

// SnapshotStore keeps a raw copy of every imported export.
type SnapshotStore interface {
	SaveSnapshot(id string, raw []byte) (string, error)
}

// AuditLogger records import audit events.
type AuditLogger interface {
	LogImport(run *entities.ImportRun, ipAddr string, err error)
}

// Dependencies wires a Pipeline. Only Writer is required.
type Dependencies struct {
	Writer     DocumentWriter
	Runs       RunStore
	Snapshots  SnapshotStore
	Audit      AuditLogger
	Aggregator *tolino.NoteAggregator
	Logger     *slog.Logger
}

type Pipeline struct {
	parser     *tolino.NoteParser
	aggregator *tolino.NoteAggregator
	writer     DocumentWriter
	runs       RunStore
	snapshots  SnapshotStore
	audit      AuditLogger
	logger     *slog.Logger

	// Serializes imports
	mu sync.Mutex
}

func NewPipeline(deps Dependencies) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	aggregator := deps.Aggregator
	if aggregator == nil {
		aggregator = tolino.NewNoteAggregator(logger)
	}
	writer := deps.Writer
	if writer == nil {
		writer = exporters.NewDocumentWriter(exporters.DefaultWriteWorkers, logger)
	}

	return &Pipeline{
		parser:     tolino.NewNoteParser(logger),
		aggregator: aggregator,
		writer:     writer,
		runs:       deps.Runs,
		snapshots:  deps.Snapshots,
		audit:      deps.Audit,
		logger:     logger,
	}
}

// ImportDrive imports <req.DriveDir>/notes.txt.
func (p *Pipeline) ImportDrive(ctx context.Context, req Request) (*Report, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	report := p.newReport(req)
	if req.DriveDir == "" {
		return p.fail(report, req, ErrDriveNotConfigured)
	}

	path := filepath.Join(req.DriveDir, tolino.NotesFileName)
	report.SourcePath = path

	raw, err := os.ReadFile(path)
	if err != nil {
		return p.fail(report, req, &tolino.ParseError{Path: path, Reason: "failed to read notes file", Err: err})
	}

	return p.run(ctx, report, req, raw)
}

// ImportBytes imports an export that was already read, for example an upload.
func (p *Pipeline) ImportBytes(ctx context.Context, raw []byte, req Request) (*Report, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.run(ctx, p.newReport(req), req, raw)
}

// Preview is ImportBytes in dry-run mode with document bodies included in the report.
func (p *Pipeline) Preview(ctx context.Context, raw []byte, req Request) (*Report, error) {
	req.DryRun = true
	return p.ImportBytes(ctx, raw, req)
}

func (p *Pipeline) newReport(req Request) *Report {
	return &Report{
		RunID:     uuid.New().String(),
		Source:    req.Source,
		Status:    entities.ImportStatusRunning,
		NotesDir:  req.NotesDir,
		Tags:      req.Tags,
		StartedAt: time.Now(),
	}
}

func (p *Pipeline) run(ctx context.Context, report *Report, req Request, raw []byte) (*Report, error) {
	logger := p.logger.With("run_id", report.RunID, "source", string(req.Source))
	runID := p.begin(report)

	if p.snapshots != nil && len(raw) > 0 {
		name, err := p.snapshots.SaveSnapshot(report.RunID, raw)
		if err != nil {
			logger.Warn("failed to save notes snapshot", "error", err)
		} else {
			report.SnapshotFile = name
		}
	}

	text, err := tolino.Normalize(raw)
	if err != nil {
		return p.finish(report, req, runID, &tolino.ParseError{Path: report.SourcePath, Reason: "failed to decode notes", Err: err})
	}

	records, parseWarnings, err := p.parser.ParseWithWarnings(text)
	report.Warnings = append(report.Warnings, parseWarnings...)
	if err != nil {
		var parseErr *tolino.ParseError
		if errors.As(err, &parseErr) && parseErr.Path == "" {
			parseErr.Path = report.SourcePath
		}
		report.RecordsSkipped = len(report.Warnings)
		return p.finish(report, req, runID, err)
	}

	docs, aggregateWarnings := p.aggregator.AggregateWithWarnings(records, req.Tags)
	report.Warnings = append(report.Warnings, aggregateWarnings...)
	report.RecordsParsed = len(records)
	report.RecordsSkipped = len(report.Warnings)
	report.DocumentsBuilt = len(docs)

	logger.Info("parsed notes", "records", report.RecordsParsed, "skipped", report.RecordsSkipped, "books", report.DocumentsBuilt)

	if req.DryRun {
		names := exporters.PlanFileNames(docs)
		planned := make([]exporters.WriteOutcome, len(docs))
		for i := range docs {
			planned[i] = exporters.WriteOutcome{FileName: names[i], Path: filepath.Join(req.NotesDir, names[i])}
		}
		report.applyDocuments(docs, planned, true)
		report.Status = entities.ImportStatusDryRun
		report.Message = fmt.Sprintf("Dry run: notes for %d book(s) would be written to %s", len(docs), req.NotesDir)
		return p.finish(report, req, runID, nil)
	}

	if err := ctx.Err(); err != nil {
		return p.finish(report, req, runID, fmt.Errorf("import cancelled: %w", err))
	}

	written := p.writer.Write(ctx, req.NotesDir, docs)
	report.applyDocuments(docs, written.Outcomes, false)
	report.DocumentsWritten = written.Written
	report.DocumentsFailed = written.Failed
	report.Message = written.Summary()

	switch {
	case written.Failed == 0:
		report.Status = entities.ImportStatusCompleted
	case written.Written == 0:
		report.Status = entities.ImportStatusFailed
	default:
		report.Status = entities.ImportStatusPartial
	}

	var writeErr error
	if report.Status == entities.ImportStatusFailed {
		writeErr = firstOutcomeError(written.Outcomes)
	}
	return p.finish(report, req, runID, writeErr)
}

// begin persists the run as running and returns its database id, 0 when not persisted.
func (p *Pipeline) begin(report *Report) uint {
	if p.runs == nil {
		return 0
	}
	run := report.ImportRun()
	if err := p.runs.SaveRun(run); err != nil {
		p.logger.Warn("failed to record import run", "run_id", report.RunID, "error", err)
		return 0
	}
	return run.ID
}

func (p *Pipeline) fail(report *Report, req Request, err error) (*Report, error) {
	return p.finish(report, req, p.begin(report), err)
}

func (p *Pipeline) finish(report *Report, req Request, runID uint, err error) (*Report, error) {
	report.CompletedAt = time.Now()

	if err != nil {
		report.Status = entities.ImportStatusFailed
		if report.Message == "" {
			report.Message = err.Error()
		}
		p.logger.Error("notes import failed", "run_id", report.RunID, "error", err)
	} else {
		if report.RecordsSkipped > 0 {
			report.Message = fmt.Sprintf("%s (%d entries skipped)", report.Message, report.RecordsSkipped)
		}
		p.logger.Info("notes import finished", "run_id", report.RunID, "status", string(report.Status), "message", report.Message)
	}

	run := report.ImportRun()
	run.ID = runID
	if p.runs != nil {
		if saveErr := p.runs.SaveRun(run); saveErr != nil {
			p.logger.Warn("failed to record import run", "run_id", report.RunID, "error", saveErr)
		}
	}
	if p.audit != nil {
		p.audit.LogImport(run, req.IPAddress, err)
	}

	return report, err
}

func firstOutcomeError(outcomes []exporters.WriteOutcome) error {
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			return outcome.Err
		}
	}
	return nil
}
