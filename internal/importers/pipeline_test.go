package importers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/tolino-notes/internal/audit"
	"github.com/mrlokans/tolino-notes/internal/database"
	"github.com/mrlokans/tolino-notes/internal/database/imports"
	"github.com/mrlokans/tolino-notes/internal/entities"
	"github.com/mrlokans/tolino-notes/internal/exporters"
	"github.com/mrlokans/tolino-notes/internal/tolino"
)

const sampleNotes = "Foo Bar (Smith, Jane)\r\n" +
	"Highlight on page 12: first highlight\r\n" +
	"Added on 06/26/2023 | 21:17\r\n" +
	"\r\n" +
	"-----------------------------------\r\n" +
	"Untitled Thing\r\n" +
	"Note on page 3: a note\r\n" +
	"Added on 06/27/2023 | 08:00\r\n" +
	"-----------------------------------\r\n" +
	"Foo Bar (Smith, Jane)\r\n" +
	"Bookmark on page 20\r\n" +
	"Added on 06/28/2023 | 09:00\r\n" +
	"-----------------------------------\r\n" +
	"Foo Bar (Smith, Jane)\r\n" +
	"Highlight on page 45: second highlight\r\n" +
	"Added on 06/29/2023 | 10:00\r\n" +
	"-----------------------------------\r\n"

type recordingRunStore struct {
	mu       sync.Mutex
	nextID   uint
	statuses []entities.ImportStatus
	last     entities.ImportRun
}

func (s *recordingRunStore) SaveRun(run *entities.ImportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run.ID == 0 {
		s.nextID++
		run.ID = s.nextID
	}
	s.statuses = append(s.statuses, run.Status)
	s.last = *run
	return nil
}

type recordingAudit struct {
	runs []entities.ImportRun
	errs []error
	ips  []string
}

func (a *recordingAudit) LogImport(run *entities.ImportRun, ipAddr string, err error) {
	a.runs = append(a.runs, *run)
	a.errs = append(a.errs, err)
	a.ips = append(a.ips, ipAddr)
}

type testEnv struct {
	pipeline *Pipeline
	runs     *recordingRunStore
	audit    *recordingAudit
	auditor  *audit.Auditor
	driveDir string
	notesDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	base := t.TempDir()
	env := &testEnv{
		runs:     &recordingRunStore{},
		audit:    &recordingAudit{},
		auditor:  audit.NewAuditor(filepath.Join(base, "audit")),
		driveDir: filepath.Join(base, "drive"),
		notesDir: filepath.Join(base, "vault", "Tolino"),
	}
	require.NoError(t, os.MkdirAll(env.driveDir, 0o755))

	clock := func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) }
	env.pipeline = NewPipeline(Dependencies{
		Writer:     exporters.NewDocumentWriter(2, nil),
		Runs:       env.runs,
		Snapshots:  env.auditor,
		Audit:      env.audit,
		Aggregator: tolino.NewNoteAggregator(nil).WithClock(clock),
	})
	return env
}

func (e *testEnv) request() Request {
	return Request{
		Source:   entities.ImportSourceDrive,
		DriveDir: e.driveDir,
		NotesDir: e.notesDir,
		Tags:     "#tolino,#book",
	}
}

func (e *testEnv) writeNotes(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(e.driveDir, tolino.NotesFileName), []byte(content), 0o644))
}

func TestPipeline_ImportDrive(t *testing.T) {
	env := newTestEnv(t)
	env.writeNotes(t, sampleNotes)

	report, err := env.pipeline.ImportDrive(context.Background(), env.request())
	require.NoError(t, err)

	assert.Equal(t, entities.ImportStatusCompleted, report.Status)
	assert.Equal(t, filepath.Join(env.driveDir, "notes.txt"), report.SourcePath)
	assert.Equal(t, 3, report.RecordsParsed)
	assert.Equal(t, 1, report.RecordsSkipped)
	assert.Equal(t, 2, report.DocumentsBuilt)
	assert.Equal(t, 2, report.DocumentsWritten)
	assert.Zero(t, report.DocumentsFailed)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, tolino.SkipBookmark, report.Warnings[0].Reason)
	assert.Equal(t, "Imported notes for 2 book(s) into "+env.notesDir+" (1 entries skipped)", report.Message)

	require.Len(t, report.Documents, 2)
	assert.Equal(t, "Foo Bar - Jane Smith.md", report.Documents[0].FileName)
	assert.Equal(t, 2, report.Documents[0].Entries)
	assert.Equal(t, "Untitled Thing.md", report.Documents[1].FileName)
	assert.Empty(t, report.Documents[0].Body)

	content, err := os.ReadFile(filepath.Join(env.notesDir, "Foo Bar - Jane Smith.md"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "---\nCreated: 2024-06-15\nType: Tolino\nTitle: Foo Bar\nAuthor: Jane Smith\nTags: tolino, book\n---\n\n"))
	assert.Contains(t, string(content), "**Page 12**, Created on 06/26/2023 21:17\nfirst highlight\n---\n")
	assert.Contains(t, string(content), "**Page 45**, Created on 06/29/2023 10:00\nsecond highlight\n---\n")

	// Run persisted as running, then updated in place
	assert.Equal(t, []entities.ImportStatus{entities.ImportStatusRunning, entities.ImportStatusCompleted}, env.runs.statuses)
	assert.Equal(t, uint(1), env.runs.last.ID)
	assert.Len(t, env.runs.last.Documents, 2)
	require.NotNil(t, env.runs.last.CompletedAt)

	// Snapshot kept verbatim under the run id
	assert.Equal(t, report.RunID+".txt", report.SnapshotFile)
	snapshot, err := os.ReadFile(env.auditor.SnapshotPath(report.SnapshotFile))
	require.NoError(t, err)
	assert.Equal(t, sampleNotes, string(snapshot))

	require.Len(t, env.audit.runs, 1)
	assert.NoError(t, env.audit.errs[0])
	assert.Equal(t, report.RunID, env.audit.runs[0].RunID)
}

func TestPipeline_ImportDrive_IsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.writeNotes(t, sampleNotes)

	_, err := env.pipeline.ImportDrive(context.Background(), env.request())
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(env.notesDir, "Foo Bar - Jane Smith.md"))
	require.NoError(t, err)

	_, err = env.pipeline.ImportDrive(context.Background(), env.request())
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(env.notesDir, "Foo Bar - Jane Smith.md"))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	entries, err := os.ReadDir(env.notesDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestPipeline_ImportDrive_NotConfigured(t *testing.T) {
	env := newTestEnv(t)
	req := env.request()
	req.DriveDir = ""

	report, err := env.pipeline.ImportDrive(context.Background(), req)
	require.ErrorIs(t, err, ErrDriveNotConfigured)
	assert.Equal(t, entities.ImportStatusFailed, report.Status)
	assert.Equal(t, ErrDriveNotConfigured.Error(), report.Message)
	assert.Equal(t, []entities.ImportStatus{entities.ImportStatusRunning, entities.ImportStatusFailed}, env.runs.statuses)
	require.Len(t, env.audit.errs, 1)
	assert.ErrorIs(t, env.audit.errs[0], ErrDriveNotConfigured)
}

func TestPipeline_ImportDrive_MissingFile(t *testing.T) {
	env := newTestEnv(t)

	report, err := env.pipeline.ImportDrive(context.Background(), env.request())
	require.Error(t, err)

	var parseErr *tolino.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, filepath.Join(env.driveDir, "notes.txt"), parseErr.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, entities.ImportStatusFailed, report.Status)
	assert.Empty(t, report.SnapshotFile)

	_, statErr := os.Stat(env.notesDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPipeline_ImportDrive_NothingValid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "empty file", content: ""},
		{name: "only bookmarks", content: "Foo (Bar, Baz)\nBookmark on page 1\nAdded on 01/01/2023 | 10:00\n-----------------------------------\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.writeNotes(t, tt.content)

			report, err := env.pipeline.ImportDrive(context.Background(), env.request())
			require.Error(t, err)
			assert.True(t, tolino.IsParseError(err))
			assert.ErrorIs(t, err, tolino.ErrNothingImported)
			assert.Equal(t, entities.ImportStatusFailed, report.Status)
			assert.Zero(t, report.DocumentsWritten)
		})
	}
}

func TestPipeline_ImportBytes_DryRun(t *testing.T) {
	env := newTestEnv(t)
	req := env.request()
	req.Source = entities.ImportSourceUpload
	req.DryRun = true
	req.IPAddress = "192.168.1.5"

	report, err := env.pipeline.ImportBytes(context.Background(), []byte(sampleNotes), req)
	require.NoError(t, err)

	assert.Equal(t, entities.ImportStatusDryRun, report.Status)
	assert.Equal(t, 2, report.DocumentsBuilt)
	assert.Zero(t, report.DocumentsWritten)
	require.Len(t, report.Documents, 2)
	assert.Equal(t, filepath.Join(env.notesDir, "Foo Bar - Jane Smith.md"), report.Documents[0].Path)
	assert.Contains(t, report.Documents[0].Body, "first highlight")
	assert.Contains(t, report.Message, "Dry run")

	_, statErr := os.Stat(env.notesDir)
	assert.True(t, os.IsNotExist(statErr))
	assert.Equal(t, "192.168.1.5", env.audit.ips[0])
}

func TestPipeline_Preview(t *testing.T) {
	env := newTestEnv(t)

	report, err := env.pipeline.Preview(context.Background(), []byte(sampleNotes), env.request())
	require.NoError(t, err)
	assert.Equal(t, entities.ImportStatusDryRun, report.Status)
	assert.NotEmpty(t, report.Documents[1].Body)
}

func TestPipeline_ImportBytes_PartialFailure(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.MkdirAll(filepath.Join(env.notesDir, "Untitled Thing.md"), 0o755))

	report, err := env.pipeline.ImportBytes(context.Background(), []byte(sampleNotes), env.request())
	require.NoError(t, err)

	assert.Equal(t, entities.ImportStatusPartial, report.Status)
	assert.Equal(t, 1, report.DocumentsWritten)
	assert.Equal(t, 1, report.DocumentsFailed)
	assert.Empty(t, report.Documents[0].Error)
	assert.NotEmpty(t, report.Documents[1].Error)
	assert.Equal(t, entities.ImportStatusPartial, env.runs.last.Status)
	assert.NotEmpty(t, env.runs.last.Documents[1].Error)
}

func TestPipeline_ImportBytes_AllWritesFail(t *testing.T) {
	env := newTestEnv(t)
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	req := env.request()
	req.NotesDir = filepath.Join(blocker, "notes")

	report, err := env.pipeline.ImportBytes(context.Background(), []byte(sampleNotes), req)
	require.Error(t, err)

	var fsErr *exporters.FileSystemError
	assert.True(t, errors.As(err, &fsErr))
	assert.Equal(t, entities.ImportStatusFailed, report.Status)
	assert.Equal(t, 2, report.DocumentsFailed)
	assert.Contains(t, report.Message, "Failed to write notes for all 2 book(s)")
}

func TestPipeline_ImportBytes_CancelledContext(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := env.pipeline.ImportBytes(ctx, []byte(sampleNotes), env.request())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, entities.ImportStatusFailed, report.Status)
}

func TestPipeline_ImportBytes_PersistsHistory(t *testing.T) {
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := imports.NewRepository(db.DB)
	notesDir := filepath.Join(t.TempDir(), "notes")
	pipeline := NewPipeline(Dependencies{Runs: repo})

	report, err := pipeline.ImportBytes(context.Background(), []byte(sampleNotes), Request{
		Source:   entities.ImportSourceCLI,
		NotesDir: notesDir,
	})
	require.NoError(t, err)

	run, err := repo.GetRun(report.RunID)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportStatusCompleted, run.Status)
	assert.Equal(t, entities.ImportSourceCLI, run.Source)
	assert.Equal(t, 3, run.RecordsParsed)
	require.Len(t, run.Documents, 2)
	assert.Equal(t, "Foo Bar (Smith, Jane)", run.Documents[0].BookName)
	assert.Equal(t, "Jane Smith", run.Documents[0].Author)

	runs, total, err := repo.ListRuns(10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, runs, 1)
}

func TestPipeline_SerializesConcurrentImports(t *testing.T) {
	env := newTestEnv(t)
	env.writeNotes(t, sampleNotes)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.pipeline.ImportDrive(context.Background(), env.request())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Each run saves twice back to back: running, then its final state
	require.Len(t, env.runs.statuses, 8)
	for i := 0; i < len(env.runs.statuses); i += 2 {
		assert.Equal(t, entities.ImportStatusRunning, env.runs.statuses[i])
		assert.Equal(t, entities.ImportStatusCompleted, env.runs.statuses[i+1])
	}
}
