package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
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
	auditRepo "github.com/mrlokans/tolino-notes/internal/database/audit"
	"github.com/mrlokans/tolino-notes/internal/database/imports"
	"github.com/mrlokans/tolino-notes/internal/entities"
	"github.com/mrlokans/tolino-notes/internal/importers"
	"github.com/mrlokans/tolino-notes/internal/settingsstore"
	"github.com/mrlokans/tolino-notes/internal/tasks"
)

const uploadNotes = "Foo Bar (Smith, Jane)\n" +
	"Highlight on page 12: first highlight\n" +
	"Added on 06/26/2023 | 21:17\n" +
	"-----------------------------------\n" +
	"Untitled Thing\n" +
	"Note on page 3: a note\n" +
	"Added on 06/27/2023 | 08:00\n" +
	"-----------------------------------\n" +
	"Foo Bar (Smith, Jane)\n" +
	"Bookmark on page 20\n" +
	"Added on 06/28/2023 | 09:00\n" +
	"-----------------------------------\n"

// memorySettings is an in-memory SettingsStore.
type memorySettings struct {
	mu       sync.Mutex
	current  settingsstore.ImportSettings
	enabled  bool
	schedule string
	status   settingsstore.SyncStatus
}

func (m *memorySettings) GetImportSettings() settingsstore.ImportSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *memorySettings) GetImportSettingsInfo() settingsstore.ImportSettingsInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return settingsstore.ImportSettingsInfo{
		DriveDir:       m.current.DriveDir,
		DriveDirSource: settingsstore.SourceDatabase,
		NotesDir:       m.current.NotesDir,
		NotesDirSource: settingsstore.SourceDatabase,
		Tags:           m.current.Tags,
		TagsSource:     settingsstore.SourceDatabase,
	}
}

func (m *memorySettings) SetDriveDir(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.DriveDir = dir
	return nil
}

func (m *memorySettings) SetNotesDir(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.NotesDir = dir
	return nil
}

func (m *memorySettings) SetNoteTags(tags string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.Tags = tags
	return nil
}

func (m *memorySettings) ClearImportSettings() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = settingsstore.ImportSettings{}
	return nil
}

func (m *memorySettings) GetSyncConfig() settingsstore.SyncConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return settingsstore.SyncConfig{Enabled: m.enabled, Schedule: m.schedule, ImportSettings: m.current}
}

func (m *memorySettings) GetSyncConfigInfo() settingsstore.SyncConfigInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return settingsstore.SyncConfigInfo{
		Enabled:        m.enabled,
		EnabledSource:  settingsstore.SourceDatabase,
		Schedule:       m.schedule,
		ScheduleSource: settingsstore.SourceDatabase,
	}
}

func (m *memorySettings) GetSyncStatus() settingsstore.SyncStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *memorySettings) SetSyncEnabled(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
	return nil
}

func (m *memorySettings) SetSyncSchedule(schedule string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedule = schedule
	return nil
}

func (m *memorySettings) ClearSyncSettings() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled, m.schedule = false, ""
	return nil
}

type importTestEnv struct {
	router   http.Handler
	pipeline *importers.Pipeline
	settings *memorySettings
	history  *imports.Repository
	audit    *audit.Service
	driveDir string
	notesDir string
}

func setupImportTest(t *testing.T, taskClient TaskQueue) *importTestEnv {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "http.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	history := imports.NewRepository(db.DB)
	auditService := audit.NewService(auditRepo.NewRepository(db.DB))
	pipeline := importers.NewPipeline(importers.Dependencies{Runs: history, Audit: auditService})

	env := &importTestEnv{
		pipeline: pipeline,
		history:  history,
		audit:    auditService,
		driveDir: t.TempDir(),
		notesDir: filepath.Join(t.TempDir(), "Tolino"),
	}
	env.settings = &memorySettings{
		current:  settingsstore.ImportSettings{DriveDir: env.driveDir, NotesDir: env.notesDir, Tags: "#tolino,#book"},
		schedule: "*/30 * * * *",
	}

	cfg := RouterConfig{
		Database: db,
		Importer: pipeline,
		History:  history,
		Settings: env.settings,
		AuditLog: auditService,
		Version:  "test",
	}
	if taskClient != nil {
		cfg.TaskClient = taskClient
	}
	env.router = NewRouter(cfg)
	return env
}

func multipartBody(t *testing.T, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if content != "" {
		part, err := writer.CreateFormFile("notes_file", "notes.txt")
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func decodeReport(t *testing.T, w *httptest.ResponseRecorder) importers.Report {
	t.Helper()
	var report importers.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	return report
}

func TestImportController_Upload(t *testing.T) {
	env := setupImportTest(t, nil)

	body, contentType := multipartBody(t, uploadNotes, nil)
	req := httptest.NewRequest("POST", "/api/import/upload", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	report := decodeReport(t, w)
	assert.Equal(t, entities.ImportSourceUpload, report.Source)
	assert.Equal(t, entities.ImportStatusCompleted, report.Status)
	assert.Equal(t, 2, report.RecordsParsed)
	assert.Equal(t, 1, report.RecordsSkipped)
	assert.Equal(t, 2, report.DocumentsWritten)

	data, err := os.ReadFile(filepath.Join(env.notesDir, "Foo Bar - Jane Smith.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Tags: tolino, book\n")
	assert.FileExists(t, filepath.Join(env.notesDir, "Untitled Thing.md"))

	run, err := env.history.GetRun(report.RunID)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportStatusCompleted, run.Status)
	assert.Len(t, run.Documents, 2)
}

func TestImportController_UploadDryRunWithTags(t *testing.T) {
	env := setupImportTest(t, nil)

	body, contentType := multipartBody(t, uploadNotes, map[string]string{"dry_run": "true", "tags": "#fiction"})
	req := httptest.NewRequest("POST", "/api/import/upload", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	report := decodeReport(t, w)
	assert.Equal(t, entities.ImportStatusDryRun, report.Status)
	assert.Equal(t, "#fiction", report.Tags)
	require.Len(t, report.Documents, 2)
	assert.Contains(t, report.Documents[0].Body, "Tags: fiction\n")

	_, err := os.Stat(env.notesDir)
	assert.True(t, os.IsNotExist(err), "dry run must not create the notes directory")
}

func TestImportController_UploadErrors(t *testing.T) {
	env := setupImportTest(t, nil)

	t.Run("missing file", func(t *testing.T) {
		body, contentType := multipartBody(t, "", map[string]string{"tags": "#x"})
		req := httptest.NewRequest("POST", "/api/import/upload", body)
		req.Header.Set("Content-Type", contentType)

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "notes_file")
	})

	t.Run("no valid entries", func(t *testing.T) {
		body, contentType := multipartBody(t, "just a title\n-----\n", nil)
		req := httptest.NewRequest("POST", "/api/import/upload", body)
		req.Header.Set("Content-Type", contentType)

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "parse_error", resp.Code)
		assert.Contains(t, resp.Error, "no valid annotations")
	})
}

func TestImportController_Preview(t *testing.T) {
	env := setupImportTest(t, nil)

	t.Run("raw body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/import/preview?tags=%23raw", strings.NewReader(uploadNotes))
		req.Header.Set("Content-Type", "text/plain")

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		report := decodeReport(t, w)
		assert.Equal(t, entities.ImportStatusDryRun, report.Status)
		assert.Equal(t, "#raw", report.Tags)
		require.Len(t, report.Documents, 2)
		assert.Equal(t, "Foo Bar - Jane Smith.md", report.Documents[0].FileName)
		assert.NotEmpty(t, report.Documents[0].Body)
	})

	t.Run("multipart", func(t *testing.T) {
		body, contentType := multipartBody(t, uploadNotes, nil)
		req := httptest.NewRequest("POST", "/api/import/preview", body)
		req.Header.Set("Content-Type", contentType)

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, entities.ImportStatusDryRun, decodeReport(t, w).Status)
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/import/preview", strings.NewReader(""))
		req.Header.Set("Content-Type", "text/plain")

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	_, err := os.Stat(env.notesDir)
	assert.True(t, os.IsNotExist(err))
}

func TestImportController_PreviewTooLarge(t *testing.T) {
	controller := NewImportController(nil, nil, &memorySettings{}, nil, 16)

	w := httptest.NewRecorder()
	c, _ := ginTestContext(w, httptest.NewRequest("POST", "/api/import/preview", strings.NewReader(uploadNotes)))
	controller.Preview(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestImportController_RunInline(t *testing.T) {
	env := setupImportTest(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(env.driveDir, "notes.txt"), []byte(uploadNotes), 0o644))

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest("POST", "/api/import/run", nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decodeReport(t, w)
	assert.Equal(t, entities.ImportSourceDrive, report.Source)
	assert.Equal(t, filepath.Join(env.driveDir, "notes.txt"), report.SourcePath)
	assert.Equal(t, 2, report.DocumentsWritten)
}

func TestImportController_RunErrors(t *testing.T) {
	t.Run("drive not configured", func(t *testing.T) {
		env := setupImportTest(t, nil)
		env.settings.current.DriveDir = ""

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, httptest.NewRequest("POST", "/api/import/run", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "not configured")
	})

	t.Run("drive not mounted", func(t *testing.T) {
		env := setupImportTest(t, nil)

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, httptest.NewRequest("POST", "/api/import/run", nil))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "notes.txt")
	})
}

func TestImportController_RunEnqueues(t *testing.T) {
	client, err := tasks.NewClient(filepath.Join(t.TempDir(), "queue.db"), tasks.DefaultConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	client.Register(tasks.NewImportDriveQueue(nil, nil))

	env := setupImportTest(t, client)

	req := httptest.NewRequest("POST", "/api/import/run", strings.NewReader(`{"tags":"#queued"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			TaskID string `json:"task_id"`
			Type   string `json:"type"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.TaskID)
	assert.Equal(t, "import_drive", resp.Data.Type)

	// The queued task is visible through the task status endpoint
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/tasks/"+resp.Data.TaskID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"pending"`)
}

func TestImportController_History(t *testing.T) {
	env := setupImportTest(t, nil)

	for i := 0; i < 3; i++ {
		run := &entities.ImportRun{
			RunID:     "run-" + string(rune('a'+i)),
			Source:    entities.ImportSourceCLI,
			Status:    entities.ImportStatusCompleted,
			StartedAt: time.Now().Add(time.Duration(i) * time.Minute),
			Documents: []entities.ImportedDocument{{BookName: "A (B, C)", FileName: "A - C B.md", Entries: 1}},
		}
		require.NoError(t, env.history.SaveRun(run))
	}
	require.NoError(t, env.audit.Log(&entities.AuditEvent{
		EventType: entities.AuditEventImport,
		Action:    "cli_import",
		RunID:     "run-b",
		Status:    entities.AuditStatusSuccess,
	}))

	t.Run("list", func(t *testing.T) {
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/imports?limit=2", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data    []entities.ImportRun `json:"data"`
			Total   int64                `json:"total"`
			HasMore bool                 `json:"has_more"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(3), resp.Total)
		assert.True(t, resp.HasMore)
		require.Len(t, resp.Data, 2)
		assert.Equal(t, "run-c", resp.Data[0].RunID)
	})

	t.Run("get", func(t *testing.T) {
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/imports/run-b", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var run struct {
			entities.ImportRun
			Events []entities.AuditEvent `json:"events"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
		assert.Equal(t, "run-b", run.RunID)
		require.Len(t, run.Documents, 1)
		assert.Equal(t, "A - C B.md", run.Documents[0].FileName)
		require.Len(t, run.Events, 1)
		assert.Equal(t, "cli_import", run.Events[0].Action)
	})

	t.Run("get without events", func(t *testing.T) {
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/imports/run-a", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"events":[]`)
	})

	t.Run("not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/imports/missing", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

var _ NotesImporter = (*importers.Pipeline)(nil)
var _ ImportHistory = (*imports.Repository)(nil)
var _ TaskQueue = (*tasks.Client)(nil)
