package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mrlokans/tolino-notes/internal/entities"
	"github.com/mrlokans/tolino-notes/internal/importers"
	"github.com/mrlokans/tolino-notes/internal/tasks"
	"github.com/mrlokans/tolino-notes/internal/tolino"
)

const (
	notesFileField       = "notes_file"
	DefaultMaxUploadSize = 16 << 20
)

// ImportController handles notes.txt imports and the import history
type ImportController struct {
	importer      NotesImporter
	history       ImportHistory
	settings      SettingsStore
	taskClient    TaskQueue
	events        AuditLog
	maxUploadSize int64
}

// ImportRunResponse is an import run with the audit events recorded for it
type ImportRunResponse struct {
	*entities.ImportRun
	Events []entities.AuditEvent `json:"events"`
}

func NewImportController(importer NotesImporter, history ImportHistory, settings SettingsStore, taskClient TaskQueue, maxUploadSize int64) *ImportController {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &ImportController{
		importer:      importer,
		history:       history,
		settings:      settings,
		taskClient:    taskClient,
		maxUploadSize: maxUploadSize,
	}
}

// Upload handles POST /api/import/upload
// Expects multipart form data with "notes_file" and optional "tags" and "dry_run" fields.
func (ic *ImportController) Upload(c *gin.Context) {
	raw, ok := ic.readUpload(c)
	if !ok {
		return
	}

	req := ic.uploadRequest(c)
	var report *importers.Report
	var err error
	if req.DryRun {
		report, err = ic.importer.Preview(c.Request.Context(), raw, req)
	} else {
		report, err = ic.importer.ImportBytes(c.Request.Context(), raw, req)
	}
	respondReport(c, report, err)
}

// Preview handles POST /api/import/preview
// Accepts the same form as Upload, or the raw notes.txt as the request body.
func (ic *ImportController) Preview(c *gin.Context) {
	var raw []byte
	if c.ContentType() == "multipart/form-data" {
		var ok bool
		if raw, ok = ic.readUpload(c); !ok {
			return
		}
	} else {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, ic.maxUploadSize))
		if err != nil {
			respondError(c, http.StatusRequestEntityTooLarge, "notes file too large")
			return
		}
		if len(body) == 0 {
			respondBadRequest(c, "request body is empty")
			return
		}
		raw = body
	}

	report, err := ic.importer.Preview(c.Request.Context(), raw, ic.uploadRequest(c))
	respondReport(c, report, err)
}

// RunImportRequest is the optional body of POST /api/import/run
type RunImportRequest struct {
	DryRun bool   `json:"dry_run" form:"dry_run"`
	Tags   string `json:"tags" form:"tags"`
	// Wait runs the import inline even when the task queue is available
	Wait bool `json:"wait" form:"wait"`
}

// Run handles POST /api/import/run
// Imports notes.txt from the configured drive, in the background when the task queue is enabled.
func (ic *ImportController) Run(c *gin.Context) {
	var body RunImportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBind(&body); err != nil {
			respondBadRequest(c, "invalid request: "+err.Error())
			return
		}
	}

	current := ic.settings.GetImportSettings()
	if current.DriveDir == "" {
		respondBadRequest(c, importers.ErrDriveNotConfigured.Error())
		return
	}

	tags := current.Tags
	if body.Tags != "" {
		tags = body.Tags
	}

	if ic.taskClient != nil && !body.Wait {
		ids, err := ic.taskClient.Add(tasks.ImportDriveTask{
			Source:   entities.ImportSourceDrive,
			DriveDir: current.DriveDir,
			NotesDir: current.NotesDir,
			Tags:     tags,
			DryRun:   body.DryRun,
		}).Save()
		if err != nil {
			respondInternalError(c, err, "enqueue drive import")
			return
		}
		respondAccepted(c, "import enqueued", gin.H{"task_id": ids[0], "type": "import_drive"})
		return
	}

	report, err := ic.importer.ImportDrive(c.Request.Context(), importers.Request{
		Source:    entities.ImportSourceDrive,
		DriveDir:  current.DriveDir,
		NotesDir:  current.NotesDir,
		Tags:      tags,
		DryRun:    body.DryRun,
		IPAddress: c.ClientIP(),
	})
	respondReport(c, report, err)
}

// ListImports handles GET /api/imports
func (ic *ImportController) ListImports(c *gin.Context) {
	limit, offset := parsePagination(c)

	runs, total, err := ic.history.ListRuns(limit, offset)
	if err != nil {
		respondInternalError(c, err, "list import runs")
		return
	}

	c.JSON(http.StatusOK, newPaginatedResponse(runs, total, limit, offset))
}

// GetImport handles GET /api/imports/:id
func (ic *ImportController) GetImport(c *gin.Context) {
	run, err := ic.history.GetRun(c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "import run")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get import run")
		return
	}

	response := ImportRunResponse{ImportRun: run, Events: []entities.AuditEvent{}}
	if ic.events != nil {
		events, err := ic.events.GetEventsForRun(run.RunID)
		if err != nil {
			respondInternalError(c, err, "get import run events")
			return
		}
		if events != nil {
			response.Events = events
		}
	}

	c.JSON(http.StatusOK, response)
}

// WithAuditLog makes GetImport include the run's audit events.
func (ic *ImportController) WithAuditLog(events AuditLog) *ImportController {
	ic.events = events
	return ic
}

func (ic *ImportController) readUpload(c *gin.Context) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ic.maxUploadSize)

	file, header, err := c.Request.FormFile(notesFileField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "notes file too large")
			return nil, false
		}
		respondBadRequest(c, fmt.Sprintf("no file uploaded, expected form field %q", notesFileField))
		return nil, false
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		respondBadRequest(c, "failed to read uploaded file: "+err.Error())
		return nil, false
	}
	if len(raw) == 0 {
		respondBadRequest(c, header.Filename+" is empty")
		return nil, false
	}
	return raw, true
}

func (ic *ImportController) uploadRequest(c *gin.Context) importers.Request {
	current := ic.settings.GetImportSettings()

	tags := current.Tags
	if formTags, ok := c.GetPostForm("tags"); ok {
		tags = formTags
	} else if queryTags, ok := c.GetQuery("tags"); ok {
		tags = queryTags
	}

	dryRun := parseBoolField(c.PostForm("dry_run")) || parseBoolField(c.Query("dry_run"))

	return importers.Request{
		Source:    entities.ImportSourceUpload,
		NotesDir:  current.NotesDir,
		Tags:      tags,
		DryRun:    dryRun,
		IPAddress: c.ClientIP(),
	}
}

// respondReport maps an import outcome to a status code. Parse failures are the
// client's fault; write failures are ours.
func respondReport(c *gin.Context, report *importers.Report, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, report)
	case tolino.IsParseError(err):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "parse_error", Details: report})
	case errors.Is(err, importers.ErrDriveNotConfigured):
		respondBadRequest(c, err.Error())
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "import_failed", Details: report})
	}
}
