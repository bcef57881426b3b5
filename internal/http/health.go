package http

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/tolino-notes/internal/database"
	"github.com/mrlokans/tolino-notes/internal/settingsstore"
	"github.com/mrlokans/tolino-notes/internal/tolino"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// ImportSettingsReader exposes the effective import directories.
type ImportSettingsReader interface {
	GetImportSettings() settingsstore.ImportSettings
}

type HealthController struct {
	db       *database.Database
	settings ImportSettingsReader
	version  string
}

func NewHealthController(db *database.Database, settings ImportSettingsReader, version string) *HealthController {
	return &HealthController{
		db:       db,
		settings: settings,
		version:  version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.db != nil {
		sqlDB, err := h.db.DB.DB()
		if err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else if err := sqlDB.Ping(); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
	}

	// An unmounted reader is the normal state between syncs, so it never fails the check
	if h.settings != nil {
		current := h.settings.GetImportSettings()
		checks["drive"] = driveState(current.DriveDir)
		checks["notes_dir"] = notesDirState(current.NotesDir)
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}

func driveState(dir string) string {
	if dir == "" {
		return "not configured"
	}
	if _, err := os.Stat(filepath.Join(dir, tolino.NotesFileName)); err != nil {
		return "not mounted"
	}
	return "mounted"
}

func notesDirState(dir string) string {
	if dir == "" {
		return "not configured"
	}
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return "missing"
	case err != nil:
		return "error: " + err.Error()
	case !info.IsDir():
		return "not a directory"
	}
	return "ok"
}
