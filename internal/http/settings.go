package http

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/tolino-notes/internal/settingsstore"
)

// SettingsController exposes the import and sync settings
type SettingsController struct {
	settingsStore SettingsStore
	scheduler     SyncScheduler
	auditor       SettingsAuditor
}

// NewSettingsController creates a new controller
func NewSettingsController(store SettingsStore, sched SyncScheduler, auditor SettingsAuditor) *SettingsController {
	return &SettingsController{
		settingsStore: store,
		scheduler:     sched,
		auditor:       auditor,
	}
}

// SettingsResponse is the response for GET /api/settings
type SettingsResponse struct {
	Import  settingsstore.ImportSettingsInfo `json:"import"`
	Sync    settingsstore.SyncConfigInfo     `json:"sync"`
	Presets []SchedulePreset                 `json:"presets"`
}

// SchedulePreset is a predefined schedule option
type SchedulePreset struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

var schedulePresets = []SchedulePreset{
	{Label: "Every 15 minutes", Value: "*/15 * * * *", Description: "Runs at :00, :15, :30, :45"},
	{Label: "Every 30 minutes", Value: "*/30 * * * *", Description: "Runs at :00, :30"},
	{Label: "Every hour", Value: "0 * * * *", Description: "Runs at the top of every hour"},
	{Label: "Every 6 hours", Value: "0 */6 * * *", Description: "Runs at midnight, 6am, noon, 6pm"},
	{Label: "Daily at midnight", Value: "0 0 * * *", Description: "Runs once daily at 00:00"},
}

// GetSettings handles GET /api/settings
func (c *SettingsController) GetSettings(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.currentSettings())
}

func (c *SettingsController) currentSettings() SettingsResponse {
	return SettingsResponse{
		Import:  c.settingsStore.GetImportSettingsInfo(),
		Sync:    c.settingsStore.GetSyncConfigInfo(),
		Presets: schedulePresets,
	}
}

// UpdateSettingsRequest is the request body for PUT /api/settings. Omitted fields are left unchanged.
type UpdateSettingsRequest struct {
	DriveDir     *string `json:"drive_dir"`
	NotesDir     *string `json:"notes_dir"`
	Tags         *string `json:"tags"`
	SyncEnabled  *bool   `json:"sync_enabled"`
	SyncSchedule *string `json:"sync_schedule"`
}

// UpdateSettings handles PUT /api/settings
func (c *SettingsController) UpdateSettings(ctx *gin.Context) {
	var req UpdateSettingsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, "invalid request: "+err.Error())
		return
	}

	// Validate everything before saving anything
	var driveDir, notesDir string
	var err error
	if req.DriveDir != nil {
		if driveDir, err = validateDriveDirectory(*req.DriveDir); err != nil {
			respondBadRequest(ctx, "invalid drive directory: "+err.Error())
			return
		}
	}
	if req.NotesDir != nil {
		if notesDir, err = validateNotesDirectory(*req.NotesDir); err != nil {
			respondBadRequest(ctx, "invalid notes directory: "+err.Error())
			return
		}
	}
	if req.SyncSchedule != nil {
		if err := settingsstore.ValidateCronSchedule(*req.SyncSchedule); err != nil {
			respondBadRequest(ctx, "invalid cron schedule: "+err.Error())
			return
		}
	}

	var changed []string
	save := func(name string, set func() error) bool {
		if err := set(); err != nil {
			respondInternalError(ctx, err, "save "+name)
			return false
		}
		changed = append(changed, name)
		return true
	}

	if req.DriveDir != nil && !save("drive_dir", func() error { return c.settingsStore.SetDriveDir(driveDir) }) {
		return
	}
	if req.NotesDir != nil && !save("notes_dir", func() error { return c.settingsStore.SetNotesDir(notesDir) }) {
		return
	}
	if req.Tags != nil && !save("tags", func() error { return c.settingsStore.SetNoteTags(strings.TrimSpace(*req.Tags)) }) {
		return
	}
	if req.SyncSchedule != nil && !save("sync_schedule", func() error { return c.settingsStore.SetSyncSchedule(*req.SyncSchedule) }) {
		return
	}
	if req.SyncEnabled != nil && !save("sync_enabled", func() error { return c.settingsStore.SetSyncEnabled(*req.SyncEnabled) }) {
		return
	}

	if len(changed) == 0 {
		respondBadRequest(ctx, "no settings provided")
		return
	}

	if c.auditor != nil {
		c.auditor.LogSettings("update", "Updated "+strings.Join(changed, ", "), ctx.ClientIP())
	}

	if c.scheduler != nil {
		if err := c.scheduler.Reschedule(); err != nil {
			respondError(ctx, http.StatusInternalServerError, "settings saved but failed to reschedule: "+err.Error())
			return
		}
	}

	ctx.JSON(http.StatusOK, c.currentSettings())
}

// ResetSettings handles DELETE /api/settings, reverting to env/defaults
func (c *SettingsController) ResetSettings(ctx *gin.Context) {
	if err := c.settingsStore.ClearImportSettings(); err != nil {
		respondInternalError(ctx, err, "reset import settings")
		return
	}
	if err := c.settingsStore.ClearSyncSettings(); err != nil {
		respondInternalError(ctx, err, "reset sync settings")
		return
	}

	if c.auditor != nil {
		c.auditor.LogSettings("reset", "Reset import and sync settings", ctx.ClientIP())
	}
	if c.scheduler != nil {
		_ = c.scheduler.Reschedule()
	}

	ctx.JSON(http.StatusOK, c.currentSettings())
}

func cleanDirectoryPath(rawPath string) (string, error) {
	path := strings.TrimSpace(rawPath)

	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	// Reject paths with null bytes
	if strings.ContainsRune(path, '\x00') {
		return "", fmt.Errorf("path contains invalid characters")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path format: %w", err)
	}
	return filepath.Clean(absPath), nil
}

// validateDriveDirectory normalizes the reader mount point. The reader is often
// unplugged, so the directory does not have to exist yet.
func validateDriveDirectory(rawPath string) (string, error) {
	cleanPath, err := cleanDirectoryPath(rawPath)
	if err != nil {
		return "", err
	}

	if info, err := os.Stat(cleanPath); err == nil && !info.IsDir() {
		return "", fmt.Errorf("path must be a directory, not a file")
	}
	return cleanPath, nil
}

// validateNotesDirectory validates and normalizes the markdown destination
func validateNotesDirectory(rawPath string) (string, error) {
	cleanPath, err := cleanDirectoryPath(rawPath)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("directory does not exist")
		}
		if os.IsPermission(err) {
			return "", fmt.Errorf("permission denied")
		}
		return "", fmt.Errorf("cannot access path: %w", err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("path must be a directory, not a file")
	}

	// Test write permission
	testFile := filepath.Join(cleanPath, fmt.Sprintf(".tolino_notes_test_%d", time.Now().UnixNano()))
	f, err := os.Create(testFile)
	if err != nil {
		if os.IsPermission(err) {
			return "", fmt.Errorf("no write permission")
		}
		return "", fmt.Errorf("cannot write to directory: %w", err)
	}
	f.Close()
	os.Remove(testFile)

	return cleanPath, nil
}
