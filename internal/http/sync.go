package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/tolino-notes/internal/entities"
	"github.com/mrlokans/tolino-notes/internal/settingsstore"
)

// SyncController reports on and triggers the scheduled drive import
type SyncController struct {
	settingsStore SettingsStore
	scheduler     SyncScheduler
	history       ImportHistory
}

func NewSyncController(store SettingsStore, sched SyncScheduler, history ImportHistory) *SyncController {
	return &SyncController{
		settingsStore: store,
		scheduler:     sched,
		history:       history,
	}
}

// SyncStatusResponse is the response for GET /api/sync/status
type SyncStatusResponse struct {
	Config    settingsstore.SyncConfigInfo `json:"config"`
	Status    settingsstore.SyncStatus     `json:"status"`
	NextRun   *time.Time                   `json:"next_run,omitempty"`
	IsRunning bool                         `json:"is_running"`
	// Most recent scheduled import, with its counts
	LastRun *entities.ImportRun `json:"last_run,omitempty"`
}

// GetStatus handles GET /api/sync/status
func (c *SyncController) GetStatus(ctx *gin.Context) {
	response := SyncStatusResponse{
		Config: c.settingsStore.GetSyncConfigInfo(),
		Status: c.settingsStore.GetSyncStatus(),
	}
	if c.scheduler != nil {
		response.NextRun = c.scheduler.GetNextRunTime()
		response.IsRunning = c.scheduler.IsRunning()
	}
	if c.history != nil {
		run, err := c.history.LatestRun(entities.ImportSourceSync)
		if err != nil {
			respondInternalError(ctx, err, "get latest sync run")
			return
		}
		response.LastRun = run
	}

	ctx.JSON(http.StatusOK, response)
}

// SyncNow handles POST /api/sync/run
func (c *SyncController) SyncNow(ctx *gin.Context) {
	if c.scheduler == nil {
		respondError(ctx, http.StatusServiceUnavailable, "scheduler not available")
		return
	}

	if c.settingsStore.GetSyncConfig().DriveDir == "" {
		respondBadRequest(ctx, "drive directory not configured, please configure it first")
		return
	}

	c.scheduler.RunNow(ctx.Request.Context())
	respondAccepted(ctx, "sync started in background", nil)
}
