package http

import (
	"github.com/gin-gonic/gin"
)

// securityHeaders adds the response headers every JSON endpoint carries.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(securityHeaders())

	// Multipart parts beyond this size are spooled to disk
	if cfg.MaxUploadSize > 0 {
		router.MaxMultipartMemory = cfg.MaxUploadSize
	}

	health := NewHealthController(cfg.Database, cfg.Settings, cfg.Version)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")

	// Import endpoints
	if cfg.Importer != nil && cfg.Settings != nil {
		imports := NewImportController(cfg.Importer, cfg.History, cfg.Settings, cfg.TaskClient, cfg.MaxUploadSize)
		if cfg.AuditLog != nil {
			imports.WithAuditLog(cfg.AuditLog)
		}

		importGroup := api.Group("/import")
		if cfg.ImportsPerMinute > 0 {
			importGroup.Use(importRateLimit(cfg.ImportsPerMinute))
		}
		importGroup.POST("/upload", imports.Upload)
		importGroup.POST("/preview", imports.Preview)
		importGroup.POST("/run", imports.Run)

		if cfg.History != nil {
			api.GET("/imports", imports.ListImports)
			api.GET("/imports/:id", imports.GetImport)
		}
	}

	// Settings and sync endpoints
	if cfg.Settings != nil {
		settings := NewSettingsController(cfg.Settings, cfg.Scheduler, cfg.Auditor)
		api.GET("/settings", settings.GetSettings)
		api.PUT("/settings", settings.UpdateSettings)
		api.DELETE("/settings", settings.ResetSettings)

		sync := NewSyncController(cfg.Settings, cfg.Scheduler, cfg.History)
		api.GET("/sync/status", sync.GetStatus)
		api.POST("/sync/run", sync.SyncNow)
	}

	if cfg.AuditLog != nil {
		audit := NewAuditController(cfg.AuditLog)
		api.GET("/audit", audit.GetEvents)
	}

	// Task status endpoint
	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
	}

	return router
}
