package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/tolino-notes/internal/entities"
)

// AuditController lists audit events
type AuditController struct {
	log AuditLog
}

func NewAuditController(log AuditLog) *AuditController {
	return &AuditController{log: log}
}

// GetEvents handles GET /api/audit
// Query parameters: type (import, sync or settings), limit, offset.
func (ac *AuditController) GetEvents(c *gin.Context) {
	eventType := entities.AuditEventType(c.Query("type"))
	switch eventType {
	case "", entities.AuditEventImport, entities.AuditEventSync, entities.AuditEventSettings:
	default:
		respondBadRequest(c, fmt.Sprintf("unknown event type %q", eventType))
		return
	}

	limit, offset := parsePagination(c)
	events, total, err := ac.log.GetEvents(eventType, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list audit events")
		return
	}

	c.JSON(http.StatusOK, newPaginatedResponse(events, total, limit, offset))
}
