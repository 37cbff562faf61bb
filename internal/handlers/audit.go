package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/webermont/LeiaMais/internal/database/queries"
)

// AuditLogReader lists recorded audit entries. queries.Store satisfies it.
type AuditLogReader interface {
	ListAuditLogs(ctx context.Context, limit int) ([]queries.AuditLog, error)
}

type AuditLogResponse struct {
	ID         int64     `json:"id"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resourceId,omitempty"`
	UserID     *int64    `json:"userId"`
	IPAddress  string    `json:"ipAddress"`
	UserAgent  string    `json:"userAgent"`
	StatusCode int       `json:"statusCode"`
	CreatedAt  time.Time `json:"createdAt"`
}

type AuditHandler struct {
	reader AuditLogReader
}

func NewAuditHandler(reader AuditLogReader) *AuditHandler {
	return &AuditHandler{reader: reader}
}

// ListAuditLogs returns the newest entries first
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	var query struct {
		Limit int `form:"limit,default=50" binding:"min=1,max=500"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	logs, err := h.reader.ListAuditLogs(c.Request.Context(), query.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		response = append(response, AuditLogResponse{
			ID:         l.ID,
			Action:     l.Action,
			Resource:   l.Resource,
			ResourceID: l.ResourceID,
			UserID:     l.UserID,
			IPAddress:  l.IPAddress,
			UserAgent:  l.UserAgent,
			StatusCode: l.StatusCode,
			CreatedAt:  l.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, response)
}
