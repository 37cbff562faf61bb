package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/webermont/LeiaMais/internal/database/queries"
)

// AuditWriter persists audit entries. queries.Store satisfies it.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, arg queries.CreateAuditLogParams) error
}

var auditActions = map[string]string{
	http.MethodPost:   "CREATE",
	http.MethodPut:    "UPDATE",
	http.MethodPatch:  "UPDATE",
	http.MethodDelete: "DELETE",
}

// Audit records every state-changing request after it has been handled,
// whatever its outcome. A failed write is logged and never changes the
// response.
func Audit(writer AuditWriter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		action, ok := auditActions[c.Request.Method]
		if !ok {
			return
		}

		resource := c.FullPath()
		if resource == "" {
			return
		}

		params := queries.CreateAuditLogParams{
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID(c),
			IPAddress:  c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			StatusCode: c.Writer.Status(),
		}
		if id := GetUserID(c); id != 0 {
			params.UserID = &id
		}

		ctx := context.WithoutCancel(c.Request.Context())
		if err := writer.CreateAuditLog(ctx, params); err != nil {
			logger.Error("Failed to write audit log",
				zap.Error(err),
				zap.String("action", action),
				zap.String("resource", resource),
				zap.String("request_id", GetRequestID(c)),
			)
		}
	}
}

func resourceID(c *gin.Context) string {
	for _, name := range []string{"id", "loanId", "userId", "key"} {
		if v := c.Param(name); v != "" {
			return v
		}
	}
	return ""
}
