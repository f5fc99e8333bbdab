package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"igma-backend/internal/shared/server/respond"
	"igma-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 with the standard error envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			telemetry.Error("panic", map[string]any{
				"request_id":    RequestIDFromContext(c),
				"assessment_id": c.GetString(AssessmentIDKey),
				"error":         rec,
				"stack":         string(debug.Stack()),
				"path":          c.Request.URL.Path,
				"method":        c.Request.Method,
			})
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "Unexpected server error", nil)
		}()
		c.Next()
	}
}
