package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/lakgs-api/pkg/middleware/requestid"
)

// Audit logs a teacher data-management action after it succeeds.
func Audit(logger *zap.Logger, action string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}
		fields := []zap.Field{
			zap.String("action", action),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", requestid.Value(c)),
		}
		if session, ok := CurrentSession(c); ok {
			fields = append(fields, zap.String("role", string(session.User.Role)), zap.String("session_id", session.ID))
		}
		if id := c.Param("id"); id != "" {
			fields = append(fields, zap.String("target", id))
		}
		logger.Info("audit", fields...)
	}
}
