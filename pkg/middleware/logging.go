package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger logs one structured line per request. The websocket upgrade path is
// logged at debug level since its duration is the connection lifetime.
func RequestLogger(log *zap.Logger, wsPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client", c.ClientIP()),
		}
		switch {
		case c.Request.URL.Path == wsPath:
			log.Debug("websocket session", fields...)
		case c.Writer.Status() >= 500:
			log.Error("request", append(fields, zap.String("errors", c.Errors.String()))...)
		default:
			log.Info("request", fields...)
		}
	}
}
