package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

var startTime = time.Now()

// RegisterHealth mounts /health (liveness) and /ready. The service is ready when every
// configured dependency answers within the timeout; deps absent from the map are not required.
func RegisterHealth(r gin.IRouter, deps map[string]Pinger) {
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		ready := true
		status := map[string]bool{}
		for name, p := range deps {
			ok := p.Ping(ctx) == nil
			status[name] = ok
			ready = ready && ok
		}
		body := gin.H{"deps": status, "uptime": time.Since(startTime).String()}
		if !ready {
			body["status"] = "not_ready"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		body["status"] = "ready"
		c.JSON(http.StatusOK, body)
	})
}
