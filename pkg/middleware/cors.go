package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS allows the configured client origin ("*" allows any) and answers preflight requests.
func CORS(origin string) gin.HandlerFunc {
	origin = strings.TrimRight(origin, "/")
	return func(c *gin.Context) {
		h := c.Writer.Header()
		switch {
		case origin == "" || origin == "*":
			h.Set("Access-Control-Allow-Origin", "*")
		case strings.EqualFold(c.GetHeader("Origin"), origin):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		h.Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
