package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the collaboration service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>collabedit — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the REST surface. The realtime protocol runs over /ws.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "collabedit", "version": "v0.1.0" },
  "paths": {
    "/api/documents": {
      "get": { "summary": "List the 50 most recently modified documents", "responses": { "200": { "description": "document summaries" } } },
      "post": {
        "summary": "Create a document",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"title":{"type":"string","maxLength":200}}}}}},
        "responses": { "200": { "description": "created document" }, "400": { "description": "invalid title" } }
      }
    },
    "/api/documents/{id}": {
      "get": { "summary": "Get a document, creating it when unknown", "responses": { "200": { "description": "document" } } },
      "put": {
        "summary": "Update title and/or content",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"title":{"type":"string"},"content":{"type":"string"}}}}}},
        "responses": { "200": { "description": "updated document" }, "400": { "description": "nothing to update or invalid title" }, "404": { "description": "document not found" } }
      }
    },
    "/api/documents/{id}/users": {
      "get": { "summary": "Users currently editing the document", "responses": { "200": { "description": "presence list" } } }
    },
    "/ws": { "get": { "summary": "WebSocket upgrade for realtime collaboration events", "responses": { "101": { "description": "switching protocols" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
