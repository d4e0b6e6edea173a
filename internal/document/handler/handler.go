package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/collabedit/internal/collab"
	"github.com/gogotex/collabedit/internal/document"
	"github.com/gogotex/collabedit/internal/document/service"
	"github.com/gogotex/collabedit/pkg/logger"
)

// Presence lists the users currently joined to a document.
type Presence interface {
	Members(ctx context.Context, documentID string) ([]collab.User, error)
}

// PresenceFunc adapts a plain function to Presence.
type PresenceFunc func(ctx context.Context, documentID string) ([]collab.User, error)

func (f PresenceFunc) Members(ctx context.Context, documentID string) ([]collab.User, error) {
	return f(ctx, documentID)
}

type documentView struct {
	ID            string                  `json:"id"`
	Title         string                  `json:"title"`
	Content       string                  `json:"content"`
	LastModified  time.Time               `json:"lastModified"`
	Collaborators []document.Collaborator `json:"collaborators"`
}

func view(d *document.Document) documentView {
	return documentView{ID: d.ID, Title: d.Title, Content: d.Content, LastModified: d.LastModified, Collaborators: d.Collaborators}
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// RegisterDocumentRoutes mounts the document REST API. presence may be nil, in which
// case the users endpoint is not registered.
func RegisterDocumentRoutes(r gin.IRouter, svc service.Service, presence Presence) {
	r.GET("/api/documents", func(c *gin.Context) {
		list, err := svc.List(c.Request.Context())
		if err != nil {
			logger.Errorf("list documents: %v", err)
			fail(c, http.StatusInternalServerError, "Failed to fetch documents")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "documents": list})
	})

	r.POST("/api/documents", func(c *gin.Context) {
		var req struct {
			Title string `json:"title"`
		}
		// an empty or missing body creates an untitled document
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				fail(c, http.StatusBadRequest, "Invalid request body")
				return
			}
		}
		d, err := svc.Create(c.Request.Context(), req.Title)
		if err != nil {
			if errors.Is(err, service.ErrInvalidTitle) {
				fail(c, http.StatusBadRequest, err.Error())
				return
			}
			logger.Errorf("create document: %v", err)
			fail(c, http.StatusInternalServerError, "Failed to create document")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "document": view(d)})
	})

	r.GET("/api/documents/:id", func(c *gin.Context) {
		d, err := svc.GetOrCreate(c.Request.Context(), c.Param("id"), "")
		if err != nil {
			logger.Errorf("fetch document %s: %v", c.Param("id"), err)
			fail(c, http.StatusInternalServerError, "Failed to fetch document")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "document": view(d)})
	})

	r.PUT("/api/documents/:id", func(c *gin.Context) {
		var req struct {
			Title   *string `json:"title"`
			Content *string `json:"content"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Title == nil && req.Content == nil {
			fail(c, http.StatusBadRequest, "title or content is required")
			return
		}
		d, err := svc.Update(c.Request.Context(), c.Param("id"), req.Title, req.Content)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"success": true, "document": view(d)})
		case errors.Is(err, service.ErrNotFound):
			fail(c, http.StatusNotFound, "Document not found")
		case errors.Is(err, service.ErrInvalidTitle):
			fail(c, http.StatusBadRequest, err.Error())
		default:
			logger.Errorf("update document %s: %v", c.Param("id"), err)
			fail(c, http.StatusInternalServerError, "Failed to update document")
		}
	})

	if presence == nil {
		return
	}
	r.GET("/api/documents/:id/users", func(c *gin.Context) {
		users, err := presence.Members(c.Request.Context(), c.Param("id"))
		if err != nil {
			logger.Errorf("presence for %s: %v", c.Param("id"), err)
			fail(c, http.StatusInternalServerError, "Failed to fetch users")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
	})
}
