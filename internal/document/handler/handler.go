package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/legalmind/legalmind/backend/go-services/internal/apperr"
	"github.com/legalmind/legalmind/backend/go-services/internal/document"
	"github.com/legalmind/legalmind/backend/go-services/internal/document/service"
	"github.com/legalmind/legalmind/backend/go-services/pkg/logger"
	"github.com/legalmind/legalmind/backend/go-services/pkg/middleware"
)

func fail(c *gin.Context, err error) {
	if v, ok := apperr.AsValidation(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": v.Message, "field": v.Field})
		return
	}
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	logger.Errorf("documents: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func RegisterDocumentRoutes(r gin.IRouter, svc *service.Service) {
	r.GET("/api/documents", func(c *gin.Context) {
		list, err := svc.List(c.Request.Context(), c.Query("caseId"))
		if err != nil {
			fail(c, err)
			return
		}
		out := make([]gin.H, 0, len(list))
		for _, d := range list {
			out = append(out, gin.H{"id": d.ID, "title": d.Title, "caseId": d.CaseID, "updatedAt": d.UpdatedAt})
		}
		c.JSON(http.StatusOK, out)
	})

	r.POST("/api/documents", func(c *gin.Context) {
		var req struct {
			Title   string `json:"title"`
			CaseID  string `json:"caseId"`
			Content string `json:"content"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		d := &document.Document{Title: req.Title, CaseID: req.CaseID, Content: req.Content}
		if id, ok := middleware.CurrentIdentity(c); ok {
			d.OwnerID = id.ID
		}
		created, err := svc.Create(c.Request.Context(), d)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, created)
	})

	r.GET("/api/documents/:id", func(c *gin.Context) {
		d, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	})

	r.PATCH("/api/documents/:id", func(c *gin.Context) {
		var patch document.Patch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		d, err := svc.Update(c.Request.Context(), c.Param("id"), patch)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	})

	r.DELETE("/api/documents/:id", func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}
