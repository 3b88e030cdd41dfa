// Package handler exposes the collaborative document engine over HTTP and
// websockets.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/legalmind/legalmind/backend/go-services/internal/apperr"
	"github.com/legalmind/legalmind/backend/go-services/internal/collaborators"
	"github.com/legalmind/legalmind/backend/go-services/internal/comments"
	"github.com/legalmind/legalmind/backend/go-services/internal/deadlines"
	"github.com/legalmind/legalmind/backend/go-services/internal/document/service"
	"github.com/legalmind/legalmind/backend/go-services/internal/identity"
	"github.com/legalmind/legalmind/backend/go-services/internal/notifications"
	"github.com/legalmind/legalmind/backend/go-services/internal/presence"
	"github.com/legalmind/legalmind/backend/go-services/internal/versions"
	"github.com/legalmind/legalmind/backend/go-services/pkg/logger"
	"github.com/legalmind/legalmind/backend/go-services/pkg/middleware"
)

var log = logger.Named("collab-http")

const documentKey = "documentId"

// Deps are the stores the routes operate on. Scanner is optional.
type Deps struct {
	Documents     *service.Service
	Presence      *presence.Store
	Versions      *versions.Ledger
	Comments      *comments.Thread
	Collaborators *collaborators.Directory
	Notifications *notifications.Center
	Deadlines     *deadlines.Store
	Scanner       *deadlines.Scanner
}

type Handler struct {
	Deps
}

func New(d Deps) *Handler { return &Handler{Deps: d} }

// Register mounts every collab route on r.
func (h *Handler) Register(r gin.IRouter) {
	doc := r.Group("/api/documents/:id", h.requireDocument)
	{
		doc.GET("/presence", h.listPresence)
		doc.POST("/presence", h.joinPresence)
		doc.POST("/presence/heartbeat", h.heartbeat)
		doc.DELETE("/presence", h.leavePresence)
		doc.GET("/presence/stream", h.presenceStream)

		doc.GET("/versions", h.listVersions)
		doc.POST("/versions", h.saveVersion)
		doc.GET("/versions/current", h.currentVersion)
		doc.GET("/versions/:versionId", h.getVersion)
		doc.POST("/versions/:versionId/restore", h.restoreVersion)

		doc.GET("/comments", h.listComments)
		doc.POST("/comments", h.addComment)
		doc.PATCH("/comments/:commentId", h.updateComment)
		doc.DELETE("/comments/:commentId", h.deleteComment)

		doc.GET("/collaborators", h.listCollaborators)
		doc.POST("/collaborators", h.inviteCollaborator)
		doc.POST("/collaborators/:collaboratorId/accept", h.acceptCollaborator)
		doc.PUT("/collaborators/:collaboratorId/status", h.setCollaboratorStatus)
		doc.DELETE("/collaborators/:collaboratorId", h.removeCollaborator)
	}

	n := r.Group("/api/notifications")
	{
		n.GET("", h.listNotifications)
		n.POST("", h.createNotification)
		n.DELETE("", h.clearNotifications)
		n.GET("/unread-count", h.unreadCount)
		n.POST("/read-all", h.markAllRead)
		n.GET("/stream", h.notificationStream)
		n.POST("/:notificationId/read", h.markRead)
		n.DELETE("/:notificationId", h.removeNotification)
	}

	d := r.Group("/api/deadlines")
	{
		d.GET("", h.listDeadlines)
		d.POST("", h.upsertDeadline)
		d.PUT("/:deadlineId", h.upsertDeadline)
		d.DELETE("/:deadlineId", h.removeDeadline)
		d.POST("/scan", h.scanDeadlines)
	}
}

// requireDocument resolves :id against the registry and answers 404 for
// unknown documents before any store is touched.
func (h *Handler) requireDocument(c *gin.Context) {
	id := c.Param("id")
	ok, err := h.Documents.Exists(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		c.Abort()
		return
	}
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	c.Set(documentKey, id)
	c.Next()
}

func documentID(c *gin.Context) string { return c.GetString(documentKey) }

func caller(c *gin.Context) identity.Identity {
	if id, ok := middleware.CurrentIdentity(c); ok {
		return id
	}
	return identity.Anonymous
}

func respondError(c *gin.Context, err error) {
	if v, ok := apperr.AsValidation(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": v.Message, "field": v.Field})
		return
	}
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	log.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}
