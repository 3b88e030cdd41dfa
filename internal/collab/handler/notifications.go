package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/legalmind/legalmind/backend/go-services/internal/deadlines"
	"github.com/legalmind/legalmind/backend/go-services/internal/notifications"
)

func (h *Handler) listNotifications(c *gin.Context) {
	ctx := c.Request.Context()
	list := h.Notifications.List(ctx)
	unread := 0
	for _, n := range list {
		if !n.Read {
			unread++
		}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list, "unreadCount": unread})
}

func (h *Handler) unreadCount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"unreadCount": h.Notifications.UnreadCount(c.Request.Context())})
}

func (h *Handler) createNotification(c *gin.Context) {
	var req struct {
		Title             string                 `json:"title"`
		Message           string                 `json:"message"`
		Kind              notifications.Kind     `json:"kind"`
		Severity          notifications.Severity `json:"severity"`
		Link              string                 `json:"link"`
		RelatedDocumentID string                 `json:"relatedDocumentId"`
		RelatedCaseID     string                 `json:"relatedCaseId"`
	}
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.Notifications.Create(c.Request.Context(), notifications.Input{
		Title:             req.Title,
		Message:           req.Message,
		Kind:              req.Kind,
		Severity:          req.Severity,
		Link:              req.Link,
		RelatedDocumentID: req.RelatedDocumentID,
		RelatedCaseID:     req.RelatedCaseID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (h *Handler) markRead(c *gin.Context) {
	if err := h.Notifications.MarkRead(c.Request.Context(), c.Param("notificationId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) markAllRead(c *gin.Context) {
	if err := h.Notifications.MarkAllRead(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) removeNotification(c *gin.Context) {
	if err := h.Notifications.Remove(c.Request.Context(), c.Param("notificationId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) clearNotifications(c *gin.Context) {
	if err := h.Notifications.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listDeadlines(c *gin.Context) {
	c.JSON(http.StatusOK, h.Deadlines.List(c.Request.Context()))
}

func (h *Handler) upsertDeadline(c *gin.Context) {
	var req struct {
		CaseID    string `json:"caseId"`
		CaseTitle string `json:"caseTitle"`
		Title     string `json:"title"`
		DueDate   string `json:"dueDate"`
	}
	if !bindJSON(c, &req) {
		return
	}
	d, err := h.Deadlines.Upsert(c.Request.Context(), deadlines.Input{
		ID:        c.Param("deadlineId"),
		CaseID:    req.CaseID,
		CaseTitle: req.CaseTitle,
		Title:     req.Title,
		DueDate:   req.DueDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if c.Param("deadlineId") != "" {
		status = http.StatusOK
	}
	c.JSON(status, d)
}

func (h *Handler) removeDeadline(c *gin.Context) {
	if _, err := h.Deadlines.Remove(c.Request.Context(), c.Param("deadlineId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) scanDeadlines(c *gin.Context) {
	if h.Scanner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "deadline scanner disabled"})
		return
	}
	n, err := h.Scanner.Scan(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": n})
}
