package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/legalmind/legalmind/backend/go-services/internal/collaborators"
	"github.com/legalmind/legalmind/backend/go-services/internal/presence"
	"github.com/legalmind/legalmind/backend/go-services/internal/versions"
)

func (h *Handler) listPresence(c *gin.Context) {
	c.JSON(http.StatusOK, h.Presence.ListActive(c.Request.Context(), documentID(c)))
}

func (h *Handler) joinPresence(c *gin.Context) {
	rec, err := h.Presence.Join(c.Request.Context(), documentID(c), caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) heartbeat(c *gin.Context) {
	ok := h.Presence.Heartbeat(c.Request.Context(), documentID(c), caller(c).ID)
	c.JSON(http.StatusOK, gin.H{"refreshed": ok})
}

func (h *Handler) leavePresence(c *gin.Context) {
	h.Presence.Leave(c.Request.Context(), documentID(c), caller(c).ID)
	c.Status(http.StatusNoContent)
}

func (h *Handler) listVersions(c *gin.Context) {
	c.JSON(http.StatusOK, h.Versions.ListVersions(c.Request.Context(), documentID(c)))
}

func (h *Handler) saveVersion(c *gin.Context) {
	var req struct {
		Name              string `json:"name"`
		Content           string `json:"content"`
		KeepOthersCurrent bool   `json:"keepOthersCurrent"`
	}
	if !bindJSON(c, &req) {
		return
	}
	v, err := h.Versions.SaveVersion(c.Request.Context(), documentID(c), versions.SaveInput{
		Name:              req.Name,
		Content:           req.Content,
		KeepOthersCurrent: req.KeepOthersCurrent,
	}, caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *Handler) currentVersion(c *gin.Context) {
	v, ok := h.Versions.Current(c.Request.Context(), documentID(c))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no versions saved"})
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) getVersion(c *gin.Context) {
	v, ok := h.Versions.Get(c.Request.Context(), documentID(c), c.Param("versionId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "version not found"})
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) restoreVersion(c *gin.Context) {
	v, err := h.Versions.Restore(c.Request.Context(), documentID(c), c.Param("versionId"), caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if v == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "version not found"})
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *Handler) listComments(c *gin.Context) {
	c.JSON(http.StatusOK, h.Comments.List(c.Request.Context(), documentID(c)))
}

type commentRequest struct {
	Text string `json:"text"`
}

func (h *Handler) addComment(c *gin.Context) {
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}
	cm, err := h.Comments.Add(c.Request.Context(), documentID(c), req.Text, caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cm)
}

func (h *Handler) updateComment(c *gin.Context) {
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}
	cm, err := h.Comments.Update(c.Request.Context(), documentID(c), c.Param("commentId"), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	if cm == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
		return
	}
	c.JSON(http.StatusOK, cm)
}

// deleteComment answers 204 whether or not the comment existed.
func (h *Handler) deleteComment(c *gin.Context) {
	if _, err := h.Comments.Delete(c.Request.Context(), documentID(c), c.Param("commentId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listCollaborators(c *gin.Context) {
	c.JSON(http.StatusOK, h.Collaborators.List(c.Request.Context(), documentID(c)))
}

func (h *Handler) inviteCollaborator(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if !bindJSON(c, &req) {
		return
	}
	// Invite waits out the mailer round trip on this request's goroutine only.
	cb, err := h.Collaborators.Invite(c.Request.Context(), documentID(c), req.Email, caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cb)
}

func (h *Handler) acceptCollaborator(c *gin.Context) {
	cb, err := h.Collaborators.Accept(c.Request.Context(), documentID(c), c.Param("collaboratorId"), caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if cb == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "collaborator not found"})
		return
	}
	c.JSON(http.StatusOK, cb)
}

func (h *Handler) setCollaboratorStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if !bindJSON(c, &req) {
		return
	}
	err := h.Collaborators.SetStatus(c.Request.Context(), documentID(c), c.Param("collaboratorId"), collaborators.Status(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) removeCollaborator(c *gin.Context) {
	if _, err := h.Collaborators.Remove(c.Request.Context(), documentID(c), c.Param("collaboratorId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// presenceSnapshot is the payload pushed on the presence stream.
type presenceSnapshot struct {
	Type    string           `json:"type"`
	Editors []presence.Entry `json:"editors"`
}
