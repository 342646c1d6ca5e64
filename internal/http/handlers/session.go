package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mythic_prison/internal/domain"
)

// Join starts a live session; the profile is loaded before it returns.
func (h *Handler) Join(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	var req struct {
		Username string `json:"username"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
			return
		}
	}

	if err := h.Sessions.Join(c.Request.Context(), domain.Online{ID: id, Username: req.Username}); err != nil {
		writeError(c, err)
		return
	}
	sb, err := h.Sessions.Scoreboard(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sb)
}

// Leave ends the session and waits for the final save.
func (h *Handler) Leave(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	if err := h.Sessions.Leave(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Profile returns a detached profile, online or stored.
func (h *Handler) Profile(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	p, err := h.Sessions.Lookup(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) Stats(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	st, err := h.Sessions.Stats(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) Scoreboard(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	sb, err := h.Sessions.Scoreboard(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sb)
}

// RecordCommand counts one command use.
func (h *Handler) RecordCommand(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	h.Sessions.RecordCommand(c.Request.Context(), id)
	c.Status(http.StatusNoContent)
}

// Online lists identities with a live session.
func (h *Handler) Online(c *gin.Context) {
	ids := h.Sessions.Online()
	if ids == nil {
		ids = []domain.Identity{}
	}
	c.JSON(http.StatusOK, gin.H{"players": ids, "count": len(ids)})
}
