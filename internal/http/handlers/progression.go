package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mythic_prison/internal/domain"
)

func (h *Handler) GetProgression(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	st, err := h.Ladder.State(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": st, "rank": st.RankSymbol()})
}

// Quote previews a transition without applying it.
func (h *Handler) Quote(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	tr, ok := transitionParam(c)
	if !ok {
		return
	}
	q, err := h.Ladder.Quote(c.Request.Context(), id, tr)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// Advance applies one transition.
func (h *Handler) Advance(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	tr, ok := transitionParam(c)
	if !ok {
		return
	}
	res, err := h.Ladder.Advance(c.Request.Context(), id, tr)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// AdvanceMax repeats a transition while it stays affordable.
func (h *Handler) AdvanceMax(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	tr, ok := transitionParam(c)
	if !ok {
		return
	}
	res, err := h.Ladder.AdvanceMax(c.Request.Context(), id, tr)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SetAutoAdvance toggles one automatic transition.
func (h *Handler) SetAutoAdvance(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	var req struct {
		Transition string `json:"transition" binding:"required"`
		Enabled    bool   `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	tr, ok := domain.ParseTransition(req.Transition)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transition"})
		return
	}
	settings, err := h.Ladder.SetAutoAdvance(c.Request.Context(), id, tr, req.Enabled)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
