package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Mine credits a batch of broken blocks.
func (h *Handler) Mine(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	var req struct {
		Block string `json:"block" binding:"required"`
		Count int    `json:"count"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if req.Count == 0 {
		req.Count = 1
	}
	r, err := h.Mining.Reward(c.Request.Context(), id, req.Block, req.Count)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
