package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type multiplierRequest struct {
	Factor          float64 `json:"factor"`
	Delta           float64 `json:"delta"`
	DurationSeconds int64   `json:"duration_seconds"`
}

func (r multiplierRequest) duration() time.Duration {
	return time.Duration(r.DurationSeconds) * time.Second
}

// GetMultipliers lists every effective factor above 1.
func (h *Handler) GetMultipliers(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	all, err := h.Multipliers.All(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"multipliers": all})
}

// GetMultiplier returns the layer breakdown of one type.
func (h *Handler) GetMultiplier(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	t, ok := bonusTypeParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	b, err := h.Multipliers.Breakdown(ctx, id, t)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := gin.H{"breakdown": b}
	if left, timed := h.Multipliers.TimeLeft(ctx, id, t); timed {
		resp["expires_in_seconds"] = int64(left.Seconds())
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) SetMultiplier(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	t, ok := bonusTypeParam(c)
	if !ok {
		return
	}
	var req multiplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	ctx := c.Request.Context()
	if err := h.Multipliers.SetMultiplier(ctx, id, t, req.Factor, req.duration()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"type": t, "local": h.Multipliers.GetLocalMultiplier(ctx, id, t)})
}

func (h *Handler) AddMultiplier(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	t, ok := bonusTypeParam(c)
	if !ok {
		return
	}
	var req multiplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	f, err := h.Multipliers.AddMultiplier(c.Request.Context(), id, t, req.Delta, req.duration())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"type": t, "local": f})
}

func (h *Handler) RemoveMultiplier(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	t, ok := bonusTypeParam(c)
	if !ok {
		return
	}
	if err := h.Multipliers.RemoveMultiplier(c.Request.Context(), id, t); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
