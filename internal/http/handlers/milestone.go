package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mythic_prison/internal/service"
)

// ListMilestones returns the catalog.
func (h *Handler) ListMilestones(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"milestones": h.Milestones.Catalog()})
}

func (h *Handler) MilestoneProgress(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	rows, err := h.Milestones.Progress(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"milestones": rows})
}

// CheckMilestones grants every newly reached milestone.
func (h *Handler) CheckMilestones(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	granted, err := h.Milestones.Check(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if granted == nil {
		granted = []service.Milestone{}
	}
	c.JSON(http.StatusOK, gin.H{"granted": granted})
}
