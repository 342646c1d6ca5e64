package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mythic_prison/internal/http/middleware"
)

func (h *Handler) AdminStats(c *gin.Context) {
	st, err := h.Admin.GetStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) AdminGetPlayer(c *gin.Context) {
	p, err := h.Admin.GetPlayer(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// AdminSetBalance overrides a balance, loading the player if offline.
func (h *Handler) AdminSetBalance(c *gin.Context) {
	h.adminBalance(c, false)
}

// AdminAddBalance credits, or debits for a negative amount.
func (h *Handler) AdminAddBalance(c *gin.Context) {
	h.adminBalance(c, true)
}

func (h *Handler) adminBalance(c *gin.Context, add bool) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	cur, ok := currencyParam(c)
	if !ok {
		return
	}
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	ctx := c.Request.Context()
	actor := middleware.Subject(c)
	var err error
	if add {
		err = h.Admin.AddBalance(ctx, id, cur, req.Amount, actor)
	} else {
		err = h.Admin.SetBalance(ctx, id, cur, req.Amount, actor)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) AdminSetMultiplier(c *gin.Context) {
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
	if err := h.Admin.SetMultiplier(c.Request.Context(), id, t, req.Factor, req.duration(), middleware.Subject(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) AdminSetRank(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	var req struct {
		Rank string `json:"rank" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if err := h.Admin.SetRank(c.Request.Context(), id, req.Rank, middleware.Subject(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// AdminPlayerAudit lists the newest audit entries of one player.
func (h *Handler) AdminPlayerAudit(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	if h.Audit == nil {
		writeError(c, errors.ErrUnsupported)
		return
	}
	logs, err := h.Audit.GetByPlayer(c.Request.Context(), id, auditLimit(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": logs})
}

// AdminCategoryAudit lists the newest entries of one category, e.g. admin.
func (h *Handler) AdminCategoryAudit(c *gin.Context) {
	if h.Audit == nil {
		writeError(c, errors.ErrUnsupported)
		return
	}
	logs, err := h.Audit.GetByCategory(c.Request.Context(), c.Param("category"), auditLimit(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": logs})
}

func auditLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil {
		return 50
	}
	return n
}
