package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mythic_prison/internal/domain"
	"mythic_prison/internal/numfmt"
)

// GetLeaderboard ranks players by one balance. scope=all ranks every stored
// profile when the store supports it; the default ranks online players.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	cur, ok := currencyParam(c)
	if !ok {
		return
	}
	limit := 10
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	ctx := c.Request.Context()
	scope := c.DefaultQuery("scope", "online")
	var (
		top []domain.LeaderboardEntry
		err error
	)
	switch {
	case scope == "all" && h.Ranker != nil:
		top, err = h.Ranker.TopBy(ctx, cur, limit)
	default:
		scope = "online"
		top, err = h.Sessions.Top(ctx, cur, limit)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	rows := make([]gin.H, 0, len(top))
	for i, e := range top {
		rows = append(rows, gin.H{
			"position":  i + 1,
			"uuid":      e.UUID,
			"username":  e.Username,
			"value":     e.Value,
			"formatted": numfmt.Currency(cur, e.Value),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"leaderboard": rows,
		"currency":    cur,
		"scope":       scope,
	})
}
