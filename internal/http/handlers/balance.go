package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"mythic_prison/internal/domain"
	"mythic_prison/internal/numfmt"
)

type amountRequest struct {
	Amount float64 `json:"amount"`
}

// GetBalances returns every balance, raw and formatted.
func (h *Handler) GetBalances(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	bals, err := h.Balances.Balances(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	formatted := make(map[domain.Currency]string, len(bals))
	for cur, v := range bals {
		formatted[cur] = numfmt.Currency(cur, v)
	}
	c.JSON(http.StatusOK, gin.H{"balances": bals, "formatted": formatted})
}

func (h *Handler) GetBalance(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	cur, ok := currencyParam(c)
	if !ok {
		return
	}
	v := h.Balances.GetBalance(c.Request.Context(), id, cur)
	c.JSON(http.StatusOK, gin.H{
		"currency":  cur,
		"amount":    v,
		"formatted": numfmt.Currency(cur, v),
	})
}

func (h *Handler) AddBalance(c *gin.Context) {
	h.changeBalance(c, h.Balances.AddBalance)
}

func (h *Handler) RemoveBalance(c *gin.Context) {
	h.changeBalance(c, h.Balances.RemoveBalance)
}

func (h *Handler) SetBalance(c *gin.Context) {
	h.changeBalance(c, h.Balances.SetBalance)
}

func (h *Handler) changeBalance(c *gin.Context, op func(ctx context.Context, id domain.Identity, cur domain.Currency, amount float64) error) {
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
	if err := op(ctx, id, cur, req.Amount); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"currency": cur, "amount": h.Balances.GetBalance(ctx, id, cur)})
}

// Transfer moves money between two online players.
func (h *Handler) Transfer(c *gin.Context) {
	var req struct {
		From     string  `json:"from" binding:"required"`
		To       string  `json:"to" binding:"required"`
		Currency string  `json:"currency"`
		Amount   float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	from, err := domain.ParseIdentity(req.From)
	if err != nil {
		writeError(c, err)
		return
	}
	to, err := domain.ParseIdentity(req.To)
	if err != nil {
		writeError(c, err)
		return
	}
	cur := domain.Money
	if req.Currency != "" {
		if cur, err = domain.ParseCurrency(req.Currency); err != nil {
			writeError(c, err)
			return
		}
	}

	ctx := c.Request.Context()
	if err := h.Balances.Transfer(ctx, from, to, cur, req.Amount); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"currency": cur,
		"from":     h.Balances.GetBalance(ctx, from, cur),
		"to":       h.Balances.GetBalance(ctx, to, cur),
	})
}
