package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mythic_prison/internal/domain"
	"mythic_prison/internal/repository"
	"mythic_prison/internal/service"
)

type Handler struct {
	Sessions    *service.SessionService
	Balances    *service.BalanceService
	Multipliers *service.MultiplierService
	Ladder      *service.ProgressionService
	Mining      *service.MiningService
	Milestones  *service.MilestoneService
	Admin       *service.AdminService
	// Ranker ranks stored profiles; nil limits leaderboards to online players.
	Ranker repository.Ranker
	// Audit reads stored audit entries; nil when no Postgres pool exists.
	Audit *repository.AuditRepository
}

// playerID parses the :id path parameter, answering 400 on failure.
func playerID(c *gin.Context) (domain.Identity, bool) {
	id, err := domain.ParseIdentity(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
		return "", false
	}
	return id, true
}

func currencyParam(c *gin.Context) (domain.Currency, bool) {
	cur, err := domain.ParseCurrency(c.Param("currency"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid currency"})
		return "", false
	}
	return cur, true
}

func bonusTypeParam(c *gin.Context) (domain.BonusType, bool) {
	t, err := domain.ParseBonusType(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bonus type"})
		return "", false
	}
	return t, true
}

func transitionParam(c *gin.Context) (domain.Transition, bool) {
	tr, ok := domain.ParseTransition(c.Param("transition"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transition"})
		return "", false
	}
	return tr, true
}

// writeError maps engine errors to a status code and a reason string.
func writeError(c *gin.Context, err error) {
	var short *domain.InsufficientFundsError
	if errors.As(err, &short) {
		c.JSON(http.StatusConflict, gin.H{
			"error":     "insufficient_funds",
			"currency":  short.Currency,
			"required":  short.Required,
			"available": short.Available,
			"shortfall": short.Shortfall(),
		})
		return
	}
	var inel *domain.IneligibleError
	if errors.As(err, &inel) {
		c.JSON(http.StatusConflict, gin.H{
			"error":      "ineligible",
			"transition": inel.Transition,
			"reason":     inel.Reason,
			"cost":       inel.Cost,
			"balance":    inel.Balance,
			"have":       inel.Have,
			"need":       inel.Need,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCurrency),
		errors.Is(err, domain.ErrInvalidBonusType),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidIdentity),
		errors.Is(err, domain.ErrInvalidRank),
		errors.Is(err, domain.ErrSelfTransfer),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrNotAutomatable):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPlayerNotLoaded):
		c.JSON(http.StatusNotFound, gin.H{"error": "player_not_loaded"})
	case errors.Is(err, repository.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "profile_not_found"})
	case errors.Is(err, domain.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store_unavailable"})
	case errors.Is(err, errors.ErrUnsupported):
		c.JSON(http.StatusNotImplemented, gin.H{"error": "unsupported"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
