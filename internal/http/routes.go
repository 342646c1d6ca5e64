package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mythic_prison/internal/http/handlers"
	"mythic_prison/internal/http/middleware"
	"mythic_prison/internal/service"
	"mythic_prison/internal/ws"
)

// Limits configures the API rate limiters.
type Limits struct {
	APIRate      int
	APIWindow    time.Duration
	ActionRate   int
	ActionWindow time.Duration
}

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, health *handlers.HealthHandler, hub *ws.Hub, allowedOrigin string, limits Limits) {
	r.Use(middleware.Metrics())

	// Health checks (no rate limiting)
	r.GET("/health", health.Health)
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(limits.APIRate, limits.APIWindow))
	registerAPIRoutes(v1, h, limits)

	// Scoreboard push for renderers
	if hub != nil {
		r.GET("/ws/scoreboard", ws.HandleWS(hub, allowedOrigin))
	}
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, limits Limits) {
	// Per-subject limiter on everything that mutates state
	act := func(action string) gin.HandlerFunc {
		return middleware.ActionRateLimit(action, limits.ActionRate, limits.ActionWindow)
	}

	game := api.Group("")
	game.Use(middleware.JWT(service.RoleServer))
	{
		game.GET("/milestones", h.ListMilestones)
		game.GET("/leaderboard/:currency", h.GetLeaderboard)
		game.GET("/online", h.Online)
		game.POST("/transfer", act("transfer"), h.Transfer)
	}

	players := game.Group("/players/:id")
	{
		// Sessions
		players.POST("/join", h.Join)
		players.POST("/leave", h.Leave)
		players.GET("", h.Profile)
		players.GET("/stats", h.Stats)
		players.GET("/scoreboard", h.Scoreboard)
		players.POST("/commands", h.RecordCommand)

		// Ledger
		players.GET("/balances", h.GetBalances)
		players.GET("/balances/:currency", h.GetBalance)
		players.POST("/balances/:currency/add", act("balance"), h.AddBalance)
		players.POST("/balances/:currency/remove", act("balance"), h.RemoveBalance)
		players.PUT("/balances/:currency", act("balance"), h.SetBalance)

		// Multipliers
		players.GET("/multipliers", h.GetMultipliers)
		players.GET("/multipliers/:type", h.GetMultiplier)
		players.PUT("/multipliers/:type", act("multiplier"), h.SetMultiplier)
		players.POST("/multipliers/:type/add", act("multiplier"), h.AddMultiplier)
		players.DELETE("/multipliers/:type", act("multiplier"), h.RemoveMultiplier)

		// Ladder
		players.GET("/progression", h.GetProgression)
		players.GET("/progression/:transition/quote", h.Quote)
		players.POST("/progression/:transition", act("progression"), h.Advance)
		players.POST("/progression/:transition/max", act("progression"), h.AdvanceMax)
		players.PUT("/progression/auto", h.SetAutoAdvance)

		// Mining income and milestones
		players.POST("/mine", act("mine"), h.Mine)
		players.GET("/milestones", h.MilestoneProgress)
		players.POST("/milestones/check", h.CheckMilestones)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.JWT(service.RoleAdmin))
	{
		admin.GET("/stats", h.AdminStats)
		admin.GET("/players/:id", h.AdminGetPlayer)
		admin.PUT("/players/:id/balances/:currency", h.AdminSetBalance)
		admin.POST("/players/:id/balances/:currency", h.AdminAddBalance)
		admin.PUT("/players/:id/multipliers/:type", h.AdminSetMultiplier)
		admin.PUT("/players/:id/rank", h.AdminSetRank)
		admin.GET("/players/:id/audit", h.AdminPlayerAudit)
		admin.GET("/audit/:category", h.AdminCategoryAudit)
	}
}
