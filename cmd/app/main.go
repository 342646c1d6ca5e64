package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"mythic_prison/internal/config"
	"mythic_prison/internal/db"
	"mythic_prison/internal/domain"
	httpServer "mythic_prison/internal/http"
	"mythic_prison/internal/http/handlers"
	"mythic_prison/internal/http/middleware"
	"mythic_prison/internal/logger"
	"mythic_prison/internal/player"
	"mythic_prison/internal/repository"
	"mythic_prison/internal/service"
	"mythic_prison/internal/ws"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	logger.InitWithFile(cfg.LogLevel, cfg.LogJSON, cfg.LogFile)
	defer logger.Close()
	service.InitJWT(cfg.JWTSecret)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checks := map[string]handlers.Check{}
	var (
		store     repository.ProfileStore
		auditRepo *repository.AuditRepository
	)
	switch cfg.StoreDriver {
	case "postgres":
		pool := db.Connect(cfg.DatabaseURL)
		defer pool.Close()
		store = repository.NewPostgresProfileStore(pool)
		auditRepo = repository.NewAuditRepository(pool)
		checks["database"] = pool.Ping
	case "sqlite":
		sqlDB, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			logger.Fatal("open sqlite", "path", cfg.SQLitePath, "error", err)
		}
		defer sqlDB.Close()
		sqlStore, err := repository.NewSQLiteProfileStore(sqlDB)
		if err != nil {
			logger.Fatal("prepare sqlite schema", "error", err)
		}
		store = sqlStore
		checks["database"] = sqlDB.PingContext
	default:
		logger.Warn("using in-memory profile store, progress is lost on restart")
		store = repository.NewMemoryProfileStore()
	}

	if rdb := db.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); rdb != nil {
		defer rdb.Close()
		store = repository.NewCachedProfileStore(store, rdb, cfg.ProfileCacheTTL)
		middleware.SetRedisClient(rdb)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	catalog, err := service.LoadMilestones(cfg.MilestonesFile)
	if err != nil {
		logger.Fatal("load milestones", "file", cfg.MilestonesFile, "error", err)
	}

	registry := player.NewRegistry()
	persister := service.NewPersister(store, registry,
		service.WithSaveWorkers(cfg.SaveWorkers),
		service.WithSaveTimeout(cfg.SaveTimeout),
		service.WithSaveInterval(cfg.SaveInterval),
	)
	persister.Start(ctx)

	var sessions *service.SessionService
	hub := ws.NewHub(ws.SourceFunc(func(ctx context.Context, id domain.Identity) (*domain.Scoreboard, error) {
		return sessions.Scoreboard(ctx, id)
	}), cfg.ScoreboardTick)
	changes := service.Markers{persister, hub}

	audit := service.NewAuditService(auditRepo)
	sessions = service.NewSessionService(registry, store, persister, changes, audit, cfg.LoadTimeout)
	balances := service.NewBalanceService(registry, changes, audit, cfg.MaxPayAmount)
	multipliers := service.NewMultiplierService(registry, changes)
	ladder := service.NewProgressionService(registry, changes, audit)
	milestones := service.NewMilestoneService(registry, changes, sessions, catalog)
	mining := service.NewMiningService(registry, changes, ladder, milestones)

	multipliers.StartSweeper(ctx, cfg.MultiplierSweep)
	go hub.Run(ctx)

	var ranker repository.Ranker
	if rk, ok := store.(repository.Ranker); ok {
		ranker = rk
	}
	h := &handlers.Handler{
		Sessions:    sessions,
		Balances:    balances,
		Multipliers: multipliers,
		Ladder:      ladder,
		Mining:      mining,
		Milestones:  milestones,
		Admin:       service.NewAdminService(registry, persister, sessions, balances, multipliers, ladder, audit),
		Ranker:      ranker,
		Audit:       auditRepo,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	httpServer.RegisterRoutes(r, h, handlers.NewHealthHandler(version, checks), hub, cfg.AllowedOrigin, httpServer.Limits{
		APIRate:      cfg.APIRateLimit,
		APIWindow:    cfg.APIRateWindow,
		ActionRate:   cfg.ActionRateLimit,
		ActionWindow: cfg.ActionRateWindow,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "store", cfg.StoreDriver, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := srv.Shutdown(httpCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), cfg.ShutdownFlush)
	defer flushCancel()
	if err := sessions.Shutdown(flushCtx); err != nil {
		logger.Error("final flush incomplete", "error", err, "pending", persister.Pending())
	}

	cancel()
	persister.Wait()
	logger.Info("server exited")
}
