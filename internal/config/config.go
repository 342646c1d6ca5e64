package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"mythic_prison/internal/logger"
)

type Config struct {
	AppPort       string
	AllowedOrigin string
	JWTSecret     string

	// Storage
	StoreDriver     string // postgres | sqlite | memory
	DatabaseURL     string
	SQLitePath      string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	ProfileCacheTTL time.Duration

	// Logging
	LogLevel string
	LogJSON  bool
	LogFile  string

	// Persistence
	SaveInterval  time.Duration
	SaveWorkers   int
	SaveTimeout   time.Duration
	ShutdownFlush time.Duration
	LoadTimeout   time.Duration

	MultiplierSweep time.Duration
	ScoreboardTick  time.Duration

	// Rate limits
	APIRateLimit     int
	APIRateWindow    time.Duration
	ActionRateLimit  int
	ActionRateWindow time.Duration

	MilestonesFile string
	MaxPayAmount   float64
}

// Load reads the environment (and .env when present).
func Load() *Config {
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	dbURL := os.Getenv("DATABASE_URL")
	driver := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_DRIVER")))
	if driver == "" {
		driver = "memory"
		if dbURL != "" {
			driver = "postgres"
		}
	}
	switch driver {
	case "postgres":
		if dbURL == "" {
			logger.Fatal("DATABASE_URL is not set")
		}
	case "sqlite", "memory":
	default:
		logger.Fatal("unknown STORE_DRIVER", "driver", driver)
	}

	sqlitePath := os.Getenv("SQLITE_PATH")
	if sqlitePath == "" {
		sqlitePath = "data/profiles.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	maxPay := 1e9
	if v := os.Getenv("MAX_PAY_AMOUNT"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			maxPay = n
		}
	}

	return &Config{
		AppPort:       port,
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),
		JWTSecret:     jwtSecret,

		StoreDriver:     driver,
		DatabaseURL:     dbURL,
		SQLitePath:      sqlitePath,
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         envInt("REDIS_DB", 0),
		ProfileCacheTTL: envSeconds("PROFILE_CACHE_TTL_SECONDS", 600),

		LogLevel: logLevel,
		LogJSON:  os.Getenv("LOG_JSON") == "true",
		LogFile:  os.Getenv("LOG_FILE"),

		SaveInterval:  envSeconds("SAVE_INTERVAL_SECONDS", 60),
		SaveWorkers:   envInt("SAVE_WORKERS", 4),
		SaveTimeout:   envSeconds("SAVE_TIMEOUT_SECONDS", 5),
		ShutdownFlush: envSeconds("SHUTDOWN_FLUSH_SECONDS", 10),
		LoadTimeout:   envSeconds("LOAD_TIMEOUT_SECONDS", 5),

		MultiplierSweep: envSeconds("MULTIPLIER_SWEEP_SECONDS", 30),
		ScoreboardTick:  time.Duration(envInt("SCOREBOARD_TICK_MS", 250)) * time.Millisecond,

		APIRateLimit:     envInt("API_RATE_LIMIT", 600),
		APIRateWindow:    envSeconds("API_RATE_WINDOW_SECONDS", 60),
		ActionRateLimit:  envInt("ACTION_RATE_LIMIT", 120),
		ActionRateWindow: envSeconds("ACTION_RATE_WINDOW_SECONDS", 60),

		MilestonesFile: os.Getenv("MILESTONES_FILE"),
		MaxPayAmount:   maxPay,
	}
}

// envInt returns the positive integer in key, or def.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envSeconds(key string, def int) time.Duration {
	return time.Duration(envInt(key, def)) * time.Second
}
