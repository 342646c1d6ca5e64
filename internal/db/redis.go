package db

import (
	"context"
	"time"

	"mythic_prison/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

// ConnectRedis returns a client, or nil when addr is empty or the server does
// not answer. Callers treat a nil client as "no cache, no shared limits".
func ConnectRedis(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, continuing without it", "addr", addr, "error", err)
		_ = client.Close()
		return nil
	}
	logger.Info("redis connected", "addr", addr)
	return client
}
