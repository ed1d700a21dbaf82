package database

import (
	"context"
	"fmt"
	"time"

	"slidereview_backend/internal/config"
	"slidereview_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// InitRedis connects the session claim store. The ping uses a short
// deadline so a missing redis does not stall startup; the caller treats a
// failed connect as degraded, not fatal.
func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     50,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, err
	}

	logger.Log.Info("Redis connection established")
	return rdb, nil
}
