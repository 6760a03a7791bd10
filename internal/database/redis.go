package database

import (
	"context"
	"fmt"
	"time"

	"mandi-backend/internal/config"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// OpenRedis returns nil clients when REDIS_ADDRESS is empty. Callers treat a
// nil client as "single instance": events stay in process and no locks are taken.
func OpenRedis(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*redis.Client, *redislock.Client, error) {
	if cfg.RedisAddress == "" {
		log.Info("REDIS_ADDRESS not set; running without cross-instance events")
		return nil, nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		DB:       0,
		PoolSize: 20,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddress, err)
	}

	log.WithField("addr", cfg.RedisAddress).Info("connected to redis")
	return rdb, redislock.New(rdb), nil
}
