package database

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/claimwise/platform/pkg/common/config"
	"github.com/claimwise/platform/pkg/common/logger"
	"github.com/redis/go-redis/v9"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

// OpenRedis returns a client for the configured Redis. An unreachable server
// is logged and the client returned anyway: callers treat cache errors as
// misses, so claims keep flowing while Redis is down.
func OpenRedis(cfg *config.Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:        net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Log.WithError(err).WithField("addr", client.Options().Addr).Warn("Redis unavailable, caching degraded")
	} else {
		logger.Log.WithField("addr", client.Options().Addr).Info("Connected to Redis")
	}
	return client
}

func GetRedis() *redis.Client {
	redisOnce.Do(func() {
		redisClient = OpenRedis(config.Load())
	})
	return redisClient
}

func CloseRedis() error {
	if redisClient != nil {
		return redisClient.Close()
	}
	return nil
}
