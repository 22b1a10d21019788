package utils

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gatherhub/venue-events-backend/config"
)

var redisClient *redis.Client

// InitRedis connects the shared Redis client. Optional: callers must treat a
// nil client as "run without Redis".
func InitRedis(cfg *config.Config) error {
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return err
	}

	redisClient = client
	return nil
}

// RedisClient returns the shared client, or nil when Redis is not configured
func RedisClient() *redis.Client {
	return redisClient
}
