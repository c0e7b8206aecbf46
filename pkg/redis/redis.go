package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/dkang/foodlane-backend/config"
	"github.com/dkang/foodlane-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Client wraps a redis connection owned by the process: created at
// startup, closed on shutdown.
type Client struct {
	rdb *redis.Client
}

// New connects to redis and verifies the connection with a ping.
func New(cfg *config.RedisConfig) (*Client, error) {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"addr": cfg.Addr,
		"db":   cfg.DB,
	})

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"addr": cfg.Addr,
		})
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	logger.Info("Closing Redis connection", nil)
	return c.rdb.Close()
}

// BlacklistToken adds a token to the blacklist until its expiry.
func (c *Client) BlacklistToken(ctx context.Context, token string, expiry time.Duration) error {
	logger.Debug("Adding token to blacklist", map[string]interface{}{
		"expiry": expiry.String(),
	})

	key := fmt.Sprintf("blacklist:%s", token)
	if err := c.rdb.Set(ctx, key, "revoked", expiry).Err(); err != nil {
		logger.Error("Failed to blacklist token", err, nil)
		return err
	}

	logger.Debug("Token successfully blacklisted", nil)
	return nil
}

// IsTokenBlacklisted checks if a token is in the blacklist
func (c *Client) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	key := fmt.Sprintf("blacklist:%s", token)
	val, err := c.rdb.Get(ctx, key).Result()

	if err == redis.Nil {
		// Key does not exist - token is not blacklisted
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check token blacklist", err, nil)
		return false, err
	}

	return val == "revoked", nil
}

// CacheSet stores a serialized value under key with a TTL.
func (c *Client) CacheSet(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		logger.Error("Failed to write cache entry", err, map[string]interface{}{
			"key": key,
		})
		return err
	}
	return nil
}

// CacheGet returns the cached value for key, or ok=false on a miss.
func (c *Client) CacheGet(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		logger.Error("Failed to read cache entry", err, map[string]interface{}{
			"key": key,
		})
		return "", false, err
	}
	return val, true, nil
}
