package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"drinkup/internal/config"
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

// Get returns the value for key, or "" on a cache miss.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForReputation is the cache key for a user's reputation snapshot.
func (c *RedisCache) KeyForReputation(userID string) string {
	return "reputation:snapshot:" + userID
}

// KeyForAuthCode is the key holding a pending phone-verification code.
func (c *RedisCache) KeyForAuthCode(requestID string) string {
	return "auth:code:" + requestID
}

// KeyForAccessToken maps an access token to a user id.
func (c *RedisCache) KeyForAccessToken(token string) string {
	return "auth:access:" + token
}

// KeyForRefreshToken maps a refresh token to a user id.
func (c *RedisCache) KeyForRefreshToken(token string) string {
	return "auth:refresh:" + token
}
