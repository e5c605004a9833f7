package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "andrew-web-services/internal/domain/user"
)

// UserCache caches user records keyed by name.
type UserCache interface {
	// Get returns the cached record for name, or nil on a cache miss.
	Get(ctx context.Context, name string) (*domain.User, error)

	// Set stores a record with the configured TTL.
	Set(ctx context.Context, user *domain.User) error

	// Delete evicts the record for name.
	Delete(ctx context.Context, name string) error
}

// RedisUserCache implements UserCache on Redis.
type RedisUserCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisUserCache creates a new Redis-backed user cache.
func NewRedisUserCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisUserCache {
	return &RedisUserCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// Key returns the Redis key holding the record for name.
func Key(name string) string {
	return fmt.Sprintf("user:name:%s", name)
}

// Get retrieves a user from Redis.
func (c *RedisUserCache) Get(ctx context.Context, name string) (*domain.User, error) {
	data, err := c.client.Get(ctx, Key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.log.Debug("cache miss", zap.String("name", name))
		return nil, nil
	}
	if err != nil {
		c.log.Error("failed to get from cache", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		c.log.Error("failed to unmarshal cached user", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	c.log.Debug("cache hit", zap.String("name", name))
	return &user, nil
}

// Set stores a user in Redis with TTL.
func (c *RedisUserCache) Set(ctx context.Context, user *domain.User) error {
	if user == nil {
		return errors.New("cannot cache nil user")
	}

	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, Key(user.Name), data, c.ttl).Err(); err != nil {
		c.log.Error("failed to set cache", zap.String("name", user.Name), zap.Error(err))
		return err
	}

	c.log.Debug("cached user", zap.String("name", user.Name), zap.Duration("ttl", c.ttl))
	return nil
}

// Delete removes a user from Redis.
func (c *RedisUserCache) Delete(ctx context.Context, name string) error {
	if err := c.client.Del(ctx, Key(name)).Err(); err != nil {
		c.log.Error("failed to delete from cache", zap.String("name", name), zap.Error(err))
		return err
	}
	return nil
}
