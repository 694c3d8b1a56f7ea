package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "user-console/internal/domain/user"
)

// listKey holds the cached roster returned by GET /users.
const listKey = "users:all"

// UserCache defines the caching operations of the reference backend.
type UserCache interface {
	// Get retrieves a user by ID. It returns nil, nil on a miss.
	Get(ctx context.Context, id int64) (*domain.User, error)

	// Set stores a user with the configured TTL.
	Set(ctx context.Context, user *domain.User) error

	// Delete removes a user by ID.
	Delete(ctx context.Context, id int64) error

	// GetList retrieves the cached roster. ok is false on a miss.
	GetList(ctx context.Context) (users []domain.User, ok bool, err error)

	// SetList stores the roster with the configured TTL.
	SetList(ctx context.Context, users []domain.User) error

	// InvalidateList drops the cached roster.
	InvalidateList(ctx context.Context) error
}

// RedisUserCache implements UserCache using Redis as the backing store.
type RedisUserCache struct {
	client redis.Cmdable
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisUserCache creates a new Redis-backed user cache.
func NewRedisUserCache(client redis.Cmdable, ttl time.Duration, log *zap.Logger) *RedisUserCache {
	return &RedisUserCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("user:%d", id)
}

// Get retrieves a user from Redis.
func (c *RedisUserCache) Get(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	hit, err := c.getJSON(ctx, cacheKey(id), &user)
	if err != nil || !hit {
		return nil, err
	}

	c.log.Debug("cache hit", zap.Int64("user_id", id))
	return &user, nil
}

// Set stores a user in Redis with TTL.
func (c *RedisUserCache) Set(ctx context.Context, user *domain.User) error {
	if user == nil {
		return errors.New("cannot cache nil user")
	}
	return c.setJSON(ctx, cacheKey(user.ID), user)
}

// Delete removes a user from Redis.
func (c *RedisUserCache) Delete(ctx context.Context, id int64) error {
	if err := c.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		c.log.Error("failed to delete from cache", zap.Int64("user_id", id), zap.Error(err))
		return err
	}

	c.log.Debug("deleted from cache", zap.Int64("user_id", id))
	return nil
}

// GetList retrieves the cached roster.
func (c *RedisUserCache) GetList(ctx context.Context) ([]domain.User, bool, error) {
	var users []domain.User
	hit, err := c.getJSON(ctx, listKey, &users)
	if err != nil || !hit {
		return nil, false, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, true, nil
}

// SetList stores the roster.
func (c *RedisUserCache) SetList(ctx context.Context, users []domain.User) error {
	if users == nil {
		users = []domain.User{}
	}
	return c.setJSON(ctx, listKey, users)
}

// InvalidateList drops the cached roster.
func (c *RedisUserCache) InvalidateList(ctx context.Context) error {
	if err := c.client.Del(ctx, listKey).Err(); err != nil {
		c.log.Error("failed to invalidate cached list", zap.Error(err))
		return err
	}
	return nil
}

func (c *RedisUserCache) getJSON(ctx context.Context, key string, out any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		// Cache miss - not an error
		c.log.Debug("cache miss", zap.String("key", key))
		return false, nil
	}
	if err != nil {
		c.log.Error("failed to get from cache", zap.String("key", key), zap.Error(err))
		return false, err
	}

	if err := json.Unmarshal(data, out); err != nil {
		c.log.Error("failed to unmarshal cached value", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return true, nil
}

func (c *RedisUserCache) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.Error("failed to marshal value for cache", zap.String("key", key), zap.Error(err))
		return err
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Error("failed to set cache", zap.String("key", key), zap.Error(err))
		return err
	}

	c.log.Debug("cached value", zap.String("key", key), zap.Duration("ttl", c.ttl))
	return nil
}
