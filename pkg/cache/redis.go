package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "regimenews:"

type RedisOption func(*redis.Options)

func WithRedisAddr(addr string) RedisOption {
	return func(o *redis.Options) { o.Addr = addr }
}

func WithRedisPassword(password string) RedisOption {
	return func(o *redis.Options) { o.Password = password }
}

func WithRedisDB(db int) RedisOption {
	return func(o *redis.Options) { o.DB = db }
}

// RedisCache is the shared cache layer. Keys are namespaced with keyPrefix.
type RedisCache struct {
	client *redis.Client
}

var _ Service = (*RedisCache)(nil)

// NewRedisCache connects and fails unless Redis answers a ping.
func NewRedisCache(opts ...RedisOption) (*RedisCache, error) {
	o := &redis.Options{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	client := redis.NewClient(o)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", o.Addr, err)
	}
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+key, data, expiration).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return decode(data, dest)
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = keyPrefix + k
	}
	return c.client.Unlink(ctx, prefixed...).Err()
}

func (c *RedisCache) Close() error { return c.client.Close() }
