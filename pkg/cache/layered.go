package cache

import (
	"context"
	"errors"
	"time"
)

// LayeredCache reads through an in-process L1 to a shared L2 (Redis).
// With no L2 it behaves as a plain memory cache.
type LayeredCache struct {
	mem    *MemoryCache
	remote Service
	memTTL time.Duration
}

var _ Service = (*LayeredCache)(nil)

type LayeredOption func(*LayeredCache)

// WithLayeredMemoryTTL caps how long L1 keeps an entry.
func WithLayeredMemoryTTL(ttl time.Duration) LayeredOption {
	return func(lc *LayeredCache) {
		if ttl > 0 {
			lc.memTTL = ttl
		}
	}
}

// NewLayeredCache creates a layered cache. remote may be nil.
func NewLayeredCache(remote Service, opts ...LayeredOption) *LayeredCache {
	lc := &LayeredCache{remote: remote, memTTL: 5 * time.Minute}
	for _, opt := range opts {
		opt(lc)
	}
	lc.mem = NewMemoryCache(WithMemoryDefaultTTL(lc.memTTL))
	return lc
}

// Set writes L2 first; L1 is only filled once L2 accepted the value.
func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if lc.remote != nil {
		if err := lc.remote.Set(ctx, key, value, expiration); err != nil {
			return err
		}
	}
	return lc.mem.Set(ctx, key, value, lc.l1TTL(expiration))
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	err := lc.mem.Get(ctx, key, dest)
	if err == nil || lc.remote == nil || !errors.Is(err, ErrCacheMiss) {
		return err
	}

	if err := lc.remote.Get(ctx, key, dest); err != nil {
		return err
	}
	_ = lc.mem.Set(ctx, key, dest, lc.memTTL)
	return nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.mem.Delete(ctx, keys...)
	if lc.remote == nil {
		return nil
	}
	return lc.remote.Delete(ctx, keys...)
}

// Close closes both cache layers.
func (lc *LayeredCache) Close() error {
	_ = lc.mem.Close()
	if lc.remote == nil {
		return nil
	}
	return lc.remote.Close()
}

func (lc *LayeredCache) l1TTL(expiration time.Duration) time.Duration {
	if expiration > 0 && expiration < lc.memTTL {
		return expiration
	}
	return lc.memTTL
}
