package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	data     []byte
	expireAt time.Time
	access   time.Time
}

func (m *memoryItem) expired(now time.Time) bool {
	return now.After(m.expireAt)
}

// MemoryCache keeps JSON-encoded values in process with LRU eviction.
type MemoryCache struct {
	mu            sync.Mutex
	data          map[string]*memoryItem
	maxSize       int
	defaultTTL    time.Duration
	cleanupTicker *time.Ticker
	done          chan struct{}
	closeOnce     sync.Once
	now           func() time.Time
}

var _ Service = (*MemoryCache)(nil)

type MemoryOption func(*MemoryCache)

// WithMemoryMaxSize bounds the entry count; the least recently read entry is
// evicted first.
func WithMemoryMaxSize(size int) MemoryOption {
	return func(mc *MemoryCache) { mc.maxSize = size }
}

// WithMemoryDefaultTTL applies to Set calls with a non-positive expiration.
func WithMemoryDefaultTTL(ttl time.Duration) MemoryOption {
	return func(mc *MemoryCache) { mc.defaultTTL = ttl }
}

const cleanupInterval = time.Minute

func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	mc := &MemoryCache{
		data:       make(map[string]*memoryItem),
		maxSize:    1000,
		defaultTTL: time.Hour,
		done:       make(chan struct{}),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(mc)
	}
	mc.cleanupTicker = time.NewTicker(cleanupInterval)
	go mc.cleanupExpired()
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, exists := mc.data[key]; !exists && len(mc.data) >= mc.maxSize {
		mc.evictLRU()
	}
	if expiration <= 0 {
		expiration = mc.defaultTTL
	}
	now := mc.now()
	mc.data[key] = &memoryItem{data: data, expireAt: now.Add(expiration), access: now}
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	item, exists := mc.data[key]
	now := mc.now()
	if !exists || item.expired(now) {
		if exists {
			delete(mc.data, key)
		}
		mc.mu.Unlock()
		return ErrCacheMiss
	}
	item.access = now
	data := item.data
	mc.mu.Unlock()

	return decode(data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, key := range keys {
		delete(mc.data, key)
	}
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.data)
}

func (mc *MemoryCache) evictLRU() {
	var (
		oldestKey  string
		oldestTime time.Time
	)
	for key, item := range mc.data {
		if oldestKey == "" || item.access.Before(oldestTime) {
			oldestKey, oldestTime = key, item.access
		}
	}
	if oldestKey != "" {
		delete(mc.data, oldestKey)
	}
}

func (mc *MemoryCache) cleanupExpired() {
	for {
		select {
		case <-mc.done:
			return
		case <-mc.cleanupTicker.C:
			mc.mu.Lock()
			now := mc.now()
			for key, item := range mc.data {
				if item.expired(now) {
					delete(mc.data, key)
				}
			}
			mc.mu.Unlock()
		}
	}
}

// Close stops the cleanup goroutine.
func (mc *MemoryCache) Close() error {
	mc.closeOnce.Do(func() {
		mc.cleanupTicker.Stop()
		close(mc.done)
	})
	return nil
}
