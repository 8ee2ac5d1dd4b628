package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Ticker string  `json:"ticker"`
	Value  float64 `json:"value"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", payload{Ticker: "AAPL", Value: 1.5}, time.Minute))
	var got payload
	require.NoError(t, mc.Get(ctx, "k", &got))
	assert.Equal(t, payload{Ticker: "AAPL", Value: 1.5}, got)

	assert.ErrorIs(t, mc.Get(ctx, "missing", &got), ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, mc.Set(ctx, "k", "v", time.Second))
	now = now.Add(2 * time.Second)

	var s string
	assert.ErrorIs(t, mc.Get(ctx, "k", &s), ErrCacheMiss)
	assert.Equal(t, 0, mc.Len())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "a", "1", time.Hour))
	now = now.Add(time.Second)
	require.NoError(t, mc.Set(ctx, "b", "2", time.Hour))
	now = now.Add(time.Second)
	var s string
	require.NoError(t, mc.Get(ctx, "a", &s))
	now = now.Add(time.Second)
	require.NoError(t, mc.Set(ctx, "c", "3", time.Hour))

	assert.NoError(t, mc.Get(ctx, "a", &s))
	assert.ErrorIs(t, mc.Get(ctx, "b", &s), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "c", &s))
}

func TestLayeredPromotesFromRemote(t *testing.T) {
	remote := NewMemoryCache()
	lc := NewLayeredCache(remote)
	defer lc.Close()
	ctx := context.Background()

	require.NoError(t, remote.Set(ctx, "k", payload{Ticker: "SPY"}, time.Hour))
	var got payload
	require.NoError(t, lc.Get(ctx, "k", &got))
	assert.Equal(t, "SPY", got.Ticker)

	require.NoError(t, remote.Delete(ctx, "k"))
	got = payload{}
	require.NoError(t, lc.Get(ctx, "k", &got), "served from L1")
	assert.Equal(t, "SPY", got.Ticker)
}

type failingRemote struct{ *MemoryCache }

func (failingRemote) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("redis down")
}

func TestLayeredSetFailsWhenRemoteFails(t *testing.T) {
	lc := NewLayeredCache(failingRemote{NewMemoryCache()})
	defer lc.Close()
	ctx := context.Background()

	require.Error(t, lc.Set(ctx, "k", "v", time.Minute))
	var s string
	assert.ErrorIs(t, lc.Get(ctx, "k", &s), ErrCacheMiss)
}

func TestLayeredWithoutRemote(t *testing.T) {
	lc := NewLayeredCache(nil)
	defer lc.Close()
	ctx := context.Background()

	require.NoError(t, lc.Set(ctx, "k", payload{Value: 2}, time.Minute))
	var got payload
	require.NoError(t, lc.Get(ctx, "k", &got))
	assert.Equal(t, 2.0, got.Value)
}

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "report:AAPL:2015-01-01:false:3", GenerateKeyWithParams("report", "AAPL", "2015-01-01", false, 3))
}
