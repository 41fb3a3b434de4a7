package cache

import (
	"context"
	"testing"
	"time"

	"github.com/cplounge/ranksync/internal/domain"
	"github.com/cplounge/ranksync/internal/oracle"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*StatsCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStatsCache(client, ttl), mr
}

func TestStatsCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	stats := &oracle.Stats{Tier: "expert", Rating: 1700, MaxRating: 1850, Solved: 42}
	cache.Set(ctx, domain.PlatformCodeforces, "alice", stats)

	got := cache.Get(ctx, domain.PlatformCodeforces, "alice")
	require.NotNil(t, got)
	assert.Equal(t, stats, got)
}

func TestStatsCacheMiss(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)

	assert.Nil(t, cache.Get(context.Background(), domain.PlatformCodeforces, "nobody"))
}

func TestStatsCacheKeyedByPlatform(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	cache.Set(ctx, domain.PlatformCodeforces, "alice", &oracle.Stats{Rating: 1700})
	cache.Set(ctx, domain.PlatformCodechef, "alice", &oracle.Stats{Rating: 1823})

	cf := cache.Get(ctx, domain.PlatformCodeforces, "alice")
	cc := cache.Get(ctx, domain.PlatformCodechef, "alice")
	require.NotNil(t, cf)
	require.NotNil(t, cc)
	assert.Equal(t, 1700, cf.Rating)
	assert.Equal(t, 1823, cc.Rating)
}

func TestStatsCacheExpiry(t *testing.T) {
	cache, mr := newTestCache(t, 10*time.Second)
	ctx := context.Background()

	cache.Set(ctx, domain.PlatformCodechef, "bob", &oracle.Stats{Rating: 1400})
	require.NotNil(t, cache.Get(ctx, domain.PlatformCodechef, "bob"))

	mr.FastForward(11 * time.Second)
	assert.Nil(t, cache.Get(ctx, domain.PlatformCodechef, "bob"))
}

func TestStatsCacheSurvivesRedisOutage(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()
	mr.Close()

	cache.Set(ctx, domain.PlatformCodeforces, "alice", &oracle.Stats{Rating: 1700})
	assert.Nil(t, cache.Get(ctx, domain.PlatformCodeforces, "alice"))
}
