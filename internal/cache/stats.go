package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cplounge/ranksync/internal/domain"
	"github.com/cplounge/ranksync/internal/oracle"
	"github.com/cplounge/ranksync/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StatsCache keeps oracle profile stats in redis for a short TTL so
// repeated info commands do not hammer the remote platform.
type StatsCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewStatsCache(client redis.UniversalClient, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

func statsKey(platform domain.Platform, handle string) string {
	return fmt.Sprintf("stats:%s:%s", platform, handle)
}

// Get returns the cached stats, or nil when absent. Redis failures
// read as a miss.
func (c *StatsCache) Get(ctx context.Context, platform domain.Platform, handle string) *oracle.Stats {
	raw, err := c.client.Get(ctx, statsKey(platform, handle)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Debug("stats cache get failed", zap.Error(err))
		}
		return nil
	}

	var stats oracle.Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil
	}
	return &stats
}

func (c *StatsCache) Set(ctx context.Context, platform domain.Platform, handle string, stats *oracle.Stats) {
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, statsKey(platform, handle), raw, c.ttl).Err(); err != nil {
		logger.Debug("stats cache set failed", zap.Error(err))
	}
}
