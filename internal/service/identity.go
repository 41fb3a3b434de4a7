package service

import (
	"context"
	"fmt"

	"github.com/cplounge/ranksync/internal/cache"
	"github.com/cplounge/ranksync/internal/domain"
	"github.com/cplounge/ranksync/internal/oracle"
	"github.com/cplounge/ranksync/internal/repository"
)

type identityService struct {
	repos      *repository.Repositories
	oracles    map[domain.Platform]oracle.Oracle
	statsCache *cache.StatsCache
}

func newIdentityService(repos *repository.Repositories, oracles map[domain.Platform]oracle.Oracle, statsCache *cache.StatsCache) *identityService {
	return &identityService{
		repos:      repos,
		oracles:    oracles,
		statsCache: statsCache,
	}
}

func (s *identityService) Get(ctx context.Context, platform domain.Platform, userID int64) (*domain.Identity, error) {
	return s.repos.ForPlatform(platform).Get(ctx, userID)
}

func (s *identityService) List(ctx context.Context, platform domain.Platform) ([]domain.Identity, error) {
	return s.repos.ForPlatform(platform).ListVerified(ctx)
}

func (s *identityService) Unlink(ctx context.Context, platform domain.Platform, userID int64) error {
	repo := s.repos.ForPlatform(platform)
	if _, err := repo.Get(ctx, userID); err != nil {
		return err
	}
	return repo.Delete(ctx, userID)
}

func (s *identityService) Register(ctx context.Context, platform domain.Platform, identity *domain.Identity) error {
	if identity.Tier == "" {
		identity.Tier = domain.TierUnknown
	}
	identity.Verified = true

	if err := s.repos.ForPlatform(platform).Upsert(ctx, identity); err != nil {
		return fmt.Errorf("register identity failed: %w", err)
	}
	return nil
}

func (s *identityService) Stats(ctx context.Context, platform domain.Platform, handle string) (*oracle.Stats, error) {
	if s.statsCache != nil {
		if stats := s.statsCache.Get(ctx, platform, handle); stats != nil {
			return stats, nil
		}
	}

	stats, err := s.oracles[platform].FetchActivityStats(ctx, handle)
	if err != nil {
		return nil, err
	}

	if s.statsCache != nil {
		s.statsCache.Set(ctx, platform, handle, stats)
	}
	return stats, nil
}
