package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/cplounge/ranksync/internal/domain"
	"github.com/cplounge/ranksync/internal/service"
)

func newReconciler(services *service.Services) Reconciler {
	return &reconciler{
		services: services,
	}
}

type reconciler struct {
	services *service.Services
}

func (r *reconciler) ReconcilePlatform(ctx context.Context, platform domain.Platform) error {
	err := r.services.Reconciliation.ReconcilePlatform(ctx, platform)
	if errors.Is(err, domain.ErrGuildUnavailable) {
		// Do not let asynq retry a skipped tick; the next scheduled
		// one retries on its own.
		return nil
	}
	if err != nil {
		return fmt.Errorf("reconcile %s failed: %w", platform, err)
	}
	return nil
}
