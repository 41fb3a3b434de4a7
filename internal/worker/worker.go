package worker

import (
	"context"

	"github.com/cplounge/ranksync/internal/domain"
	"github.com/cplounge/ranksync/internal/service"
)

type Workers struct {
	Reconciler Reconciler
}

type Deps struct {
	Services *service.Services
}

type Reconciler interface {
	ReconcilePlatform(ctx context.Context, platform domain.Platform) error
}

func NewWorkers(deps Deps) *Workers {
	return &Workers{
		Reconciler: newReconciler(deps.Services),
	}
}
