package processor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cplounge/ranksync/internal/queue/task"
	"github.com/cplounge/ranksync/internal/worker"

	"github.com/hibiken/asynq"
)

type reconcileProcessor struct {
	workers *worker.Workers
}

func NewReconcileProcessor(workers *worker.Workers) *reconcileProcessor {
	return &reconcileProcessor{
		workers: workers,
	}
}

func (p *reconcileProcessor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var data task.Reconcile
	err := json.Unmarshal(t.Payload(), &data)
	if err != nil {
		return fmt.Errorf("process reconcile task json unmarshal failed: %w", err)
	}

	if err = p.workers.Reconciler.ReconcilePlatform(ctx, data.Platform); err != nil {
		return fmt.Errorf("reconcile platform %s failed: %w", data.Platform, err)
	}

	return nil
}
