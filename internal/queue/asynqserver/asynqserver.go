package asynqserver

import (
	"fmt"
	"time"

	"github.com/cplounge/ranksync/internal/config"
	"github.com/cplounge/ranksync/internal/domain"
	"github.com/cplounge/ranksync/internal/queue/processor"
	"github.com/cplounge/ranksync/internal/queue/task"
	"github.com/cplounge/ranksync/internal/worker"

	"github.com/hibiken/asynq"
)

func New(cfg config.Cache, workers *worker.Workers) (*asynq.Server, *asynq.ServeMux) {
	mux, queues := getQueues(workers)
	srv := asynq.NewServer(
		RedisOptions(cfg),
		asynq.Config{
			// Reconciliation passes are sequential per platform by
			// design; a single worker per queue bounds oracle load.
			Concurrency: 2,
			LogLevel:    asynq.ErrorLevel,
			Queues:      queues,
		},
	)

	return srv, mux
}

// NewScheduler registers one recurring reconcile entry per platform.
// The scheduler is started only after the chat connector reports
// ready.
func NewScheduler(cfg config.Cache, interval time.Duration) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(RedisOptions(cfg), &asynq.SchedulerOpts{})

	for _, platform := range []domain.Platform{domain.PlatformCodeforces, domain.PlatformCodechef} {
		t, err := task.NewReconcileTask(platform)
		if err != nil {
			return nil, fmt.Errorf("build reconcile task for %s failed: %w", platform, err)
		}
		if _, err := scheduler.Register(fmt.Sprintf("@every %s", interval), t); err != nil {
			return nil, fmt.Errorf("register reconcile entry for %s failed: %w", platform, err)
		}
	}

	return scheduler, nil
}

func RedisOptions(cfg config.Cache) asynq.RedisConnOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
	}
}

func getQueues(workers *worker.Workers) (*asynq.ServeMux, map[string]int) {
	mux := asynq.NewServeMux()
	mux.Handle(task.ReconcileTaskName, processor.NewReconcileProcessor(workers))
	queues := map[string]int{
		task.ReconcileQueueName: 1,
	}
	return mux, queues
}
