package client

import (
	"context"
	"fmt"

	"github.com/cplounge/ranksync/internal/domain"
	"github.com/cplounge/ranksync/internal/queue/task"

	"github.com/hibiken/asynq"
)

// Client enqueues one-off jobs outside the recurring schedule, e.g.
// an admin-triggered reconcile pass.
type Client struct {
	asynq *asynq.Client
}

func New(opts asynq.RedisConnOpt) *Client {
	return &Client{asynq: asynq.NewClient(opts)}
}

func (c *Client) EnqueueReconcile(ctx context.Context, platform domain.Platform) error {
	t, err := task.NewReconcileTask(platform)
	if err != nil {
		return fmt.Errorf("build reconcile task failed: %w", err)
	}

	if _, err := c.asynq.EnqueueContext(ctx, t); err != nil {
		return fmt.Errorf("enqueue reconcile task failed: %w", err)
	}

	return nil
}

func (c *Client) Close() error {
	return c.asynq.Close()
}
