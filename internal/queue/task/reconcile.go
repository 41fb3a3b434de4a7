package task

import (
	"encoding/json"
	"fmt"

	"github.com/cplounge/ranksync/internal/domain"

	"github.com/hibiken/asynq"
)

const (
	ReconcileTaskName  = "tier:reconcile"
	ReconcileQueueName = "reconcileQueue"
)

type Reconcile struct {
	Platform domain.Platform `json:"platform"`
}

// NewReconcileTask builds the periodic task that re-derives every
// verified identity's tier on one platform.
func NewReconcileTask(platform domain.Platform) (*asynq.Task, error) {
	data := Reconcile{Platform: platform}

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("json data marshal failed: %w", err)
	}

	return asynq.NewTask(
		ReconcileTaskName,
		payload,
		asynq.MaxRetry(1),
		asynq.Queue(ReconcileQueueName),
	), nil
}
