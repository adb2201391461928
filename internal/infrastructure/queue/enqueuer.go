package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"intranet-backend/internal/domains/taxonomy/model"
	"intranet-backend/internal/shared"
)

// TaskEnqueuer is the subset of *asynq.Client used here
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// CompensationQueue defers failed compensating deletes to the worker.
// It implements taxonomy.CompensationQueue.
type CompensationQueue struct {
	client   TaskEnqueuer
	maxRetry int
}

func NewCompensationQueue(client TaskEnqueuer, maxRetry int) *CompensationQueue {
	return &CompensationQueue{client: client, maxRetry: maxRetry}
}

// EnqueueCompensation schedules one retry task per run. A task id derived
// from the run keeps a second enqueue for the same run from duplicating it.
func (q *CompensationQueue) EnqueueCompensation(ctx context.Context, req model.CompensationRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal compensation request: %w", err)
	}

	task := asynq.NewTask(shared.TypeRetryCompensation, payload)
	info, err := q.client.EnqueueContext(ctx, task,
		asynq.Queue(shared.QueueTaxonomy),
		asynq.MaxRetry(q.maxRetry),
		asynq.TaskID("compensation:"+req.RunID.String()),
		asynq.ProcessIn(30*time.Second),
		asynq.Timeout(2*time.Minute),
	)
	if err != nil {
		return fmt.Errorf("enqueue compensation: %w", err)
	}

	log.Info().
		Str("task_id", info.ID).
		Str("run_id", req.RunID.String()).
		Str("linking_key", req.LinkingKey).
		Msg("compensation retry enqueued")
	return nil
}
