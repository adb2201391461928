package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"intranet-backend/internal/domains/taxonomy"
	"intranet-backend/internal/domains/taxonomy/model"
)

// RetryCompensationHandler repeats a compensating delete that failed inline
type RetryCompensationHandler struct {
	service taxonomy.Service
}

func NewRetryCompensationHandler(service taxonomy.Service) *RetryCompensationHandler {
	return &RetryCompensationHandler{service: service}
}

func (h *RetryCompensationHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload model.CompensationRequest
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal compensation payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.LinkingKey == "" {
		return fmt.Errorf("compensation payload without linking key: %w", asynq.SkipRetry)
	}
	if _, err := model.Lookup(payload.Kind); err != nil {
		return fmt.Errorf("compensation payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := h.service.RetryCompensation(ctx, payload); err != nil {
		log.Warn().Err(err).
			Str("run_id", payload.RunID.String()).
			Str("kind", string(payload.Kind)).
			Str("linking_key", payload.LinkingKey).
			Msg("compensation retry failed")
		return err
	}
	return nil
}
