package job

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"intranet-backend/internal/domains/taxonomy"
	"intranet-backend/pkg/logger"
)

// SweepStaleRunsPayload overrides the configured age and batch when set
type SweepStaleRunsPayload struct {
	OlderThan time.Duration `json:"olderThan,omitempty"`
	Limit     int           `json:"limit,omitempty"`
}

// SweepStaleRunsHandler settles runs left pending by a crash
type SweepStaleRunsHandler struct {
	service   taxonomy.Service
	olderThan time.Duration
	limit     int
}

func NewSweepStaleRunsHandler(service taxonomy.Service, olderThan time.Duration, limit int) *SweepStaleRunsHandler {
	return &SweepStaleRunsHandler{service: service, olderThan: olderThan, limit: limit}
}

func (h *SweepStaleRunsHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload SweepStaleRunsPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.Error("Unmarshal sweep payload failed", err)
			return err
		}
	}

	olderThan := h.olderThan
	if payload.OlderThan > 0 {
		olderThan = payload.OlderThan
	}
	limit := h.limit
	if payload.Limit > 0 {
		limit = payload.Limit
	}

	log.Info().
		Dur("older_than", olderThan).
		Int("limit", limit).
		Msg("Starting stale reconciliation sweep")

	result, err := h.service.SweepStale(ctx, olderThan, limit)
	if err != nil {
		logger.Error("Stale reconciliation sweep failed", err)
		return err
	}
	if result.Failed > 0 {
		log.Warn().Int("failed", result.Failed).Msg("some stale runs could not be settled, next sweep retries them")
	}
	return nil
}
