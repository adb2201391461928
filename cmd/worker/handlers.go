package main

import (
	"github.com/hibiken/asynq"

	"intranet-backend/internal/domains/taxonomy/job"
	"intranet-backend/internal/shared"
	"intranet-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	retryCompensation *job.RetryCompensationHandler
	sweepStaleRuns    *job.SweepStaleRunsHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		retryCompensation: job.NewRetryCompensationHandler(c.TaxonomyService),
		sweepStaleRuns: job.NewSweepStaleRunsHandler(
			c.TaxonomyService,
			c.Config.Job.StaleAfter,
			c.Config.Job.SweepBatch,
		),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeRetryCompensation, h.retryCompensation.ProcessTask)
	mux.HandleFunc(shared.TypeSweepStaleRuns, h.sweepStaleRuns.ProcessTask)
}
