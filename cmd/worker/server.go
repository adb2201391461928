package main

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"intranet-backend/internal/shared"
	"intranet-backend/pkg/container"
)

// asynqServer wraps asynq.Server
type asynqServer struct {
	*asynq.Server
}

// setupAsynqServer creates the server, registers handlers and starts it
func setupAsynqServer(c *container.Container, handlers *HandlerRegistry) *asynqServer {
	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	srv := asynq.NewServer(
		c.RedisOpt(),
		asynq.Config{
			Queues:      shared.Queues,
			Concurrency: c.Config.Job.Concurrency,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				event := log.Error()
				if errors.Is(err, asynq.SkipRetry) {
					event = log.Warn()
				}
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				event.Err(err).
					Str("type", task.Type()).
					Int("retried", retried).
					Int("max_retry", maxRetry).
					Msg("[Asynq] Task failed")
			}),
		},
	)

	go func() {
		log.Info().Int("concurrency", c.Config.Job.Concurrency).Msg("[Worker] Starting")
		if err := srv.Run(mux); err != nil {
			log.Fatal().Err(err).Msg("[Worker] Failed")
		}
	}()

	return &asynqServer{Server: srv}
}

// Shutdown waits for active tasks up to asynq's ShutdownTimeout
func (s *asynqServer) Shutdown() {
	log.Info().Msg("[Worker] Shutting down")
	s.Server.Shutdown()
	log.Info().Msg("[Worker] Gracefully stopped")
}
