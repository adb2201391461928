package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"intranet-backend/internal/config"
	"intranet-backend/internal/domains/taxonomy/job"
	"intranet-backend/internal/shared"
	"intranet-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
}

func NewScheduler(redis asynq.RedisClientOpt, jobConfig config.JobConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		redis,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

// RegisterJobs registers all periodic tasks
func (s *Scheduler) RegisterJobs() error {
	return s.registerSweepStaleRunsJob()
}

// ================================================
// Stale reconciliation sweep (JOB_SWEEP_CRON)
// ================================================
func (s *Scheduler) registerSweepStaleRunsJob() error {
	payload, err := json.Marshal(job.SweepStaleRunsPayload{})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeSweepStaleRuns, payload)

	_, err = s.scheduler.Register(
		s.jobConfig.SweepCron,
		task,
		asynq.Queue(shared.QueueTaxonomy),
		asynq.MaxRetry(0), // the next tick retries
		asynq.Timeout(5*time.Minute),
		asynq.Unique(5*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register SweepStaleRuns job", err)
		return err
	}

	logger.Info("Registered SweepStaleRuns", map[string]interface{}{"cron": s.jobConfig.SweepCron})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
