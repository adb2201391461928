package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"intranet-backend/internal/domains/taxonomy"
	"intranet-backend/internal/domains/taxonomy/model"
	"intranet-backend/internal/shared/utils"
)

const (
	defaultRunsLimit = 50
	maxRunsLimit     = 500
)

// Runs lists the reconciliation journal, newest first
func (s *taxonomyService) Runs(ctx context.Context, filter model.RunFilter) ([]*model.ReconciliationRun, error) {
	if s.journal == nil {
		return []*model.ReconciliationRun{}, nil
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultRunsLimit
	}
	if filter.Limit > maxRunsLimit {
		filter.Limit = maxRunsLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.journal.List(ctx, filter)
}

// RetryCompensation repeats a compensating delete that failed inline.
// NOT_FOUND means an earlier attempt already removed the record.
func (s *taxonomyService) RetryCompensation(ctx context.Context, req model.CompensationRequest) error {
	desc, err := model.Lookup(req.Kind)
	if err != nil {
		return err
	}

	err = s.records.Delete(ctx, desc, req.LinkingKey)
	if err != nil && !model.IsNotFoundError(err) {
		return fmt.Errorf("retry compensation %s/%s: %w", req.Kind, req.LinkingKey, err)
	}

	s.markCompensated(ctx, req.RunID)
	log.Info().
		Str("run_id", req.RunID.String()).
		Str("kind", string(req.Kind)).
		Str("linking_key", req.LinkingKey).
		Msg("compensation retry succeeded")
	return nil
}

func (s *taxonomyService) markCompensated(ctx context.Context, runID uuid.UUID) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Advance(ctx, runID, model.RunUpdate{State: model.RunCompensated, Compensated: utils.Ptr(true)}); err != nil {
		log.Warn().Err(err).Msg("journal advance failed")
	}
}

// ============================================================
// STALE RUN SWEEP
// ============================================================
// A run left in a pending state (process crash mid-saga, or a failed
// compensating delete) is settled by checking both systems again:
// record and term present -> linked; record present without term ->
// compensate; record gone -> compensated.

func (s *taxonomyService) SweepStale(ctx context.Context, olderThan time.Duration, limit int) (*taxonomy.SweepResult, error) {
	result := &taxonomy.SweepResult{}
	if s.journal == nil {
		return result, nil
	}

	runs, err := s.journal.ListStale(ctx, s.now().Add(-olderThan), limit)
	if err != nil {
		return nil, fmt.Errorf("list stale runs: %w", err)
	}

	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Examined++

		outcome, err := s.settle(ctx, run)
		if err != nil {
			log.Warn().Err(err).
				Str("run_id", run.ID.String()).
				Str("state", string(run.State)).
				Msg("stale run not settled")
			result.Failed++
			continue
		}
		switch outcome {
		case model.RunLinked, model.RunNoDerived:
			result.Linked++
		case model.RunCompensated:
			result.Compensated++
		case model.RunRecordCreateFailed:
			result.Abandoned++
		default:
			result.Failed++
		}
	}

	log.Info().
		Int("examined", result.Examined).
		Int("linked", result.Linked).
		Int("compensated", result.Compensated).
		Int("abandoned", result.Abandoned).
		Int("failed", result.Failed).
		Msg("stale run sweep finished")
	return result, nil
}

func (s *taxonomyService) settle(ctx context.Context, run *model.ReconciliationRun) (model.RunState, error) {
	desc, err := model.Lookup(run.Kind)
	if err != nil {
		return "", err
	}

	// Nothing was created upstream, or the key was never journaled.
	if run.LinkingKey == "" {
		msg := "Ejecución interrumpida antes de crear el registro"
		s.advance(ctx, run, model.RunUpdate{State: model.RunRecordCreateFailed, Error: &msg})
		return model.RunRecordCreateFailed, nil
	}

	rec, err := s.records.FetchByKey(ctx, desc, run.LinkingKey)
	if model.IsNotFoundError(err) {
		s.advance(ctx, run, model.RunUpdate{State: model.RunCompensated, Compensated: utils.Ptr(true)})
		return model.RunCompensated, nil
	}
	if err != nil {
		return "", err
	}

	target := s.targets[desc.Shape]
	at, err := target.Resolve(ctx, desc, rec)
	if err != nil && !model.IsConfigurationError(err) {
		return "", err
	}
	if err == nil && at.Skip {
		s.advance(ctx, run, model.RunUpdate{State: model.RunNoDerived})
		return model.RunNoDerived, nil
	}
	if err == nil {
		term, findErr := target.Find(ctx, at, rec)
		if findErr == nil {
			s.advance(ctx, run, model.RunUpdate{State: model.RunLinked, DerivedID: &term.DerivedID})
			return model.RunLinked, nil
		}
		if !model.IsNotFoundError(findErr) {
			return "", findErr
		}
	}

	if !s.compensate(ctx, run, desc, run.LinkingKey) {
		return run.State, fmt.Errorf("compensating delete failed for %s", run.LinkingKey)
	}
	s.advance(ctx, run, model.RunUpdate{State: model.RunCompensated, Compensated: utils.Ptr(true)})
	return model.RunCompensated, nil
}
