package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intranet-backend/internal/domains/taxonomy"
	"intranet-backend/internal/domains/taxonomy/model"
	"intranet-backend/internal/domains/taxonomy/taxonomytest"
	"intranet-backend/internal/shared"
)

func compensationTask(t *testing.T, req model.CompensationRequest) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)
	return asynq.NewTask(shared.TypeRetryCompensation, payload)
}

func TestRetryCompensationHandler(t *testing.T) {
	var got model.CompensationRequest
	svc := &taxonomytest.Service{
		RetryCompensationFn: func(_ context.Context, req model.CompensationRequest) error {
			got = req
			return nil
		},
	}
	h := NewRetryCompensationHandler(svc)
	req := model.CompensationRequest{RunID: uuid.New(), Kind: model.KindBrand, LinkingKey: "abc123"}

	require.NoError(t, h.ProcessTask(context.Background(), compensationTask(t, req)))
	assert.Equal(t, req, got)
}

func TestRetryCompensationHandler_ServiceErrorIsRetried(t *testing.T) {
	boom := model.NewTimeoutError(model.SideStrapi, nil)
	svc := &taxonomytest.Service{
		RetryCompensationFn: func(context.Context, model.CompensationRequest) error { return boom },
	}
	h := NewRetryCompensationHandler(svc)

	err := h.ProcessTask(context.Background(), compensationTask(t, model.CompensationRequest{
		RunID: uuid.New(), Kind: model.KindTag, LinkingKey: "k",
	}))

	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestRetryCompensationHandler_BadPayloadSkipsRetry(t *testing.T) {
	svc := &taxonomytest.Service{}
	h := NewRetryCompensationHandler(svc)

	tests := []struct {
		name string
		task *asynq.Task
	}{
		{"not json", asynq.NewTask(shared.TypeRetryCompensation, []byte("{"))},
		{"no key", compensationTask(t, model.CompensationRequest{Kind: model.KindTag})},
		{"bad kind", compensationTask(t, model.CompensationRequest{Kind: "autor", LinkingKey: "k"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.ProcessTask(context.Background(), tt.task)
			assert.ErrorIs(t, err, asynq.SkipRetry)
		})
	}
	assert.Empty(t, svc.Calls())
}

func TestSweepStaleRunsHandler(t *testing.T) {
	var gotAge time.Duration
	var gotLimit int
	svc := &taxonomytest.Service{
		SweepStaleFn: func(_ context.Context, olderThan time.Duration, limit int) (*taxonomy.SweepResult, error) {
			gotAge, gotLimit = olderThan, limit
			return &taxonomy.SweepResult{Examined: 2, Linked: 1, Failed: 1}, nil
		},
	}
	h := NewSweepStaleRunsHandler(svc, 15*time.Minute, 100)

	require.NoError(t, h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeSweepStaleRuns, nil)))
	assert.Equal(t, 15*time.Minute, gotAge)
	assert.Equal(t, 100, gotLimit)

	payload, err := json.Marshal(SweepStaleRunsPayload{OlderThan: time.Hour, Limit: 5})
	require.NoError(t, err)
	require.NoError(t, h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeSweepStaleRuns, payload)))
	assert.Equal(t, time.Hour, gotAge)
	assert.Equal(t, 5, gotLimit)
}

func TestSweepStaleRunsHandler_Error(t *testing.T) {
	svc := &taxonomytest.Service{
		SweepStaleFn: func(context.Context, time.Duration, int) (*taxonomy.SweepResult, error) {
			return nil, errors.New("db down")
		},
	}
	h := NewSweepStaleRunsHandler(svc, time.Minute, 10)

	assert.Error(t, h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeSweepStaleRuns, nil)))
}
