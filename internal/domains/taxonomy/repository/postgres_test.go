package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intranet-backend/internal/domains/taxonomy"
	"intranet-backend/internal/domains/taxonomy/model"
	"intranet-backend/internal/infrastructure/database/testhelper"
	"intranet-backend/internal/shared/utils"
)

func newRepo(t *testing.T) taxonomy.Repository {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	testhelper.Truncate(t, pool, "reconciliation_runs")
	return NewPostgresRepository(pool)
}

func newRun(kind model.EntityKind, state model.RunState, age time.Duration) *model.ReconciliationRun {
	at := time.Now().Add(-age).UTC()
	return &model.ReconciliationRun{
		ID:          uuid.New(),
		Kind:        kind,
		DisplayName: "Acme",
		State:       state,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

func start(t *testing.T, repo taxonomy.Repository, runs ...*model.ReconciliationRun) {
	t.Helper()
	for _, run := range runs {
		require.NoError(t, repo.Start(context.Background(), run))
	}
}

func ids(runs []*model.ReconciliationRun) []uuid.UUID {
	out := make([]uuid.UUID, len(runs))
	for i, r := range runs {
		out[i] = r.ID
	}
	return out
}

func TestStartAndGetByID(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	run := newRun(model.KindBrand, model.RunValidating, 0)
	start(t, repo, run)

	got, err := repo.GetByID(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.KindBrand, got.Kind)
	assert.Equal(t, model.RunValidating, got.State)
	assert.Equal(t, "Acme", got.DisplayName)
	assert.Empty(t, got.LinkingKey)
	assert.Empty(t, got.Platform)
	assert.Nil(t, got.DerivedID)
	assert.False(t, got.Compensated)

	missing, err := repo.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAdvance_KeepsColumnsOnceSet(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	run := newRun(model.KindImprint, model.RunValidating, time.Hour)
	start(t, repo, run)

	steps := []model.RunUpdate{
		{State: model.RunRecordCreated, LinkingKey: utils.Ptr("doc1")},
		{State: model.RunAttributeResolved, AttributeID: utils.Ptr(int64(5))},
		{State: model.RunTermCreated, DerivedID: utils.Ptr(int64(100))},
		{State: model.RunLinked},
	}
	for _, upd := range steps {
		require.NoError(t, repo.Advance(ctx, run.ID, upd))
	}

	got, err := repo.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunLinked, got.State)
	assert.Equal(t, "doc1", got.LinkingKey)
	require.NotNil(t, got.AttributeID)
	assert.Equal(t, int64(5), *got.AttributeID)
	require.NotNil(t, got.DerivedID)
	assert.Equal(t, int64(100), *got.DerivedID)
	assert.Nil(t, got.Error)
	assert.False(t, got.Compensated)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestAdvance_ErrorAndCompensation(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	run := newRun(model.KindTag, model.RunRecordCreated, 0)
	run.LinkingKey = "doc9"
	start(t, repo, run)

	require.NoError(t, repo.Advance(ctx, run.ID, model.RunUpdate{
		State: model.RunTermCreateFailed, Error: utils.Ptr("Error al crear en WooCommerce"),
	}))
	require.NoError(t, repo.Advance(ctx, run.ID, model.RunUpdate{
		State: model.RunCompensated, Compensated: utils.Ptr(true),
	}))

	got, err := repo.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunCompensated, got.State)
	assert.Equal(t, "doc9", got.LinkingKey)
	require.NotNil(t, got.Error)
	assert.Equal(t, "Error al crear en WooCommerce", *got.Error)
	assert.True(t, got.Compensated)
}

func TestAdvance_UnknownRun(t *testing.T) {
	repo := newRepo(t)

	err := repo.Advance(context.Background(), uuid.New(), model.RunUpdate{State: model.RunLinked})

	assert.Error(t, err)
}

func TestListStale_OnlyOldPendingRuns(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	oldest := newRun(model.KindBrand, model.RunTermCreateFailed, 3*time.Hour)
	old := newRun(model.KindBrand, model.RunRecordCreated, 2*time.Hour)
	linked := newRun(model.KindBrand, model.RunLinked, 2*time.Hour)
	compensated := newRun(model.KindTag, model.RunCompensated, 2*time.Hour)
	recent := newRun(model.KindTag, model.RunRecordCreated, time.Minute)
	start(t, repo, old, linked, compensated, recent, oldest)

	cutoff := time.Now().Add(-time.Hour)

	runs, err := repo.ListStale(ctx, cutoff, 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{oldest.ID, old.ID}, ids(runs))

	runs, err = repo.ListStale(ctx, cutoff, 1)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{oldest.ID}, ids(runs))
}

func TestList_FiltersAndPages(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	b1 := newRun(model.KindBrand, model.RunLinked, 4*time.Minute)
	b2 := newRun(model.KindBrand, model.RunCompensated, 3*time.Minute)
	b3 := newRun(model.KindBrand, model.RunLinked, 2*time.Minute)
	tag := newRun(model.KindTag, model.RunLinked, time.Minute)
	start(t, repo, b1, b2, b3, tag)

	tests := []struct {
		name   string
		filter model.RunFilter
		want   []uuid.UUID
	}{
		{"all newest first", model.RunFilter{Limit: 10}, []uuid.UUID{tag.ID, b3.ID, b2.ID, b1.ID}},
		{"by kind", model.RunFilter{Kind: model.KindBrand, Limit: 10}, []uuid.UUID{b3.ID, b2.ID, b1.ID}},
		{"by state", model.RunFilter{State: model.RunCompensated, Limit: 10}, []uuid.UUID{b2.ID}},
		{"kind and state", model.RunFilter{Kind: model.KindBrand, State: model.RunLinked, Limit: 10}, []uuid.UUID{b3.ID, b1.ID}},
		{"limit and offset", model.RunFilter{Kind: model.KindBrand, Limit: 1, Offset: 1}, []uuid.UUID{b2.ID}},
		{"offset past end", model.RunFilter{Kind: model.KindTag, Limit: 10, Offset: 5}, []uuid.UUID{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(runs))
		})
	}
}
