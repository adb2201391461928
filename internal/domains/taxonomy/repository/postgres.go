package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"intranet-backend/internal/domains/taxonomy"
	"intranet-backend/internal/domains/taxonomy/model"
	"intranet-backend/pkg/logger"
)

const runColumns = `
	id, kind, linking_key, display_name, state, platform,
	attribute_id, derived_id, error, compensated, created_at, updated_at`

// postgresRepository implements taxonomy.Repository over reconciliation_runs
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates the journal repository
func NewPostgresRepository(pool *pgxpool.Pool) taxonomy.Repository {
	return &postgresRepository{pool: pool}
}

// Start inserts a new run
func (r *postgresRepository) Start(ctx context.Context, run *model.ReconciliationRun) error {
	query := `
		INSERT INTO reconciliation_runs (
			id, kind, linking_key, display_name, state, platform,
			attribute_id, derived_id, error, compensated, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Kind,
		nullString(run.LinkingKey),
		run.DisplayName,
		run.State,
		nullString(run.Platform),
		run.AttributeID,
		run.DerivedID,
		run.Error,
		run.Compensated,
		run.CreatedAt,
		run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reconciliation run: %w", err)
	}
	return nil
}

// Advance updates state plus whichever columns the step set.
// Unset columns keep their value.
func (r *postgresRepository) Advance(ctx context.Context, id uuid.UUID, upd model.RunUpdate) error {
	query := `
		UPDATE reconciliation_runs SET
			state        = $2,
			linking_key  = COALESCE($3, linking_key),
			attribute_id = COALESCE($4, attribute_id),
			derived_id   = COALESCE($5, derived_id),
			error        = COALESCE($6, error),
			compensated  = COALESCE($7, compensated),
			updated_at   = NOW()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, upd.State, upd.LinkingKey, upd.AttributeID, upd.DerivedID, upd.Error, upd.Compensated)
	if err != nil {
		return fmt.Errorf("advance reconciliation run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reconciliation run %s not found", id)
	}
	return nil
}

// GetByID returns nil if not found
func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ReconciliationRun, error) {
	query := `SELECT ` + runColumns + ` FROM reconciliation_runs WHERE id = $1`

	run, err := scanRun(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get reconciliation run: %w", err)
	}
	return run, nil
}

// List returns runs newest first
func (r *postgresRepository) List(ctx context.Context, filter model.RunFilter) ([]*model.ReconciliationRun, error) {
	var whereClauses []string
	var args []interface{}
	argIndex := 1

	if filter.Kind != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("kind = $%d", argIndex))
		args = append(args, filter.Kind)
		argIndex++
	}
	if filter.State != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("state = $%d", argIndex))
		args = append(args, filter.State)
		argIndex++
	}

	whereClause := ""
	if len(whereClauses) > 0 {
		whereClause = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM reconciliation_runs
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, runColumns, whereClause, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)
	return r.query(ctx, query, args...)
}

// ListStale returns non-terminal runs last updated before cutoff, oldest first
func (r *postgresRepository) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]*model.ReconciliationRun, error) {
	states := make([]string, len(model.PendingStates))
	for i, s := range model.PendingStates {
		states[i] = string(s)
	}

	query := `
		SELECT ` + runColumns + `
		FROM reconciliation_runs
		WHERE state = ANY($1) AND updated_at < $2
		ORDER BY updated_at ASC
		LIMIT $3
	`
	return r.query(ctx, query, states, cutoff, limit)
}

func (r *postgresRepository) query(ctx context.Context, query string, args ...interface{}) ([]*model.ReconciliationRun, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("reconciliation runs query failed", err)
		return nil, fmt.Errorf("failed to list reconciliation runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*model.ReconciliationRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reconciliation run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reconciliation runs: %w", err)
	}
	return runs, nil
}

func scanRun(row pgx.Row) (*model.ReconciliationRun, error) {
	var run model.ReconciliationRun
	var linkingKey, platform *string
	err := row.Scan(
		&run.ID,
		&run.Kind,
		&linkingKey,
		&run.DisplayName,
		&run.State,
		&platform,
		&run.AttributeID,
		&run.DerivedID,
		&run.Error,
		&run.Compensated,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if linkingKey != nil {
		run.LinkingKey = *linkingKey
	}
	if platform != nil {
		run.Platform = *platform
	}
	return &run, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
