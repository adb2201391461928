package taxonomy

import (
	"context"
	"time"

	"github.com/google/uuid"

	"intranet-backend/internal/domains/taxonomy/model"
)

// Repository persists the reconciliation journal
type Repository interface {
	// Start inserts a new run
	Start(ctx context.Context, run *model.ReconciliationRun) error

	// Advance records a state transition
	Advance(ctx context.Context, id uuid.UUID, upd model.RunUpdate) error

	// GetByID returns nil if not found
	GetByID(ctx context.Context, id uuid.UUID) (*model.ReconciliationRun, error)

	// List returns runs newest first
	List(ctx context.Context, filter model.RunFilter) ([]*model.ReconciliationRun, error)

	// ListStale returns non-terminal runs last updated before cutoff, oldest first
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]*model.ReconciliationRun, error)
}
