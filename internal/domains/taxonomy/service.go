package taxonomy

import (
	"context"
	"io"
	"time"

	"intranet-backend/internal/domains/taxonomy/model"
)

// Service defines the operations exposed to handlers, the worker and the CLI.
type Service interface {
	// Create runs the reconciliation saga: Strapi record first, then the
	// WooCommerce counterpart, compensating the record on failure.
	Create(ctx context.Context, kind model.EntityKind, data map[string]any) (*CreateResult, error)

	// Get fetches a record by numeric id or documentId
	Get(ctx context.Context, kind model.EntityKind, key string) (*model.TaxonomyRecord, error)

	// List returns up to 1000 records of a kind
	List(ctx context.Context, kind model.EntityKind) ([]*model.TaxonomyRecord, error)

	// Update applies a partial update to display fields. The linking key never changes.
	Update(ctx context.Context, kind model.EntityKind, key string, data map[string]any) (*model.TaxonomyRecord, error)

	// Delete removes the record, then the derived term on a best-effort basis
	Delete(ctx context.Context, kind model.EntityKind, key string) (*DeleteResult, error)

	// ResolveAttribute runs Term Lookup for a kind; returns NOT_FOUND when nothing matches
	ResolveAttribute(ctx context.Context, kind model.EntityKind) (*model.AttributeDescriptor, error)

	// Import creates one record per CSV row
	Import(ctx context.Context, kind model.EntityKind, r io.Reader) (*ImportResult, error)

	// Export writes the records of a kind as an xlsx workbook
	Export(ctx context.Context, kind model.EntityKind, w io.Writer) error

	// Runs lists the reconciliation journal
	Runs(ctx context.Context, filter model.RunFilter) ([]*model.ReconciliationRun, error)

	// RetryCompensation deletes a record left behind by a failed saga
	RetryCompensation(ctx context.Context, req model.CompensationRequest) error

	// SweepStale settles runs stuck in a non-terminal state for longer than olderThan
	SweepStale(ctx context.Context, olderThan time.Duration, limit int) (*SweepResult, error)
}
