// Package taxonomytest provides a configurable taxonomy.Service for tests.
package taxonomytest

import (
	"context"
	"io"
	"sync"
	"time"

	"intranet-backend/internal/domains/taxonomy"
	"intranet-backend/internal/domains/taxonomy/model"
)

// Service implements taxonomy.Service with overridable funcs. Unset funcs
// return zero values. Calls are recorded by method name.
type Service struct {
	CreateFn            func(ctx context.Context, kind model.EntityKind, data map[string]any) (*taxonomy.CreateResult, error)
	GetFn               func(ctx context.Context, kind model.EntityKind, key string) (*model.TaxonomyRecord, error)
	ListFn              func(ctx context.Context, kind model.EntityKind) ([]*model.TaxonomyRecord, error)
	UpdateFn            func(ctx context.Context, kind model.EntityKind, key string, data map[string]any) (*model.TaxonomyRecord, error)
	DeleteFn            func(ctx context.Context, kind model.EntityKind, key string) (*taxonomy.DeleteResult, error)
	ResolveAttributeFn  func(ctx context.Context, kind model.EntityKind) (*model.AttributeDescriptor, error)
	ImportFn            func(ctx context.Context, kind model.EntityKind, r io.Reader) (*taxonomy.ImportResult, error)
	ExportFn            func(ctx context.Context, kind model.EntityKind, w io.Writer) error
	RunsFn              func(ctx context.Context, filter model.RunFilter) ([]*model.ReconciliationRun, error)
	RetryCompensationFn func(ctx context.Context, req model.CompensationRequest) error
	SweepStaleFn        func(ctx context.Context, olderThan time.Duration, limit int) (*taxonomy.SweepResult, error)

	mu    sync.Mutex
	calls []string
}

var _ taxonomy.Service = (*Service)(nil)

// Calls returns the recorded method names in order
func (s *Service) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *Service) record(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
}

func (s *Service) Create(ctx context.Context, kind model.EntityKind, data map[string]any) (*taxonomy.CreateResult, error) {
	s.record("Create")
	if s.CreateFn == nil {
		return &taxonomy.CreateResult{}, nil
	}
	return s.CreateFn(ctx, kind, data)
}

func (s *Service) Get(ctx context.Context, kind model.EntityKind, key string) (*model.TaxonomyRecord, error) {
	s.record("Get")
	if s.GetFn == nil {
		return &model.TaxonomyRecord{Kind: kind, LinkingKey: key}, nil
	}
	return s.GetFn(ctx, kind, key)
}

func (s *Service) List(ctx context.Context, kind model.EntityKind) ([]*model.TaxonomyRecord, error) {
	s.record("List")
	if s.ListFn == nil {
		return []*model.TaxonomyRecord{}, nil
	}
	return s.ListFn(ctx, kind)
}

func (s *Service) Update(ctx context.Context, kind model.EntityKind, key string, data map[string]any) (*model.TaxonomyRecord, error) {
	s.record("Update")
	if s.UpdateFn == nil {
		return &model.TaxonomyRecord{Kind: kind, LinkingKey: key}, nil
	}
	return s.UpdateFn(ctx, kind, key, data)
}

func (s *Service) Delete(ctx context.Context, kind model.EntityKind, key string) (*taxonomy.DeleteResult, error) {
	s.record("Delete")
	if s.DeleteFn == nil {
		return &taxonomy.DeleteResult{LinkingKey: key}, nil
	}
	return s.DeleteFn(ctx, kind, key)
}

func (s *Service) ResolveAttribute(ctx context.Context, kind model.EntityKind) (*model.AttributeDescriptor, error) {
	s.record("ResolveAttribute")
	if s.ResolveAttributeFn == nil {
		return &model.AttributeDescriptor{EntityKind: kind}, nil
	}
	return s.ResolveAttributeFn(ctx, kind)
}

func (s *Service) Import(ctx context.Context, kind model.EntityKind, r io.Reader) (*taxonomy.ImportResult, error) {
	s.record("Import")
	if s.ImportFn == nil {
		return &taxonomy.ImportResult{}, nil
	}
	return s.ImportFn(ctx, kind, r)
}

func (s *Service) Export(ctx context.Context, kind model.EntityKind, w io.Writer) error {
	s.record("Export")
	if s.ExportFn == nil {
		return nil
	}
	return s.ExportFn(ctx, kind, w)
}

func (s *Service) Runs(ctx context.Context, filter model.RunFilter) ([]*model.ReconciliationRun, error) {
	s.record("Runs")
	if s.RunsFn == nil {
		return []*model.ReconciliationRun{}, nil
	}
	return s.RunsFn(ctx, filter)
}

func (s *Service) RetryCompensation(ctx context.Context, req model.CompensationRequest) error {
	s.record("RetryCompensation")
	if s.RetryCompensationFn == nil {
		return nil
	}
	return s.RetryCompensationFn(ctx, req)
}

func (s *Service) SweepStale(ctx context.Context, olderThan time.Duration, limit int) (*taxonomy.SweepResult, error) {
	s.record("SweepStale")
	if s.SweepStaleFn == nil {
		return &taxonomy.SweepResult{}, nil
	}
	return s.SweepStaleFn(ctx, olderThan, limit)
}
