package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"intranet-backend/internal/domains/taxonomy/model"
)

// recorder collects upstream calls in order across all fakes.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) count(prefix string) int {
	n := 0
	for _, c := range r.list() {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

// ========================================
// RECORD STORE
// ========================================

type fakeRecords struct {
	rec       *recorder
	items     map[string]*model.TaxonomyRecord
	nextID    int
	createErr error
	updateErr error
	deleteErr error
}

func newFakeRecords(rec *recorder) *fakeRecords {
	return &fakeRecords{rec: rec, items: map[string]*model.TaxonomyRecord{}, nextID: 1}
}

func (f *fakeRecords) Create(_ context.Context, desc *model.EntityKindDescriptor, fields model.Fields) (*model.TaxonomyRecord, error) {
	f.rec.add("strapi.create %s", desc.Kind)
	if f.createErr != nil {
		return nil, f.createErr
	}
	key := fmt.Sprintf("doc%d", f.nextID)
	stored := make(model.Fields, len(fields))
	for k, v := range fields {
		stored[k] = v
	}
	r := &model.TaxonomyRecord{
		Kind:        desc.Kind,
		InternalID:  int64(f.nextID),
		LinkingKey:  key,
		DisplayName: stored.String(desc.NameField),
		Description: stored.StringPtr(desc.DescriptionField),
		Fields:      stored,
	}
	f.nextID++
	f.items[key] = r
	cp := *r
	return &cp, nil
}

func (f *fakeRecords) FetchByKey(_ context.Context, desc *model.EntityKindDescriptor, key string) (*model.TaxonomyRecord, error) {
	f.rec.add("strapi.fetch %s", key)
	r, ok := f.items[key]
	if !ok {
		return nil, model.NewNotFoundError(model.SideStrapi, "not found")
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRecords) Update(_ context.Context, desc *model.EntityKindDescriptor, key string, patch model.Fields) (*model.TaxonomyRecord, error) {
	f.rec.add("strapi.update %s", key)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	r, ok := f.items[key]
	if !ok {
		return nil, model.NewNotFoundError(model.SideStrapi, "not found")
	}
	for k, v := range patch {
		r.Fields[k] = v
	}
	r.DisplayName = r.Fields.String(desc.NameField)
	cp := *r
	return &cp, nil
}

func (f *fakeRecords) Delete(_ context.Context, desc *model.EntityKindDescriptor, key string) error {
	f.rec.add("strapi.delete %s", key)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.items[key]; !ok {
		return model.NewNotFoundError(model.SideStrapi, "not found")
	}
	delete(f.items, key)
	return nil
}

func (f *fakeRecords) List(_ context.Context, desc *model.EntityKindDescriptor) ([]*model.TaxonomyRecord, error) {
	f.rec.add("strapi.list %s", desc.Kind)
	out := make([]*model.TaxonomyRecord, 0, len(f.items))
	for i := 1; i < f.nextID; i++ {
		if r, ok := f.items[fmt.Sprintf("doc%d", i)]; ok && r.Kind == desc.Kind {
			out = append(out, r)
		}
	}
	return out, nil
}

// ========================================
// TERM STORE
// ========================================

type fakeTerms struct {
	rec        *recorder
	attributes []model.AttributeDescriptor
	// slugFilterWorks=false mimics stores that ignore ?slug=
	slugFilterWorks bool
	terms           map[int64]*model.DerivedTerm
	nextID          int64
	createErr       error
	listErr         error
}

func newFakeTerms(rec *recorder, attrs ...model.AttributeDescriptor) *fakeTerms {
	return &fakeTerms{rec: rec, attributes: attrs, slugFilterWorks: true, terms: map[int64]*model.DerivedTerm{}, nextID: 100}
}

func (f *fakeTerms) AttributesBySlug(_ context.Context, slug string) ([]model.AttributeDescriptor, error) {
	f.rec.add("woo.attributes slug=%s", slug)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if !f.slugFilterWorks {
		return f.attributes, nil
	}
	var out []model.AttributeDescriptor
	for _, a := range f.attributes {
		if a.Slug == slug {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeTerms) ListAttributes(_ context.Context) ([]model.AttributeDescriptor, error) {
	f.rec.add("woo.attributes all")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.attributes, nil
}

func (f *fakeTerms) CreateTerm(_ context.Context, attributeID int64, in model.TermInput) (*model.DerivedTerm, error) {
	f.rec.add("woo.create_term %d slug=%s name=%s", attributeID, in.Slug, in.Name)
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, t := range f.terms {
		if t.Slug == in.Slug {
			return nil, &model.TermExistsError{ResourceID: t.DerivedID, Code: "term_exists", Message: "exists"}
		}
	}
	t := &model.DerivedTerm{DerivedID: f.nextID, Slug: in.Slug, Name: in.Name, Description: in.Description}
	f.terms[t.DerivedID] = t
	f.nextID++
	return t, nil
}

func (f *fakeTerms) FetchTerm(_ context.Context, attributeID, termID int64) (*model.DerivedTerm, error) {
	f.rec.add("woo.fetch_term %d", termID)
	t, ok := f.terms[termID]
	if !ok {
		return nil, model.NewNotFoundError(model.SideWooCommerce, "not found")
	}
	return t, nil
}

func (f *fakeTerms) FetchTermBySlug(_ context.Context, attributeID int64, slug string) (*model.DerivedTerm, error) {
	f.rec.add("woo.fetch_term_slug %s", slug)
	for _, t := range f.terms {
		if t.Slug == slug {
			return t, nil
		}
	}
	return nil, model.NewNotFoundError(model.SideWooCommerce, "not found")
}

func (f *fakeTerms) DeleteTerm(_ context.Context, attributeID, termID int64) error {
	f.rec.add("woo.delete_term %d", termID)
	if _, ok := f.terms[termID]; !ok {
		return model.NewNotFoundError(model.SideWooCommerce, "not found")
	}
	delete(f.terms, termID)
	return nil
}

// ========================================
// COUPON STORE
// ========================================

type fakeCoupons struct {
	rec     *recorder
	coupons map[int64]*model.DerivedTerm
	nextID  int64
}

func newFakeCoupons(rec *recorder) *fakeCoupons {
	return &fakeCoupons{rec: rec, coupons: map[int64]*model.DerivedTerm{}, nextID: 500}
}

func (f *fakeCoupons) CreateCoupon(_ context.Context, in model.CouponInput) (*model.DerivedTerm, error) {
	f.rec.add("woo.create_coupon %s", in.Code)
	for _, c := range f.coupons {
		if c.Code == in.Code {
			return nil, &model.TermExistsError{Code: "woocommerce_rest_coupon_code_already_exists", Message: "exists"}
		}
	}
	c := &model.DerivedTerm{DerivedID: f.nextID, Code: in.Code}
	f.coupons[c.DerivedID] = c
	f.nextID++
	return c, nil
}

func (f *fakeCoupons) FetchCoupon(_ context.Context, id int64) (*model.DerivedTerm, error) {
	f.rec.add("woo.fetch_coupon %d", id)
	if c, ok := f.coupons[id]; ok {
		return c, nil
	}
	return nil, model.NewNotFoundError(model.SideWooCommerce, "not found")
}

func (f *fakeCoupons) FetchCouponByCode(_ context.Context, code string) (*model.DerivedTerm, error) {
	f.rec.add("woo.fetch_coupon_code %s", code)
	for _, c := range f.coupons {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, model.NewNotFoundError(model.SideWooCommerce, "not found")
}

func (f *fakeCoupons) DeleteCoupon(_ context.Context, id int64) error {
	f.rec.add("woo.delete_coupon %d", id)
	delete(f.coupons, id)
	return nil
}

// ========================================
// JOURNAL AND QUEUE
// ========================================

type fakeJournal struct {
	mu   sync.Mutex
	runs map[uuid.UUID]*model.ReconciliationRun
	log  []model.RunState
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{runs: map[uuid.UUID]*model.ReconciliationRun{}}
}

func (j *fakeJournal) Start(_ context.Context, run *model.ReconciliationRun) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	cp := *run
	j.runs[run.ID] = &cp
	j.log = append(j.log, run.State)
	return nil
}

func (j *fakeJournal) Advance(_ context.Context, id uuid.UUID, upd model.RunUpdate) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	run, ok := j.runs[id]
	if !ok {
		return fmt.Errorf("run %s not found", id)
	}
	run.State = upd.State
	if upd.LinkingKey != nil {
		run.LinkingKey = *upd.LinkingKey
	}
	if upd.DerivedID != nil {
		run.DerivedID = upd.DerivedID
	}
	if upd.AttributeID != nil {
		run.AttributeID = upd.AttributeID
	}
	if upd.Error != nil {
		run.Error = upd.Error
	}
	if upd.Compensated != nil {
		run.Compensated = *upd.Compensated
	}
	j.log = append(j.log, upd.State)
	return nil
}

func (j *fakeJournal) GetByID(_ context.Context, id uuid.UUID) (*model.ReconciliationRun, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs[id], nil
}

func (j *fakeJournal) List(_ context.Context, filter model.RunFilter) ([]*model.ReconciliationRun, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := []*model.ReconciliationRun{}
	for _, r := range j.runs {
		if filter.Kind == "" || r.Kind == filter.Kind {
			out = append(out, r)
		}
	}
	return out, nil
}

func (j *fakeJournal) ListStale(_ context.Context, cutoff time.Time, limit int) ([]*model.ReconciliationRun, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := []*model.ReconciliationRun{}
	for _, r := range j.runs {
		if !r.State.Terminal() && r.UpdatedAt.Before(cutoff) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (j *fakeJournal) seed(run *model.ReconciliationRun) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runs[run.ID] = run
}

type fakeQueue struct {
	requests []model.CompensationRequest
}

func (q *fakeQueue) EnqueueCompensation(_ context.Context, req model.CompensationRequest) error {
	q.requests = append(q.requests, req)
	return nil
}
