package taxonomy

import (
	"context"

	"intranet-backend/internal/domains/taxonomy/model"
)

// RecordStore is the system of record (Strapi).
type RecordStore interface {
	Create(ctx context.Context, desc *model.EntityKindDescriptor, fields model.Fields) (*model.TaxonomyRecord, error)
	FetchByKey(ctx context.Context, desc *model.EntityKindDescriptor, key string) (*model.TaxonomyRecord, error)
	Update(ctx context.Context, desc *model.EntityKindDescriptor, key string, patch model.Fields) (*model.TaxonomyRecord, error)
	Delete(ctx context.Context, desc *model.EntityKindDescriptor, key string) error
	List(ctx context.Context, desc *model.EntityKindDescriptor) ([]*model.TaxonomyRecord, error)
}

// AttributeSource lists product attributes of a store.
type AttributeSource interface {
	AttributesBySlug(ctx context.Context, slug string) ([]model.AttributeDescriptor, error)
	ListAttributes(ctx context.Context) ([]model.AttributeDescriptor, error)
}

// TermStore manages attribute terms in the default store.
type TermStore interface {
	AttributeSource
	CreateTerm(ctx context.Context, attributeID int64, in model.TermInput) (*model.DerivedTerm, error)
	FetchTerm(ctx context.Context, attributeID, termID int64) (*model.DerivedTerm, error)
	FetchTermBySlug(ctx context.Context, attributeID int64, slug string) (*model.DerivedTerm, error)
	DeleteTerm(ctx context.Context, attributeID, termID int64) error
}

// CouponStore manages coupons in one store.
type CouponStore interface {
	CreateCoupon(ctx context.Context, in model.CouponInput) (*model.DerivedTerm, error)
	FetchCoupon(ctx context.Context, couponID int64) (*model.DerivedTerm, error)
	FetchCouponByCode(ctx context.Context, code string) (*model.DerivedTerm, error)
	DeleteCoupon(ctx context.Context, couponID int64) error
}

// CompensationQueue defers a compensating delete to the worker.
type CompensationQueue interface {
	EnqueueCompensation(ctx context.Context, req model.CompensationRequest) error
}
