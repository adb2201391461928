package service

import (
	"context"
	"fmt"
	"strings"

	"intranet-backend/internal/domains/taxonomy"
	"intranet-backend/internal/domains/taxonomy/model"
)

// anchor is where the derived counterpart of a record lives.
type anchor struct {
	Platform  string
	Attribute *model.AttributeDescriptor
	Skip      bool // no derived write for this record
}

// derivedTarget is the WooCommerce side of one DerivedShape.
type derivedTarget interface {
	// Resolve returns a CONFIGURATION_ERROR when the anchor does not exist upstream.
	Resolve(ctx context.Context, desc *model.EntityKindDescriptor, rec *model.TaxonomyRecord) (*anchor, error)
	Create(ctx context.Context, at *anchor, desc *model.EntityKindDescriptor, rec *model.TaxonomyRecord) (*model.DerivedTerm, error)
	// Recover fetches the object a TermExistsError points at.
	Recover(ctx context.Context, at *anchor, rec *model.TaxonomyRecord, exists *model.TermExistsError) (*model.DerivedTerm, error)
	// Find returns NOT_FOUND when the record has no counterpart.
	Find(ctx context.Context, at *anchor, rec *model.TaxonomyRecord) (*model.DerivedTerm, error)
	Delete(ctx context.Context, at *anchor, term *model.DerivedTerm) error
}

// ========================================
// ATTRIBUTE TERMS
// ========================================

type attributeTermTarget struct {
	lookup   *TermLookup
	terms    taxonomy.TermStore
	platform string
}

func (t *attributeTermTarget) Resolve(ctx context.Context, desc *model.EntityKindDescriptor, _ *model.TaxonomyRecord) (*anchor, error) {
	if t.terms == nil {
		return nil, model.NewConfigurationError("No hay una tienda WooCommerce configurada para los atributos")
	}
	attr, err := t.lookup.Resolve(ctx, desc)
	if err != nil {
		return nil, err
	}
	if attr == nil {
		return nil, missingAttributeError(desc)
	}
	return &anchor{Platform: t.platform, Attribute: attr}, nil
}

func (t *attributeTermTarget) Create(ctx context.Context, at *anchor, desc *model.EntityKindDescriptor, rec *model.TaxonomyRecord) (*model.DerivedTerm, error) {
	in := model.TermInput{Name: rec.DisplayName, Slug: rec.LinkingKey}
	if rec.Description != nil {
		in.Description = *rec.Description
	}
	return t.terms.CreateTerm(ctx, at.Attribute.AttributeID, in)
}

func (t *attributeTermTarget) Recover(ctx context.Context, at *anchor, rec *model.TaxonomyRecord, exists *model.TermExistsError) (*model.DerivedTerm, error) {
	if exists.ResourceID > 0 {
		return t.terms.FetchTerm(ctx, at.Attribute.AttributeID, exists.ResourceID)
	}
	return t.terms.FetchTermBySlug(ctx, at.Attribute.AttributeID, rec.LinkingKey)
}

func (t *attributeTermTarget) Find(ctx context.Context, at *anchor, rec *model.TaxonomyRecord) (*model.DerivedTerm, error) {
	return t.terms.FetchTermBySlug(ctx, at.Attribute.AttributeID, rec.LinkingKey)
}

func (t *attributeTermTarget) Delete(ctx context.Context, at *anchor, term *model.DerivedTerm) error {
	return t.terms.DeleteTerm(ctx, at.Attribute.AttributeID, term.DerivedID)
}

func missingAttributeError(desc *model.EntityKindDescriptor) error {
	return model.NewConfigurationError(fmt.Sprintf(
		"No se encontró el atributo %q en WooCommerce. Créelo en Productos > Atributos antes de dar de alta valores %s",
		desc.PrimaryAttributeSlug(), desc.Label,
	))
}

// ========================================
// COUPONS
// ========================================

type couponTarget struct {
	stores map[string]taxonomy.CouponStore
}

func (t *couponTarget) Resolve(_ context.Context, _ *model.EntityKindDescriptor, rec *model.TaxonomyRecord) (*anchor, error) {
	platform := rec.Fields.String(model.FieldOriginPlatform)
	if platform == model.PlatformOther {
		return &anchor{Platform: platform, Skip: true}, nil
	}
	if _, ok := t.stores[platform]; !ok {
		return nil, model.NewConfigurationError(fmt.Sprintf("No hay una tienda WooCommerce configurada para la plataforma %q", platform))
	}
	return &anchor{Platform: platform}, nil
}

func (t *couponTarget) Create(ctx context.Context, at *anchor, _ *model.EntityKindDescriptor, rec *model.TaxonomyRecord) (*model.DerivedTerm, error) {
	amount, _, err := rec.Fields.Decimal(model.FieldAmount)
	if err != nil {
		return nil, model.NewValidationError("El monto del cupón debe ser numérico", nil)
	}
	in := model.CouponInput{
		Code:         couponCode(rec),
		DiscountType: rec.Fields.String(model.FieldDiscountType),
		Amount:       amount,
	}
	if rec.Description != nil {
		in.Description = *rec.Description
	}
	return t.stores[at.Platform].CreateCoupon(ctx, in)
}

func (t *couponTarget) Recover(ctx context.Context, at *anchor, rec *model.TaxonomyRecord, exists *model.TermExistsError) (*model.DerivedTerm, error) {
	if exists.ResourceID > 0 {
		return t.stores[at.Platform].FetchCoupon(ctx, exists.ResourceID)
	}
	return t.stores[at.Platform].FetchCouponByCode(ctx, couponCode(rec))
}

func (t *couponTarget) Find(ctx context.Context, at *anchor, rec *model.TaxonomyRecord) (*model.DerivedTerm, error) {
	return t.stores[at.Platform].FetchCouponByCode(ctx, couponCode(rec))
}

func (t *couponTarget) Delete(ctx context.Context, at *anchor, term *model.DerivedTerm) error {
	return t.stores[at.Platform].DeleteCoupon(ctx, term.DerivedID)
}

func couponCode(rec *model.TaxonomyRecord) string {
	return strings.ToUpper(rec.Fields.String(model.FieldCode))
}
