package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"intranet-backend/internal/domains/taxonomy"
	"intranet-backend/internal/domains/taxonomy/model"
)

// Get retrieves a record by numeric id or documentId
func (s *taxonomyService) Get(ctx context.Context, kind model.EntityKind, key string) (*model.TaxonomyRecord, error) {
	desc, err := model.Lookup(kind)
	if err != nil {
		return nil, err
	}
	return s.records.FetchByKey(ctx, desc, key)
}

// List returns the records of a kind
func (s *taxonomyService) List(ctx context.Context, kind model.EntityKind) ([]*model.TaxonomyRecord, error) {
	desc, err := model.Lookup(kind)
	if err != nil {
		return nil, err
	}
	return s.records.List(ctx, desc)
}

// Update writes display fields only. The derived term name is not resynced.
func (s *taxonomyService) Update(ctx context.Context, kind model.EntityKind, key string, data map[string]any) (*model.TaxonomyRecord, error) {
	desc, err := model.Lookup(kind)
	if err != nil {
		return nil, err
	}

	patch := model.NormalizeFields(desc, data)
	delete(patch, model.FieldWooCommerceID)
	if err := model.ValidateUpdate(desc, patch); err != nil {
		return nil, err
	}

	rec, err := s.records.Update(ctx, desc, key, patch)
	if err != nil {
		return nil, model.WithMessage(err, model.SideStrapi, "Error al actualizar en Strapi: ")
	}
	return rec, nil
}

// Delete removes the record, then its derived counterpart. Failures on the
// derived side are reported as a warning only.
func (s *taxonomyService) Delete(ctx context.Context, kind model.EntityKind, key string) (*taxonomy.DeleteResult, error) {
	desc, err := model.Lookup(kind)
	if err != nil {
		return nil, err
	}

	rec, err := s.records.FetchByKey(ctx, desc, key)
	if err != nil {
		return nil, err
	}
	if err := s.records.Delete(ctx, desc, recordKey(rec, key)); err != nil {
		return nil, model.WithMessage(err, model.SideStrapi, "Error al eliminar en Strapi: ")
	}

	result := &taxonomy.DeleteResult{LinkingKey: rec.LinkingKey}
	deleted, err := s.deleteDerived(ctx, desc, rec)
	if err != nil {
		log.Warn().Err(err).
			Str("kind", string(desc.Kind)).
			Str("linking_key", rec.LinkingKey).
			Msg("derived delete failed, term left orphaned")
		result.Warning = "El registro se eliminó de Strapi pero no de WooCommerce: " + errMessage(err)
	}
	result.DerivedDeleted = deleted
	return result, nil
}

func (s *taxonomyService) deleteDerived(ctx context.Context, desc *model.EntityKindDescriptor, rec *model.TaxonomyRecord) (bool, error) {
	target := s.targets[desc.Shape]
	at, err := target.Resolve(ctx, desc, rec)
	if err != nil {
		return false, err
	}
	if at.Skip || rec.LinkingKey == "" {
		return false, nil
	}
	term, err := target.Find(ctx, at, rec)
	if model.IsNotFoundError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := target.Delete(ctx, at, term); err != nil && !model.IsNotFoundError(err) {
		return false, err
	}
	return true, nil
}

// ResolveAttribute exposes Term Lookup for diagnostics
func (s *taxonomyService) ResolveAttribute(ctx context.Context, kind model.EntityKind) (*model.AttributeDescriptor, error) {
	desc, err := model.Lookup(kind)
	if err != nil {
		return nil, err
	}
	if desc.Shape != model.ShapeAttributeTerm {
		return nil, model.NewValidationError(fmt.Sprintf("Los valores %s no se asocian a un atributo de WooCommerce", desc.Label), nil)
	}
	if s.lookup == nil {
		return nil, model.NewConfigurationError("No hay una tienda WooCommerce configurada para los atributos")
	}

	attr, err := s.lookup.Resolve(ctx, desc)
	if err != nil {
		return nil, err
	}
	if attr == nil {
		return nil, model.NewNotFoundError(model.SideWooCommerce,
			fmt.Sprintf("No se encontró el atributo %q en WooCommerce", desc.PrimaryAttributeSlug()))
	}
	return attr, nil
}

func recordKey(rec *model.TaxonomyRecord, fallback string) string {
	if rec.LinkingKey != "" {
		return rec.LinkingKey
	}
	return fallback
}

func errMessage(err error) string {
	if msg := errText(err); msg != nil {
		return *msg
	}
	return ""
}
