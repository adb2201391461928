package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"intranet-backend/internal/domains/taxonomy"
	"intranet-backend/internal/domains/taxonomy/model"
	"intranet-backend/internal/shared/utils"
)

// taxonomyService implements taxonomy.Service
type taxonomyService struct {
	records taxonomy.RecordStore
	lookup  *TermLookup
	targets map[model.DerivedShape]derivedTarget
	journal taxonomy.Repository
	queue   taxonomy.CompensationQueue
	now     func() time.Time
}

// NewTaxonomyService wires the coordinator. terms is the store that holds
// attribute terms; coupons maps origin platforms to their stores. journal
// and queue may be nil.
func NewTaxonomyService(
	records taxonomy.RecordStore,
	terms taxonomy.TermStore,
	termsPlatform string,
	coupons map[string]taxonomy.CouponStore,
	journal taxonomy.Repository,
	queue taxonomy.CompensationQueue,
) taxonomy.Service {
	var lookup *TermLookup
	if terms != nil {
		lookup = NewTermLookup(terms)
	}
	return &taxonomyService{
		records: records,
		lookup:  lookup,
		targets: map[model.DerivedShape]derivedTarget{
			model.ShapeAttributeTerm: &attributeTermTarget{lookup: lookup, terms: terms, platform: termsPlatform},
			model.ShapeCoupon:        &couponTarget{stores: coupons},
		},
		journal: journal,
		queue:   queue,
		now:     time.Now,
	}
}

// ============================================================
// CREATE (reconciliation saga)
// ============================================================
// Validating -> RecordCreated -> AttributeResolved -> TermCreated -> Linked.
// Once the record exists, every failure path deletes it again before
// returning. The record is always created first because its documentId
// becomes the term slug.

func (s *taxonomyService) Create(ctx context.Context, kind model.EntityKind, data map[string]any) (*taxonomy.CreateResult, error) {
	desc, err := model.Lookup(kind)
	if err != nil {
		return nil, err
	}

	fields := model.NormalizeFields(desc, data)
	delete(fields, model.FieldWooCommerceID)

	run := s.startRun(ctx, desc, fields)

	// Step 1: Validating
	if err := model.ValidateCreate(desc, fields); err != nil {
		s.advance(ctx, run, model.RunUpdate{State: model.RunValidationFailed, Error: errText(err)})
		return nil, err
	}

	// Step 2: RecordCreated
	rec, err := s.records.Create(ctx, desc, fields)
	if err != nil {
		failure := model.WithMessage(err, model.SideStrapi, "Error al crear en Strapi: ")
		s.advance(ctx, run, model.RunUpdate{State: model.RunRecordCreateFailed, Error: errText(failure)})
		return nil, failure
	}
	rec.Fields = fillMissing(rec.Fields, fields)
	if rec.DisplayName == "" {
		rec.DisplayName = fields.String(desc.NameField)
	}
	s.advance(ctx, run, model.RunUpdate{State: model.RunRecordCreated, LinkingKey: &rec.LinkingKey})

	logCtx := log.With().
		Str("run_id", run.ID.String()).
		Str("kind", string(desc.Kind)).
		Str("linking_key", rec.LinkingKey).
		Logger()

	// Step 3: AttributeResolved
	target := s.targets[desc.Shape]
	at, err := target.Resolve(ctx, desc, rec)
	if err != nil {
		state, prefix := model.RunTermCreateFailed, "Error al crear en WooCommerce: "
		if model.IsConfigurationError(err) {
			state, prefix = model.RunAttributeMissing, ""
		}
		return nil, s.fail(ctx, run, desc, rec, state, model.WithMessage(err, model.SideWooCommerce, prefix))
	}

	result := &taxonomy.CreateResult{Record: rec, RunID: run.ID, Platform: at.Platform}

	if at.Skip {
		s.advance(ctx, run, model.RunUpdate{State: model.RunNoDerived})
		logCtx.Info().Str("platform", at.Platform).Msg("record created without derived counterpart")
		result.State = model.RunNoDerived
		return result, nil
	}

	upd := model.RunUpdate{State: model.RunAttributeResolved}
	if at.Attribute != nil {
		upd.AttributeID = &at.Attribute.AttributeID
	}
	s.advance(ctx, run, upd)

	// Step 4: TermCreated
	term, err := target.Create(ctx, at, desc, rec)
	if exists, ok := model.AsTermExists(err); ok {
		logCtx.Info().
			Int64("resource_id", exists.ResourceID).
			Str("code", exists.Code).
			Msg("derived object already exists, recovering")
		term, err = target.Recover(ctx, at, rec, exists)
		if err == nil && desc.Shape == model.ShapeAttributeTerm && term.Slug != rec.LinkingKey {
			warning := fmt.Sprintf("El término existente %d tiene slug %q distinto de %q", term.DerivedID, term.Slug, rec.LinkingKey)
			logCtx.Warn().Int64("term_id", term.DerivedID).Str("slug", term.Slug).Msg("recovered term slug differs from linking key")
			result.Warnings = append(result.Warnings, warning)
		}
	}
	if err != nil {
		return nil, s.fail(ctx, run, desc, rec, model.RunTermCreateFailed,
			model.WithMessage(err, model.SideWooCommerce, "Error al crear en WooCommerce: "))
	}
	result.Derived = term
	s.advance(ctx, run, model.RunUpdate{State: model.RunTermCreated, DerivedID: &term.DerivedID})

	// Step 5: Linked (link-back is best effort)
	state := model.RunLinked
	if desc.LinkBackField != "" {
		patch := model.Fields{desc.LinkBackField: term.DerivedID}
		if _, err := s.records.Update(ctx, desc, rec.LinkingKey, patch); err != nil {
			logCtx.Warn().Err(err).Int64("derived_id", term.DerivedID).Msg("link-back failed")
			state = model.RunLinkBackFailed
			result.Warnings = append(result.Warnings, "No se pudo guardar el id de WooCommerce en Strapi")
			s.advance(ctx, run, model.RunUpdate{State: state, Error: errText(err)})
		} else {
			rec.Fields[desc.LinkBackField] = term.DerivedID
		}
	}
	if state == model.RunLinked {
		s.advance(ctx, run, model.RunUpdate{State: state})
	}

	logCtx.Info().
		Int64("derived_id", term.DerivedID).
		Str("state", string(state)).
		Msg("reconciliation completed")

	result.State = state
	return result, nil
}

// fail compensates the record and returns the primary error with the
// compensation outcome attached. Compensation failures never replace it.
func (s *taxonomyService) fail(ctx context.Context, run *model.ReconciliationRun, desc *model.EntityKindDescriptor,
	rec *model.TaxonomyRecord, state model.RunState, cause *model.TaxonomyError) error {
	compensated := s.compensate(ctx, run, desc, rec.LinkingKey)

	upd := model.RunUpdate{State: state, Error: errText(cause), Compensated: &compensated}
	if compensated {
		upd.State = model.RunCompensated
	}
	s.advance(ctx, run, upd)

	return cause.WithDetails(map[string]any{
		"compensated": compensated,
		"linkingKey":  rec.LinkingKey,
	})
}

// compensate deletes the record created earlier in the run. It runs
// detached from the caller's cancellation. NOT_FOUND counts as done.
func (s *taxonomyService) compensate(ctx context.Context, run *model.ReconciliationRun, desc *model.EntityKindDescriptor, linkingKey string) bool {
	cctx := context.WithoutCancel(ctx)

	err := s.records.Delete(cctx, desc, linkingKey)
	if err == nil || model.IsNotFoundError(err) {
		log.Info().
			Str("run_id", run.ID.String()).
			Str("kind", string(desc.Kind)).
			Str("linking_key", linkingKey).
			Msg("compensating delete done")
		return true
	}

	log.Error().
		Err(err).
		Str("run_id", run.ID.String()).
		Str("kind", string(desc.Kind)).
		Str("linking_key", linkingKey).
		Msg("compensating delete failed")

	if s.queue != nil {
		req := model.CompensationRequest{RunID: run.ID, Kind: desc.Kind, LinkingKey: linkingKey}
		if qErr := s.queue.EnqueueCompensation(cctx, req); qErr != nil {
			log.Error().Err(qErr).Str("run_id", run.ID.String()).Msg("failed to enqueue compensation retry")
		}
	}
	return false
}

// ========================================
// JOURNAL HELPERS
// ========================================

func (s *taxonomyService) startRun(ctx context.Context, desc *model.EntityKindDescriptor, fields model.Fields) *model.ReconciliationRun {
	now := s.now()
	run := &model.ReconciliationRun{
		ID:          uuid.New(),
		Kind:        desc.Kind,
		DisplayName: fields.String(desc.NameField),
		State:       model.RunValidating,
		Platform:    fields.String(model.FieldOriginPlatform),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if s.journal == nil {
		return run
	}
	if err := s.journal.Start(ctx, run); err != nil {
		log.Warn().Err(err).Str("run_id", run.ID.String()).Msg("journal start failed")
	}
	return run
}

// advance applies upd to run and persists it. Journal errors are logged only.
func (s *taxonomyService) advance(ctx context.Context, run *model.ReconciliationRun, upd model.RunUpdate) {
	run.State = upd.State
	run.UpdatedAt = s.now()
	if upd.LinkingKey != nil {
		run.LinkingKey = *upd.LinkingKey
	}
	if upd.AttributeID != nil {
		run.AttributeID = upd.AttributeID
	}
	if upd.DerivedID != nil {
		run.DerivedID = upd.DerivedID
	}
	if upd.Error != nil {
		run.Error = upd.Error
	}
	if upd.Compensated != nil {
		run.Compensated = *upd.Compensated
	}

	if s.journal == nil {
		return
	}
	if err := s.journal.Advance(context.WithoutCancel(ctx), run.ID, upd); err != nil {
		log.Warn().Err(err).
			Str("run_id", run.ID.String()).
			Str("state", string(upd.State)).
			Msg("journal advance failed")
	}
}

func errText(err error) *string {
	if err == nil {
		return nil
	}
	var te *model.TaxonomyError
	if errors.As(err, &te) {
		return utils.Ptr(te.Message)
	}
	return utils.Ptr(err.Error())
}

// fillMissing adds input values the upstream response did not echo back.
func fillMissing(got, sent model.Fields) model.Fields {
	if got == nil {
		got = model.Fields{}
	}
	for k, v := range sent {
		if _, ok := got[k]; !ok {
			got[k] = v
		}
	}
	return got
}
