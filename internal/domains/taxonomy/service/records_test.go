package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intranet-backend/internal/domains/taxonomy/model"
)

func TestUpdate_PartialAndLinkingKeyStable(t *testing.T) {
	h := newHarness(t)
	created, err := h.svc.Create(context.Background(), model.KindBrand, map[string]any{"name": "Planeta", "descripcion": "x"})
	require.NoError(t, err)

	rec, err := h.svc.Update(context.Background(), model.KindBrand, "doc1", map[string]any{
		"nombre_marca":   "Planeta Libros",
		"descripcion":    nil,
		"woocommerce_id": 999,
	})

	require.NoError(t, err)
	assert.Equal(t, created.Record.LinkingKey, rec.LinkingKey)
	assert.Equal(t, "Planeta Libros", rec.DisplayName)
	assert.Nil(t, rec.Fields[model.FieldDescription])
	assert.Equal(t, created.Derived.DerivedID, rec.Fields[model.FieldWooCommerceID])
}

func TestUpdate_RejectsClearingRequiredField(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Update(context.Background(), model.KindBrand, "doc1", map[string]any{"name": ""})

	assert.True(t, model.IsValidationError(err))
	assert.Empty(t, h.rec.list())
}

func TestUpdate_NotFound(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Update(context.Background(), model.KindBrand, "nope", map[string]any{"name": "x"})

	assert.True(t, model.IsNotFoundError(err))
	assert.Equal(t, http.StatusNotFound, model.MapErrorToHTTP(err))
}

func TestDelete_RemovesBothSides(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Create(context.Background(), model.KindTag, map[string]any{"name": "Oferta"})
	require.NoError(t, err)

	res, err := h.svc.Delete(context.Background(), model.KindTag, "doc1")
	require.NoError(t, err)
	assert.True(t, res.DerivedDeleted)
	assert.Empty(t, res.Warning)
	assert.Empty(t, h.records.items)
	assert.Empty(t, h.terms.terms)
}

func TestDelete_DerivedFailureIsWarning(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Create(context.Background(), model.KindTag, map[string]any{"name": "Oferta"})
	require.NoError(t, err)
	h.terms.listErr = model.NewUpstreamError(model.SideWooCommerce, http.StatusBadGateway, "Bad Gateway", nil)

	res, err := h.svc.Delete(context.Background(), model.KindTag, "doc1")

	require.NoError(t, err)
	assert.False(t, res.DerivedDeleted)
	assert.Contains(t, res.Warning, "Bad Gateway")
	assert.Empty(t, h.records.items)
	assert.Len(t, h.terms.terms, 1)
}

func TestDelete_SecondTimeIsNotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Create(context.Background(), model.KindTag, map[string]any{"name": "Oferta"})
	require.NoError(t, err)

	_, err = h.svc.Delete(context.Background(), model.KindTag, "doc1")
	require.NoError(t, err)
	_, err = h.svc.Delete(context.Background(), model.KindTag, "doc1")
	assert.True(t, model.IsNotFoundError(err))
}

func TestResolveAttribute(t *testing.T) {
	h := newHarness(t)

	attr, err := h.svc.ResolveAttribute(context.Background(), model.KindImprint)
	require.NoError(t, err)
	assert.Equal(t, int64(46), attr.AttributeID)

	_, err = h.svc.ResolveAttribute(context.Background(), model.KindCollection)
	assert.True(t, model.IsNotFoundError(err))

	_, err = h.svc.ResolveAttribute(context.Background(), model.KindCoupon)
	assert.True(t, model.IsValidationError(err))
}

func TestGetAndList(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Create(context.Background(), model.KindTag, map[string]any{"name": "Uno"})
	require.NoError(t, err)
	_, err = h.svc.Create(context.Background(), model.KindBrand, map[string]any{"name": "Dos"})
	require.NoError(t, err)

	rec, err := h.svc.Get(context.Background(), model.KindTag, "doc1")
	require.NoError(t, err)
	assert.Equal(t, "Uno", rec.DisplayName)

	tags, err := h.svc.List(context.Background(), model.KindTag)
	require.NoError(t, err)
	assert.Len(t, tags, 1)

	_, err = h.svc.List(context.Background(), model.EntityKind("autor"))
	assert.True(t, model.IsInvalidKind(err))
}
