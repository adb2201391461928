package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("x", nil), http.StatusBadRequest},
		{"configuration", NewConfigurationError("x"), http.StatusBadRequest},
		{"not found", NewNotFoundError(SideStrapi, "x"), http.StatusNotFound},
		{"invalid kind", NewInvalidKind("x"), http.StatusNotFound},
		{"timeout", NewTimeoutError(SideWooCommerce, context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"upstream 409", NewUpstreamError(SideStrapi, http.StatusConflict, "x", nil), http.StatusConflict},
		{"upstream 502", NewUpstreamError(SideWooCommerce, http.StatusBadGateway, "x", nil), http.StatusBadGateway},
		{"upstream 404 is not a missing entity", NewUpstreamError(SideStrapi, http.StatusNotFound, "x", nil), http.StatusInternalServerError},
		{"upstream no status", NewUpstreamError(SideStrapi, 0, "x", nil), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("outer: %w", NewValidationError("x", nil)), http.StatusBadRequest},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToHTTP(tt.err))
		})
	}
}

func TestTimeoutIsUpstream(t *testing.T) {
	err := NewTimeoutError(SideStrapi, nil)
	assert.True(t, IsTimeoutError(err))
	assert.True(t, IsUpstreamError(err))
	assert.True(t, errors.Is(err, ErrTimeout))
}

func TestWithMessage(t *testing.T) {
	base := NewUpstreamError(SideWooCommerce, http.StatusBadRequest, "slug inválido", nil)

	got := WithMessage(base, SideWooCommerce, "Error al crear en WooCommerce: ")

	assert.Equal(t, "Error al crear en WooCommerce: slug inválido", got.Message)
	assert.Equal(t, http.StatusBadRequest, got.Status)
	assert.Equal(t, "slug inválido", base.Message)

	plain := WithMessage(errors.New("dial tcp"), SideStrapi, "Error al crear en Strapi: ")
	assert.Equal(t, ErrCodeUpstream, plain.Code)
	assert.Equal(t, SideStrapi, plain.Side)
}

func TestAsTermExists(t *testing.T) {
	err := fmt.Errorf("create: %w", &TermExistsError{ResourceID: 42, Code: "term_exists", Message: "dup"})

	te, ok := AsTermExists(err)
	assert.True(t, ok)
	assert.Equal(t, int64(42), te.ResourceID)

	_, ok = AsTermExists(errors.New("other"))
	assert.False(t, ok)
}

func TestWithDetails_DoesNotMutate(t *testing.T) {
	base := NewValidationError("x", map[string]any{"field": "name"})
	got := base.WithDetails(map[string]any{"compensated": true})

	assert.Len(t, base.Details, 1)
	assert.Equal(t, true, got.Details["compensated"])
	assert.Equal(t, "name", got.Details["field"])
}
