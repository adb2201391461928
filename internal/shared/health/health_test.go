package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h *Handler) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", h.Serve)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func ok(context.Context) error { return nil }

func failing(context.Context) error { return errors.New("connection refused") }

func TestHealth_AllOK(t *testing.T) {
	h := NewHandler("1.2.3").Critical("strapi", ok).Optional("redis", ok).Disabled("database")

	code, body := serve(t, h)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "1.2.3", body["version"])
	assert.Equal(t, map[string]any{"strapi": "ok", "redis": "ok", "database": "disabled"}, body["services"])
}

func TestHealth_OptionalFailureDegrades(t *testing.T) {
	h := NewHandler("1").Critical("database", ok).Optional("redis", failing)

	code, body := serve(t, h)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "error: connection refused", body["services"].(map[string]any)["redis"])
}

func TestHealth_CriticalFailureIs503(t *testing.T) {
	h := NewHandler("1").Critical("database", failing)

	code, body := serve(t, h)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", body["status"])
}

func TestHealth_CheckGetsDeadline(t *testing.T) {
	var hasDeadline bool
	h := NewHandler("1").Critical("database", func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	})

	serve(t, h)

	assert.True(t, hasDeadline)
}
