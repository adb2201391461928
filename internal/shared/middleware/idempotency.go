package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"intranet-backend/internal/shared/response"
	"intranet-backend/pkg/cache"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"

	maxIdempotentBody = 10 << 20
)

const (
	idemInProgress = "in_progress"
	idemDone       = "done"
)

// idempotencyRecord is what is stored per key. Fingerprint ties the key to
// one request body so a reused key with a different payload is refused.
type idempotencyRecord struct {
	State       string          `json:"state"`
	Fingerprint string          `json:"fingerprint"`
	Status      int             `json:"status,omitempty"`
	Body        json.RawMessage `json:"body,omitempty"`
}

type capturingWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response of a request that carried the
// same Idempotency-Key. Requests without the header pass through. 5xx
// results are not stored so the client can retry. When the cache is down
// the request runs without protection.
func Idempotency(store cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || store == nil {
			c.Next()
			return
		}
		if len(key) > 255 {
			response.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", "Idempotency-Key demasiado larga")
			c.Abort()
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxIdempotentBody))
		if err != nil {
			response.BadRequest(c, "No se pudo leer el cuerpo de la petición")
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		ctx := c.Request.Context()
		cacheKey := "idem:" + c.GetString(ContextSubject) + ":" + c.Request.Method + ":" + c.FullPath() + ":" + key
		fingerprint := fingerprintOf(c.Request.URL.Path, body)

		acquired, err := store.SetNX(ctx, cacheKey, idempotencyRecord{State: idemInProgress, Fingerprint: fingerprint}, ttl)
		if err != nil {
			log.Warn().Err(err).Str("request_id", c.GetString(ContextRequestID)).Msg("idempotency store unavailable")
			c.Next()
			return
		}

		if !acquired {
			var existing idempotencyRecord
			found, err := store.Get(ctx, cacheKey, &existing)
			if err != nil || !found {
				response.Conflict(c, "Petición en curso con la misma Idempotency-Key")
				c.Abort()
				return
			}
			switch {
			case existing.Fingerprint != fingerprint:
				response.ErrorResponse(c, http.StatusUnprocessableEntity, "IDEMPOTENCY_KEY_REUSED",
					"La Idempotency-Key ya se usó con otra petición")
			case existing.State == idemDone:
				c.Header(HeaderReplayed, "true")
				c.Data(existing.Status, "application/json; charset=utf-8", existing.Body)
			default:
				response.Conflict(c, "Petición en curso con la misma Idempotency-Key")
			}
			c.Abort()
			return
		}

		writer := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		c.Next()

		storeCtx := context.WithoutCancel(ctx)
		status := writer.Status()
		if status >= http.StatusInternalServerError {
			if err := store.Delete(storeCtx, cacheKey); err != nil {
				log.Warn().Err(err).Msg("idempotency key release failed")
			}
			return
		}
		rec := idempotencyRecord{
			State:       idemDone,
			Fingerprint: fingerprint,
			Status:      status,
			Body:        json.RawMessage(writer.buf.Bytes()),
		}
		if err := store.Set(storeCtx, cacheKey, rec, ttl); err != nil {
			log.Warn().Err(err).Msg("idempotency result not stored")
		}
	}
}

func fingerprintOf(path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
