package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"intranet-backend/internal/domains/taxonomy"
	"intranet-backend/internal/domains/taxonomy/model"
	"intranet-backend/internal/shared/response"
	"intranet-backend/internal/shared/utils"
)

const (
	// ContextKind pins the kind for alias routes such as /coupons
	ContextKind = "taxonomy_kind"

	maxImportSize = 5 << 20
	xlsxMIME      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// TaxonomyHandler handles HTTP requests for every taxonomy kind
type TaxonomyHandler struct {
	service taxonomy.Service
}

// NewTaxonomyHandler creates a new taxonomy handler instance
func NewTaxonomyHandler(service taxonomy.Service) *TaxonomyHandler {
	return &TaxonomyHandler{service: service}
}

// FixedKind makes the handlers behind an alias route act on one kind
func FixedKind(kind model.EntityKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKind, string(kind))
		c.Next()
	}
}

// kind resolves the :kind segment, or the pinned kind of an alias route
func (h *TaxonomyHandler) kind(c *gin.Context) (model.EntityKind, bool) {
	raw := c.Param("kind")
	if raw == "" {
		raw = c.GetString(ContextKind)
	}
	kind, err := model.ParseKind(raw)
	if err != nil {
		handleError(c, err)
		return "", false
	}
	return kind, true
}

// Create handles POST /taxonomies/:kind
func (h *TaxonomyHandler) Create(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}
	data, ok := bindData(c)
	if !ok {
		return
	}

	result, err := h.service.Create(c.Request.Context(), kind, data)
	if err != nil {
		handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, result, &response.Meta{Total: 1, Warnings: result.Warnings})
}

// List handles GET /taxonomies/:kind
func (h *TaxonomyHandler) List(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}

	records, err := h.service.List(c.Request.Context(), kind)
	if err != nil {
		handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, records, &response.Meta{Total: len(records)})
}

// Get handles GET /taxonomies/:kind/:key
func (h *TaxonomyHandler) Get(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}

	record, err := h.service.Get(c.Request.Context(), kind, c.Param("key"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, record)
}

// Update handles PUT /taxonomies/:kind/:key
func (h *TaxonomyHandler) Update(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}
	data, ok := bindData(c)
	if !ok {
		return
	}

	record, err := h.service.Update(c.Request.Context(), kind, c.Param("key"), data)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, record)
}

// Delete handles DELETE /taxonomies/:kind/:key
func (h *TaxonomyHandler) Delete(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}

	result, err := h.service.Delete(c.Request.Context(), kind, c.Param("key"))
	if err != nil {
		handleError(c, err)
		return
	}

	var warnings []string
	if result.Warning != "" {
		warnings = []string{result.Warning}
	}
	response.SuccessWithMeta(c, http.StatusOK, result, &response.Meta{Total: 1, Warnings: warnings})
}

// ResolveAttribute handles GET /taxonomies/:kind/attribute
func (h *TaxonomyHandler) ResolveAttribute(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}

	attr, err := h.service.ResolveAttribute(c.Request.Context(), kind)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, attr)
}

// Import handles POST /taxonomies/:kind/import.
// Accepts a multipart "file" field or a raw text/csv body.
func (h *TaxonomyHandler) Import(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize)

	var src io.Reader
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			response.BadRequest(c, "Falta el archivo CSV en el campo \"file\"")
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			response.BadRequest(c, "No se pudo abrir el archivo CSV")
			return
		}
		defer file.Close()
		src = file
	} else {
		src = c.Request.Body
	}

	result, err := h.service.Import(c.Request.Context(), kind, src)
	if err != nil {
		handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, result, &response.Meta{Total: result.Total})
}

// Export handles GET /taxonomies/:kind/export
func (h *TaxonomyHandler) Export(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}
	desc, err := model.Lookup(kind)
	if err != nil {
		handleError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.service.Export(c.Request.Context(), kind, &buf); err != nil {
		handleError(c, err)
		return
	}

	filename := fmt.Sprintf("%s-%s.xlsx", desc.Collection, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxMIME, buf.Bytes())
}

// Kinds handles GET /taxonomies
func (h *TaxonomyHandler) Kinds(c *gin.Context) {
	descs := model.Descriptors()
	out := make([]kindInfo, 0, len(descs))
	for _, d := range descs {
		out = append(out, newKindInfo(d))
	}
	response.SuccessWithMeta(c, http.StatusOK, out, &response.Meta{Total: len(out)})
}

// Runs handles GET /reconciliations?kind=&state=&limit=&offset=
func (h *TaxonomyHandler) Runs(c *gin.Context) {
	filter := model.RunFilter{
		State:  model.RunState(c.Query("state")),
		Limit:  utils.ParseIntDefault(c.Query("limit"), 0),
		Offset: utils.ParseIntDefault(c.Query("offset"), 0),
	}
	if raw := c.Query("kind"); raw != "" {
		kind, err := model.ParseKind(raw)
		if err != nil {
			handleError(c, err)
			return
		}
		filter.Kind = kind
	}

	runs, err := h.service.Runs(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, runs, &response.Meta{Total: len(runs), Limit: filter.Limit, Offset: filter.Offset})
}

// ========================================
// HELPERS
// ========================================

// bindData reads the { "data": {...} } envelope
func bindData(c *gin.Context) (map[string]any, bool) {
	var req taxonomy.WriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Cuerpo JSON no válido")
		return nil, false
	}
	if req.Data == nil {
		response.BadRequest(c, "El cuerpo debe tener la forma { \"data\": { ... } }")
		return nil, false
	}
	return req.Data, true
}

// handleError converts any service error into the response envelope
func handleError(c *gin.Context, err error) {
	status := model.MapErrorToHTTP(err)

	var te *model.TaxonomyError
	if errors.As(err, &te) {
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).
				Str("request_id", c.GetString("request_id")).
				Str("side", string(te.Side)).
				Msg("request failed upstream")
		}
		if len(te.Details) == 0 {
			response.ErrorResponse(c, status, te.Code, te.Message)
			return
		}
		response.ErrorWithDetails(c, status, te.Code, te.Message, te.Details)
		return
	}

	log.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg("unexpected error")
	response.InternalServerError(c, "Error interno del servidor")
}

type kindInfo struct {
	Kind           model.EntityKind   `json:"kind"`
	Label          string             `json:"label"`
	Collection     string             `json:"collection"`
	Shape          model.DerivedShape `json:"shape"`
	AttributeSlugs []string           `json:"attributeSlugs,omitempty"`
	Fields         []fieldInfo        `json:"fields"`
	LinkBack       bool               `json:"linkBack"`
}

type fieldInfo struct {
	Name     string   `json:"name"`
	Upstream string   `json:"upstream"`
	Aliases  []string `json:"aliases,omitempty"`
	Required bool     `json:"required"`
	Relation bool     `json:"relation,omitempty"`
}

func newKindInfo(d *model.EntityKindDescriptor) kindInfo {
	info := kindInfo{
		Kind:           d.Kind,
		Label:          d.Label,
		Collection:     d.Collection,
		Shape:          d.Shape,
		AttributeSlugs: d.AttributeSlugs,
		LinkBack:       d.LinkBackField != "",
	}
	for _, f := range d.Fields {
		info.Fields = append(info.Fields, fieldInfo{
			Name:     f.Name,
			Upstream: f.Upstream,
			Aliases:  f.Aliases,
			Required: f.Required,
			Relation: f.Relation,
		})
	}
	return info
}
