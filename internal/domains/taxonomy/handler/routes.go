package handler

import (
	"github.com/gin-gonic/gin"

	"intranet-backend/internal/domains/taxonomy/model"
)

// RouteOptions carries the middleware applied per access level. Nil entries are skipped.
type RouteOptions struct {
	Auth        gin.HandlerFunc // every route
	Writers     gin.HandlerFunc // create, update, delete, import
	Idempotency gin.HandlerFunc // create, import
}

func chain(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

// RegisterRoutes mounts the taxonomy, coupon alias and journal routes on v1
func (h *TaxonomyHandler) RegisterRoutes(v1 *gin.RouterGroup, opts RouteOptions) {
	write := func(final gin.HandlerFunc) []gin.HandlerFunc {
		return chain(opts.Writers, final)
	}
	create := func(final gin.HandlerFunc) []gin.HandlerFunc {
		return chain(opts.Writers, opts.Idempotency, final)
	}

	taxonomies := v1.Group("/taxonomies", chain(opts.Auth)...)
	{
		taxonomies.GET("", h.Kinds)
		taxonomies.GET("/:kind", h.List)
		taxonomies.POST("/:kind", create(h.Create)...)
		taxonomies.GET("/:kind/attribute", h.ResolveAttribute)
		taxonomies.GET("/:kind/export", h.Export)
		taxonomies.POST("/:kind/import", create(h.Import)...)
		taxonomies.GET("/:kind/:key", h.Get)
		taxonomies.PUT("/:kind/:key", write(h.Update)...)
		taxonomies.DELETE("/:kind/:key", write(h.Delete)...)
	}

	coupons := v1.Group("/coupons", chain(opts.Auth, FixedKind(model.KindCoupon))...)
	{
		coupons.GET("", h.List)
		coupons.POST("", create(h.Create)...)
		coupons.GET("/export", h.Export)
		coupons.POST("/import", create(h.Import)...)
		coupons.GET("/:key", h.Get)
		coupons.PUT("/:key", write(h.Update)...)
		coupons.DELETE("/:key", write(h.Delete)...)
	}

	v1.GET("/reconciliations", chain(opts.Auth, h.Runs)...)
}
