package main

import (
	"github.com/gin-gonic/gin"

	"intranet-backend/internal/domains/taxonomy/handler"
	"intranet-backend/internal/shared/middleware"
	"intranet-backend/internal/shared/response"
	"intranet-backend/pkg/container"
	"intranet-backend/pkg/jwt"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", c.Health.Serve)

		setupTaxonomyRoutes(v1, c)
	}

	router.NoRoute(func(ctx *gin.Context) {
		response.NotFound(ctx, "Ruta no encontrada")
	})

	return router
}

// ========================================
// TAXONOMY ROUTES
// ========================================
// Every route needs a token. Writes need admin or editor; create and
// import additionally honour Idempotency-Key.
func setupTaxonomyRoutes(v1 *gin.RouterGroup, c *container.Container) {
	c.TaxonomyHandler.RegisterRoutes(v1, handler.RouteOptions{
		Auth:        middleware.AuthMiddleware(c.JWTManager),
		Writers:     middleware.RequireRole(jwt.RoleAdmin, jwt.RoleEditor),
		Idempotency: middleware.Idempotency(c.Cache, c.Config.Job.IdempotencyTTL),
	})
}
