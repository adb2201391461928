package middleware

import (
	"github.com/gin-gonic/gin"

	"intranet-backend/internal/shared/response"
)

// RequireRole lets the request through only for one of roles.
// Must run after AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, "Acceso denegado: rol insuficiente")
			return
		}
		c.Next()
	}
}
