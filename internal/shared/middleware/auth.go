package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"intranet-backend/internal/shared/response"
	"intranet-backend/pkg/jwt"
)

const (
	ContextSubject = "subject"
	ContextRole    = "role"
)

// AuthMiddleware validates the bearer token and stores subject and role
func AuthMiddleware(manager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Falta la cabecera Authorization")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			response.Unauthorized(c, "Formato de Authorization no válido")
			return
		}

		claims, err := manager.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "Token no válido")
			return
		}

		c.Set(ContextSubject, claims.Subject)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}
