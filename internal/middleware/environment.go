package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgerpipe/ledgerpipe/internal/core/domain"
)

// EnvironmentHeader selects the tenant environment scope for a request.
// Absence means the legacy (null-environment) scope.
const EnvironmentHeader = "X-Environment"

// EnvironmentMiddleware extracts the environment from the request header and
// stores it in the request context. Unknown values are rejected before any
// handler runs.
func EnvironmentMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		env := domain.Environment(c.GetHeader(EnvironmentHeader))
		if !env.Valid() {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "invalid " + EnvironmentHeader + " header, expected sandbox or production",
			})
			return
		}

		ctx := context.WithValue(c.Request.Context(), environmentKey, env)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
