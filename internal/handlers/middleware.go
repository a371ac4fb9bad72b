package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AdminAuth enforces a bearer token on admin routes. With no token
// configured the routes are disabled outright rather than left open.
func AdminAuth(token string, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			logger.Error().Str("path", c.FullPath()).Msg("Admin route hit with no admin token configured")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "admin API disabled: no token configured",
			})
			return
		}

		header := c.GetHeader("Authorization")
		provided, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or missing bearer token",
			})
			return
		}

		c.Next()
	}
}
