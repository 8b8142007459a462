package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// PlatformKeyHeader carries the platform administrator key
const PlatformKeyHeader = "X-Platform-Key"

// RequireAdmin lets only tenant administrators through. Runs after JWTAuthMiddleware.
func RequireAdmin(l dto.Localizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			abortWithError(c, l, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		if !claims.IsAdmin {
			abortWithError(c, l, http.StatusForbidden, dto.ErrCodeForbidden, "Access to this resource is forbidden")
			return
		}
		c.Next()
	}
}

// PlatformKey guards the tenant management endpoints. An empty key
// disables them.
func PlatformKey(key string, l dto.Localizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		given := c.GetHeader(PlatformKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
			abortWithError(c, l, http.StatusForbidden, dto.ErrCodeForbidden, "Access to this resource is forbidden")
			return
		}
		c.Next()
	}
}
