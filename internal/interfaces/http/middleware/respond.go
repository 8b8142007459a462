// Package middleware provides the HTTP middleware of the CRM API.
package middleware

import (
	"net/http"

	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// abortWithError stops the chain and answers in the standard envelope. The
// message is looked up in the catalog for the language resolved so far.
func abortWithError(c *gin.Context, l dto.Localizer, status int, code, fallback string) {
	msg := dto.LocalizedMessage(l, GetLang(c), code, fallback)
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, msg, c.GetString(logger.GinRequestIDKey)))
}

func skipped(path string, paths, prefixes []string) bool {
	for _, p := range paths {
		if path == p {
			return true
		}
	}
	for _, p := range prefixes {
		if len(path) >= len(p) && path[:len(p)] == p {
			return true
		}
	}
	return false
}

// NotFound answers requests that match no route
func NotFound(l dto.Localizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		abortWithError(c, l, http.StatusNotFound, dto.ErrCodeNotFound, "Resource not found")
	}
}
