package middleware

import (
	"net/http"

	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength bounds the request id copied into span attributes
const MaxRequestIDLength = 128

// TracingConfig holds configuration for the tracing middleware
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing starts the server span of the request through otelgin. The span
// is named after the route pattern ("GET /api/v1/deals/:id"). Tenant and
// user are added by TracingAttributeInjector once they are known.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// SpanErrorMarker tags the request span with the request id and the status
// code, and marks it as failed for 5xx answers. Placed after Tracing.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if requestID := c.GetString(logger.GinRequestIDKey); requestID != "" && span.IsRecording() {
			if len(requestID) > MaxRequestIDLength {
				requestID = requestID[:MaxRequestIDLength]
			}
			span.SetAttributes(attribute.String("request_id", requestID))
		}

		c.Next()

		if !span.IsRecording() {
			return
		}
		status := c.Writer.Status()
		span.SetAttributes(telemetry.AttrHTTPStatus.Int(status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

// TracingAttributeInjector adds the tenant, user and language of the
// request to the current span. Placed after the JWT and tenant middleware.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if info := GetTenantInfo(c); info != nil {
				span.SetAttributes(telemetry.TenantAttr(info.ID))
			}
			if claims := GetJWTClaims(c); claims != nil {
				span.SetAttributes(telemetry.AttrUserID.String(claims.UserID))
			}
			if lang := GetLang(c); lang != "" {
				span.SetAttributes(telemetry.AttrLang.String(lang))
			}
		}
		c.Next()
	}
}
