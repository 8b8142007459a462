package middleware

import (
	"context"

	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// ProfilingConfig holds configuration for the profiling middleware
type ProfilingConfig struct {
	Enabled   bool
	SkipPaths []string
}

// Profiling runs the rest of the chain under Pyroscope labels (route,
// method, tenant) so CPU profiles can be sliced per endpoint. Placed after
// the tenant middleware to get the tenant label.
func Profiling(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if skipped(c.Request.URL.Path, cfg.SkipPaths, nil) {
			c.Next()
			return
		}

		labels := map[string]string{
			telemetry.ProfileLabelMethod: c.Request.Method,
			telemetry.ProfileLabelRoute:  c.FullPath(),
		}
		if info := GetTenantInfo(c); info != nil {
			labels[telemetry.ProfileLabelTenantID] = info.ID.String()
		}

		telemetry.WithProfileLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
