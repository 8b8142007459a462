package middleware

import (
	"context"
	"net/http"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/cache"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Tenant context keys
const (
	TenantIDKey     = logger.GinTenantIDKey
	TenantInfoKey   = "tenant_info"
	TenantHeaderKey = "X-Tenant-ID"
)

// TenantResolver finds the tenant of a request
type TenantResolver interface {
	ResolveByID(ctx context.Context, id uuid.UUID) (*cache.TenantInfo, error)
	ResolveByDomain(ctx context.Context, host string) (*cache.TenantInfo, error)
}

// TenantMiddlewareConfig holds configuration for tenant middleware
type TenantMiddlewareConfig struct {
	Resolver TenantResolver
	// HeaderEnabled enables X-Tenant-ID header extraction
	HeaderEnabled bool
	// HostEnabled enables the lookup of the request host among tenant domains
	HostEnabled bool
	Translator  dto.Localizer
	Logger      *zap.Logger
}

// TenantMiddleware identifies the tenant of the request and rejects
// unknown or inactive tenants.
// Extraction order: JWT claims > X-Tenant-ID header > request host
func TenantMiddleware(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var (
			info   *cache.TenantInfo
			err    error
			method string
		)

		switch {
		case GetJWTClaims(c) != nil:
			method = "jwt"
			info, err = resolveID(ctx, cfg.Resolver, GetJWTClaims(c).TenantID)
		case cfg.HeaderEnabled && c.GetHeader(TenantHeaderKey) != "":
			method = "header"
			info, err = resolveID(ctx, cfg.Resolver, c.GetHeader(TenantHeaderKey))
		case cfg.HostEnabled:
			method = "host"
			info, err = cfg.Resolver.ResolveByDomain(ctx, c.Request.Host)
		default:
			abortWithError(c, cfg.Translator, http.StatusBadRequest, dto.ErrCodeTenantNotFound, "Tenant identification required")
			return
		}

		if err != nil {
			if shared.IsNotFound(err) || shared.ErrorCode(err) == dto.ErrCodeTenantNotFound {
				log.Debug("Tenant not resolved",
					zap.String("method", method),
					zap.String("host", c.Request.Host),
					zap.Error(err))
				abortWithError(c, cfg.Translator, http.StatusNotFound, dto.ErrCodeTenantNotFound, "Tenant not found")
				return
			}
			log.Error("Tenant lookup failed", zap.String("method", method), zap.Error(err))
			abortWithError(c, cfg.Translator, http.StatusInternalServerError, dto.ErrCodeInternal, "Internal server error")
			return
		}
		if info.Status != identity.TenantStatusActive {
			abortWithError(c, cfg.Translator, http.StatusForbidden, dto.ErrCodeTenantInactive, "Tenant is not active")
			return
		}

		c.Set(TenantIDKey, info.ID.String())
		c.Set(TenantInfoKey, info)
		ctx, _ = logger.WithTenantID(ctx, logger.FromContext(ctx), info.ID.String())
		c.Request = c.Request.WithContext(ctx)

		log.Debug("Tenant identified",
			zap.String("tenant_id", info.ID.String()),
			zap.String("method", method))
		c.Next()
	}
}

func resolveID(ctx context.Context, r TenantResolver, raw string) (*cache.TenantInfo, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, shared.NewDomainError(dto.ErrCodeTenantNotFound, "Invalid tenant ID")
	}
	return r.ResolveByID(ctx, id)
}

// GetTenantInfo retrieves the resolved tenant from gin.Context
func GetTenantInfo(c *gin.Context) *cache.TenantInfo {
	if v, ok := c.Get(TenantInfoKey); ok {
		if info, ok := v.(*cache.TenantInfo); ok {
			return info
		}
	}
	return nil
}

// GetTenantUUID retrieves the tenant ID resolved for the request
func GetTenantUUID(c *gin.Context) (uuid.UUID, bool) {
	info := GetTenantInfo(c)
	if info == nil {
		return uuid.Nil, false
	}
	return info.ID, true
}
