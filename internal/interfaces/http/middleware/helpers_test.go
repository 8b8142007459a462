package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/crm/backend/internal/infrastructure/cache"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testTranslator = i18n.MustNew("ru", []string{"ru", "en"})

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTConfigWithSecret(secret string) config.JWTConfig {
	return config.JWTConfig{
		Secret:                 secret,
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
		MaxRefreshCount:        10,
	}
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(newTestJWTConfigWithSecret("test-secret-key-at-least-32-chars"))
}

func issueToken(t *testing.T, svc *auth.JWTService, input auth.TokenInput) string {
	t.Helper()
	pair, err := svc.GenerateTokenPair(input)
	require.NoError(t, err)
	return pair.AccessToken
}

type fakeResolver struct {
	tenants map[uuid.UUID]*cache.TenantInfo
	err     error
}

func newFakeResolver(infos ...*cache.TenantInfo) *fakeResolver {
	r := &fakeResolver{tenants: make(map[uuid.UUID]*cache.TenantInfo)}
	for _, info := range infos {
		r.tenants[info.ID] = info
	}
	return r
}

func (r *fakeResolver) ResolveByID(_ context.Context, id uuid.UUID) (*cache.TenantInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	if info, ok := r.tenants[id]; ok {
		return info, nil
	}
	return nil, shared.NewDomainError("TENANT_NOT_FOUND", "Tenant not found")
}

func (r *fakeResolver) ResolveByDomain(_ context.Context, host string) (*cache.TenantInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	domain := identity.NormalizeDomain(host)
	for _, info := range r.tenants {
		if info.DomainURL == domain {
			return info, nil
		}
	}
	return nil, shared.NewDomainError("TENANT_NOT_FOUND", "Tenant not found")
}

func activeTenant(domain, lang string) *cache.TenantInfo {
	return &cache.TenantInfo{
		ID:        uuid.New(),
		DomainURL: domain,
		Lang:      lang,
		Status:    identity.TenantStatusActive,
	}
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error
}
