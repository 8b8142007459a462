package cache

import (
	"context"
	"errors"
	"time"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// ErrCacheMiss is returned when the key is not cached or has expired
var ErrCacheMiss = errors.New("cache miss")

// TenantInfo is the slice of a tenant needed on every request: resolving
// the tenant from the Host header and picking its language.
type TenantInfo struct {
	ID        uuid.UUID             `json:"id"`
	DomainURL string                `json:"domain_url"`
	Lang      string                `json:"lang"`
	Status    identity.TenantStatus `json:"status"`
}

// TenantInfoFromDomain builds the cached projection of a tenant
func TenantInfoFromDomain(t *identity.Tenant) *TenantInfo {
	return &TenantInfo{
		ID:        t.ID,
		DomainURL: t.DomainURL,
		Lang:      t.Lang,
		Status:    t.Status,
	}
}

// TenantCache caches tenant lookups by id and by domain
type TenantCache interface {
	GetByID(ctx context.Context, id uuid.UUID) (*TenantInfo, error)
	GetByDomain(ctx context.Context, domain string) (*TenantInfo, error)
	// Set stores info under both its id and its domain
	Set(ctx context.Context, info *TenantInfo, ttl time.Duration) error
	// Invalidate drops both keys of info
	Invalidate(ctx context.Context, info *TenantInfo) error
	Close() error
}

const tenantKeyPrefix = "crm:tenant:"

func tenantIDKey(id uuid.UUID) string { return tenantKeyPrefix + "id:" + id.String() }

func tenantDomainKey(domain string) string {
	return tenantKeyPrefix + "domain:" + identity.NormalizeDomain(domain)
}
