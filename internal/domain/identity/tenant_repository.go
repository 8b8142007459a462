package identity

import (
	"context"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TenantRepository defines the interface for tenant persistence
type TenantRepository interface {
	Create(ctx context.Context, tenant *Tenant) error
	// CreateWithAdmin stores a tenant together with its first administrator
	CreateWithAdmin(ctx context.Context, tenant *Tenant, admin *User) error
	Update(ctx context.Context, tenant *Tenant) error
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindBySchemaName(ctx context.Context, schemaName string) (*Tenant, error)
	// FindByDomain looks a tenant up by its full domain URL
	FindByDomain(ctx context.Context, domainURL string) (*Tenant, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*Tenant, int64, error)
	FindActiveIDs(ctx context.Context) ([]uuid.UUID, error)
	ExistsBySchemaName(ctx context.Context, schemaName string) (bool, error)
	ExistsByDomain(ctx context.Context, domainURL string) (bool, error)
}
