package persistence

import (
	"context"
	"strings"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTenantRepository implements TenantRepository using GORM
type GormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// Create inserts a new tenant
func (r *GormTenantRepository) Create(ctx context.Context, tenant *identity.Tenant) error {
	if err := r.db.WithContext(ctx).Create(models.TenantModelFromDomain(tenant)).Error; err != nil {
		return err
	}
	tenant.MarkStored()
	return nil
}

// CreateWithAdmin inserts a tenant and its first administrator in one
// transaction
func (r *GormTenantRepository) CreateWithAdmin(ctx context.Context, tenant *identity.Tenant, admin *identity.User) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.TenantModelFromDomain(tenant)).Error; err != nil {
			return err
		}
		return tx.Create(models.UserModelFromDomain(admin)).Error
	})
	if err != nil {
		return err
	}
	tenant.MarkStored()
	admin.MarkStored()
	return nil
}

// Update saves all tenant columns while the stored version is current
func (r *GormTenantRepository) Update(ctx context.Context, tenant *identity.Tenant) error {
	err := updateVersioned(r.db.WithContext(ctx), &models.TenantModel{}, models.TenantModelFromDomain(tenant),
		tenant.ID, tenant.StoredVersion(), unscoped, "id", "created_at")
	if err != nil {
		return err
	}
	tenant.MarkStored()
	return nil
}

// FindByID finds a tenant by its ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	var model models.TenantModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindBySchemaName finds a tenant by its schema name
func (r *GormTenantRepository) FindBySchemaName(ctx context.Context, schemaName string) (*identity.Tenant, error) {
	var model models.TenantModel
	if err := r.db.WithContext(ctx).
		Where("schema_name = ?", strings.ToLower(strings.TrimSpace(schemaName))).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByDomain finds a tenant by its full domain URL
func (r *GormTenantRepository) FindByDomain(ctx context.Context, domainURL string) (*identity.Tenant, error) {
	var model models.TenantModel
	if err := r.db.WithContext(ctx).
		Where("domain_url = ?", strings.ToLower(strings.TrimSpace(domainURL))).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists tenants, searching schema name, name and domain
func (r *GormTenantRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*identity.Tenant, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.TenantModel{})
	query = searchAny(query, filter.Search, "schema_name", "name", "domain_url")
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	var rows []models.TenantModel
	total, err := findPage(query, filter, TenantSortFields, "created_at", &rows)
	if err != nil {
		return nil, 0, err
	}
	tenants := make([]*identity.Tenant, len(rows))
	for i := range rows {
		tenants[i] = rows[i].ToDomain()
	}
	return tenants, total, nil
}

// FindActiveIDs returns the IDs of all active tenants
func (r *GormTenantRepository) FindActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.TenantModel{}).
		Where("status = ?", identity.TenantStatusActive).
		Pluck("id", &ids).Error
	return ids, err
}

// ExistsBySchemaName checks if a tenant with the schema name exists
func (r *GormTenantRepository) ExistsBySchemaName(ctx context.Context, schemaName string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TenantModel{}).
		Where("schema_name = ?", strings.ToLower(strings.TrimSpace(schemaName))).
		Count(&count).Error
	return count > 0, err
}

// ExistsByDomain checks if a tenant with the domain URL exists
func (r *GormTenantRepository) ExistsByDomain(ctx context.Context, domainURL string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TenantModel{}).
		Where("domain_url = ?", strings.ToLower(strings.TrimSpace(domainURL))).
		Count(&count).Error
	return count > 0, err
}

// Ensure GormTenantRepository implements TenantRepository
var _ identity.TenantRepository = (*GormTenantRepository)(nil)
