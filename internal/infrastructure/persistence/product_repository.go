package persistence

import (
	"context"
	"strings"

	"github.com/crm/backend/internal/domain/crm"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/crm/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Create inserts a new product
func (r *GormProductRepository) Create(ctx context.Context, p *crm.Product) error {
	if err := r.db.WithContext(ctx).Create(models.ProductModelFromDomain(p)).Error; err != nil {
		return err
	}
	p.MarkStored()
	return nil
}

// Update saves all product columns, failing with a conflict when the stored
// version moved on since it was loaded
func (r *GormProductRepository) Update(ctx context.Context, p *crm.Product) error {
	err := updateVersioned(r.db.WithContext(ctx), &models.ProductModel{}, models.ProductModelFromDomain(p),
		p.ID, p.StoredVersion(), tenant.Scope(p.TenantID), "id", "tenant_id", "created_at", "created_by")
	if err != nil {
		return err
	}
	p.MarkStored()
	return nil
}

// Delete removes a product
func (r *GormProductRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		Delete(&models.ProductModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a product by ID within a tenant
func (r *GormProductRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*crm.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists products; a numeric search also matches the SKU
func (r *GormProductRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*crm.Product, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Scopes(tenant.Scope(tenantID))
	query = searchAny(query, filter.Search, "description", "CAST(sku AS TEXT)")

	var rows []models.ProductModel
	total, err := findPage(query, filter, ProductSortFields, "sku", &rows)
	if err != nil {
		return nil, 0, err
	}
	result := make([]*crm.Product, len(rows))
	for i := range rows {
		result[i] = rows[i].ToDomain()
	}
	return result, total, nil
}

// ExistsBySKU checks if another product of the tenant has the SKU
func (r *GormProductRepository) ExistsBySKU(ctx context.Context, tenantID uuid.UUID, sku int64, excludeID *uuid.UUID) (bool, error) {
	return r.exists(ctx, tenantID, excludeID, "sku = ?", sku)
}

// ExistsByDescription checks if another product of the tenant has the
// description, ignoring case
func (r *GormProductRepository) ExistsByDescription(ctx context.Context, tenantID uuid.UUID, description string, excludeID *uuid.UUID) (bool, error) {
	return r.exists(ctx, tenantID, excludeID, "LOWER(description) = ?", strings.ToLower(strings.TrimSpace(description)))
}

func (r *GormProductRepository) exists(ctx context.Context, tenantID uuid.UUID, excludeID *uuid.UUID, cond string, arg any) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where(cond, arg)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

// IsUsedInDeals checks if any deal line references the product
func (r *GormProductRepository) IsUsedInDeals(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DealProductModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("product_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// Ensure GormProductRepository implements ProductRepository
var _ crm.ProductRepository = (*GormProductRepository)(nil)
