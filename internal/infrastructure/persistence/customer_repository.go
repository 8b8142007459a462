package persistence

import (
	"context"

	"github.com/crm/backend/internal/domain/crm"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/datascope"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/crm/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// Create inserts a new customer
func (r *GormCustomerRepository) Create(ctx context.Context, c *crm.Customer) error {
	if err := r.db.WithContext(ctx).Create(models.CustomerModelFromDomain(c)).Error; err != nil {
		return err
	}
	c.MarkStored()
	return nil
}

// Update saves all customer columns, failing with a conflict when the stored
// version moved on since it was loaded
func (r *GormCustomerRepository) Update(ctx context.Context, c *crm.Customer) error {
	err := updateVersioned(r.db.WithContext(ctx), &models.CustomerModel{}, models.CustomerModelFromDomain(c),
		c.ID, c.StoredVersion(), tenant.Scope(c.TenantID), "id", "tenant_id", "created_at", "created_by")
	if err != nil {
		return err
	}
	c.MarkStored()
	return nil
}

// Delete removes a customer. Its deals stay, without a customer.
func (r *GormCustomerRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.DealModel{}).
			Scopes(tenant.Scope(tenantID)).
			Where("customer_id = ?", id).
			Update("customer_id", nil).Error; err != nil {
			return err
		}
		result := tx.Scopes(tenant.Scope(tenantID), datascope.NewFilterFromContext(ctx).ApplyToQuery(datascope.ResourceCustomer)).
			Where("id = ?", id).
			Delete(&models.CustomerModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// FindByID finds a customer by ID within a tenant and the caller's data scope
func (r *GormCustomerRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*crm.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID), datascope.NewFilterFromContext(ctx).ApplyToQuery(datascope.ResourceCustomer)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists customers matching the filter
func (r *GormCustomerRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter crm.CustomerFilter) ([]*crm.Customer, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Scopes(tenant.Scope(tenantID), datascope.NewFilterFromContext(ctx).ApplyToQuery(datascope.ResourceCustomer))
	query = searchAny(query, filter.Search, "first_name", "second_name", "company", "email", "phone_number", "mobile_number")
	if filter.SalesPersonID != nil {
		query = query.Where("sales_person_id = ?", *filter.SalesPersonID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var rows []models.CustomerModel
	total, err := findPage(query, filter.Filter, CustomerSortFields, "first_name", &rows)
	if err != nil {
		return nil, 0, err
	}
	result := make([]*crm.Customer, len(rows))
	for i := range rows {
		result[i] = rows[i].ToDomain()
	}
	return result, total, nil
}

// Ensure GormCustomerRepository implements CustomerRepository
var _ crm.CustomerRepository = (*GormCustomerRepository)(nil)
