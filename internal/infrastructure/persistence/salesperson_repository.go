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

// GormSalesPersonRepository implements SalesPersonRepository using GORM
type GormSalesPersonRepository struct {
	db *gorm.DB
}

// NewGormSalesPersonRepository creates a new GormSalesPersonRepository
func NewGormSalesPersonRepository(db *gorm.DB) *GormSalesPersonRepository {
	return &GormSalesPersonRepository{db: db}
}

// Create inserts a new sales person
func (r *GormSalesPersonRepository) Create(ctx context.Context, sp *crm.SalesPerson) error {
	if err := r.db.WithContext(ctx).Create(models.SalesPersonModelFromDomain(sp)).Error; err != nil {
		return err
	}
	sp.MarkStored()
	return nil
}

// Update saves all sales person columns, failing with a conflict when the stored
// version moved on since it was loaded
func (r *GormSalesPersonRepository) Update(ctx context.Context, sp *crm.SalesPerson) error {
	err := updateVersioned(r.db.WithContext(ctx), &models.SalesPersonModel{}, models.SalesPersonModelFromDomain(sp),
		sp.ID, sp.StoredVersion(), tenant.Scope(sp.TenantID), "id", "tenant_id", "created_at", "created_by")
	if err != nil {
		return err
	}
	sp.MarkStored()
	return nil
}

// Delete removes the sales person with its customers, deals and todos
func (r *GormSalesPersonRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SalesPersonModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteSalesPersonTree(tx, tenantID, id)
	})
}

// deleteSalesPersonTree deletes a sales person and all rows it owns.
// Deals of other sales people that referenced its customers lose the customer.
func deleteSalesPersonTree(tx *gorm.DB, tenantID, id uuid.UUID) error {
	scoped := func() *gorm.DB { return tx.Scopes(tenant.Scope(tenantID)) }

	dealIDs := scoped().Model(&models.DealModel{}).Select("id").Where("sales_person_id = ?", id)
	customerIDs := scoped().Model(&models.CustomerModel{}).Select("id").Where("sales_person_id = ?", id)

	steps := []func() error{
		func() error {
			return scoped().Where("sales_person_id = ?", id).Delete(&models.TodoModel{}).Error
		},
		func() error {
			return scoped().Where("deal_id IN (?)", dealIDs).Delete(&models.DealProductModel{}).Error
		},
		func() error {
			return scoped().Where("deal_id IN (?)", dealIDs).Delete(&models.DealStatusModel{}).Error
		},
		func() error {
			return scoped().Where("sales_person_id = ?", id).Delete(&models.DealModel{}).Error
		},
		func() error {
			return scoped().Model(&models.DealModel{}).
				Where("customer_id IN (?)", customerIDs).
				Update("customer_id", nil).Error
		},
		func() error {
			return scoped().Where("sales_person_id = ?", id).Delete(&models.CustomerModel{}).Error
		},
		func() error {
			return scoped().Where("id = ?", id).Delete(&models.SalesPersonModel{}).Error
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// FindByID finds a sales person by ID within a tenant and the caller's data scope
func (r *GormSalesPersonRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*crm.SalesPerson, error) {
	var model models.SalesPersonModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID), datascope.NewFilterFromContext(ctx).ApplyToQuery(datascope.ResourceSalesPerson)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByUserID finds the sales person linked to a user
func (r *GormSalesPersonRepository) FindByUserID(ctx context.Context, tenantID, userID uuid.UUID) (*crm.SalesPerson, error) {
	var model models.SalesPersonModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("user_id = ?", userID).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists sales people matching the filter
func (r *GormSalesPersonRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter crm.SalesPersonFilter) ([]*crm.SalesPerson, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.SalesPersonModel{}).
		Scopes(tenant.Scope(tenantID), datascope.NewFilterFromContext(ctx).ApplyToQuery(datascope.ResourceSalesPerson))
	query = searchAny(query, filter.Search, "first_name", "second_name", "division", "phone_number", "mobile_number")
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.Division != "" {
		query = query.Where("division = ?", filter.Division)
	}

	var rows []models.SalesPersonModel
	total, err := findPage(query, filter.Filter, SalesPersonSortFields, "first_name", &rows)
	if err != nil {
		return nil, 0, err
	}
	result := make([]*crm.SalesPerson, len(rows))
	for i := range rows {
		result[i] = rows[i].ToDomain()
	}
	return result, total, nil
}

// ExistsByUserID checks if the user already has a sales person
func (r *GormSalesPersonRepository) ExistsByUserID(ctx context.Context, tenantID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SalesPersonModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count > 0, err
}

// Ensure GormSalesPersonRepository implements SalesPersonRepository
var _ crm.SalesPersonRepository = (*GormSalesPersonRepository)(nil)
