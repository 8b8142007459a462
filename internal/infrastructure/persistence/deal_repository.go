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

// GormDealRepository implements DealRepository using GORM.
// A deal is stored across deals, deal_products and deal_statuses.
type GormDealRepository struct {
	db *gorm.DB
}

// NewGormDealRepository creates a new GormDealRepository
func NewGormDealRepository(db *gorm.DB) *GormDealRepository {
	return &GormDealRepository{db: db}
}

// Create inserts the deal with its lines and initial history
func (r *GormDealRepository) Create(ctx context.Context, d *crm.Deal) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Products", "History").Create(models.DealModelFromDomain(d)).Error; err != nil {
			return err
		}
		if err := insertDealLines(tx, d); err != nil {
			return err
		}
		return insertDealHistory(tx, d.TenantID, d.PendingHistory())
	})
	if err != nil {
		return err
	}
	d.ClearPendingHistory()
	d.MarkStored()
	return nil
}

// Update saves the deal columns, replaces its lines and appends the
// history entries recorded since it was loaded. A deal saved by someone
// else in between is rejected with a conflict and nothing is written.
func (r *GormDealRepository) Update(ctx context.Context, d *crm.Deal) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateVersioned(tx, &models.DealModel{}, models.DealModelFromDomain(d),
			d.ID, d.StoredVersion(), tenant.Scope(d.TenantID),
			"id", "tenant_id", "created_at", "created_by", "Products", "History"); err != nil {
			return err
		}

		if err := tx.Scopes(tenant.Scope(d.TenantID)).
			Where("deal_id = ?", d.ID).
			Delete(&models.DealProductModel{}).Error; err != nil {
			return err
		}
		if err := insertDealLines(tx, d); err != nil {
			return err
		}
		return insertDealHistory(tx, d.TenantID, d.PendingHistory())
	})
	if err != nil {
		return err
	}
	d.ClearPendingHistory()
	d.MarkStored()
	return nil
}

func insertDealLines(tx *gorm.DB, d *crm.Deal) error {
	if len(d.Products) == 0 {
		return nil
	}
	lines := make([]models.DealProductModel, len(d.Products))
	for i, l := range d.Products {
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
		l.DealID = d.ID
		lines[i] = models.DealProductModelFromDomain(d.TenantID, l)
	}
	return tx.Create(&lines).Error
}

func insertDealHistory(tx *gorm.DB, tenantID uuid.UUID, records []crm.DealStatusRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]models.DealStatusModel, len(records))
	for i, rec := range records {
		rows[i] = models.DealStatusModelFromDomain(tenantID, rec)
	}
	return tx.Create(&rows).Error
}

// Delete removes a deal with its lines and history
func (r *GormDealRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.DealModel{}).
			Scopes(tenant.Scope(tenantID), datascope.NewFilterFromContext(ctx).ApplyToQuery(datascope.ResourceDeal)).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		if err := tx.Scopes(tenant.Scope(tenantID)).Where("deal_id = ?", id).Delete(&models.DealProductModel{}).Error; err != nil {
			return err
		}
		if err := tx.Scopes(tenant.Scope(tenantID)).Where("deal_id = ?", id).Delete(&models.DealStatusModel{}).Error; err != nil {
			return err
		}
		return tx.Scopes(tenant.Scope(tenantID)).Where("id = ?", id).Delete(&models.DealModel{}).Error
	})
}

func orderDealLines(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

func preloadDealLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Products", orderDealLines)
}

func orderDealHistory(db *gorm.DB) *gorm.DB {
	return db.Order("date ASC, time ASC, created_at ASC")
}

// FindByID loads the deal with its lines and full history
func (r *GormDealRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*crm.Deal, error) {
	var model models.DealModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID), datascope.NewFilterFromContext(ctx).ApplyToQuery(datascope.ResourceDeal)).
		Preload("Products", orderDealLines).
		Preload("History", orderDealHistory).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists deals with their lines
func (r *GormDealRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter crm.DealFilter) ([]*crm.Deal, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.DealModel{}).
		Scopes(tenant.Scope(tenantID), datascope.NewFilterFromContext(ctx).ApplyToQuery(datascope.ResourceDeal))
	query = searchAny(query, filter.Search, "description", "CAST(ident AS TEXT)")
	if filter.SalesPersonID != nil {
		query = query.Where("sales_person_id = ?", *filter.SalesPersonID)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.DateFrom != nil {
		query = query.Where("deal_date >= ?", crm.DateOf(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		query = query.Where("deal_date <= ?", crm.DateOf(*filter.DateTo))
	}

	var rows []models.DealModel
	total, err := findPage(query, filter.Filter, DealSortFields, "deal_date", &rows, preloadDealLines)
	if err != nil {
		return nil, 0, err
	}
	result := make([]*crm.Deal, len(rows))
	for i := range rows {
		result[i] = rows[i].ToDomain()
	}
	return result, total, nil
}

// ExistsByIdent checks if another deal of the tenant has the ident
func (r *GormDealRepository) ExistsByIdent(ctx context.Context, tenantID uuid.UUID, ident int64, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.DealModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("ident = ?", ident)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

// Ensure GormDealRepository implements DealRepository
var _ crm.DealRepository = (*GormDealRepository)(nil)
