package persistence

import (
	"context"
	"time"

	"github.com/crm/backend/internal/domain/crm"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/datascope"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/crm/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTodoRepository implements TodoRepository using GORM
type GormTodoRepository struct {
	db *gorm.DB
}

// NewGormTodoRepository creates a new GormTodoRepository
func NewGormTodoRepository(db *gorm.DB) *GormTodoRepository {
	return &GormTodoRepository{db: db}
}

// Create inserts a new todo
func (r *GormTodoRepository) Create(ctx context.Context, t *crm.Todo) error {
	if err := r.db.WithContext(ctx).Create(models.TodoModelFromDomain(t)).Error; err != nil {
		return err
	}
	t.MarkStored()
	return nil
}

// Update saves all todo columns, failing with a conflict when the stored
// version moved on since it was loaded
func (r *GormTodoRepository) Update(ctx context.Context, t *crm.Todo) error {
	err := updateVersioned(r.db.WithContext(ctx), &models.TodoModel{}, models.TodoModelFromDomain(t),
		t.ID, t.StoredVersion(), tenant.Scope(t.TenantID), "id", "tenant_id", "created_at", "created_by")
	if err != nil {
		return err
	}
	t.MarkStored()
	return nil
}

// Delete removes a todo
func (r *GormTodoRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID), datascope.NewFilterFromContext(ctx).ApplyToQuery(datascope.ResourceTodo)).
		Where("id = ?", id).
		Delete(&models.TodoModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a todo by ID within a tenant and the caller's data scope
func (r *GormTodoRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*crm.Todo, error) {
	var model models.TodoModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID), datascope.NewFilterFromContext(ctx).ApplyToQuery(datascope.ResourceTodo)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists todos matching the filter, soonest first by default
func (r *GormTodoRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter crm.TodoFilter) ([]*crm.Todo, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.TodoModel{}).
		Scopes(tenant.Scope(tenantID), datascope.NewFilterFromContext(ctx).ApplyToQuery(datascope.ResourceTodo))
	query = searchAny(query, filter.Search, "action_description")
	if filter.SalesPersonID != nil {
		query = query.Where("sales_person_id = ?", *filter.SalesPersonID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	if filter.Done != nil {
		query = query.Where("done = ?", *filter.Done)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_at >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_at <= ?", *filter.DueTo)
	}

	if filter.OrderBy == "" {
		filter.OrderBy = "due_at"
		filter.OrderDir = "asc"
	}
	var rows []models.TodoModel
	total, err := findPage(query, filter.Filter, TodoSortFields, "due_at", &rows)
	if err != nil {
		return nil, 0, err
	}
	result := make([]*crm.Todo, len(rows))
	for i := range rows {
		result[i] = rows[i].ToDomain()
	}
	return result, total, nil
}

// FindDueForReminder returns open todos due between from and until that
// were not reminded yet
func (r *GormTodoRepository) FindDueForReminder(ctx context.Context, tenantID uuid.UUID, from, until time.Time) ([]*crm.Todo, error) {
	var rows []models.TodoModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("done = ? AND reminded_at IS NULL", false).
		Where("due_at >= ? AND due_at <= ?", from, until).
		Order("due_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]*crm.Todo, len(rows))
	for i := range rows {
		result[i] = rows[i].ToDomain()
	}
	return result, nil
}

// Ensure GormTodoRepository implements TodoRepository
var _ crm.TodoRepository = (*GormTodoRepository)(nil)
