package persistence

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/crm/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserRepository implements UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create inserts a new user
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	if err := r.db.WithContext(ctx).Create(models.UserModelFromDomain(user)).Error; err != nil {
		return err
	}
	user.MarkStored()
	return nil
}

// Update saves all user columns, failing with a conflict when the stored
// version moved on since it was loaded
func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	err := updateVersioned(r.db.WithContext(ctx), &models.UserModel{}, models.UserModelFromDomain(user),
		user.ID, user.StoredVersion(), tenant.Scope(user.TenantID), "id", "tenant_id", "created_at", "created_by")
	if err != nil {
		return err
	}
	user.MarkStored()
	return nil
}

// Delete removes a user together with its sales person and everything the
// sales person owns
func (r *GormUserRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var spIDs []uuid.UUID
		if err := tx.Model(&models.SalesPersonModel{}).
			Scopes(tenant.Scope(tenantID)).
			Where("user_id = ?", id).
			Pluck("id", &spIDs).Error; err != nil {
			return err
		}
		for _, spID := range spIDs {
			if err := deleteSalesPersonTree(tx, tenantID, spID); err != nil {
				return err
			}
		}

		result := tx.Scopes(tenant.Scope(tenantID)).Where("id = ?", id).Delete(&models.UserModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// FindByID finds a user by ID within a tenant
func (r *GormUserRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	return r.findOne(ctx, tenantID, "id = ?", id)
}

// FindByUsername finds a user by username within a tenant
func (r *GormUserRepository) FindByUsername(ctx context.Context, tenantID uuid.UUID, username string) (*identity.User, error) {
	return r.findOne(ctx, tenantID, "username = ?", strings.TrimSpace(username))
}

// FindByEmail finds a user by e-mail within a tenant, ignoring case
func (r *GormUserRepository) FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*identity.User, error) {
	return r.findOne(ctx, tenantID, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *GormUserRepository) findOne(ctx context.Context, tenantID uuid.UUID, cond string, arg any) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where(cond, arg).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByActivationKey finds a user by its activation key in any tenant
func (r *GormUserRepository) FindByActivationKey(ctx context.Context, key string) (*identity.User, error) {
	if strings.TrimSpace(key) == "" {
		return nil, shared.ErrNotFound
	}
	var model models.UserModel
	if err := r.db.WithContext(ctx).Where("activation_key = ?", key).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// ExistsByUsername checks if a username is taken within a tenant
func (r *GormUserRepository) ExistsByUsername(ctx context.Context, tenantID uuid.UUID, username string) (bool, error) {
	return r.exists(ctx, tenantID, "username = ?", strings.TrimSpace(username))
}

// ExistsByEmail checks if an e-mail is taken within a tenant
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	return r.exists(ctx, tenantID, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *GormUserRepository) exists(ctx context.Context, tenantID uuid.UUID, cond string, arg any) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where(cond, arg).
		Count(&count).Error
	return count > 0, err
}

// userSummaryColumns maps sortable fields to qualified columns of the list query
var userSummaryColumns = map[string]string{
	"id":            "u.id",
	"created_at":    "u.created_at",
	"updated_at":    "u.updated_at",
	"username":      "u.username",
	"email":         "u.email",
	"first_name":    "u.first_name",
	"last_name":     "u.last_name",
	"status":        "u.status",
	"last_login_at": "u.last_login_at",
}

// ListSummaries lists the users of a tenant with the role of their sales
// person. Users without a sales person are included with an empty role.
func (r *GormUserRepository) ListSummaries(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]identity.UserSummary, int64, error) {
	if tenantID == uuid.Nil {
		return nil, 0, tenant.ErrTenantIDRequired
	}
	filter = filter.Normalize()

	// uuid.UUID is an array, which squirrel would expand into a list
	where := sq.And{sq.Eq{"u.tenant_id": tenantID.String()}}
	if strings.TrimSpace(filter.Search) != "" {
		pattern := likePattern(filter.Search)
		where = append(where, sq.Or{
			sq.Like{"LOWER(u.username)": pattern},
			sq.Like{"LOWER(u.email)": pattern},
			sq.Like{"LOWER(u.first_name)": pattern},
			sq.Like{"LOWER(u.last_name)": pattern},
		})
	}
	if status, ok := filter.Filters["status"]; ok {
		where = append(where, sq.Eq{"u.status": status})
	}

	countSQL, countArgs, err := sq.Select("COUNT(*)").
		From("users u").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := r.db.WithContext(ctx).Raw(countSQL, countArgs...).Scan(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []identity.UserSummary{}, 0, nil
	}

	orderField := ValidateSortField(filter.OrderBy, UserSortFields, "username")
	orderDir := ValidateSortOrder(filter.OrderDir)

	listSQL, listArgs, err := sq.Select(
		"u.id", "u.username", "u.email", "u.first_name", "u.last_name",
		"u.is_admin", "u.status", "u.last_login_at",
		"sp.id AS sales_person_id", "sp.first_name AS sales_person_name", "sp.role AS sales_person_role",
	).
		From("users u").
		LeftJoin("sales_persons sp ON sp.user_id = u.id AND sp.tenant_id = u.tenant_id").
		Where(where).
		OrderBy(userSummaryColumns[orderField] + " " + orderDir).
		Limit(uint64(filter.PageSize)).
		Offset(uint64(filter.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	var rows []models.UserSummaryRow
	if err := r.db.WithContext(ctx).Raw(listSQL, listArgs...).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	summaries := make([]identity.UserSummary, len(rows))
	for i := range rows {
		summaries[i] = rows[i].ToDomain()
	}
	return summaries, total, nil
}

// Ensure GormUserRepository implements UserRepository
var _ identity.UserRepository = (*GormUserRepository)(nil)
