package persistence

import (
	"errors"
	"strings"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// translateError maps GORM errors to domain errors
func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// updateVersioned writes values over row id while the row still holds
// storedVersion. When nothing matched, the row is either gone (ErrNotFound)
// or was saved by someone else since it was loaded (ErrConcurrencyConflict).
func updateVersioned(db *gorm.DB, table, values any, id uuid.UUID, storedVersion int, scope func(*gorm.DB) *gorm.DB, omit ...string) error {
	result := db.Model(table).
		Scopes(scope).
		Where("id = ? AND version = ?", id, storedVersion).
		Select("*").
		Omit(omit...).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(table).Scopes(scope).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrConcurrencyConflict
}

// unscoped leaves a query as is, for tables not owned by a tenant
func unscoped(db *gorm.DB) *gorm.DB {
	return db
}

// likePattern builds a case-insensitive LIKE pattern; columns are compared
// through LOWER() so the same query runs on PostgreSQL and sqlite
func likePattern(search string) string {
	s := strings.ToLower(strings.TrimSpace(search))
	s = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
	return "%" + s + "%"
}

// searchAny adds "LOWER(col) LIKE ?" for each column, ORed together
func searchAny(query *gorm.DB, search string, columns ...string) *gorm.DB {
	if strings.TrimSpace(search) == "" || len(columns) == 0 {
		return query
	}
	pattern := likePattern(search)
	conds := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		conds[i] = "LOWER(" + col + `) LIKE ? ESCAPE '\'`
		args[i] = pattern
	}
	return query.Where("("+strings.Join(conds, " OR ")+")", args...)
}

// findPage counts the rows matched by query, then loads the requested page
// into dest ordered by a whitelisted column. Scopes such as preloads apply
// to the page query only.
func findPage(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string, dest any, scopes ...func(*gorm.DB) *gorm.DB) (int64, error) {
	filter = filter.Normalize()

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}

	err := query.
		Scopes(scopes...).
		Order(orderClause(filter.OrderBy, filter.OrderDir, allowed, defaultField)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(dest).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
