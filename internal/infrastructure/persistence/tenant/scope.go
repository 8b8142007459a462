// Package tenant provides row-level tenant scoping for GORM.
//
// Every tenant-owned table has a tenant_id column. Repositories receive the
// tenant explicitly and scope each statement with Scope:
//
//	db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).Find(&customers)
package tenant

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrTenantIDRequired is returned when a statement is scoped to the nil tenant
var ErrTenantIDRequired = errors.New("tenant_id is required")

// Scope restricts a statement to the rows of one tenant. The nil tenant
// fails the statement instead of matching nothing silently.
func Scope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == uuid.Nil {
			_ = db.AddError(ErrTenantIDRequired)
			return db
		}
		return db.Where("tenant_id = ?", tenantID)
	}
}

// ScopeTable is Scope with a table-qualified column, for joined queries
func ScopeTable(table string, tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == uuid.Nil {
			_ = db.AddError(ErrTenantIDRequired)
			return db
		}
		return db.Where(table+".tenant_id = ?", tenantID)
	}
}
