// Package datascope restricts CRM queries to the rows a user may see.
//
// Admins see every row of their tenant. Anyone else sees only the rows owned
// by their own sales person: customers, deals and todos through
// sales_person_id, the sales person table through its id.
//
// Usage:
//
//	ctx = datascope.WithScope(ctx, datascope.ForSalesPerson(spID))
//	query = datascope.NewFilterFromContext(ctx).Apply(query, datascope.ResourceDeal)
package datascope

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type contextKey string

const scopeKey contextKey = "data_scope"

// Resources that carry a data scope
const (
	ResourceSalesPerson = "sales_person"
	ResourceCustomer    = "customer"
	ResourceDeal        = "deal"
	ResourceTodo        = "todo"
)

// scopeColumns maps a resource to the column holding the owning sales person
var scopeColumns = map[string]string{
	ResourceSalesPerson: "id",
	ResourceCustomer:    "sales_person_id",
	ResourceDeal:        "sales_person_id",
	ResourceTodo:        "sales_person_id",
}

// Scope is the data scope of the current user
type Scope struct {
	All           bool
	SalesPersonID uuid.UUID
}

// AllRows is the scope of tenant admins and background jobs
func AllRows() Scope {
	return Scope{All: true}
}

// ForSalesPerson restricts rows to a single sales person
func ForSalesPerson(id uuid.UUID) Scope {
	return Scope{SalesPersonID: id}
}

// WithScope stores the scope in the context
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey, s)
}

// FromContext returns the scope stored in the context and whether one was set
func FromContext(ctx context.Context) (Scope, bool) {
	s, ok := ctx.Value(scopeKey).(Scope)
	return s, ok
}

// Filter applies data scope filtering to GORM queries
type Filter struct {
	scope Scope
	set   bool
}

// NewFilter creates a filter for an explicit scope
func NewFilter(s Scope) *Filter {
	return &Filter{scope: s, set: true}
}

// NewFilterFromContext creates a filter from the scope in the context.
// Without a scope the filter does not restrict anything; internal callers
// (scheduler, registration) run without one.
func NewFilterFromContext(ctx context.Context) *Filter {
	s, ok := FromContext(ctx)
	return &Filter{scope: s, set: ok}
}

// Apply adds the ownership condition for the resource to the query
func (f *Filter) Apply(db *gorm.DB, resource string) *gorm.DB {
	if !f.set || f.scope.All {
		return db
	}
	column, ok := scopeColumns[resource]
	if !ok {
		return db
	}
	if f.scope.SalesPersonID == uuid.Nil {
		// No sales person: nothing is visible
		return db.Where("1 = 0")
	}
	return db.Where(column+" = ?", f.scope.SalesPersonID)
}

// ApplyToQuery returns Apply as a GORM scope function
func (f *Filter) ApplyToQuery(resource string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return f.Apply(db, resource)
	}
}

// CanAccessAll reports whether the filter leaves queries unrestricted
func (f *Filter) CanAccessAll() bool {
	return !f.set || f.scope.All
}

// CanAccess reports whether a row owned by the sales person is visible
func (f *Filter) CanAccess(salesPersonID uuid.UUID) bool {
	if f.CanAccessAll() {
		return true
	}
	return f.scope.SalesPersonID != uuid.Nil && f.scope.SalesPersonID == salesPersonID
}

// OwnSalesPersonID returns the sales person rows are restricted to,
// or nil for an unrestricted filter
func (f *Filter) OwnSalesPersonID() *uuid.UUID {
	if f.CanAccessAll() {
		return nil
	}
	id := f.scope.SalesPersonID
	return &id
}
