package crm

import (
	"context"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Every repository method is scoped to a tenant. A record of another tenant
// is reported as shared.ErrNotFound.

// SalesPersonFilter filters the sales person list
type SalesPersonFilter struct {
	shared.Filter
	Role     *SalesRole
	Division string
}

// SalesPersonRepository defines persistence for sales people
type SalesPersonRepository interface {
	Create(ctx context.Context, sp *SalesPerson) error
	Update(ctx context.Context, sp *SalesPerson) error
	// Delete removes the sales person with its customers, deals and todos
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*SalesPerson, error)
	FindByUserID(ctx context.Context, tenantID, userID uuid.UUID) (*SalesPerson, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter SalesPersonFilter) ([]*SalesPerson, int64, error)
	ExistsByUserID(ctx context.Context, tenantID, userID uuid.UUID) (bool, error)
}

// CustomerFilter filters the customer list
type CustomerFilter struct {
	shared.Filter
	SalesPersonID *uuid.UUID
	Status        *CustomerStatus
}

// CustomerRepository defines persistence for customers
type CustomerRepository interface {
	Create(ctx context.Context, c *Customer) error
	Update(ctx context.Context, c *Customer) error
	// Delete removes the customer; its deals keep existing without a customer
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter CustomerFilter) ([]*Customer, int64, error)
}

// ProductRepository defines persistence for products
type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*Product, int64, error)
	// ExistsBySKU and ExistsByDescription ignore the product with excludeID when set
	ExistsBySKU(ctx context.Context, tenantID uuid.UUID, sku int64, excludeID *uuid.UUID) (bool, error)
	ExistsByDescription(ctx context.Context, tenantID uuid.UUID, description string, excludeID *uuid.UUID) (bool, error)
	IsUsedInDeals(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
}

// DealFilter filters the deal list
type DealFilter struct {
	shared.Filter
	SalesPersonID *uuid.UUID
	CustomerID    *uuid.UUID
	Status        *DealStatus
	DateFrom      *time.Time
	DateTo        *time.Time
}

// DealRepository defines persistence for deals with their lines and history
type DealRepository interface {
	Create(ctx context.Context, d *Deal) error
	// Update saves the deal, replaces its lines and appends pending history
	Update(ctx context.Context, d *Deal) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	// FindByID loads the deal with its lines and full history
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Deal, error)
	// FindAll returns deals with their lines, without history
	FindAll(ctx context.Context, tenantID uuid.UUID, filter DealFilter) ([]*Deal, int64, error)
	ExistsByIdent(ctx context.Context, tenantID uuid.UUID, ident int64, excludeID *uuid.UUID) (bool, error)
}

// TodoFilter filters the todo list
type TodoFilter struct {
	shared.Filter
	SalesPersonID *uuid.UUID
	Action        *TodoAction
	Done          *bool
	DueFrom       *time.Time
	DueTo         *time.Time
}

// TodoRepository defines persistence for todos
type TodoRepository interface {
	Create(ctx context.Context, t *Todo) error
	Update(ctx context.Context, t *Todo) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Todo, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter TodoFilter) ([]*Todo, int64, error)
	// FindDueForReminder returns open, not yet reminded todos due in [from, until]
	FindDueForReminder(ctx context.Context, tenantID uuid.UUID, from, until time.Time) ([]*Todo, error)
}
