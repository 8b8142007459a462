package identity

import (
	"context"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence.
// Every lookup except the activation key one is scoped to a tenant.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*User, error)
	FindByUsername(ctx context.Context, tenantID uuid.UUID, username string) (*User, error)
	FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*User, error)

	// FindByActivationKey finds a pending user across tenants.
	// Keys are random and unique, so no tenant is needed.
	FindByActivationKey(ctx context.Context, key string) (*User, error)

	ExistsByUsername(ctx context.Context, tenantID uuid.UUID, username string) (bool, error)
	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)

	// ListSummaries returns users joined with the role of their sales person
	ListSummaries(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]UserSummary, int64, error)
}

// UserSummary is the user list row: the account plus the role of the
// linked sales person, if any.
type UserSummary struct {
	ID              uuid.UUID
	Username        string
	Email           string
	FirstName       string
	LastName        string
	IsAdmin         bool
	Status          UserStatus
	LastLoginAt     *time.Time
	SalesPersonID   *uuid.UUID
	SalesPersonName string // first name of the sales person
	SalesPersonRole string
}
