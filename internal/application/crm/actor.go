package crm

import (
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Actor is the authenticated caller of a CRM operation
type Actor struct {
	TenantID      uuid.UUID
	UserID        uuid.UUID
	IsAdmin       bool
	SalesPersonID *uuid.UUID
	Lang          string
}

// CanAccess reports whether records owned by salesPersonID are visible to the actor.
// Administrators see the whole tenant, everyone else only their own records.
func (a Actor) CanAccess(salesPersonID uuid.UUID) bool {
	if a.IsAdmin {
		return true
	}
	return a.SalesPersonID != nil && *a.SalesPersonID == salesPersonID
}

// scopeSalesPerson returns the sales person a list must be restricted to.
// For administrators the requested value is passed through.
func (a Actor) scopeSalesPerson(requested *uuid.UUID) *uuid.UUID {
	if a.IsAdmin {
		return requested
	}
	if a.SalesPersonID == nil {
		nobody := uuid.Nil
		return &nobody
	}
	id := *a.SalesPersonID
	return &id
}

// ownerFor resolves the owning sales person of a new or edited record.
// Non-admins may only assign their own sales person; an empty value means "me".
func (a Actor) ownerFor(requested uuid.UUID) (uuid.UUID, error) {
	if a.IsAdmin {
		if requested == uuid.Nil {
			if a.SalesPersonID != nil {
				return *a.SalesPersonID, nil
			}
			return uuid.Nil, shared.NewFieldError("INVALID_SALES_PERSON", "sales_person_id", "Sales person is required")
		}
		return requested, nil
	}
	if a.SalesPersonID == nil {
		return uuid.Nil, shared.ErrForbidden
	}
	if requested != uuid.Nil && requested != *a.SalesPersonID {
		return uuid.Nil, shared.ErrForbidden
	}
	return *a.SalesPersonID, nil
}

func (a Actor) requireAdmin() error {
	if !a.IsAdmin {
		return shared.ErrForbidden
	}
	return nil
}
