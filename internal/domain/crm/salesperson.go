package crm

import (
	"strings"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const divisionMaxLength = 50

// SalesPerson is a member of the sales team linked one-to-one with a user.
// Customers, deals and todos belong to a sales person.
type SalesPerson struct {
	shared.TenantAggregateRoot
	Person
	UserID   uuid.UUID
	Division string
	Role     SalesRole
	Lang     string
}

// SalesPersonInput carries the editable fields of a sales person
type SalesPersonInput struct {
	FirstName    string
	SecondName   string
	PhoneNumber  string
	MobileNumber string
	Division     string
	Role         SalesRole
	Lang         string
}

// NewSalesPerson creates a sales person for the given user
func NewSalesPerson(tenantID, userID uuid.UUID, in SalesPersonInput) (*SalesPerson, error) {
	if userID == uuid.Nil {
		return nil, shared.NewFieldError("INVALID_USER", "user_id", "User is required")
	}
	sp := &SalesPerson{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		UserID:              userID,
	}
	if err := sp.apply(in); err != nil {
		return nil, err
	}
	sp.AddDomainEvent(NewSalesPersonCreatedEvent(sp))
	return sp, nil
}

// Update replaces the editable fields
func (sp *SalesPerson) Update(in SalesPersonInput) error {
	if err := sp.apply(in); err != nil {
		return err
	}
	sp.IncrementVersion()
	return nil
}

func (sp *SalesPerson) apply(in SalesPersonInput) error {
	person, err := NewPerson(in.FirstName, in.SecondName, in.PhoneNumber, in.MobileNumber)
	if err != nil {
		return err
	}
	division := strings.TrimSpace(in.Division)
	if len([]rune(division)) > divisionMaxLength {
		return shared.NewFieldError("INVALID_DIVISION", "division", "Division cannot exceed 50 characters")
	}
	role := in.Role
	if role == "" {
		role = SalesRoleManager
	}
	if !role.IsValid() {
		return shared.NewFieldError("INVALID_ROLE", "role", "Unknown sales role: "+string(role))
	}

	person.Avatar = sp.Avatar
	sp.Person = person
	sp.Division = division
	sp.Role = role
	sp.Lang = strings.TrimSpace(in.Lang)
	return nil
}

// SetAvatar stores the object key of the uploaded avatar
func (sp *SalesPerson) SetAvatar(key string) error {
	if len(key) > avatarMaxLength {
		return shared.NewFieldError("INVALID_AVATAR", "avatar", "Avatar key cannot exceed 500 characters")
	}
	sp.Avatar = key
	sp.IncrementVersion()
	return nil
}

// CardField is one row of the sales person card
type CardField struct {
	Name  string // field name, also the i18n key suffix of its verbose name
	Value string
}

// Card lists the visible fields of the sales person in display order.
// The user link is shown as the user's e-mail, the avatar is hidden and the
// login closes the list.
func (sp *SalesPerson) Card(userEmail, username string) []CardField {
	return []CardField{
		{Name: "first_name", Value: sp.FirstName},
		{Name: "second_name", Value: sp.SecondName},
		{Name: "phone_number", Value: sp.PhoneNumber},
		{Name: "mobile_number", Value: sp.MobileNumber},
		{Name: "user", Value: userEmail},
		{Name: "division", Value: sp.Division},
		{Name: "role", Value: string(sp.Role)},
		{Name: "lang", Value: sp.Lang},
		{Name: "login", Value: username},
	}
}
