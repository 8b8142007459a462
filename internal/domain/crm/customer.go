package crm

import (
	"regexp"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	companyMaxLength  = 50
	positionMaxLength = 50
	emailMaxLength    = 80
)

var customerEmailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Customer is a client contact owned by a sales person
type Customer struct {
	shared.TenantAggregateRoot
	Person
	SalesPersonID uuid.UUID
	Company       string
	Position      string
	Email         string
	BirthDate     *time.Time
	Status        CustomerStatus
	Comment       string
}

// CustomerInput carries the editable fields of a customer
type CustomerInput struct {
	FirstName     string
	SecondName    string
	PhoneNumber   string
	MobileNumber  string
	SalesPersonID uuid.UUID
	Company       string
	Position      string
	Email         string
	BirthDate     *time.Time
	Status        CustomerStatus
	Comment       string
}

// NewCustomer creates a customer
func NewCustomer(tenantID uuid.UUID, in CustomerInput) (*Customer, error) {
	c := &Customer{TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID)}
	if err := c.apply(in); err != nil {
		return nil, err
	}
	c.AddDomainEvent(NewCustomerCreatedEvent(c))
	return c, nil
}

// Update replaces the editable fields
func (c *Customer) Update(in CustomerInput) error {
	if err := c.apply(in); err != nil {
		return err
	}
	c.IncrementVersion()
	return nil
}

// SetAvatar stores the object key of the uploaded avatar
func (c *Customer) SetAvatar(key string) error {
	if len(key) > avatarMaxLength {
		return shared.NewFieldError("INVALID_AVATAR", "avatar", "Avatar key cannot exceed 500 characters")
	}
	c.Avatar = key
	c.IncrementVersion()
	return nil
}

func (c *Customer) apply(in CustomerInput) error {
	person, err := NewPerson(in.FirstName, in.SecondName, in.PhoneNumber, in.MobileNumber)
	if err != nil {
		return err
	}
	if in.SalesPersonID == uuid.Nil {
		return shared.NewFieldError("INVALID_SALES_PERSON", "sales_person_id", "Sales person is required")
	}
	company := strings.TrimSpace(in.Company)
	if len([]rune(company)) > companyMaxLength {
		return shared.NewFieldError("INVALID_COMPANY", "company", "Company cannot exceed 50 characters")
	}
	position := strings.TrimSpace(in.Position)
	if len([]rune(position)) > positionMaxLength {
		return shared.NewFieldError("INVALID_POSITION", "position", "Position cannot exceed 50 characters")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email != "" {
		if len(email) > emailMaxLength {
			return shared.NewFieldError("INVALID_EMAIL", "email", "Email cannot exceed 80 characters")
		}
		if !customerEmailPattern.MatchString(email) {
			return shared.NewFieldError("INVALID_EMAIL", "email", "Invalid email format")
		}
	}
	if !in.Status.IsValid() {
		return shared.NewFieldError("INVALID_STATUS", "status", "Unknown customer status: "+string(in.Status))
	}
	if in.BirthDate != nil && in.BirthDate.After(time.Now()) {
		return shared.NewFieldError("INVALID_BIRTH_DATE", "birth_date", "Birth date cannot be in the future")
	}

	person.Avatar = c.Avatar
	c.Person = person
	c.SalesPersonID = in.SalesPersonID
	c.Company = company
	c.Position = position
	c.Email = email
	c.BirthDate = truncateDate(in.BirthDate)
	c.Status = in.Status
	c.Comment = strings.TrimSpace(in.Comment)
	return nil
}

func truncateDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := DateOf(*t)
	return &d
}

// DateOf drops the clock part of t, keeping its calendar day in UTC
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
