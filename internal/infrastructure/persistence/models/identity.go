package models

import (
	"time"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// TenantModel is the persistence model for the Tenant aggregate
type TenantModel struct {
	AggregateModel
	SchemaName string                `gorm:"type:varchar(63);not null;uniqueIndex"`
	Name       string                `gorm:"type:varchar(100);not null"`
	DomainURL  string                `gorm:"column:domain_url;type:varchar(253);not null;uniqueIndex"`
	Lang       string                `gorm:"type:varchar(10);not null;default:'ru'"`
	Status     identity.TenantStatus `gorm:"type:varchar(20);not null;default:'active'"`
	PaidUntil  *time.Time
	OnTrial    bool `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant
func (m *TenantModel) ToDomain() *identity.Tenant {
	return &identity.Tenant{
		BaseAggregateRoot: m.ToAggregateRoot(),
		SchemaName:        m.SchemaName,
		Name:              m.Name,
		DomainURL:         m.DomainURL,
		Lang:              m.Lang,
		Status:            m.Status,
		PaidUntil:         m.PaidUntil,
		OnTrial:           m.OnTrial,
	}
}

// FromDomain populates the persistence model from a domain Tenant
func (m *TenantModel) FromDomain(t *identity.Tenant) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.SchemaName = t.SchemaName
	m.Name = t.Name
	m.DomainURL = t.DomainURL
	m.Lang = t.Lang
	m.Status = t.Status
	m.PaidUntil = t.PaidUntil
	m.OnTrial = t.OnTrial
}

// TenantModelFromDomain creates a new persistence model from a domain Tenant
func TenantModelFromDomain(t *identity.Tenant) *TenantModel {
	m := &TenantModel{}
	m.FromDomain(t)
	return m
}

// UserModel is the persistence model for the User aggregate.
// Username and email are unique per tenant; the composite indexes live in
// the SQL migrations.
type UserModel struct {
	TenantAggregateModel
	Username       string              `gorm:"type:varchar(30);not null"`
	Email          string              `gorm:"type:varchar(254);not null"`
	FirstName      string              `gorm:"type:varchar(150)"`
	LastName       string              `gorm:"type:varchar(150)"`
	PasswordHash   string              `gorm:"type:varchar(255);not null"`
	IsAdmin        bool                `gorm:"not null;default:false"`
	IsStaff        bool                `gorm:"not null;default:false"`
	Status         identity.UserStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	ActivationKey  *string             `gorm:"type:varchar(64);uniqueIndex"`
	ActivationExp  *time.Time
	LastLoginAt    *time.Time
	LastLoginIP    string `gorm:"type:varchar(45)"`
	FailedAttempts int    `gorm:"not null;default:0"`
	LockedUntil    *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	user := &identity.User{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Username:            m.Username,
		Email:               m.Email,
		FirstName:           m.FirstName,
		LastName:            m.LastName,
		PasswordHash:        m.PasswordHash,
		IsAdmin:             m.IsAdmin,
		IsStaff:             m.IsStaff,
		Status:              m.Status,
		ActivationExp:       m.ActivationExp,
		LastLoginAt:         m.LastLoginAt,
		LastLoginIP:         m.LastLoginIP,
		FailedAttempts:      m.FailedAttempts,
		LockedUntil:         m.LockedUntil,
	}
	if m.ActivationKey != nil {
		user.ActivationKey = *m.ActivationKey
	}
	return user
}

// FromDomain populates the persistence model from a domain User.
// An empty activation key is stored as NULL to keep the unique index usable.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainTenantAggregateRoot(u.TenantAggregateRoot)
	m.Username = u.Username
	m.Email = u.Email
	m.FirstName = u.FirstName
	m.LastName = u.LastName
	m.PasswordHash = u.PasswordHash
	m.IsAdmin = u.IsAdmin
	m.IsStaff = u.IsStaff
	m.Status = u.Status
	m.ActivationKey = nil
	if u.ActivationKey != "" {
		key := u.ActivationKey
		m.ActivationKey = &key
	}
	m.ActivationExp = u.ActivationExp
	m.LastLoginAt = u.LastLoginAt
	m.LastLoginIP = u.LastLoginIP
	m.FailedAttempts = u.FailedAttempts
	m.LockedUntil = u.LockedUntil
}

// UserModelFromDomain creates a new persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}

// UserSummaryRow is the scan target of the user list query
type UserSummaryRow struct {
	ID              uuid.UUID
	Username        string
	Email           string
	FirstName       string
	LastName        string
	IsAdmin         bool
	Status          identity.UserStatus
	LastLoginAt     *time.Time
	SalesPersonID   *uuid.UUID
	SalesPersonName *string
	SalesPersonRole *string
}

// ToDomain converts the row to a domain UserSummary
func (r *UserSummaryRow) ToDomain() identity.UserSummary {
	s := identity.UserSummary{
		ID:            r.ID,
		Username:      r.Username,
		Email:         r.Email,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		IsAdmin:       r.IsAdmin,
		Status:        r.Status,
		LastLoginAt:   r.LastLoginAt,
		SalesPersonID: r.SalesPersonID,
	}
	if r.SalesPersonRole != nil {
		s.SalesPersonRole = *r.SalesPersonRole
	}
	if r.SalesPersonName != nil {
		s.SalesPersonName = *r.SalesPersonName
	}
	return s
}
