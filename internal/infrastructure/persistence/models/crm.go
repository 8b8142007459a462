package models

import (
	"time"

	"github.com/crm/backend/internal/domain/crm"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PersonColumns are the contact columns shared by sales people and customers
type PersonColumns struct {
	FirstName    string `gorm:"type:varchar(100);not null"`
	SecondName   string `gorm:"type:varchar(100);not null"`
	PhoneNumber  string `gorm:"type:varchar(15)"`
	MobileNumber string `gorm:"type:varchar(15)"`
	Avatar       string `gorm:"type:varchar(500)"`
}

func (c *PersonColumns) toDomain() crm.Person {
	return crm.Person{
		FirstName:    c.FirstName,
		SecondName:   c.SecondName,
		PhoneNumber:  c.PhoneNumber,
		MobileNumber: c.MobileNumber,
		Avatar:       c.Avatar,
	}
}

func (c *PersonColumns) fromDomain(p crm.Person) {
	c.FirstName = p.FirstName
	c.SecondName = p.SecondName
	c.PhoneNumber = p.PhoneNumber
	c.MobileNumber = p.MobileNumber
	c.Avatar = p.Avatar
}

// SalesPersonModel is the persistence model for the SalesPerson aggregate.
// A user has at most one sales person.
type SalesPersonModel struct {
	TenantAggregateModel
	PersonColumns
	UserID   uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex"`
	Division string        `gorm:"type:varchar(50)"`
	Role     crm.SalesRole `gorm:"type:varchar(1);not null;default:'M'"`
	Lang     string        `gorm:"type:varchar(10)"`
}

// TableName returns the table name for GORM
func (SalesPersonModel) TableName() string {
	return "sales_persons"
}

// ToDomain converts the persistence model to a domain SalesPerson
func (m *SalesPersonModel) ToDomain() *crm.SalesPerson {
	return &crm.SalesPerson{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Person:              m.PersonColumns.toDomain(),
		UserID:              m.UserID,
		Division:            m.Division,
		Role:                m.Role,
		Lang:                m.Lang,
	}
}

// FromDomain populates the persistence model from a domain SalesPerson
func (m *SalesPersonModel) FromDomain(sp *crm.SalesPerson) {
	m.FromDomainTenantAggregateRoot(sp.TenantAggregateRoot)
	m.PersonColumns.fromDomain(sp.Person)
	m.UserID = sp.UserID
	m.Division = sp.Division
	m.Role = sp.Role
	m.Lang = sp.Lang
}

// SalesPersonModelFromDomain creates a new persistence model from a domain SalesPerson
func SalesPersonModelFromDomain(sp *crm.SalesPerson) *SalesPersonModel {
	m := &SalesPersonModel{}
	m.FromDomain(sp)
	return m
}

// CustomerModel is the persistence model for the Customer aggregate
type CustomerModel struct {
	TenantAggregateModel
	PersonColumns
	SalesPersonID uuid.UUID          `gorm:"type:uuid;not null;index"`
	Company       string             `gorm:"type:varchar(50)"`
	Position      string             `gorm:"type:varchar(50)"`
	Email         string             `gorm:"type:varchar(80)"`
	BirthDate     *time.Time         `gorm:"type:date"`
	Status        crm.CustomerStatus `gorm:"type:varchar(1);not null;index"`
	Comment       string             `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *crm.Customer {
	return &crm.Customer{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Person:              m.PersonColumns.toDomain(),
		SalesPersonID:       m.SalesPersonID,
		Company:             m.Company,
		Position:            m.Position,
		Email:               m.Email,
		BirthDate:           m.BirthDate,
		Status:              m.Status,
		Comment:             m.Comment,
	}
}

// FromDomain populates the persistence model from a domain Customer
func (m *CustomerModel) FromDomain(c *crm.Customer) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.PersonColumns.fromDomain(c.Person)
	m.SalesPersonID = c.SalesPersonID
	m.Company = c.Company
	m.Position = c.Position
	m.Email = c.Email
	m.BirthDate = c.BirthDate
	m.Status = c.Status
	m.Comment = c.Comment
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer
func CustomerModelFromDomain(c *crm.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}

// ProductModel is the persistence model for the Product aggregate.
// SKU and description are unique per tenant (see migrations).
type ProductModel struct {
	TenantAggregateModel
	SKU         int64           `gorm:"column:sku;not null"`
	Description string          `gorm:"type:varchar(200);not null"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *crm.Product {
	return &crm.Product{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		SKU:                 m.SKU,
		Description:         m.Description,
		Price:               m.Price,
	}
}

// FromDomain populates the persistence model from a domain Product
func (m *ProductModel) FromDomain(p *crm.Product) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.SKU = p.SKU
	m.Description = p.Description
	m.Price = p.Price
}

// ProductModelFromDomain creates a new persistence model from a domain Product
func ProductModelFromDomain(p *crm.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// DealModel is the persistence model for the Deal aggregate.
// DealTime holds "HH:MM:SS" or NULL.
type DealModel struct {
	TenantAggregateModel
	Ident         int64              `gorm:"not null"`
	Price         decimal.Decimal    `gorm:"type:decimal(12,2);not null;default:0"`
	Description   string             `gorm:"type:text"`
	Status        crm.DealStatus     `gorm:"type:varchar(1);not null;index"`
	DealDate      time.Time          `gorm:"type:date;not null;index"`
	DealTime      *string            `gorm:"type:varchar(8)"`
	CustomerID    *uuid.UUID         `gorm:"type:uuid;index"`
	SalesPersonID uuid.UUID          `gorm:"type:uuid;not null;index"`
	Products      []DealProductModel `gorm:"foreignKey:DealID;references:ID"`
	History       []DealStatusModel  `gorm:"foreignKey:DealID;references:ID"`
}

// TableName returns the table name for GORM
func (DealModel) TableName() string {
	return "deals"
}

// ToDomain converts the persistence model, with whatever lines and history
// were preloaded, to a domain Deal
func (m *DealModel) ToDomain() *crm.Deal {
	d := &crm.Deal{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Ident:               m.Ident,
		Price:               m.Price,
		Description:         m.Description,
		Status:              m.Status,
		DealDate:            m.DealDate,
		CustomerID:          m.CustomerID,
		SalesPersonID:       m.SalesPersonID,
		Products:            make([]crm.DealProduct, 0, len(m.Products)),
		History:             make([]crm.DealStatusRecord, 0, len(m.History)),
	}
	if m.DealTime != nil {
		if t, err := crm.ParseTimeOfDay(*m.DealTime); err == nil {
			d.DealTime = &t
		}
	}
	for i := range m.Products {
		d.Products = append(d.Products, m.Products[i].ToDomain())
	}
	for i := range m.History {
		d.History = append(d.History, m.History[i].ToDomain())
	}
	return d
}

// FromDomain populates the deal columns from a domain Deal.
// Lines and history are written separately by the repository.
func (m *DealModel) FromDomain(d *crm.Deal) {
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	m.Ident = d.Ident
	m.Price = d.Price
	m.Description = d.Description
	m.Status = d.Status
	m.DealDate = d.DealDate
	m.DealTime = nil
	if d.DealTime != nil {
		s := d.DealTime.String()
		m.DealTime = &s
	}
	m.CustomerID = d.CustomerID
	m.SalesPersonID = d.SalesPersonID
}

// DealModelFromDomain creates a new persistence model from a domain Deal
func DealModelFromDomain(d *crm.Deal) *DealModel {
	m := &DealModel{}
	m.FromDomain(d)
	return m
}

// DealProductModel is one product line of a deal.
// A product appears at most once per deal.
type DealProductModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	DealID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Qty        int             `gorm:"not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (DealProductModel) TableName() string {
	return "deal_products"
}

// ToDomain converts the persistence model to a domain DealProduct
func (m *DealProductModel) ToDomain() crm.DealProduct {
	return crm.DealProduct{
		ID:         m.ID,
		DealID:     m.DealID,
		ProductID:  m.ProductID,
		Qty:        m.Qty,
		UnitPrice:  m.UnitPrice,
		TotalPrice: m.TotalPrice,
	}
}

// DealProductModelFromDomain creates a line model owned by the tenant
func DealProductModelFromDomain(tenantID uuid.UUID, l crm.DealProduct) DealProductModel {
	return DealProductModel{
		ID:         l.ID,
		TenantID:   tenantID,
		DealID:     l.DealID,
		ProductID:  l.ProductID,
		Qty:        l.Qty,
		UnitPrice:  l.UnitPrice,
		TotalPrice: l.TotalPrice,
	}
}

// DealStatusModel is one entry of a deal's status history.
// Entries are unique per deal, date and time.
type DealStatusModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID      `gorm:"type:uuid;not null;index"`
	DealID    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Status    crm.DealStatus `gorm:"type:varchar(1);not null"`
	Date      time.Time      `gorm:"type:date;not null"`
	Time      string         `gorm:"type:varchar(8);not null"`
	Comment   string         `gorm:"type:text"`
	CreatedAt time.Time      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DealStatusModel) TableName() string {
	return "deal_statuses"
}

// ToDomain converts the persistence model to a domain DealStatusRecord
func (m *DealStatusModel) ToDomain() crm.DealStatusRecord {
	at, _ := crm.ParseTimeOfDay(m.Time)
	return crm.DealStatusRecord{
		ID:      m.ID,
		DealID:  m.DealID,
		Status:  m.Status,
		Date:    m.Date,
		Time:    at,
		Comment: m.Comment,
	}
}

// DealStatusModelFromDomain creates a history model owned by the tenant
func DealStatusModelFromDomain(tenantID uuid.UUID, r crm.DealStatusRecord) DealStatusModel {
	return DealStatusModel{
		ID:        r.ID,
		TenantID:  tenantID,
		DealID:    r.DealID,
		Status:    r.Status,
		Date:      r.Date,
		Time:      r.Time.String(),
		Comment:   r.Comment,
		CreatedAt: time.Now(),
	}
}

// TodoModel is the persistence model for the Todo aggregate
type TodoModel struct {
	TenantAggregateModel
	SalesPersonID     uuid.UUID      `gorm:"type:uuid;not null;index"`
	Action            crm.TodoAction `gorm:"type:varchar(1);not null"`
	ActionDescription string         `gorm:"type:text"`
	DueAt             time.Time      `gorm:"not null;index"`
	Done              bool           `gorm:"not null;default:false"`
	DoneAt            *time.Time
	RemindedAt        *time.Time
}

// TableName returns the table name for GORM
func (TodoModel) TableName() string {
	return "todos"
}

// ToDomain converts the persistence model to a domain Todo
func (m *TodoModel) ToDomain() *crm.Todo {
	return &crm.Todo{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		SalesPersonID:       m.SalesPersonID,
		Action:              m.Action,
		ActionDescription:   m.ActionDescription,
		DueAt:               m.DueAt,
		Done:                m.Done,
		DoneAt:              m.DoneAt,
		RemindedAt:          m.RemindedAt,
	}
}

// FromDomain populates the persistence model from a domain Todo
func (m *TodoModel) FromDomain(t *crm.Todo) {
	m.FromDomainTenantAggregateRoot(t.TenantAggregateRoot)
	m.SalesPersonID = t.SalesPersonID
	m.Action = t.Action
	m.ActionDescription = t.ActionDescription
	m.DueAt = t.DueAt
	m.Done = t.Done
	m.DoneAt = t.DoneAt
	m.RemindedAt = t.RemindedAt
}

// TodoModelFromDomain creates a new persistence model from a domain Todo
func TodoModelFromDomain(t *crm.Todo) *TodoModel {
	m := &TodoModel{}
	m.FromDomain(t)
	return m
}

// AllModels lists every model in dependency order, for AutoMigrate in tests
func AllModels() []any {
	return []any{
		&TenantModel{},
		&UserModel{},
		&SalesPersonModel{},
		&CustomerModel{},
		&ProductModel{},
		&DealModel{},
		&DealProductModel{},
		&DealStatusModel{},
		&TodoModel{},
	}
}
