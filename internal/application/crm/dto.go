package crm

import (
	"time"

	identityapp "github.com/crm/backend/internal/application/identity"
	"github.com/crm/backend/internal/domain/crm"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// Choice is a coded value with its label in the request language
type Choice struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// ListResult is a page of records with the placeholder shown for an empty list
type ListResult[T any] struct {
	shared.Paginated[T]
	EmptyText string `json:"empty_text,omitempty"`
}

// ---------------------------------------------------------------------------
// Sales people
// ---------------------------------------------------------------------------

// CreateSalesPersonRequest links an existing user to a new sales person
type CreateSalesPersonRequest struct {
	UserID       uuid.UUID `json:"user_id" binding:"required"`
	FirstName    string    `json:"first_name" binding:"required,max=100"`
	SecondName   string    `json:"second_name" binding:"required,max=100"`
	PhoneNumber  string    `json:"phone_number" binding:"max=15"`
	MobileNumber string    `json:"mobile_number" binding:"max=15"`
	Division     string    `json:"division" binding:"max=50"`
	Role         string    `json:"role" binding:"omitempty,oneof=M H D A"`
	Lang         string    `json:"lang" binding:"max=10"`
}

// UpdateSalesPersonRequest replaces the editable fields of a sales person
type UpdateSalesPersonRequest struct {
	FirstName    string `json:"first_name" binding:"required,max=100"`
	SecondName   string `json:"second_name" binding:"required,max=100"`
	PhoneNumber  string `json:"phone_number" binding:"max=15"`
	MobileNumber string `json:"mobile_number" binding:"max=15"`
	Division     string `json:"division" binding:"max=50"`
	Role         string `json:"role" binding:"omitempty,oneof=M H D A"`
	Lang         string `json:"lang" binding:"max=10"`
}

// SalesPersonListFilter filters the sales person list
type SalesPersonListFilter struct {
	shared.Filter
	Role     string
	Division string
}

// SalesPersonResponse represents a sales person in API responses
type SalesPersonResponse struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	FirstName    string    `json:"first_name"`
	SecondName   string    `json:"second_name"`
	FullName     string    `json:"full_name"`
	PhoneNumber  string    `json:"phone_number"`
	MobileNumber string    `json:"mobile_number"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Division     string    `json:"division"`
	Role         Choice    `json:"role"`
	Lang         string    `json:"lang"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      int       `json:"version"`
}

// SalesPersonCard is the sales person with its labelled display fields
type SalesPersonCard struct {
	ID        uuid.UUID             `json:"id"`
	FullName  string                `json:"full_name"`
	AvatarURL string                `json:"avatar_url,omitempty"`
	Fields    []identityapp.CardRow `json:"fields"`
}

// ---------------------------------------------------------------------------
// Customers
// ---------------------------------------------------------------------------

// CustomerRequest carries the editable fields of a customer
type CustomerRequest struct {
	FirstName     string    `json:"first_name" binding:"required,max=100"`
	SecondName    string    `json:"second_name" binding:"required,max=100"`
	PhoneNumber   string    `json:"phone_number" binding:"max=15"`
	MobileNumber  string    `json:"mobile_number" binding:"max=15"`
	SalesPersonID uuid.UUID `json:"sales_person_id"`
	Company       string    `json:"company" binding:"max=50"`
	Position      string    `json:"position" binding:"max=50"`
	Email         string    `json:"email" binding:"omitempty,email,max=80"`
	BirthDate     string    `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
	Status        string    `json:"status" binding:"required,oneof=C V I N O"`
	Comment       string    `json:"comment"`
}

// CustomerListFilter filters the customer list
type CustomerListFilter struct {
	shared.Filter
	SalesPersonID *uuid.UUID
	Status        string
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID            uuid.UUID `json:"id"`
	FirstName     string    `json:"first_name"`
	SecondName    string    `json:"second_name"`
	FullName      string    `json:"full_name"`
	PhoneNumber   string    `json:"phone_number"`
	MobileNumber  string    `json:"mobile_number"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	SalesPersonID uuid.UUID `json:"sales_person_id"`
	Company       string    `json:"company"`
	Position      string    `json:"position"`
	Email         string    `json:"email"`
	BirthDate     string    `json:"birth_date,omitempty"`
	Status        Choice    `json:"status"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Version       int       `json:"version"`
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// ProductRequest carries the fields of a product
type ProductRequest struct {
	SKU         int64           `json:"sku" binding:"required,min=1"`
	Description string          `json:"description" binding:"required,max=200"`
	Price       decimal.Decimal `json:"price"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	SKU         int64           `json:"sku"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Version     int             `json:"version"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *crm.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		SKU:         p.SKU,
		Description: p.Description,
		Price:       p.Price,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Version:     p.Version,
	}
}

// ---------------------------------------------------------------------------
// Deals
// ---------------------------------------------------------------------------

// DealRequest carries the editable fields of a deal
type DealRequest struct {
	Ident         int64           `json:"ident" binding:"required,min=1"`
	Price         decimal.Decimal `json:"price"`
	Description   string          `json:"description" binding:"required"`
	Status        string          `json:"status" binding:"omitempty,oneof=E D H S P O A"`
	DealDate      string          `json:"deal_date" binding:"required,datetime=2006-01-02"`
	DealTime      string          `json:"deal_time"`
	CustomerID    *uuid.UUID      `json:"customer_id"`
	SalesPersonID uuid.UUID       `json:"sales_person_id"`
}

// AddDealProductRequest adds a product line to a deal
type AddDealProductRequest struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Qty       int              `json:"qty" binding:"required,min=1"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// ChangeDealStatusRequest moves a deal to a new status
type ChangeDealStatusRequest struct {
	Status  string `json:"status" binding:"required,oneof=E D H S P O A"`
	Date    string `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Time    string `json:"time"`
	Comment string `json:"comment"`
}

// DealListFilter filters the deal list
type DealListFilter struct {
	shared.Filter
	SalesPersonID *uuid.UUID
	CustomerID    *uuid.UUID
	Status        string
	DateFrom      *time.Time
	DateTo        *time.Time
}

// DealProductResponse is a product line of a deal
type DealProductResponse struct {
	ID         uuid.UUID       `json:"id"`
	ProductID  uuid.UUID       `json:"product_id"`
	Qty        int             `json:"qty"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// DealStatusResponse is an entry of the deal status history
type DealStatusResponse struct {
	ID      uuid.UUID `json:"id"`
	Status  Choice    `json:"status"`
	Date    string    `json:"date"`
	Time    string    `json:"time"`
	Comment string    `json:"comment"`
}

// DealResponse represents a deal in API responses
type DealResponse struct {
	ID            uuid.UUID             `json:"id"`
	Ident         int64                 `json:"ident"`
	Price         decimal.Decimal       `json:"price"`
	Description   string                `json:"description"`
	Status        Choice                `json:"status"`
	DealDate      string                `json:"deal_date"`
	DealTime      string                `json:"deal_time,omitempty"`
	FormattedDate string                `json:"formatted_date"`
	FormattedTime string                `json:"formatted_time,omitempty"`
	CustomerID    *uuid.UUID            `json:"customer_id"`
	SalesPersonID uuid.UUID             `json:"sales_person_id"`
	Products      []DealProductResponse `json:"products"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	Version       int                   `json:"version"`
}

// ---------------------------------------------------------------------------
// Todos
// ---------------------------------------------------------------------------

// TodoRequest carries the editable fields of a todo
type TodoRequest struct {
	SalesPersonID     uuid.UUID `json:"sales_person_id"`
	Action            string    `json:"action" binding:"required,oneof=E P L S O"`
	ActionDescription string    `json:"action_description" binding:"required"`
	DueAt             time.Time `json:"due_at" binding:"required"`
}

// TodoListFilter filters the todo list
type TodoListFilter struct {
	shared.Filter
	SalesPersonID *uuid.UUID
	Action        string
	Done          *bool
	DueFrom       *time.Time
	DueTo         *time.Time
}

// TodoResponse represents a todo in API responses
type TodoResponse struct {
	ID                uuid.UUID  `json:"id"`
	SalesPersonID     uuid.UUID  `json:"sales_person_id"`
	Action            Choice     `json:"action"`
	ActionDescription string     `json:"action_description"`
	DueAt             time.Time  `json:"due_at"`
	Done              bool       `json:"done"`
	DoneAt            *time.Time `json:"done_at,omitempty"`
	RemindedAt        *time.Time `json:"reminded_at,omitempty"`
	Overdue           bool       `json:"overdue"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	Version           int        `json:"version"`
}
