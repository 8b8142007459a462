package crm

import (
	"github.com/crm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeSalesPerson = "SalesPerson"
	AggregateTypeCustomer    = "Customer"
	AggregateTypeDeal        = "Deal"
	AggregateTypeTodo        = "Todo"
)

const (
	EventTypeSalesPersonCreated = "SalesPersonCreated"
	EventTypeCustomerCreated    = "CustomerCreated"
	EventTypeDealCreated        = "DealCreated"
	EventTypeDealStatusChanged  = "DealStatusChanged"
	EventTypeTodoCompleted      = "TodoCompleted"
)

// SalesPersonCreatedEvent is published when a user is linked to a new sales person
type SalesPersonCreatedEvent struct {
	shared.BaseDomainEvent
	UserID   string    `json:"user_id"`
	FullName string    `json:"full_name"`
	Role     SalesRole `json:"role"`
}

func NewSalesPersonCreatedEvent(sp *SalesPerson) *SalesPersonCreatedEvent {
	return &SalesPersonCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesPersonCreated, AggregateTypeSalesPerson, sp.ID, sp.TenantID),
		UserID:          sp.UserID.String(),
		FullName:        sp.FullName(),
		Role:            sp.Role,
	}
}

// CustomerCreatedEvent is published when a customer is added
type CustomerCreatedEvent struct {
	shared.BaseDomainEvent
	SalesPersonID string         `json:"sales_person_id"`
	Status        CustomerStatus `json:"status"`
}

func NewCustomerCreatedEvent(c *Customer) *CustomerCreatedEvent {
	return &CustomerCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerCreated, AggregateTypeCustomer, c.ID, c.TenantID),
		SalesPersonID:   c.SalesPersonID.String(),
		Status:          c.Status,
	}
}

// DealCreatedEvent is published when a deal is opened
type DealCreatedEvent struct {
	shared.BaseDomainEvent
	Ident  int64           `json:"ident"`
	Price  decimal.Decimal `json:"price"`
	Status DealStatus      `json:"status"`
}

func NewDealCreatedEvent(d *Deal) *DealCreatedEvent {
	return &DealCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDealCreated, AggregateTypeDeal, d.ID, d.TenantID),
		Ident:           d.Ident,
		Price:           d.Price,
		Status:          d.Status,
	}
}

// DealStatusChangedEvent is published on every status change of a deal
type DealStatusChangedEvent struct {
	shared.BaseDomainEvent
	Ident     int64           `json:"ident"`
	OldStatus DealStatus      `json:"old_status"`
	NewStatus DealStatus      `json:"new_status"`
	Price     decimal.Decimal `json:"price"`
}

func NewDealStatusChangedEvent(d *Deal, old DealStatus) *DealStatusChangedEvent {
	return &DealStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDealStatusChanged, AggregateTypeDeal, d.ID, d.TenantID),
		Ident:           d.Ident,
		OldStatus:       old,
		NewStatus:       d.Status,
		Price:           d.Price,
	}
}

// TodoCompletedEvent is published when a todo is marked done
type TodoCompletedEvent struct {
	shared.BaseDomainEvent
	SalesPersonID string     `json:"sales_person_id"`
	Action        TodoAction `json:"action"`
}

func NewTodoCompletedEvent(t *Todo) *TodoCompletedEvent {
	return &TodoCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTodoCompleted, AggregateTypeTodo, t.ID, t.TenantID),
		SalesPersonID:   t.SalesPersonID.String(),
		Action:          t.Action,
	}
}
