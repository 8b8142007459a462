package identity

import (
	"github.com/crm/backend/internal/domain/shared"
)

// AggregateTypeTenant is the aggregate type of tenant events
const AggregateTypeTenant = "Tenant"

const (
	EventTypeTenantCreated         = "TenantCreated"
	EventTypeTenantStatusChanged   = "TenantStatusChanged"
	EventTypeTenantLanguageChanged = "TenantLanguageChanged"
)

// TenantCreatedEvent is published when a new tenant is provisioned
type TenantCreatedEvent struct {
	shared.BaseDomainEvent
	SchemaName string `json:"schema_name"`
	Name       string `json:"name"`
	DomainURL  string `json:"domain_url"`
	Lang       string `json:"lang"`
}

// NewTenantCreatedEvent creates a TenantCreatedEvent
func NewTenantCreatedEvent(t *Tenant) *TenantCreatedEvent {
	return &TenantCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantCreated, AggregateTypeTenant, t.ID, t.ID),
		SchemaName:      t.SchemaName,
		Name:            t.Name,
		DomainURL:       t.DomainURL,
		Lang:            t.Lang,
	}
}

// TenantStatusChangedEvent is published when a tenant is activated, deactivated or suspended
type TenantStatusChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus TenantStatus `json:"old_status"`
	NewStatus TenantStatus `json:"new_status"`
}

// NewTenantStatusChangedEvent creates a TenantStatusChangedEvent
func NewTenantStatusChangedEvent(t *Tenant, old TenantStatus) *TenantStatusChangedEvent {
	return &TenantStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantStatusChanged, AggregateTypeTenant, t.ID, t.ID),
		OldStatus:       old,
		NewStatus:       t.Status,
	}
}

// TenantLanguageChangedEvent is published when the tenant language changes.
// Caches keyed by tenant language listen to it.
type TenantLanguageChangedEvent struct {
	shared.BaseDomainEvent
	OldLang string `json:"old_lang"`
	NewLang string `json:"new_lang"`
}

// NewTenantLanguageChangedEvent creates a TenantLanguageChangedEvent
func NewTenantLanguageChangedEvent(t *Tenant, old string) *TenantLanguageChangedEvent {
	return &TenantLanguageChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantLanguageChanged, AggregateTypeTenant, t.ID, t.ID),
		OldLang:         old,
		NewLang:         t.Lang,
	}
}
