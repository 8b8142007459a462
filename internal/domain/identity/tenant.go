package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
)

// TenantStatus represents the status of a tenant
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusInactive  TenantStatus = "inactive"
	TenantStatusSuspended TenantStatus = "suspended" // Unpaid or blocked by the platform
)

// Languages a tenant can run its UI in
const (
	LangRussian = "ru"
	LangEnglish = "en"

	DefaultLang = LangRussian
)

var supportedLanguages = map[string]bool{
	LangRussian: true,
	LangEnglish: true,
}

// IsSupportedLanguage reports whether lang is a language the CRM is translated to
func IsSupportedLanguage(lang string) bool {
	return supportedLanguages[lang]
}

// Schema names double as the first DNS label of the tenant domain, so they
// follow both the PostgreSQL identifier and the hostname rules.
var schemaNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{1,62}$`)

var reservedSchemaNames = map[string]bool{
	"public":             true,
	"www":                true,
	"api":                true,
	"information_schema": true,
}

// Tenant is a customer organization of the CRM. All CRM records are
// isolated per tenant, and the tenant decides the default UI language.
type Tenant struct {
	shared.BaseAggregateRoot
	SchemaName string
	Name       string
	DomainURL  string
	Lang       string
	Status     TenantStatus
	PaidUntil  *time.Time
	OnTrial    bool
}

// NewTenant creates a tenant whose domain is the schema name prefixed to
// the site domain, e.g. "acme" + "crm.example.com" -> "acme.crm.example.com".
func NewTenant(schemaName, name, siteDomain, lang string) (*Tenant, error) {
	schemaName = strings.ToLower(strings.TrimSpace(schemaName))
	if err := validateSchemaName(schemaName); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validateTenantName(name); err != nil {
		return nil, err
	}
	siteDomain = strings.ToLower(strings.Trim(strings.TrimSpace(siteDomain), "."))
	if siteDomain == "" {
		return nil, shared.NewFieldError("INVALID_SITE_DOMAIN", "domain_url", "Site domain cannot be empty")
	}
	if lang == "" {
		lang = DefaultLang
	}
	if !IsSupportedLanguage(lang) {
		return nil, shared.NewFieldError("INVALID_LANGUAGE", "lang", "Unsupported language: "+lang)
	}

	tenant := &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SchemaName:        schemaName,
		Name:              name,
		DomainURL:         BuildDomainURL(schemaName, siteDomain),
		Lang:              lang,
		Status:            TenantStatusActive,
	}

	tenant.AddDomainEvent(NewTenantCreatedEvent(tenant))

	return tenant, nil
}

// BuildDomainURL joins a schema name and the site domain
func BuildDomainURL(schemaName, siteDomain string) string {
	return schemaName + "." + siteDomain
}

// NormalizeDomain turns a request host into the form stored in DomainURL:
// lower case, no port, no trailing dot.
func NormalizeDomain(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if i := strings.LastIndexByte(host, ':'); i >= 0 && !strings.Contains(host[i:], "]") {
		host = host[:i]
	}
	return strings.TrimSuffix(host, ".")
}

// Rename changes the display name of the tenant
func (t *Tenant) Rename(name string) error {
	name = strings.TrimSpace(name)
	if err := validateTenantName(name); err != nil {
		return err
	}
	t.Name = name
	t.IncrementVersion()
	return nil
}

// SetLanguage changes the default UI language of the tenant
func (t *Tenant) SetLanguage(lang string) error {
	if !IsSupportedLanguage(lang) {
		return shared.NewFieldError("INVALID_LANGUAGE", "lang", "Unsupported language: "+lang)
	}
	if t.Lang == lang {
		return nil
	}
	old := t.Lang
	t.Lang = lang
	t.IncrementVersion()
	t.AddDomainEvent(NewTenantLanguageChangedEvent(t, old))
	return nil
}

// Activate makes the tenant usable again
func (t *Tenant) Activate() error {
	return t.changeStatus(TenantStatusActive)
}

// Deactivate disables the tenant
func (t *Tenant) Deactivate() error {
	return t.changeStatus(TenantStatusInactive)
}

// Suspend blocks the tenant until it is activated again
func (t *Tenant) Suspend() error {
	return t.changeStatus(TenantStatusSuspended)
}

func (t *Tenant) changeStatus(status TenantStatus) error {
	if t.Status == status {
		return shared.NewDomainError("INVALID_STATE", "Tenant is already "+string(status))
	}
	old := t.Status
	t.Status = status
	t.IncrementVersion()
	t.AddDomainEvent(NewTenantStatusChangedEvent(t, old))
	return nil
}

// StartTrial marks the tenant as trialling until the given date
func (t *Tenant) StartTrial(until time.Time) {
	t.OnTrial = true
	t.PaidUntil = &until
	t.IncrementVersion()
}

// ExtendPaidUntil records a payment covering the tenant until the given date
func (t *Tenant) ExtendPaidUntil(until time.Time) {
	t.OnTrial = false
	t.PaidUntil = &until
	t.IncrementVersion()
}

// IsActive returns true when users of the tenant may log in
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// IsPaidAt reports whether the tenant is covered by payment or trial at the given time
func (t *Tenant) IsPaidAt(at time.Time) bool {
	return t.PaidUntil == nil || !at.After(*t.PaidUntil)
}

func validateSchemaName(name string) error {
	if name == "" {
		return shared.NewFieldError("INVALID_SCHEMA_NAME", "schema_name", "Schema name cannot be empty")
	}
	if !schemaNamePattern.MatchString(name) {
		return shared.NewFieldError("INVALID_SCHEMA_NAME", "schema_name",
			"Schema name must start with a letter and contain only lowercase letters, digits and underscores (2-63 characters)")
	}
	if reservedSchemaNames[name] {
		return shared.NewFieldError("INVALID_SCHEMA_NAME", "schema_name", "Schema name is reserved: "+name)
	}
	return nil
}

func validateTenantName(name string) error {
	if name == "" {
		return shared.NewFieldError("INVALID_TENANT_NAME", "name", "Tenant name cannot be empty")
	}
	if len([]rune(name)) > 100 {
		return shared.NewFieldError("INVALID_TENANT_NAME", "name", "Tenant name cannot exceed 100 characters")
	}
	return nil
}
