package identity

import (
	"context"
	"errors"
	"time"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/cache"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultTenantCacheTTL = 10 * time.Minute

// TenantService handles tenant management operations and the tenant
// lookups done on every request
type TenantService struct {
	tenantRepo     identity.TenantRepository
	userRepo       identity.UserRepository
	cache          cache.TenantCache
	eventPublisher shared.EventPublisher
	siteDomain     string
	cacheTTL       time.Duration
	logger         *zap.Logger
}

// NewTenantService creates a new tenant service
func NewTenantService(
	tenantRepo identity.TenantRepository,
	userRepo identity.UserRepository,
	tenantCache cache.TenantCache,
	eventPublisher shared.EventPublisher,
	siteDomain string,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *TenantService {
	if cacheTTL <= 0 {
		cacheTTL = defaultTenantCacheTTL
	}
	return &TenantService{
		tenantRepo:     tenantRepo,
		userRepo:       userRepo,
		cache:          tenantCache,
		eventPublisher: eventPublisher,
		siteDomain:     siteDomain,
		cacheTTL:       cacheTTL,
		logger:         logger,
	}
}

// CreateTenantInput contains input for creating a tenant
type CreateTenantInput struct {
	SchemaName string
	Name       string
	Lang       string
	SiteDomain string // defaults to the configured site domain
	TrialDays  int    // If > 0, creates a trial tenant
	// Admin, when set, is created with the tenant as its first administrator
	Admin *AdminAccountInput
}

// AdminAccountInput describes an administrator account
type AdminAccountInput struct {
	Username string
	Email    string
	Password string
}

// TenantDTO represents tenant data transfer object
type TenantDTO struct {
	ID         uuid.UUID  `json:"id"`
	SchemaName string     `json:"schema_name"`
	Name       string     `json:"name"`
	DomainURL  string     `json:"domain_url"`
	Lang       string     `json:"lang"`
	Status     string     `json:"status"`
	PaidUntil  *time.Time `json:"paid_until,omitempty"`
	OnTrial    bool       `json:"on_trial"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Admin      *UserDTO   `json:"admin,omitempty"`
}

// ToTenantDTO converts a domain tenant
func ToTenantDTO(t *identity.Tenant) TenantDTO {
	return TenantDTO{
		ID:         t.ID,
		SchemaName: t.SchemaName,
		Name:       t.Name,
		DomainURL:  t.DomainURL,
		Lang:       t.Lang,
		Status:     string(t.Status),
		PaidUntil:  t.PaidUntil,
		OnTrial:    t.OnTrial,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

// Create provisions a tenant at <schema>.<site domain>. Every failure comes
// back as TENANT_CREATE_FAILED, carrying the offending field when known.
func (s *TenantService) Create(ctx context.Context, input CreateTenantInput) (*TenantDTO, error) {
	siteDomain := input.SiteDomain
	if siteDomain == "" {
		siteDomain = s.siteDomain
	}

	tenant, err := identity.NewTenant(input.SchemaName, input.Name, siteDomain, input.Lang)
	if err != nil {
		return nil, s.createFailed(err)
	}
	if input.TrialDays > 0 {
		tenant.StartTrial(time.Now().AddDate(0, 0, input.TrialDays))
	}

	exists, err := s.tenantRepo.ExistsBySchemaName(ctx, tenant.SchemaName)
	if err != nil {
		return nil, s.createFailed(err)
	}
	if exists {
		return nil, s.createFailed(shared.NewFieldError("SCHEMA_NAME_TAKEN", "schema_name", "Tenant with this schema name already exists"))
	}
	exists, err = s.tenantRepo.ExistsByDomain(ctx, tenant.DomainURL)
	if err != nil {
		return nil, s.createFailed(err)
	}
	if exists {
		return nil, s.createFailed(shared.NewFieldError("DOMAIN_TAKEN", "domain_url", "Tenant with this domain already exists"))
	}

	var admin *identity.User
	if input.Admin != nil {
		admin, err = identity.NewTenantAdmin(tenant.ID, input.Admin.Username, input.Admin.Email, input.Admin.Password)
		if err != nil {
			return nil, s.createFailed(adminFieldError(err))
		}
		err = s.tenantRepo.CreateWithAdmin(ctx, tenant, admin)
	} else {
		err = s.tenantRepo.Create(ctx, tenant)
	}
	if err != nil {
		return nil, s.createFailed(err)
	}

	s.logger.Info("Tenant created",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("schema_name", tenant.SchemaName),
		zap.String("domain_url", tenant.DomainURL),
		zap.String("lang", tenant.Lang),
		zap.Bool("with_admin", admin != nil))
	s.publish(ctx, tenant)

	dto := ToTenantDTO(tenant)
	if admin != nil {
		s.publish(ctx, admin)
		adminDTO := ToUserDTO(admin)
		dto.Admin = &adminDTO
	}
	return &dto, nil
}

// CreateAdmin adds an active administrator to an existing tenant
func (s *TenantService) CreateAdmin(ctx context.Context, tenantID uuid.UUID, input AdminAccountInput) (*UserDTO, error) {
	if _, err := s.tenantRepo.FindByID(ctx, tenantID); err != nil {
		return nil, err
	}

	admin, err := identity.NewTenantAdmin(tenantID, input.Username, input.Email, input.Password)
	if err != nil {
		return nil, err
	}
	exists, err := s.userRepo.ExistsByUsername(ctx, tenantID, admin.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewFieldError("USERNAME_TAKEN", "username", "A user with that username already exists")
	}
	exists, err = s.userRepo.ExistsByEmail(ctx, tenantID, admin.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewFieldError("EMAIL_TAKEN", "email", "A user with that email already exists")
	}

	if err := s.userRepo.Create(ctx, admin); err != nil {
		s.logger.Error("Failed to create tenant administrator", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Tenant administrator created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", admin.ID.String()),
		zap.String("username", admin.Username))
	s.publish(ctx, admin)

	dto := ToUserDTO(admin)
	return &dto, nil
}

// adminFieldError moves a user validation error under the admin object
func adminFieldError(err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) && de.Field != "" {
		return shared.NewFieldError(de.Code, "admin."+de.Field, de.Message)
	}
	return err
}

// createFailed wraps err into the generic creation error. The cause keeps
// its field and message so the caller can show details.
func (s *TenantService) createFailed(err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		s.logger.Warn("Tenant creation rejected", zap.String("code", de.Code), zap.String("field", de.Field))
		return shared.NewFieldError("TENANT_CREATE_FAILED", de.Field, de.Message)
	}
	s.logger.Error("Tenant creation failed", zap.Error(err))
	return shared.NewDomainError("TENANT_CREATE_FAILED", "Something went wrong")
}

// Get returns a tenant by ID
func (s *TenantService) Get(ctx context.Context, id uuid.UUID) (*TenantDTO, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToTenantDTO(tenant)
	return &dto, nil
}

// List returns a page of tenants
func (s *TenantService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[TenantDTO], error) {
	filter = filter.Normalize()
	tenants, total, err := s.tenantRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]TenantDTO, len(tenants))
	for i, t := range tenants {
		items[i] = ToTenantDTO(t)
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// ResolveByDomain finds the tenant serving a request host. Lookups are
// cached under both the tenant id and its domain.
func (s *TenantService) ResolveByDomain(ctx context.Context, host string) (*cache.TenantInfo, error) {
	domain := identity.NormalizeDomain(host)
	if domain == "" {
		return nil, shared.NewDomainError("TENANT_NOT_FOUND", "Tenant not found")
	}
	if info, err := s.cache.GetByDomain(ctx, domain); err == nil {
		return info, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Tenant cache lookup failed", zap.String("domain", domain), zap.Error(err))
	}

	tenant, err := s.tenantRepo.FindByDomain(ctx, domain)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError("TENANT_NOT_FOUND", "Tenant not found")
		}
		return nil, err
	}
	return s.remember(ctx, tenant), nil
}

// ResolveByID returns the cached tenant projection for id
func (s *TenantService) ResolveByID(ctx context.Context, id uuid.UUID) (*cache.TenantInfo, error) {
	if info, err := s.cache.GetByID(ctx, id); err == nil {
		return info, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Tenant cache lookup failed", zap.String("tenant_id", id.String()), zap.Error(err))
	}

	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError("TENANT_NOT_FOUND", "Tenant not found")
		}
		return nil, err
	}
	return s.remember(ctx, tenant), nil
}

// Language returns the UI language of the tenant
func (s *TenantService) Language(ctx context.Context, tenantID uuid.UUID) (string, error) {
	info, err := s.ResolveByID(ctx, tenantID)
	if err != nil {
		return "", err
	}
	return info.Lang, nil
}

// SetLanguage changes the default language of the tenant
func (s *TenantService) SetLanguage(ctx context.Context, id uuid.UUID, lang string) (*TenantDTO, error) {
	return s.modify(ctx, id, func(t *identity.Tenant) error {
		return t.SetLanguage(lang)
	})
}

// ChangeStatus activates, deactivates or suspends a tenant
func (s *TenantService) ChangeStatus(ctx context.Context, id uuid.UUID, status identity.TenantStatus) (*TenantDTO, error) {
	return s.modify(ctx, id, func(t *identity.Tenant) error {
		switch status {
		case identity.TenantStatusActive:
			return t.Activate()
		case identity.TenantStatusInactive:
			return t.Deactivate()
		case identity.TenantStatusSuspended:
			return t.Suspend()
		}
		return shared.NewFieldError("INVALID_STATUS", "status", "Unknown tenant status: "+string(status))
	})
}

func (s *TenantService) modify(ctx context.Context, id uuid.UUID, change func(*identity.Tenant) error) (*TenantDTO, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := change(tenant); err != nil {
		return nil, err
	}
	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		return nil, err
	}
	// Cache invalidation also runs from the published events; dropping the
	// entry here keeps this instance consistent without a bus.
	if err := s.cache.Invalidate(ctx, cache.TenantInfoFromDomain(tenant)); err != nil {
		s.logger.Warn("Failed to invalidate tenant cache", zap.Error(err))
	}
	s.publish(ctx, tenant)

	dto := ToTenantDTO(tenant)
	return &dto, nil
}

func (s *TenantService) remember(ctx context.Context, tenant *identity.Tenant) *cache.TenantInfo {
	info := cache.TenantInfoFromDomain(tenant)
	if err := s.cache.Set(ctx, info, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache tenant", zap.String("tenant_id", tenant.ID.String()), zap.Error(err))
	}
	return info
}

func (s *TenantService) publish(ctx context.Context, aggregate shared.AggregateRoot) {
	events := aggregate.GetDomainEvents()
	aggregate.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish tenant events", zap.Error(err))
	}
}
