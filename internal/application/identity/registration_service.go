package identity

import (
	"context"
	"fmt"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/crm/backend/internal/infrastructure/notification"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RegistrationService signs users up and activates their accounts
type RegistrationService struct {
	userRepo       identity.UserRepository
	tenantRepo     identity.TenantRepository
	mailer         notification.Mailer
	translator     *i18n.Translator
	eventPublisher shared.EventPublisher
	activationURL  string // fmt pattern, %s is the activation key
	logger         *zap.Logger
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(
	userRepo identity.UserRepository,
	tenantRepo identity.TenantRepository,
	mailer notification.Mailer,
	translator *i18n.Translator,
	eventPublisher shared.EventPublisher,
	activationURL string,
	logger *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		userRepo:       userRepo,
		tenantRepo:     tenantRepo,
		mailer:         mailer,
		translator:     translator,
		eventPublisher: eventPublisher,
		activationURL:  activationURL,
		logger:         logger,
	}
}

// RegisterPage returns the registration form labels in the tenant language
func (s *RegistrationService) RegisterPage(ctx context.Context, tenantID uuid.UUID) (*FormPage, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	lang := s.translator.Normalize(tenant.Lang)
	return &FormPage{
		Lang:   lang,
		Labels: s.translator.Section(lang, "page.register."),
	}, nil
}

// Register creates a pending user and mails the activation link in the
// tenant language. A failed mail does not undo the registration.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (result *RegisterResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "RegistrationService", "Register", telemetry.TenantAttr(input.TenantID))
	defer func() { telemetry.EndSpan(span, err) }()

	tenant, err := s.tenantRepo.FindByID(ctx, input.TenantID)
	if err != nil {
		return nil, shared.NewDomainError("TENANT_NOT_FOUND", "Tenant not found")
	}
	if !tenant.IsActive() {
		return nil, shared.NewDomainError("TENANT_INACTIVE", "Tenant is not active")
	}

	if input.Password1 != input.Password2 {
		return nil, shared.NewFieldError("PASSWORD_MISMATCH", "password2", "The two password fields didn't match")
	}

	user, err := identity.NewUser(input.TenantID, input.Username, input.Email, input.Password1)
	if err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, input.TenantID, user.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewFieldError("USERNAME_TAKEN", "username", "A user with that username already exists")
	}
	exists, err = s.userRepo.ExistsByEmail(ctx, input.TenantID, user.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewFieldError("EMAIL_TAKEN", "email", "A user with that email already exists")
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, err
	}

	s.logger.Info("User registered",
		zap.String("tenant_id", input.TenantID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))

	mailSent := s.sendActivationMail(ctx, tenant, user)
	s.publish(ctx, user)

	return &RegisterResult{
		UserID:             user.ID,
		Username:           user.Username,
		Email:              user.Email,
		Status:             string(user.Status),
		ActivationMailSent: mailSent,
	}, nil
}

// Activate consumes an activation key
func (s *RegistrationService) Activate(ctx context.Context, key string) (*UserDTO, error) {
	if key == "" {
		return nil, shared.NewDomainError("INVALID_ACTIVATION_KEY", "Activation key is invalid")
	}
	user, err := s.userRepo.FindByActivationKey(ctx, key)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError("INVALID_ACTIVATION_KEY", "Activation key is invalid")
		}
		return nil, err
	}

	if err := user.Activate(key); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to activate user", zap.Error(err))
		return nil, err
	}

	s.logger.Info("User activated",
		zap.String("tenant_id", user.TenantID.String()),
		zap.String("user_id", user.ID.String()))
	s.publish(ctx, user)

	dto := ToUserDTO(user)
	return &dto, nil
}

func (s *RegistrationService) sendActivationMail(ctx context.Context, tenant *identity.Tenant, user *identity.User) bool {
	lang := s.translator.Normalize(tenant.Lang)
	link := fmt.Sprintf(s.activationURL, user.ActivationKey)

	err := s.mailer.Send(ctx, notification.Email{
		ToName:    user.Username,
		ToAddress: user.Email,
		Subject:   s.translator.T(lang, "mail.activation.subject", tenant.Name),
		Text:      s.translator.T(lang, "mail.activation.body", user.Username, link),
	})
	if err != nil {
		s.logger.Error("Failed to send activation mail",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		return false
	}
	return true
}

func (s *RegistrationService) publish(ctx context.Context, user *identity.User) {
	events := user.GetDomainEvents()
	user.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish user events", zap.Error(err))
	}
}
