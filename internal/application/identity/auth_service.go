package identity

import (
	"context"
	"errors"
	"time"

	"github.com/crm/backend/internal/domain/crm"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int           // Maximum failed login attempts before lock
	LockDuration     time.Duration // How long to lock account after max attempts
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

// LoginMetrics counts login attempts by result
type LoginMetrics interface {
	RecordLogin(ctx context.Context, result string)
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo        identity.UserRepository
	tenantRepo      identity.TenantRepository
	salesPersonRepo crm.SalesPersonRepository
	jwtService      *auth.JWTService
	blacklist       auth.TokenBlacklist
	translator      *i18n.Translator
	metrics         LoginMetrics
	config          AuthServiceConfig
	logger          *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	tenantRepo identity.TenantRepository,
	salesPersonRepo crm.SalesPersonRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	translator *i18n.Translator,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		tenantRepo:      tenantRepo,
		salesPersonRepo: salesPersonRepo,
		jwtService:      jwtService,
		blacklist:       blacklist,
		translator:      translator,
		config:          config,
		logger:          logger,
	}
}

// WithMetrics sets the login counter
func (s *AuthService) WithMetrics(metrics LoginMetrics) *AuthService {
	s.metrics = metrics
	return s
}

// LoginPage returns the login form labels in the tenant language
func (s *AuthService) LoginPage(ctx context.Context, tenantID uuid.UUID) (*FormPage, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	lang := s.translator.Normalize(tenant.Lang)
	return &FormPage{
		Lang:   lang,
		Labels: s.translator.Section(lang, "page.login."),
	}, nil
}

// Login authenticates a user of the tenant and returns tokens.
// A user that is neither an administrator nor linked to a sales person is
// turned away after the password check and gets no token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (result *LoginResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "AuthService", "Login", telemetry.TenantAttr(input.TenantID))
	defer func() { telemetry.EndSpan(span, err) }()

	s.logger.Info("Login attempt",
		zap.String("tenant_id", input.TenantID.String()),
		zap.String("username", input.Username))

	tenant, err := s.tenantRepo.FindByID(ctx, input.TenantID)
	if err != nil {
		s.recordLogin(ctx, telemetry.LoginFailed)
		return nil, shared.NewDomainError("TENANT_NOT_FOUND", "Tenant not found")
	}
	if !tenant.IsActive() {
		s.recordLogin(ctx, telemetry.LoginAccountBlocked)
		return nil, shared.NewDomainError("TENANT_INACTIVE", "Tenant is not active")
	}

	user, err := s.userRepo.FindByUsername(ctx, input.TenantID, input.Username)
	if err != nil {
		s.logger.Warn("User not found during login", zap.String("username", input.Username))
		s.recordLogin(ctx, telemetry.LoginFailed)
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	}

	// Check if user can login
	if !user.CanLogin() {
		s.recordLogin(ctx, telemetry.LoginAccountBlocked)
		switch {
		case user.IsLocked():
			s.logger.Warn("Login attempt for locked account", zap.String("username", input.Username))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Please try again later")
		case user.IsDeactivated():
			s.logger.Warn("Login attempt for deactivated account", zap.String("username", input.Username))
			return nil, shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
		case user.IsPending():
			s.logger.Warn("Login attempt for pending account", zap.String("username", input.Username))
			return nil, shared.NewDomainError("ACCOUNT_PENDING", "Account is pending activation")
		}
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is not active")
	}

	if !user.VerifyPassword(input.Password) {
		locked := user.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.userRepo.Update(ctx, user); err != nil {
			s.logger.Error("Failed to update user after login failure", zap.Error(err))
		}
		s.recordLogin(ctx, telemetry.LoginFailed)

		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("username", input.Username),
				zap.Int("attempts", s.config.MaxLoginAttempts))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
		}

		s.logger.Warn("Invalid password attempt",
			zap.String("username", input.Username),
			zap.Int("failed_attempts", user.FailedAttempts))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	}

	lang := s.translator.Normalize(tenant.Lang)
	salesPerson, err := s.linkedSalesPerson(ctx, user)
	if err != nil {
		return nil, err
	}
	if salesPerson == nil && !user.IsAdmin {
		s.logger.Warn("Login rejected: user has no sales person record",
			zap.String("username", input.Username),
			zap.String("user_id", user.ID.String()))
		s.recordLogin(ctx, telemetry.LoginNoSalesPerson)
		return nil, s.salesPersonRequired(lang)
	}
	if salesPerson != nil && s.translator.Supported(salesPerson.Lang) {
		lang = salesPerson.Lang
	}

	tokenPair, err := s.jwtService.GenerateTokenPair(tokenInput(user, salesPerson, lang))
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	user.RecordLoginSuccess(input.IP)
	if err := s.userRepo.Update(ctx, user); err != nil {
		// The tokens are valid regardless
		s.logger.Error("Failed to update user after successful login", zap.Error(err))
	}
	s.recordLogin(ctx, telemetry.LoginSuccess)

	s.logger.Info("User logged in successfully",
		zap.String("username", input.Username),
		zap.String("user_id", user.ID.String()))

	return &LoginResult{
		AccessToken:           tokenPair.AccessToken,
		RefreshToken:          tokenPair.RefreshToken,
		AccessTokenExpiresAt:  tokenPair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: tokenPair.RefreshTokenExpiresAt,
		TokenType:             tokenPair.TokenType,
		User:                  toUserInfo(user, salesPerson, lang),
	}, nil
}

// RefreshToken exchanges a refresh token for a new pair. The user must
// still be allowed in, and the used refresh token is revoked.
func (s *AuthService) RefreshToken(ctx context.Context, input RefreshTokenInput) (*RefreshTokenResult, error) {
	refreshClaims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, mapTokenError(err)
	}
	if err := s.checkRevoked(ctx, refreshClaims); err != nil {
		return nil, err
	}

	tenantID, err := refreshClaims.GetTenantUUID()
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid tenant ID in token")
	}
	userID, err := refreshClaims.GetUserUUID()
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid user ID in token")
	}

	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil || !tenant.IsActive() {
		return nil, shared.NewDomainError("TENANT_INACTIVE", "Tenant is not active")
	}
	user, err := s.userRepo.FindByID(ctx, tenantID, userID)
	if err != nil {
		s.logger.Warn("User not found during token refresh", zap.String("user_id", userID.String()))
		return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}
	if !user.CanLogin() {
		s.logger.Warn("Token refresh for inactive user", zap.String("user_id", userID.String()))
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is no longer active")
	}

	lang := s.translator.Normalize(tenant.Lang)
	salesPerson, err := s.linkedSalesPerson(ctx, user)
	if err != nil {
		return nil, err
	}
	if salesPerson == nil && !user.IsAdmin {
		return nil, s.salesPersonRequired(lang)
	}
	if salesPerson != nil && s.translator.Supported(salesPerson.Lang) {
		lang = salesPerson.Lang
	}

	tokenPair, err := s.jwtService.RefreshTokenPair(refreshClaims, tokenInput(user, salesPerson, lang))
	if err != nil {
		s.logger.Warn("Token refresh failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	if err := s.blacklist.AddToBlacklist(ctx, refreshClaims.ID, refreshClaims.GetRemainingTTL()); err != nil {
		s.logger.Error("Failed to revoke used refresh token", zap.Error(err))
	}

	s.logger.Info("Token refreshed successfully", zap.String("user_id", userID.String()))

	return &RefreshTokenResult{
		AccessToken:           tokenPair.AccessToken,
		RefreshToken:          tokenPair.RefreshToken,
		AccessTokenExpiresAt:  tokenPair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: tokenPair.RefreshTokenExpiresAt,
		TokenType:             tokenPair.TokenType,
	}, nil
}

// Logout revokes the access token in use until it expires, and the refresh
// token when the client sends it along
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	s.logger.Info("User logout",
		zap.String("user_id", input.UserID.String()),
		zap.String("tenant_id", input.TenantID.String()))

	if input.TokenJTI != "" && input.TokenTTL > 0 {
		if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, input.TokenTTL); err != nil {
			s.logger.Error("Failed to blacklist access token", zap.Error(err))
			return shared.NewDomainError("INTERNAL_ERROR", "Failed to log out")
		}
	}

	if input.RefreshToken != "" {
		claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
		if err != nil {
			// Already unusable
			return nil
		}
		if claims.UserID != input.UserID.String() {
			return shared.NewDomainError("TOKEN_INVALID", "Refresh token belongs to another user")
		}
		if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
			s.logger.Error("Failed to blacklist refresh token", zap.Error(err))
			return shared.NewDomainError("INTERNAL_ERROR", "Failed to log out")
		}
	}
	return nil
}

// Me returns the current user and the localized card of their sales person
func (s *AuthService) Me(ctx context.Context, input MeInput) (*MeResult, error) {
	user, err := s.userRepo.FindByID(ctx, input.TenantID, input.UserID)
	if err != nil {
		return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}
	salesPerson, err := s.linkedSalesPerson(ctx, user)
	if err != nil {
		return nil, err
	}

	lang := s.translator.Normalize(input.Lang)
	result := &MeResult{User: toUserInfo(user, salesPerson, lang)}
	if salesPerson != nil {
		result.Card = LocalizeCard(s.translator, lang, salesPerson.Card(user.Email, user.Username))
	}
	return result, nil
}

// LocalizeCard attaches verbose names to card rows and translates the choice values
func LocalizeCard(tr *i18n.Translator, lang string, fields []crm.CardField) []CardRow {
	rows := make([]CardRow, 0, len(fields))
	for _, f := range fields {
		value := f.Value
		switch f.Name {
		case "role":
			if value != "" {
				value = tr.T(lang, crm.SalesRole(value).LabelKey())
			}
		case "lang":
			if value != "" && tr.Has("lang."+value) {
				value = tr.T(lang, "lang."+value)
			}
		}
		rows = append(rows, CardRow{
			Name:  f.Name,
			Label: tr.T(lang, "field."+f.Name),
			Value: value,
		})
	}
	return rows
}

// linkedSalesPerson returns the sales person of the user, or nil when there is none
func (s *AuthService) linkedSalesPerson(ctx context.Context, user *identity.User) (*crm.SalesPerson, error) {
	sp, err := s.salesPersonRepo.FindByUserID(ctx, user.TenantID, user.ID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, nil
		}
		s.logger.Error("Failed to load sales person of user",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load sales person")
	}
	return sp, nil
}

func (s *AuthService) salesPersonRequired(lang string) error {
	return shared.NewDomainError("SALESPERSON_REQUIRED", s.translator.T(lang, "error.SALESPERSON_REQUIRED"))
}

// checkRevoked rejects blacklisted refresh tokens. Like the request
// middleware it lets the token through when the blacklist cannot be read.
func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		s.logger.Warn("Failed to check token blacklist", zap.String("jti", claims.ID), zap.Error(err))
		revoked = false
	}
	if !revoked {
		revoked, err = s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
		if err != nil {
			s.logger.Warn("Failed to check user token invalidation", zap.String("user_id", claims.UserID), zap.Error(err))
			revoked = false
		}
	}
	if revoked {
		return shared.NewDomainError("TOKEN_REVOKED", "Token has been revoked")
	}
	return nil
}

func (s *AuthService) recordLogin(ctx context.Context, result string) {
	if s.metrics != nil {
		s.metrics.RecordLogin(ctx, result)
	}
}

func tokenInput(user *identity.User, sp *crm.SalesPerson, lang string) auth.TokenInput {
	in := auth.TokenInput{
		TenantID: user.TenantID,
		UserID:   user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
		Lang:     lang,
	}
	if sp != nil {
		id := sp.ID
		in.SalesPersonID = &id
	}
	return in
}

func toUserInfo(user *identity.User, sp *crm.SalesPerson, lang string) UserInfo {
	info := UserInfo{
		ID:       user.ID,
		TenantID: user.TenantID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName(),
		IsAdmin:  user.IsAdmin,
		Lang:     lang,
	}
	if sp != nil {
		id := sp.ID
		info.SalesPersonID = &id
		if name := sp.FullName(); name != "" {
			info.FullName = name
		}
	}
	return info
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidTokenType), errors.Is(err, auth.ErrInvalidClaims):
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	default:
		return shared.NewDomainError("TOKEN_ERROR", "Failed to validate refresh token")
	}
}
