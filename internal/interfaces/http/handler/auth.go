package handler

import (
	"github.com/crm/backend/internal/application/identity"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles login, session and registration requests
type AuthHandler struct {
	BaseHandler
	authService         *identity.AuthService
	registrationService *identity.RegistrationService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService *identity.AuthService,
	registrationService *identity.RegistrationService,
	translator *i18n.Translator,
) *AuthHandler {
	return &AuthHandler{
		BaseHandler:         NewBaseHandler(translator),
		authService:         authService,
		registrationService: registrationService,
	}
}

// LoginPage returns the labels of the login form in the tenant language.
// GET /auth/login
func (h *AuthHandler) LoginPage(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	page, err := h.authService.LoginPage(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, page)
}

// Login authenticates a user of the resolved tenant.
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identity.LoginInput{
		TenantID: tenantID,
		Username: req.Username,
		Password: req.Password,
		IP:       c.ClientIP(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, LoginResponse{
		Token: TokenResponse{
			AccessToken:           result.AccessToken,
			RefreshToken:          result.RefreshToken,
			AccessTokenExpiresAt:  result.AccessTokenExpiresAt,
			RefreshTokenExpiresAt: result.RefreshTokenExpiresAt,
			TokenType:             result.TokenType,
		},
		User: result.User,
	})
}

// RefreshToken exchanges a refresh token for a new pair.
// POST /auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.authService.RefreshToken(c.Request.Context(), identity.RefreshTokenInput{
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, RefreshTokenResponse{
		Token: TokenResponse{
			AccessToken:           result.AccessToken,
			RefreshToken:          result.RefreshToken,
			AccessTokenExpiresAt:  result.AccessTokenExpiresAt,
			RefreshTokenExpiresAt: result.RefreshTokenExpiresAt,
			TokenType:             result.TokenType,
		},
	})
}

// Logout revokes the access token in use.
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	// The body is optional
	var req LogoutRequest
	_ = c.ShouldBindJSON(&req)

	claims := middleware.GetJWTClaims(c)
	err := h.authService.Logout(c.Request.Context(), identity.LogoutInput{
		UserID:       actor.UserID,
		TenantID:     actor.TenantID,
		TokenJTI:     claims.ID,
		TokenTTL:     claims.GetRemainingTTL(),
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, MessageResponse{Message: h.translator.T(actor.Lang, "auth.logged_out")})
}

// Me returns the current user with the card of their sales person.
// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	result, err := h.authService.Me(c.Request.Context(), identity.MeInput{
		TenantID: actor.TenantID,
		UserID:   actor.UserID,
		Lang:     actor.Lang,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RegisterPage returns the labels of the registration form.
// GET /auth/register
func (h *AuthHandler) RegisterPage(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	page, err := h.registrationService.RegisterPage(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, page)
}

// Register creates a pending user and sends the activation mail.
// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.registrationService.Register(c.Request.Context(), identity.RegisterInput{
		TenantID:  tenantID,
		Username:  req.Username,
		Email:     req.Email,
		Password1: req.Password1,
		Password2: req.Password2,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Activate consumes an activation key.
// POST /auth/activate
func (h *AuthHandler) Activate(c *gin.Context) {
	var req ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	user, err := h.registrationService.Activate(c.Request.Context(), req.Key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}
