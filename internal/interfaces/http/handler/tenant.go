package handler

import (
	"github.com/crm/backend/internal/application/identity"
	domainidentity "github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/gin-gonic/gin"
)

// CreateTenantRequest represents the request body for creating a tenant
type CreateTenantRequest struct {
	SchemaName string `json:"schema_name" binding:"required,min=2,max=63"`
	Name       string `json:"name" binding:"required,max=100"`
	Lang       string `json:"lang" binding:"omitempty,max=10"`
	SiteDomain string `json:"site_domain" binding:"omitempty,max=253"`
	TrialDays  int    `json:"trial_days" binding:"omitempty,min=1,max=365"`
	// Admin is the first administrator of the tenant
	Admin *AdminAccountRequest `json:"admin" binding:"omitempty"`
}

// AdminAccountRequest describes a tenant administrator account
type AdminAccountRequest struct {
	Username string `json:"username" binding:"required,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

func (r *AdminAccountRequest) toInput() identity.AdminAccountInput {
	return identity.AdminAccountInput{
		Username: r.Username,
		Email:    r.Email,
		Password: r.Password,
	}
}

// SetTenantLanguageRequest changes the language of a tenant
type SetTenantLanguageRequest struct {
	Lang string `json:"lang" binding:"required,max=10"`
}

// ChangeTenantStatusRequest activates, deactivates or suspends a tenant
type ChangeTenantStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive suspended"`
}

// TenantHandler serves the platform endpoints managing tenants. The routes
// are guarded by the platform key, not by a tenant user.
type TenantHandler struct {
	BaseHandler
	tenantService *identity.TenantService
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(tenantService *identity.TenantService, translator *i18n.Translator) *TenantHandler {
	return &TenantHandler{
		BaseHandler:   NewBaseHandler(translator),
		tenantService: tenantService,
	}
}

// Create registers a new tenant with its domain.
// POST /tenants
func (h *TenantHandler) Create(c *gin.Context) {
	var req CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	input := identity.CreateTenantInput{
		SchemaName: req.SchemaName,
		Name:       req.Name,
		Lang:       req.Lang,
		SiteDomain: req.SiteDomain,
		TrialDays:  req.TrialDays,
	}
	if req.Admin != nil {
		admin := req.Admin.toInput()
		input.Admin = &admin
	}
	tenant, err := h.tenantService.Create(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tenant)
}

// CreateAdmin adds an administrator to a tenant.
// POST /tenants/:id/admins
func (h *TenantHandler) CreateAdmin(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req AdminAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	admin, err := h.tenantService.CreateAdmin(c.Request.Context(), id, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, admin)
}

// GET /tenants
func (h *TenantHandler) List(c *gin.Context) {
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	page, err := h.tenantService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	List(&h.BaseHandler, c, *page, "")
}

// GET /tenants/:id
func (h *TenantHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	tenant, err := h.tenantService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tenant)
}

// SetLanguage changes the language of a tenant.
// PUT /tenants/:id/lang
func (h *TenantHandler) SetLanguage(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req SetTenantLanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	tenant, err := h.tenantService.SetLanguage(c.Request.Context(), id, req.Lang)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tenant)
}

// ChangeStatus activates, deactivates or suspends a tenant.
// PUT /tenants/:id/status
func (h *TenantHandler) ChangeStatus(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ChangeTenantStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	tenant, err := h.tenantService.ChangeStatus(c.Request.Context(), id, domainidentity.TenantStatus(req.Status))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tenant)
}
