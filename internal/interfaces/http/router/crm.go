package router

import (
	"github.com/crm/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers holds the HTTP handlers of the CRM API
type Handlers struct {
	System      *handler.SystemHandler
	Auth        *handler.AuthHandler
	User        *handler.UserHandler
	Tenant      *handler.TenantHandler
	SalesPerson *handler.SalesPersonHandler
	Customer    *handler.CustomerHandler
	Product     *handler.ProductHandler
	Deal        *handler.DealHandler
	Todo        *handler.TodoHandler
}

// Chains holds the middleware chains placed in front of the route groups.
// Global middleware (request id, logging, tracing, CORS) is installed on
// the engine and is not part of any chain.
type Chains struct {
	// Public serves the login and registration pages of a tenant:
	// optional JWT, tenant resolution and language
	Public []gin.HandlerFunc
	// Credentials guards the POST endpoints that take a password
	Credentials []gin.HandlerFunc
	// Tokenless serves the endpoints that carry their own proof of identity
	// (refresh token, activation key)
	Tokenless []gin.HandlerFunc
	// Protected requires a valid access token of the resolved tenant
	Protected []gin.HandlerFunc
	// Admin is appended to Protected for the user administration
	Admin []gin.HandlerFunc
	// Platform guards the tenant management endpoints
	Platform []gin.HandlerFunc
}

// CRMGroups builds the route groups of the CRM API
func CRMGroups(h Handlers, chains Chains) []*DomainGroup {
	system := NewDomainGroup("system", "")
	system.GET("/health", h.System.Health)
	system.GET("/system/info", h.System.GetSystemInfo)

	public := NewDomainGroup("auth-public", "/auth").Use(chains.Public...)
	public.GET("/login", h.Auth.LoginPage).
		POST("/login", chain(chains.Credentials, h.Auth.Login)...).
		GET("/register", h.Auth.RegisterPage).
		POST("/register", chain(chains.Credentials, h.Auth.Register)...)

	tokenless := NewDomainGroup("auth-tokenless", "/auth").Use(chains.Tokenless...)
	tokenless.POST("/refresh", h.Auth.RefreshToken).
		POST("/activate", h.Auth.Activate)

	tenants := NewDomainGroup("tenants", "/tenants").Use(chains.Platform...)
	tenants.POST("", h.Tenant.Create).
		GET("", h.Tenant.List).
		GET("/:id", h.Tenant.Get).
		POST("/:id/admins", h.Tenant.CreateAdmin).
		PUT("/:id/lang", h.Tenant.SetLanguage).
		PUT("/:id/status", h.Tenant.ChangeStatus)

	protected := NewDomainGroup("crm", "").Use(chains.Protected...)
	protected.Group("auth", "/auth").
		POST("/logout", h.Auth.Logout).
		GET("/me", h.Auth.Me)

	protected.Group("users", "/users").Use(chains.Admin...).
		GET("", h.User.List).
		GET("/:id", h.User.Get).
		DELETE("/:id", h.User.Delete)

	protected.Group("sales-persons", "/sales-persons").
		POST("", h.SalesPerson.Create).
		GET("", h.SalesPerson.List).
		GET("/:id", h.SalesPerson.GetByID).
		PUT("/:id", h.SalesPerson.Update).
		DELETE("/:id", h.SalesPerson.Delete).
		GET("/:id/card", h.SalesPerson.Card).
		POST("/:id/avatar", h.SalesPerson.UploadAvatar)

	protected.Group("customers", "/customers").
		POST("", h.Customer.Create).
		GET("", h.Customer.List).
		GET("/:id", h.Customer.GetByID).
		PUT("/:id", h.Customer.Update).
		DELETE("/:id", h.Customer.Delete).
		POST("/:id/avatar", h.Customer.UploadAvatar)

	protected.Group("products", "/products").
		POST("", h.Product.Create).
		GET("", h.Product.List).
		GET("/:id", h.Product.GetByID).
		PUT("/:id", h.Product.Update).
		DELETE("/:id", h.Product.Delete)

	protected.Group("deals", "/deals").
		POST("", h.Deal.Create).
		GET("", h.Deal.List).
		GET("/:id", h.Deal.GetByID).
		PUT("/:id", h.Deal.Update).
		DELETE("/:id", h.Deal.Delete).
		POST("/:id/products", h.Deal.AddProduct).
		PUT("/:id/products/:product_id", h.Deal.SetProductQty).
		DELETE("/:id/products/:product_id", h.Deal.RemoveProduct).
		POST("/:id/status", h.Deal.ChangeStatus).
		GET("/:id/history", h.Deal.History)

	protected.Group("todos", "/todos").
		POST("", h.Todo.Create).
		GET("", h.Todo.List).
		GET("/:id", h.Todo.GetByID).
		PUT("/:id", h.Todo.Update).
		DELETE("/:id", h.Todo.Delete).
		POST("/:id/complete", h.Todo.Complete).
		POST("/:id/reopen", h.Todo.Reopen)

	return []*DomainGroup{system, public, tokenless, tenants, protected}
}

// chain returns a fresh slice of the middleware followed by the handler
func chain(middleware []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(middleware)+1)
	out = append(out, middleware...)
	return append(out, h)
}

// RegisterCRM adds the CRM route groups to the router
func (r *Router) RegisterCRM(h Handlers, chains Chains) *Router {
	for _, g := range CRMGroups(h, chains) {
		r.Register(g)
	}
	return r
}
