package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crm/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRouter_Options(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouter_SetupMountsGroupsUnderVersion(t *testing.T) {
	engine := gin.New()
	deals := NewDomainGroup("deals", "/deals")
	deals.GET("", func(c *gin.Context) { c.String(http.StatusOK, "list") }).
		POST("", func(c *gin.Context) { c.String(http.StatusCreated, "created") }).
		PUT("/:id", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) }).
		DELETE("/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	todos := NewDomainGroup("todos", "/todos")
	todos.GET("", func(c *gin.Context) { c.String(http.StatusOK, "todos") })

	NewRouter(engine, WithNotFound(func(c *gin.Context) {
		c.String(http.StatusNotFound, "nope")
	})).Register(deals).Register(todos).Setup()

	tests := []struct {
		method string
		path   string
		code   int
		body   string
	}{
		{http.MethodGet, "/api/v1/deals", http.StatusOK, "list"},
		{http.MethodPost, "/api/v1/deals", http.StatusCreated, "created"},
		{http.MethodPut, "/api/v1/deals/42", http.StatusOK, "42"},
		{http.MethodDelete, "/api/v1/deals/42", http.StatusNoContent, ""},
		{http.MethodGet, "/api/v1/todos", http.StatusOK, "todos"},
		{http.MethodGet, "/deals", http.StatusNotFound, "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
		})
	}
}

func TestDomainGroup_MiddlewareIsInherited(t *testing.T) {
	engine := gin.New()
	var order []string
	mark := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			order = append(order, name)
			c.Next()
		}
	}

	g := NewDomainGroup("crm", "").Use(mark("auth"))
	g.Group("users", "/users").Use(mark("admin")).
		GET("", func(c *gin.Context) { c.Status(http.StatusOK) })
	g.Group("deals", "/deals").
		GET("", func(c *gin.Context) { c.Status(http.StatusOK) })
	g.RegisterRoutes(engine.Group("/api/v1"))

	assert.Equal(t, "crm", g.Name())
	assert.Equal(t, "", g.Prefix())

	serve(engine, http.MethodGet, "/api/v1/users")
	assert.Equal(t, []string{"auth", "admin"}, order)

	order = nil
	serve(engine, http.MethodGet, "/api/v1/deals")
	assert.Equal(t, []string{"auth"}, order)
}

func reject(code int) gin.HandlerFunc {
	return func(c *gin.Context) { c.AbortWithStatus(code) }
}

func newCRMEngine(chains Chains) *gin.Engine {
	engine := gin.New()
	h := Handlers{
		System:      handler.NewSystemHandler(nil, "test"),
		Auth:        &handler.AuthHandler{},
		User:        &handler.UserHandler{},
		Tenant:      &handler.TenantHandler{},
		SalesPerson: &handler.SalesPersonHandler{},
		Customer:    &handler.CustomerHandler{},
		Product:     &handler.ProductHandler{},
		Deal:        &handler.DealHandler{},
		Todo:        &handler.TodoHandler{},
	}
	NewRouter(engine).RegisterCRM(h, chains).Setup()
	return engine
}

func TestCRMGroups_RouteTable(t *testing.T) {
	engine := newCRMEngine(Chains{})

	routes := make(map[string]bool)
	for _, r := range engine.Routes() {
		routes[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /api/v1/health",
		"GET /api/v1/auth/login",
		"POST /api/v1/auth/login",
		"POST /api/v1/auth/refresh",
		"POST /api/v1/auth/logout",
		"GET /api/v1/auth/me",
		"POST /api/v1/auth/register",
		"POST /api/v1/auth/activate",
		"DELETE /api/v1/users/:id",
		"POST /api/v1/tenants",
		"POST /api/v1/tenants/:id/admins",
		"PUT /api/v1/tenants/:id/status",
		"GET /api/v1/sales-persons/:id/card",
		"POST /api/v1/customers/:id/avatar",
		"PUT /api/v1/deals/:id/products/:product_id",
		"GET /api/v1/deals/:id/history",
		"POST /api/v1/todos/:id/complete",
	} {
		assert.True(t, routes[want], "missing route %s", want)
	}
}

func TestCRMGroups_Chains(t *testing.T) {
	engine := newCRMEngine(Chains{
		Public:      []gin.HandlerFunc{reject(http.StatusTeapot)},
		Credentials: []gin.HandlerFunc{reject(http.StatusTooManyRequests)},
		Tokenless:   []gin.HandlerFunc{reject(http.StatusNotAcceptable)},
		Protected:   []gin.HandlerFunc{reject(http.StatusUnauthorized)},
		Platform:    []gin.HandlerFunc{reject(http.StatusForbidden)},
	})

	tests := []struct {
		method string
		path   string
		code   int
	}{
		{http.MethodGet, "/api/v1/health", http.StatusOK},
		{http.MethodGet, "/api/v1/auth/login", http.StatusTeapot},
		{http.MethodPost, "/api/v1/auth/refresh", http.StatusNotAcceptable},
		{http.MethodGet, "/api/v1/auth/me", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/deals", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/users", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/tenants", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.code, serve(engine, tt.method, tt.path).Code)
		})
	}
}

func TestCRMGroups_CredentialsRunAfterPublic(t *testing.T) {
	var order []string
	mark := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			order = append(order, name)
			if name == "limit" {
				c.AbortWithStatus(http.StatusTooManyRequests)
				return
			}
			c.Next()
		}
	}
	engine := newCRMEngine(Chains{
		Public:      []gin.HandlerFunc{mark("tenant")},
		Credentials: []gin.HandlerFunc{mark("limit")},
	})

	w := serve(engine, http.MethodPost, "/api/v1/auth/login")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, []string{"tenant", "limit"}, order)
}
