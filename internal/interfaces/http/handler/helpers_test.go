package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	crmapp "github.com/crm/backend/internal/application/crm"
	"github.com/crm/backend/internal/application/identity"
	"github.com/crm/backend/internal/domain/crm"
	domainidentity "github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/crm/backend/internal/infrastructure/cache"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/event"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/crm/backend/internal/infrastructure/notification"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/crm/backend/internal/infrastructure/storage"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

const testSiteDomain = "crm.test"

// testEnv wires the real services over an in-memory sqlite database
type testEnv struct {
	t          *testing.T
	db         *gorm.DB
	translator *i18n.Translator
	jwt        *auth.JWTService
	blacklist  *auth.InMemoryTokenBlacklist
	mailer     *notification.LogMailer
	router     *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	log := zap.NewNop()
	tr := i18n.MustNew(domainidentity.LangRussian, []string{domainidentity.LangRussian, domainidentity.LangEnglish})
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "handler-test-secret-32-characters",
		RefreshSecret:          "handler-test-refresh-secret-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "crm-test",
		MaxRefreshCount:        5,
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	mailer := notification.NewLogMailer(log)
	bus := event.NewInMemoryEventBus(log)

	userRepo := persistence.NewGormUserRepository(db)
	tenantRepo := persistence.NewGormTenantRepository(db)
	spRepo := persistence.NewGormSalesPersonRepository(db)
	customerRepo := persistence.NewGormCustomerRepository(db)
	productRepo := persistence.NewGormProductRepository(db)
	dealRepo := persistence.NewGormDealRepository(db)
	todoRepo := persistence.NewGormTodoRepository(db)
	avatars := crmapp.NewAvatarStore(storage.NewMemoryObjectStorage("http://media.test"), crmapp.DefaultAvatarConfig(), log)

	tenantService := identity.NewTenantService(tenantRepo, userRepo, cache.NewInMemoryTenantCache(), bus, testSiteDomain, time.Minute, log)
	authHandler := NewAuthHandler(
		identity.NewAuthService(userRepo, tenantRepo, spRepo, jwtService, blacklist, tr, identity.DefaultAuthServiceConfig(), log),
		identity.NewRegistrationService(userRepo, tenantRepo, mailer, tr, bus, "http://crm.test/activate/%s", log),
		tr,
	)
	userHandler := NewUserHandler(identity.NewUserService(userRepo, blacklist, tr, bus, time.Hour, log), tr)
	tenantHandler := NewTenantHandler(tenantService, tr)
	spHandler := NewSalesPersonHandler(crmapp.NewSalesPersonService(spRepo, userRepo, avatars, tr, bus, log), tr)
	customerHandler := NewCustomerHandler(crmapp.NewCustomerService(customerRepo, spRepo, avatars, tr, bus, log), tr)
	productHandler := NewProductHandler(crmapp.NewProductService(productRepo, tr, log), tr)
	dealHandler := NewDealHandler(crmapp.NewDealService(dealRepo, productRepo, customerRepo, spRepo, tr, bus, log), tr)
	todoHandler := NewTodoHandler(crmapp.NewTodoService(todoRepo, spRepo, tr, bus, log), tr)

	r := gin.New()
	r.Use(middleware.RequestID())
	tenantMW := middleware.TenantMiddleware(middleware.TenantMiddlewareConfig{
		Resolver:      tenantService,
		HeaderEnabled: true,
		HostEnabled:   true,
		Translator:    tr,
	})

	public := r.Group("/auth", middleware.OptionalJWTAuthMiddleware(jwtService), tenantMW, middleware.Language(tr))
	public.GET("/login", authHandler.LoginPage)
	public.POST("/login", authHandler.Login)
	public.GET("/register", authHandler.RegisterPage)
	public.POST("/register", authHandler.Register)
	r.POST("/auth/refresh", middleware.Language(tr), authHandler.RefreshToken)
	r.POST("/auth/activate", middleware.Language(tr), authHandler.Activate)

	tenants := r.Group("/tenants")
	tenants.POST("", tenantHandler.Create)
	tenants.GET("", tenantHandler.List)
	tenants.GET("/:id", tenantHandler.Get)
	tenants.POST("/:id/admins", tenantHandler.CreateAdmin)
	tenants.PUT("/:id/status", tenantHandler.ChangeStatus)

	api := r.Group("", middleware.JWTAuthMiddleware(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		Translator:     tr,
	}), tenantMW, middleware.Language(tr), middleware.DataScopeMiddleware())
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/auth/me", authHandler.Me)
	api.GET("/users", userHandler.List)
	api.GET("/users/:id", userHandler.Get)
	api.DELETE("/users/:id", userHandler.Delete)
	api.POST("/sales-persons", spHandler.Create)
	api.GET("/sales-persons", spHandler.List)
	api.GET("/sales-persons/:id", spHandler.GetByID)
	api.GET("/sales-persons/:id/card", spHandler.Card)
	api.POST("/sales-persons/:id/avatar", spHandler.UploadAvatar)
	api.POST("/customers", customerHandler.Create)
	api.GET("/customers", customerHandler.List)
	api.GET("/customers/:id", customerHandler.GetByID)
	api.DELETE("/customers/:id", customerHandler.Delete)
	api.POST("/customers/:id/avatar", customerHandler.UploadAvatar)
	api.POST("/products", productHandler.Create)
	api.GET("/products", productHandler.List)
	api.DELETE("/products/:id", productHandler.Delete)
	api.POST("/deals", dealHandler.Create)
	api.GET("/deals", dealHandler.List)
	api.GET("/deals/:id", dealHandler.GetByID)
	api.POST("/deals/:id/products", dealHandler.AddProduct)
	api.PUT("/deals/:id/products/:product_id", dealHandler.SetProductQty)
	api.DELETE("/deals/:id/products/:product_id", dealHandler.RemoveProduct)
	api.POST("/deals/:id/status", dealHandler.ChangeStatus)
	api.GET("/deals/:id/history", dealHandler.History)
	api.POST("/todos", todoHandler.Create)
	api.GET("/todos", todoHandler.List)
	api.POST("/todos/:id/complete", todoHandler.Complete)
	api.POST("/todos/:id/reopen", todoHandler.Reopen)

	return &testEnv{
		t:          t,
		db:         db,
		translator: tr,
		jwt:        jwtService,
		blacklist:  blacklist,
		mailer:     mailer,
		router:     r,
	}
}

func (e *testEnv) createTenant(schema, lang string) *domainidentity.Tenant {
	e.t.Helper()
	tn, err := domainidentity.NewTenant(schema, "Tenant "+schema, testSiteDomain, lang)
	require.NoError(e.t, err)
	require.NoError(e.t, persistence.NewGormTenantRepository(e.db).Create(context.Background(), tn))
	return tn
}

func (e *testEnv) createUser(tenantID uuid.UUID, username string, admin bool) *domainidentity.User {
	e.t.Helper()
	u, err := domainidentity.NewActiveUser(tenantID, username, username+"@example.com", "secret123")
	require.NoError(e.t, err)
	if admin {
		u.GrantAdmin()
	}
	require.NoError(e.t, persistence.NewGormUserRepository(e.db).Create(context.Background(), u))
	return u
}

func (e *testEnv) createSalesPerson(tenantID, userID uuid.UUID, role crm.SalesRole, lang string) *crm.SalesPerson {
	e.t.Helper()
	sp, err := crm.NewSalesPerson(tenantID, userID, crm.SalesPersonInput{
		FirstName:  "Ivanov",
		SecondName: "Ivan",
		Division:   "North",
		Role:       role,
		Lang:       lang,
	})
	require.NoError(e.t, err)
	require.NoError(e.t, persistence.NewGormSalesPersonRepository(e.db).Create(context.Background(), sp))
	return sp
}

// token issues an access token the way a login would
func (e *testEnv) token(user *domainidentity.User, sp *crm.SalesPerson, lang string) string {
	e.t.Helper()
	input := auth.TokenInput{
		TenantID: user.TenantID,
		UserID:   user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
		Lang:     lang,
	}
	if sp != nil {
		input.SalesPersonID = &sp.ID
	}
	pair, err := e.jwt.GenerateTokenPair(input)
	require.NoError(e.t, err)
	return pair.AccessToken
}

type requestOption func(*http.Request)

func withToken(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withTenant(id uuid.UUID) requestOption {
	return func(r *http.Request) { r.Header.Set(middleware.TenantHeaderKey, id.String()) }
}

func withHost(host string) requestOption {
	return func(r *http.Request) { r.Host = host }
}

func withHeader(key, value string) requestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

func (e *testEnv) do(method, path string, body any, opts ...requestOption) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// envelope is the decoded response with the payload left raw
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data), string(env.Data))
	}
	return env
}
