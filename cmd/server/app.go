package main

import (
	"context"
	"fmt"

	crmapp "github.com/crm/backend/internal/application/crm"
	"github.com/crm/backend/internal/application/identity"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/crm/backend/internal/infrastructure/cache"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/event"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/infrastructure/notification"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/scheduler"
	"github.com/crm/backend/internal/infrastructure/storage"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/crm/backend/internal/interfaces/http/handler"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/crm/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// app holds the HTTP engine and everything that must be released on shutdown
type app struct {
	engine *gin.Engine
	log    *zap.Logger

	db        *persistence.Database
	redis     *redis.Client
	bus       *event.InMemoryEventBus
	scheduler *scheduler.Scheduler
	limiters  []*middleware.RateLimiter
}

// newApp wires the repositories, services and HTTP layer
func newApp(ctx context.Context, cfg *config.Config, providers *telemetry.Providers, log *zap.Logger) (*app, error) {
	a := &app{log: log}
	ok := false
	defer func() {
		if !ok {
			a.close(context.Background())
		}
	}()

	tr, err := i18n.New(cfg.I18n.DefaultLang, cfg.I18n.SupportedLangs)
	if err != nil {
		return nil, fmt.Errorf("failed to load translations: %w", err)
	}

	// Database
	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	a.db, err = persistence.NewDatabase(&cfg.Database, gormLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)
	if err := telemetry.InstrumentDB(a.db.DB, cfg.Telemetry, log); err != nil {
		log.Warn("Failed to instrument database", zap.Error(err))
	}
	if sqlDB, err := a.db.DB.DB(); err == nil {
		if err := telemetry.RegisterPoolMetrics(providers.Meter(), sqlDB); err != nil {
			log.Warn("Failed to register pool metrics", zap.Error(err))
		}
	}

	// Redis backed caches
	cacheFactory := cache.NewFactory(cfg.Redis, cache.WithLogger(log), cache.WithInMemoryFallback(true))
	a.redis, err = cacheFactory.Connect()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	var blacklist auth.TokenBlacklist
	if a.redis != nil {
		blacklist = auth.NewRedisTokenBlacklist(a.redis)
	} else {
		blacklist = auth.NewInMemoryTokenBlacklist()
	}
	tenantCache := cacheFactory.TenantCache(a.redis)
	jwtService := auth.NewJWTService(cfg.JWT)

	mailer := notification.NewMailer(cfg.Mail, log)
	sms := notification.NewSMSSender(cfg.SMS, log)

	metrics, err := telemetry.NewCRMMetrics(providers.Meter())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	// Repositories
	db := a.db.DB
	tenantRepo := persistence.NewGormTenantRepository(db)
	userRepo := persistence.NewGormUserRepository(db)
	salesPersonRepo := persistence.NewGormSalesPersonRepository(db)
	customerRepo := persistence.NewGormCustomerRepository(db)
	productRepo := persistence.NewGormProductRepository(db)
	dealRepo := persistence.NewGormDealRepository(db)
	todoRepo := persistence.NewGormTodoRepository(db)

	// Events
	a.bus = event.NewInMemoryEventBus(log)
	a.bus.Subscribe(event.NewAuditLogHandler(log))
	a.bus.Subscribe(event.NewTenantCacheInvalidator(tenantCache, tenantRepo, log))
	a.bus.Subscribe(metrics)
	if err := a.bus.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start event bus: %w", err)
	}

	// Avatars
	var objects crmapp.ObjectStorage
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ObjectStorage(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiry),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create object storage: %w", err)
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare bucket: %w", err)
		}
		objects = s3
	} else {
		log.Warn("Object storage disabled, avatars are kept in memory")
		objects = storage.NewMemoryObjectStorage("http://" + cfg.App.SiteDomain + "/media")
	}
	avatars := crmapp.NewAvatarStore(objects, crmapp.AvatarConfig{
		MaxSize:   cfg.Storage.MaxAvatarSize,
		URLExpiry: cfg.Storage.PresignExpiry,
	}, log)

	// Services
	tenantService := identity.NewTenantService(tenantRepo, userRepo, tenantCache, a.bus, cfg.App.SiteDomain, cfg.I18n.TenantLangTTL, log)
	authService := identity.NewAuthService(
		userRepo, tenantRepo, salesPersonRepo, jwtService, blacklist, tr,
		identity.DefaultAuthServiceConfig(), log,
	).WithMetrics(metrics)
	registrationService := identity.NewRegistrationService(userRepo, tenantRepo, mailer, tr, a.bus, cfg.Mail.ActivationURL, log)
	userService := identity.NewUserService(userRepo, blacklist, tr, a.bus, cfg.JWT.RefreshTokenExpiration, log)
	salesPersonService := crmapp.NewSalesPersonService(salesPersonRepo, userRepo, avatars, tr, a.bus, log)
	customerService := crmapp.NewCustomerService(customerRepo, salesPersonRepo, avatars, tr, a.bus, log)
	productService := crmapp.NewProductService(productRepo, tr, log)
	dealService := crmapp.NewDealService(dealRepo, productRepo, customerRepo, salesPersonRepo, tr, a.bus, log)
	todoService := crmapp.NewTodoService(todoRepo, salesPersonRepo, tr, a.bus, log)

	// Todo reminders
	a.scheduler = scheduler.NewScheduler(cfg.Scheduler.JobTimeout, log)
	if cfg.Scheduler.Enabled {
		reminder := scheduler.NewTodoReminder(scheduler.TodoReminderDeps{
			Tenants:      tenantRepo,
			Users:        userRepo,
			SalesPersons: salesPersonRepo,
			Todos:        todoRepo,
			Mailer:       mailer,
			SMS:          sms,
			Translator:   tr,
			Metrics:      metrics,
		}, cfg.Scheduler, log)
		if err := reminder.Register(a.scheduler, cfg.Scheduler.ReminderCron); err != nil {
			return nil, fmt.Errorf("failed to register todo reminder: %w", err)
		}
		if err := a.scheduler.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	a.engine = newEngine(cfg, providers, tr, log)
	chains := a.newChains(cfg, tr, jwtService, blacklist, tenantService, log)

	router.NewRouter(a.engine, router.WithNotFound(middleware.NotFound(tr))).
		RegisterCRM(router.Handlers{
			System:      handler.NewSystemHandler(a.db, version),
			Auth:        handler.NewAuthHandler(authService, registrationService, tr),
			User:        handler.NewUserHandler(userService, tr),
			Tenant:      handler.NewTenantHandler(tenantService, tr),
			SalesPerson: handler.NewSalesPersonHandler(salesPersonService, tr),
			Customer:    handler.NewCustomerHandler(customerService, tr),
			Product:     handler.NewProductHandler(productService, tr),
			Deal:        handler.NewDealHandler(dealService, tr),
			Todo:        handler.NewTodoHandler(todoService, tr),
		}, chains).
		Setup()

	ok = true
	return a, nil
}

// newEngine creates the gin engine with the middleware every request goes
// through
func newEngine(cfg *config.Config, providers *telemetry.Providers, tr *i18n.Translator, log *zap.Logger) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = engine.SetTrustedProxies(nil)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.App.Env == "production"

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     providers.TracingEnabled(),
		}),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(providers.Meter(), log),
		middleware.Secure(security),
		middleware.CORS(cors),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize, tr),
	)
	return engine
}

// newChains builds the middleware chains of the route groups
func (a *app) newChains(
	cfg *config.Config,
	tr *i18n.Translator,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	tenants middleware.TenantResolver,
	log *zap.Logger,
) router.Chains {
	tenant := middleware.TenantMiddleware(middleware.TenantMiddlewareConfig{
		Resolver:      tenants,
		HeaderEnabled: true,
		HostEnabled:   true,
		Translator:    tr,
		Logger:        log,
	})
	lang := middleware.Language(tr, middleware.WithQueryOverride(cfg.I18n.FallbackToQuery))
	profiling := middleware.Profiling(middleware.ProfilingConfig{Enabled: cfg.Telemetry.ProfilingEnabled})

	chains := router.Chains{
		Public:    []gin.HandlerFunc{middleware.OptionalJWTAuthMiddleware(jwtService), tenant, lang, profiling},
		Tokenless: []gin.HandlerFunc{lang},
		Protected: []gin.HandlerFunc{
			middleware.JWTAuthMiddleware(middleware.JWTMiddlewareConfig{
				JWTService:     jwtService,
				TokenBlacklist: blacklist,
				Translator:     tr,
				Logger:         log,
			}),
			tenant,
			lang,
			middleware.TracingAttributeInjector(),
			middleware.DataScopeMiddleware(),
			profiling,
		},
		Admin:    []gin.HandlerFunc{middleware.RequireAdmin(tr)},
		Platform: []gin.HandlerFunc{lang, middleware.PlatformKey(cfg.App.PlatformAdminKey, tr)},
	}

	if cfg.HTTP.AuthRateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		a.limiters = append(a.limiters, limiter)
		chains.Credentials = []gin.HandlerFunc{middleware.RateLimit(limiter, tr)}
	}
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		a.limiters = append(a.limiters, limiter)
		chains.Protected = append(chains.Protected, middleware.RateLimit(limiter, tr))
	}
	return chains
}

// close stops background work and releases connections, in reverse order
// of creation
func (a *app) close(ctx context.Context) {
	if a.scheduler != nil {
		if err := a.scheduler.Stop(ctx); err != nil {
			a.log.Warn("Failed to stop scheduler", zap.Error(err))
		}
	}
	if a.bus != nil {
		if err := a.bus.Stop(ctx); err != nil {
			a.log.Warn("Failed to stop event bus", zap.Error(err))
		}
	}
	for _, limiter := range a.limiters {
		limiter.Stop()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("Failed to close Redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Error("Failed to close database", zap.Error(err))
		} else {
			a.log.Info("Database connection closed")
		}
	}
}
