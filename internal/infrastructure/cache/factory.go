package cache

import (
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Factory connects to Redis and builds the Redis-backed caches, falling back
// to process memory when Redis is down and the fallback is allowed.
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis is tolerated.
// Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a cache factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Connect returns a live Redis client, or nil when Redis is unreachable and
// the in-memory fallback is allowed.
func (f *Factory) Connect() (*redis.Client, error) {
	client, err := NewRedisClient(f.redisConfig)
	if err == nil {
		f.logger.Info("Connected to Redis", zap.String("addr", f.redisConfig.Addr()))
		return client, nil
	}
	if !f.allowInMemoryFallback {
		return nil, err
	}
	f.logger.Warn("Redis unavailable, using in-memory caches. "+
		"Token revocations and tenant settings will not be shared between instances.",
		zap.Error(err),
	)
	return nil, nil
}

// TenantCache returns the Redis tenant cache for a client, or the in-memory
// one when client is nil.
func (f *Factory) TenantCache(client *redis.Client) TenantCache {
	if client == nil {
		return NewInMemoryTenantCache()
	}
	return NewRedisTenantCache(client)
}
