package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisTenantCache implements TenantCache on Redis, shared by all instances
type RedisTenantCache struct {
	client redis.UniversalClient
}

// NewRedisTenantCache creates a tenant cache on an existing client.
// The client is owned by the caller; Close does not close it.
func NewRedisTenantCache(client redis.UniversalClient) *RedisTenantCache {
	return &RedisTenantCache{client: client}
}

func (c *RedisTenantCache) GetByID(ctx context.Context, id uuid.UUID) (*TenantInfo, error) {
	return c.get(ctx, tenantIDKey(id))
}

func (c *RedisTenantCache) GetByDomain(ctx context.Context, domain string) (*TenantInfo, error) {
	return c.get(ctx, tenantDomainKey(domain))
}

func (c *RedisTenantCache) get(ctx context.Context, key string) (*TenantInfo, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tenant cache: %w", err)
	}
	var info TenantInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next Set
		return nil, ErrCacheMiss
	}
	return &info, nil
}

func (c *RedisTenantCache) Set(ctx context.Context, info *TenantInfo, ttl time.Duration) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to encode tenant cache entry: %w", err)
	}
	_, err = c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, tenantIDKey(info.ID), raw, ttl)
		p.Set(ctx, tenantDomainKey(info.DomainURL), raw, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write tenant cache: %w", err)
	}
	return nil
}

func (c *RedisTenantCache) Invalidate(ctx context.Context, info *TenantInfo) error {
	if err := c.client.Del(ctx, tenantIDKey(info.ID), tenantDomainKey(info.DomainURL)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate tenant cache: %w", err)
	}
	return nil
}

func (c *RedisTenantCache) Close() error { return nil }

var _ TenantCache = (*RedisTenantCache)(nil)
