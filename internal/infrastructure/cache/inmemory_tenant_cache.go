package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const defaultCleanupInterval = 30 * time.Second

type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e *cacheEntry[T]) isExpired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// InMemoryTenantCache implements TenantCache in process memory.
// Entries are not shared between instances; a changed tenant language
// shows up elsewhere only after the TTL.
type InMemoryTenantCache struct {
	entries sync.Map // key -> *cacheEntry[TenantInfo]
	stopCh  chan struct{}
	stopped atomic.Bool

	hits   atomic.Int64
	misses atomic.Int64
}

// NewInMemoryTenantCache creates the cache and starts its expiry sweeper
func NewInMemoryTenantCache() *InMemoryTenantCache {
	c := &InMemoryTenantCache{stopCh: make(chan struct{})}
	go c.cleanupExpired(defaultCleanupInterval)
	return c
}

func (c *InMemoryTenantCache) GetByID(_ context.Context, id uuid.UUID) (*TenantInfo, error) {
	return c.get(tenantIDKey(id))
}

func (c *InMemoryTenantCache) GetByDomain(_ context.Context, domain string) (*TenantInfo, error) {
	return c.get(tenantDomainKey(domain))
}

func (c *InMemoryTenantCache) get(key string) (*TenantInfo, error) {
	v, ok := c.entries.Load(key)
	if !ok {
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}
	entry := v.(*cacheEntry[TenantInfo])
	if entry.isExpired(time.Now()) {
		c.entries.Delete(key)
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}
	c.hits.Add(1)
	info := entry.value
	return &info, nil
}

func (c *InMemoryTenantCache) Set(_ context.Context, info *TenantInfo, ttl time.Duration) error {
	entry := &cacheEntry[TenantInfo]{value: *info, expiresAt: time.Now().Add(ttl)}
	c.entries.Store(tenantIDKey(info.ID), entry)
	c.entries.Store(tenantDomainKey(info.DomainURL), entry)
	return nil
}

func (c *InMemoryTenantCache) Invalidate(_ context.Context, info *TenantInfo) error {
	c.entries.Delete(tenantIDKey(info.ID))
	c.entries.Delete(tenantDomainKey(info.DomainURL))
	return nil
}

// Stats returns the hit and miss counters
func (c *InMemoryTenantCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close stops the sweeper. Safe to call more than once.
func (c *InMemoryTenantCache) Close() error {
	if c.stopped.CompareAndSwap(false, true) {
		close(c.stopCh)
	}
	return nil
}

func (c *InMemoryTenantCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case now := <-ticker.C:
			c.entries.Range(func(key, value any) bool {
				if value.(*cacheEntry[TenantInfo]).isExpired(now) {
					c.entries.Delete(key)
				}
				return true
			})
		}
	}
}

var _ TenantCache = (*InMemoryTenantCache)(nil)
