package cache

import (
	"context"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestInfo() *TenantInfo {
	return &TenantInfo{
		ID:        uuid.New(),
		DomainURL: "acme.crm.example.com",
		Lang:      identity.LangEnglish,
		Status:    identity.TenantStatusActive,
	}
}

func TestInMemoryTenantCache_SetAndGet(t *testing.T) {
	c := NewInMemoryTenantCache()
	defer c.Close()
	ctx := context.Background()
	info := newTestInfo()

	_, err := c.GetByID(ctx, info.ID)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, info, time.Minute))

	byID, err := c.GetByID(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, *info, *byID)

	byDomain, err := c.GetByDomain(ctx, "ACME.crm.example.com:443")
	require.NoError(t, err)
	assert.Equal(t, info.ID, byDomain.ID)
	assert.Equal(t, identity.LangEnglish, byDomain.Lang)

	hits, misses := c.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)
}

func TestInMemoryTenantCache_ReturnsCopies(t *testing.T) {
	c := NewInMemoryTenantCache()
	defer c.Close()
	ctx := context.Background()
	info := newTestInfo()
	require.NoError(t, c.Set(ctx, info, time.Minute))

	got, err := c.GetByID(ctx, info.ID)
	require.NoError(t, err)
	got.Lang = identity.LangRussian

	again, err := c.GetByID(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.LangEnglish, again.Lang)
}

func TestInMemoryTenantCache_Expiry(t *testing.T) {
	c := NewInMemoryTenantCache()
	defer c.Close()
	ctx := context.Background()
	info := newTestInfo()

	require.NoError(t, c.Set(ctx, info, time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := c.GetByID(ctx, info.ID)
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.GetByDomain(ctx, info.DomainURL)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestInMemoryTenantCache_Invalidate(t *testing.T) {
	c := NewInMemoryTenantCache()
	defer c.Close()
	ctx := context.Background()
	info := newTestInfo()

	require.NoError(t, c.Set(ctx, info, time.Minute))
	require.NoError(t, c.Invalidate(ctx, info))

	_, err := c.GetByID(ctx, info.ID)
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.GetByDomain(ctx, info.DomainURL)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestInMemoryTenantCache_CloseTwice(t *testing.T) {
	c := NewInMemoryTenantCache()
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestTenantInfoFromDomain(t *testing.T) {
	tenant, err := identity.NewTenant("acme", "Acme", "crm.example.com", identity.LangEnglish)
	require.NoError(t, err)

	info := TenantInfoFromDomain(tenant)
	assert.Equal(t, tenant.ID, info.ID)
	assert.Equal(t, "acme.crm.example.com", info.DomainURL)
	assert.Equal(t, identity.LangEnglish, info.Lang)
	assert.Equal(t, identity.TenantStatusActive, info.Status)
}

func TestFactory_FallsBackToMemory(t *testing.T) {
	f := NewFactory(unreachableRedis(), WithLogger(zap.NewNop()))

	client, err := f.Connect()
	require.NoError(t, err)
	assert.Nil(t, client)

	c := f.TenantCache(client)
	defer c.Close()
	assert.IsType(t, &InMemoryTenantCache{}, c)
}

func TestFactory_NoFallback(t *testing.T) {
	f := NewFactory(unreachableRedis(), WithInMemoryFallback(false))

	client, err := f.Connect()
	assert.Error(t, err)
	assert.Nil(t, client)
}
