package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTenantService(t *testing.T, repo *MockTenantRepository, publisher shared.EventPublisher) (*TenantService, *cache.InMemoryTenantCache) {
	t.Helper()
	c := cache.NewInMemoryTenantCache()
	t.Cleanup(func() { _ = c.Close() })
	return NewTenantService(repo, new(MockUserRepository), c, publisher, "crm.example.com", time.Minute, zap.NewNop()), c
}

func TestTenantService_Create(t *testing.T) {
	repo := new(MockTenantRepository)
	publisher := &recordingPublisher{}
	svc, _ := newTenantService(t, repo, publisher)

	repo.On("ExistsBySchemaName", mock.Anything, "acme").Return(false, nil)
	repo.On("ExistsByDomain", mock.Anything, "acme.crm.example.com").Return(false, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*identity.Tenant")).Return(nil)

	dto, err := svc.Create(context.Background(), CreateTenantInput{
		SchemaName: "Acme",
		Name:       "Acme Ltd",
		Lang:       "en",
		TrialDays:  14,
	})

	require.NoError(t, err)
	assert.Equal(t, "acme", dto.SchemaName)
	assert.Equal(t, "acme.crm.example.com", dto.DomainURL)
	assert.Equal(t, "en", dto.Lang)
	assert.True(t, dto.OnTrial)
	require.NotNil(t, dto.PaidUntil)
	assert.Equal(t, []string{identity.EventTypeTenantCreated}, publisher.types())
	repo.AssertExpectations(t)
}

func TestTenantService_Create_WithAdministrator(t *testing.T) {
	repo := new(MockTenantRepository)
	publisher := &recordingPublisher{}
	svc, _ := newTenantService(t, repo, publisher)

	repo.On("ExistsBySchemaName", mock.Anything, "acme").Return(false, nil)
	repo.On("ExistsByDomain", mock.Anything, "acme.crm.example.com").Return(false, nil)
	var stored *identity.User
	repo.On("CreateWithAdmin", mock.Anything, mock.AnythingOfType("*identity.Tenant"), mock.AnythingOfType("*identity.User")).
		Run(func(args mock.Arguments) { stored = args.Get(2).(*identity.User) }).
		Return(nil)

	dto, err := svc.Create(context.Background(), CreateTenantInput{
		SchemaName: "acme",
		Name:       "Acme",
		Admin:      &AdminAccountInput{Username: "boss", Email: "Boss@Acme.com", Password: "secret123"},
	})

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, dto.ID, stored.TenantID)
	assert.True(t, stored.IsAdmin)
	assert.Equal(t, identity.UserStatusActive, stored.Status)
	assert.True(t, stored.VerifyPassword("secret123"))
	require.NotNil(t, dto.Admin)
	assert.Equal(t, "boss@acme.com", dto.Admin.Email)
	assert.Equal(t, []string{identity.EventTypeTenantCreated, identity.EventTypeUserCreated}, publisher.types())
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTenantService_Create_RejectsInvalidAdministrator(t *testing.T) {
	repo := new(MockTenantRepository)
	svc, _ := newTenantService(t, repo, nil)
	repo.On("ExistsBySchemaName", mock.Anything, "acme").Return(false, nil)
	repo.On("ExistsByDomain", mock.Anything, "acme.crm.example.com").Return(false, nil)

	dto, err := svc.Create(context.Background(), CreateTenantInput{
		SchemaName: "acme",
		Name:       "Acme",
		Admin:      &AdminAccountInput{Username: "boss", Email: "boss@acme.com", Password: "short"},
	})

	assert.Nil(t, dto)
	domainErr := requireCode(t, err, "TENANT_CREATE_FAILED")
	assert.Equal(t, "admin.password", domainErr.Field)
	repo.AssertNotCalled(t, "CreateWithAdmin", mock.Anything, mock.Anything, mock.Anything)
}

func TestTenantService_CreateAdmin(t *testing.T) {
	ctx := context.Background()
	tenant, err := identity.NewTenant("acme", "Acme", "crm.example.com", "en")
	require.NoError(t, err)

	newService := func() (*TenantService, *MockTenantRepository, *MockUserRepository) {
		repo := new(MockTenantRepository)
		users := new(MockUserRepository)
		repo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)
		c := cache.NewInMemoryTenantCache()
		t.Cleanup(func() { _ = c.Close() })
		return NewTenantService(repo, users, c, nil, "crm.example.com", time.Minute, zap.NewNop()), repo, users
	}

	t.Run("creates an active administrator", func(t *testing.T) {
		svc, _, users := newService()
		users.On("ExistsByUsername", mock.Anything, tenant.ID, "boss").Return(false, nil)
		users.On("ExistsByEmail", mock.Anything, tenant.ID, "boss@acme.com").Return(false, nil)
		users.On("Create", mock.Anything, mock.MatchedBy(func(u *identity.User) bool {
			return u.IsAdmin && u.IsActive() && u.TenantID == tenant.ID
		})).Return(nil)

		dto, err := svc.CreateAdmin(ctx, tenant.ID, AdminAccountInput{Username: "boss", Email: "boss@acme.com", Password: "secret123"})

		require.NoError(t, err)
		assert.True(t, dto.IsAdmin)
		users.AssertExpectations(t)
	})

	t.Run("username taken", func(t *testing.T) {
		svc, _, users := newService()
		users.On("ExistsByUsername", mock.Anything, tenant.ID, "boss").Return(true, nil)

		_, err := svc.CreateAdmin(ctx, tenant.ID, AdminAccountInput{Username: "boss", Email: "boss@acme.com", Password: "secret123"})

		requireCode(t, err, "USERNAME_TAKEN")
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		repo := new(MockTenantRepository)
		other := uuid.New()
		repo.On("FindByID", mock.Anything, other).Return(nil, shared.ErrNotFound)
		svc := NewTenantService(repo, new(MockUserRepository), cache.NewInMemoryTenantCache(), nil, "crm.example.com", time.Minute, zap.NewNop())

		_, err := svc.CreateAdmin(ctx, other, AdminAccountInput{Username: "boss", Email: "boss@acme.com", Password: "secret123"})

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestTenantService_Create_DefaultsToRussian(t *testing.T) {
	repo := new(MockTenantRepository)
	svc, _ := newTenantService(t, repo, nil)
	repo.On("ExistsBySchemaName", mock.Anything, "acme").Return(false, nil)
	repo.On("ExistsByDomain", mock.Anything, "acme.other.org").Return(false, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	dto, err := svc.Create(context.Background(), CreateTenantInput{SchemaName: "acme", Name: "Acme", SiteDomain: "other.org"})

	require.NoError(t, err)
	assert.Equal(t, "ru", dto.Lang)
	assert.Equal(t, "acme.other.org", dto.DomainURL)
}

func TestTenantService_Create_Failures(t *testing.T) {
	tests := []struct {
		name  string
		input CreateTenantInput
		setup func(*MockTenantRepository)
		field string
	}{
		{
			name:  "invalid schema name",
			input: CreateTenantInput{SchemaName: "1-bad", Name: "Bad"},
			setup: func(*MockTenantRepository) {},
			field: "schema_name",
		},
		{
			name:  "unsupported language",
			input: CreateTenantInput{SchemaName: "acme", Name: "Acme", Lang: "de"},
			setup: func(*MockTenantRepository) {},
			field: "lang",
		},
		{
			name:  "schema taken",
			input: CreateTenantInput{SchemaName: "acme", Name: "Acme"},
			setup: func(r *MockTenantRepository) {
				r.On("ExistsBySchemaName", mock.Anything, "acme").Return(true, nil)
			},
			field: "schema_name",
		},
		{
			name:  "domain taken",
			input: CreateTenantInput{SchemaName: "acme", Name: "Acme"},
			setup: func(r *MockTenantRepository) {
				r.On("ExistsBySchemaName", mock.Anything, "acme").Return(false, nil)
				r.On("ExistsByDomain", mock.Anything, "acme.crm.example.com").Return(true, nil)
			},
			field: "domain_url",
		},
		{
			name:  "database failure",
			input: CreateTenantInput{SchemaName: "acme", Name: "Acme"},
			setup: func(r *MockTenantRepository) {
				r.On("ExistsBySchemaName", mock.Anything, "acme").Return(false, nil)
				r.On("ExistsByDomain", mock.Anything, "acme.crm.example.com").Return(false, nil)
				r.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))
			},
			field: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockTenantRepository)
			tt.setup(repo)
			svc, _ := newTenantService(t, repo, nil)

			dto, err := svc.Create(context.Background(), tt.input)

			assert.Nil(t, dto)
			domainErr := requireCode(t, err, "TENANT_CREATE_FAILED")
			assert.Equal(t, tt.field, domainErr.Field)
		})
	}
}

func TestTenantService_ResolveByDomain_UsesCache(t *testing.T) {
	ctx := context.Background()
	repo := new(MockTenantRepository)
	svc, _ := newTenantService(t, repo, nil)
	tenant, err := identity.NewTenant("acme", "Acme", "crm.example.com", "en")
	require.NoError(t, err)

	repo.On("FindByDomain", mock.Anything, "acme.crm.example.com").Return(tenant, nil).Once()

	info, err := svc.ResolveByDomain(ctx, "ACME.crm.example.com:8080")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, info.ID)

	// Second lookup is served from the cache, by domain and by id
	info, err = svc.ResolveByDomain(ctx, "acme.crm.example.com")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, info.ID)

	lang, err := svc.Language(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "en", lang)

	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestTenantService_ResolveByDomain_Unknown(t *testing.T) {
	repo := new(MockTenantRepository)
	svc, _ := newTenantService(t, repo, nil)
	repo.On("FindByDomain", mock.Anything, "nobody.crm.example.com").Return(nil, shared.ErrNotFound)

	_, err := svc.ResolveByDomain(context.Background(), "nobody.crm.example.com")

	requireCode(t, err, "TENANT_NOT_FOUND")
}

func TestTenantService_SetLanguage_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	repo := new(MockTenantRepository)
	publisher := &recordingPublisher{}
	svc, _ := newTenantService(t, repo, publisher)
	tenant, err := identity.NewTenant("acme", "Acme", "crm.example.com", "ru")
	require.NoError(t, err)
	tenant.ClearDomainEvents()

	repo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)
	repo.On("Update", mock.Anything, tenant).Return(nil)

	lang, err := svc.Language(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "ru", lang)

	_, err = svc.SetLanguage(ctx, tenant.ID, "en")
	require.NoError(t, err)

	lang, err = svc.Language(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "en", lang)
	assert.Equal(t, []string{identity.EventTypeTenantLanguageChanged}, publisher.types())
}

func TestTenantService_ChangeStatus(t *testing.T) {
	repo := new(MockTenantRepository)
	svc, _ := newTenantService(t, repo, nil)
	tenant, err := identity.NewTenant("acme", "Acme", "crm.example.com", "ru")
	require.NoError(t, err)

	repo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)
	repo.On("Update", mock.Anything, tenant).Return(nil)

	dto, err := svc.ChangeStatus(context.Background(), tenant.ID, identity.TenantStatusSuspended)
	require.NoError(t, err)
	assert.Equal(t, "suspended", dto.Status)

	_, err = svc.ChangeStatus(context.Background(), tenant.ID, identity.TenantStatusSuspended)
	requireCode(t, err, "INVALID_STATE")

	_, err = svc.ChangeStatus(context.Background(), tenant.ID, "archived")
	requireCode(t, err, "INVALID_STATUS")
}

func TestTenantService_List(t *testing.T) {
	repo := new(MockTenantRepository)
	svc, _ := newTenantService(t, repo, nil)
	a, _ := identity.NewTenant("alpha", "Alpha", "crm.example.com", "ru")
	b, _ := identity.NewTenant("beta", "Beta", "crm.example.com", "en")
	repo.On("FindAll", mock.Anything, mock.Anything).Return([]*identity.Tenant{a, b}, int64(2), nil)

	page, err := svc.List(context.Background(), shared.Filter{Page: 1, PageSize: 1})

	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.TotalPages)
}
