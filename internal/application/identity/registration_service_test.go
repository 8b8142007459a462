package identity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/crm/backend/internal/infrastructure/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingMailer struct{}

func (failingMailer) Send(context.Context, notification.Email) error {
	return errors.New("sendgrid: 401 unauthorized")
}

type registrationFixture struct {
	userRepo   *MockUserRepository
	tenantRepo *MockTenantRepository
	mailer     *notification.LogMailer
	publisher  *recordingPublisher
	service    *RegistrationService
	tenant     *identity.Tenant
}

func newRegistrationFixture(t *testing.T, lang string, mailer notification.Mailer) *registrationFixture {
	t.Helper()
	tenant, err := identity.NewTenant("acme", "Acme", "crm.example.com", lang)
	require.NoError(t, err)

	f := &registrationFixture{
		userRepo:   new(MockUserRepository),
		tenantRepo: new(MockTenantRepository),
		mailer:     notification.NewLogMailer(zap.NewNop()),
		publisher:  &recordingPublisher{},
		tenant:     tenant,
	}
	if mailer == nil {
		mailer = f.mailer
	}
	f.service = NewRegistrationService(
		f.userRepo,
		f.tenantRepo,
		mailer,
		i18n.MustNew("ru", []string{"ru", "en"}),
		f.publisher,
		"https://acme.crm.example.com/activate/%s",
		zap.NewNop(),
	)
	f.tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil).Maybe()
	return f
}

func validRegistration(f *registrationFixture) RegisterInput {
	return RegisterInput{
		TenantID:  f.tenant.ID,
		Username:  "newbie",
		Email:     "Newbie@Example.com",
		Password1: "Secret123",
		Password2: "Secret123",
	}
}

func TestRegistrationService_Register_Success(t *testing.T) {
	f := newRegistrationFixture(t, "en", nil)

	f.userRepo.On("ExistsByUsername", mock.Anything, f.tenant.ID, "newbie").Return(false, nil)
	f.userRepo.On("ExistsByEmail", mock.Anything, f.tenant.ID, "newbie@example.com").Return(false, nil)
	var created *identity.User
	f.userRepo.On("Create", mock.Anything, mock.AnythingOfType("*identity.User")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*identity.User) }).
		Return(nil)

	result, err := f.service.Register(context.Background(), validRegistration(f))

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "pending", result.Status)
	assert.Equal(t, "newbie@example.com", result.Email)
	assert.True(t, result.ActivationMailSent)
	assert.Len(t, created.ActivationKey, 40)

	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "newbie@example.com", sent[0].ToAddress)
	assert.Equal(t, "Activate your Acme account", sent[0].Subject)
	assert.True(t, strings.Contains(sent[0].Text, "https://acme.crm.example.com/activate/"+created.ActivationKey))

	assert.Equal(t, []string{identity.EventTypeUserCreated}, f.publisher.types())
	f.userRepo.AssertExpectations(t)
}

func TestRegistrationService_Register_MailInTenantLanguage(t *testing.T) {
	f := newRegistrationFixture(t, "ru", nil)
	f.userRepo.On("ExistsByUsername", mock.Anything, f.tenant.ID, "newbie").Return(false, nil)
	f.userRepo.On("ExistsByEmail", mock.Anything, f.tenant.ID, "newbie@example.com").Return(false, nil)
	f.userRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := f.service.Register(context.Background(), validRegistration(f))

	require.NoError(t, err)
	require.Len(t, f.mailer.Sent(), 1)
	assert.Equal(t, "Активация учетной записи Acme", f.mailer.Sent()[0].Subject)
}

func TestRegistrationService_Register_MailFailureKeepsUser(t *testing.T) {
	f := newRegistrationFixture(t, "ru", failingMailer{})
	f.userRepo.On("ExistsByUsername", mock.Anything, f.tenant.ID, "newbie").Return(false, nil)
	f.userRepo.On("ExistsByEmail", mock.Anything, f.tenant.ID, "newbie@example.com").Return(false, nil)
	f.userRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, err := f.service.Register(context.Background(), validRegistration(f))

	require.NoError(t, err)
	assert.False(t, result.ActivationMailSent)
}

func TestRegistrationService_Register_Validation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*RegisterInput)
		code   string
		field  string
	}{
		{"password mismatch", func(in *RegisterInput) { in.Password2 = "Other1234" }, "PASSWORD_MISMATCH", "password2"},
		{"short password", func(in *RegisterInput) { in.Password1, in.Password2 = "abc1", "abc1" }, "INVALID_PASSWORD", "password"},
		{"digits only", func(in *RegisterInput) { in.Password1, in.Password2 = "12345678", "12345678" }, "INVALID_PASSWORD", "password"},
		{"bad username", func(in *RegisterInput) { in.Username = "bad name!" }, "INVALID_USERNAME", "username"},
		{"long username", func(in *RegisterInput) { in.Username = strings.Repeat("a", 31) }, "INVALID_USERNAME", "username"},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, "INVALID_EMAIL", "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRegistrationFixture(t, "ru", nil)
			in := validRegistration(f)
			tt.modify(&in)

			_, err := f.service.Register(context.Background(), in)

			domainErr := requireCode(t, err, tt.code)
			assert.Equal(t, tt.field, domainErr.Field)
			f.userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			assert.Empty(t, f.mailer.Sent())
		})
	}
}

func TestRegistrationService_Register_Duplicates(t *testing.T) {
	t.Run("username", func(t *testing.T) {
		f := newRegistrationFixture(t, "ru", nil)
		f.userRepo.On("ExistsByUsername", mock.Anything, f.tenant.ID, "newbie").Return(true, nil)

		_, err := f.service.Register(context.Background(), validRegistration(f))

		requireCode(t, err, "USERNAME_TAKEN")
	})

	t.Run("email", func(t *testing.T) {
		f := newRegistrationFixture(t, "ru", nil)
		f.userRepo.On("ExistsByUsername", mock.Anything, f.tenant.ID, "newbie").Return(false, nil)
		f.userRepo.On("ExistsByEmail", mock.Anything, f.tenant.ID, "newbie@example.com").Return(true, nil)

		_, err := f.service.Register(context.Background(), validRegistration(f))

		requireCode(t, err, "EMAIL_TAKEN")
	})
}

func TestRegistrationService_RegisterPage(t *testing.T) {
	f := newRegistrationFixture(t, "ru", nil)

	page, err := f.service.RegisterPage(context.Background(), f.tenant.ID)

	require.NoError(t, err)
	assert.Equal(t, "ru", page.Lang)
	assert.Equal(t, "Регистрация", page.Labels["title"])
}

func TestRegistrationService_Activate(t *testing.T) {
	f := newRegistrationFixture(t, "ru", nil)
	user, err := identity.NewUser(f.tenant.ID, "newbie", "newbie@example.com", "Secret123")
	require.NoError(t, err)
	user.ClearDomainEvents()
	key := user.ActivationKey

	f.userRepo.On("FindByActivationKey", mock.Anything, key).Return(user, nil)
	f.userRepo.On("Update", mock.Anything, user).Return(nil)

	dto, err := f.service.Activate(context.Background(), key)

	require.NoError(t, err)
	assert.Equal(t, "active", dto.Status)
	assert.True(t, user.IsActive())
	assert.Empty(t, user.ActivationKey)
	assert.Equal(t, []string{identity.EventTypeUserActivated}, f.publisher.types())
}

func TestRegistrationService_Activate_UnknownKey(t *testing.T) {
	f := newRegistrationFixture(t, "ru", nil)
	f.userRepo.On("FindByActivationKey", mock.Anything, "nope").Return(nil, shared.ErrNotFound)

	_, err := f.service.Activate(context.Background(), "nope")

	requireCode(t, err, "INVALID_ACTIVATION_KEY")
}

func TestRegistrationService_Activate_ExpiredKey(t *testing.T) {
	f := newRegistrationFixture(t, "ru", nil)
	user, err := identity.NewUser(f.tenant.ID, "newbie", "newbie@example.com", "Secret123")
	require.NoError(t, err)
	expired := time.Now().Add(-48 * time.Hour)
	user.ActivationExp = &expired

	f.userRepo.On("FindByActivationKey", mock.Anything, user.ActivationKey).Return(user, nil)

	_, err = f.service.Activate(context.Background(), user.ActivationKey)

	requireCode(t, err, "ACTIVATION_KEY_EXPIRED")
	f.userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
