package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/crm"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/crm/backend/internal/infrastructure/notification"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// The stubs embed the repository interfaces and override only what the
// reminder calls; any other call panics.

type stubTenants struct {
	identity.TenantRepository
	ids     []uuid.UUID
	tenants map[uuid.UUID]*identity.Tenant
	err     error
}

func (s *stubTenants) FindActiveIDs(context.Context) ([]uuid.UUID, error) {
	return s.ids, s.err
}

func (s *stubTenants) FindByID(_ context.Context, id uuid.UUID) (*identity.Tenant, error) {
	if t, ok := s.tenants[id]; ok {
		return t, nil
	}
	return nil, shared.ErrNotFound
}

type stubUsers struct {
	identity.UserRepository
	users map[uuid.UUID]*identity.User
}

func (s *stubUsers) FindByID(_ context.Context, _, id uuid.UUID) (*identity.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

type stubSalesPersons struct {
	crm.SalesPersonRepository
	people map[uuid.UUID]*crm.SalesPerson
}

func (s *stubSalesPersons) FindByID(_ context.Context, _, id uuid.UUID) (*crm.SalesPerson, error) {
	if sp, ok := s.people[id]; ok {
		return sp, nil
	}
	return nil, shared.ErrNotFound
}

type stubTodos struct {
	crm.TodoRepository
	due     map[uuid.UUID][]*crm.Todo
	updated []*crm.Todo

	from, until time.Time
}

func (s *stubTodos) FindDueForReminder(_ context.Context, tenantID uuid.UUID, from, until time.Time) ([]*crm.Todo, error) {
	s.from, s.until = from, until
	return s.due[tenantID], nil
}

func (s *stubTodos) Update(_ context.Context, t *crm.Todo) error {
	s.updated = append(s.updated, t)
	return nil
}

type failingMailer struct{}

func (failingMailer) Send(context.Context, notification.Email) error {
	return notification.ErrDeliveryFailed
}

type reminderFixture struct {
	tenantID uuid.UUID
	sp       *crm.SalesPerson
	tenants  *stubTenants
	todos    *stubTodos
	mailer   *notification.LogMailer
	sms      *notification.LogSMSSender
	deps     TodoReminderDeps
	now      time.Time
}

func newReminderFixture(t *testing.T, spLang string) *reminderFixture {
	t.Helper()

	tenant, err := identity.NewTenant("acme", "Acme", "crm.example.com", identity.LangRussian)
	require.NoError(t, err)
	user, err := identity.NewActiveUser(tenant.ID, "ivan", "ivan@example.com", "Secret123!")
	require.NoError(t, err)
	sp, err := crm.NewSalesPerson(tenant.ID, user.ID, crm.SalesPersonInput{
		FirstName:    "Ivan",
		SecondName:   "Petrov",
		MobileNumber: "+79990001122",
		Role:         crm.SalesRoleManager,
		Lang:         spLang,
	})
	require.NoError(t, err)

	f := &reminderFixture{
		tenantID: tenant.ID,
		sp:       sp,
		tenants: &stubTenants{
			ids:     []uuid.UUID{tenant.ID},
			tenants: map[uuid.UUID]*identity.Tenant{tenant.ID: tenant},
		},
		todos:  &stubTodos{due: make(map[uuid.UUID][]*crm.Todo)},
		mailer: notification.NewLogMailer(zap.NewNop()),
		sms:    notification.NewLogSMSSender(zap.NewNop()),
		now:    time.Date(2024, 6, 1, 10, 0, 0, 0, time.Local),
	}
	f.deps = TodoReminderDeps{
		Tenants:      f.tenants,
		Users:        &stubUsers{users: map[uuid.UUID]*identity.User{user.ID: user}},
		SalesPersons: &stubSalesPersons{people: map[uuid.UUID]*crm.SalesPerson{sp.ID: sp}},
		Todos:        f.todos,
		Mailer:       f.mailer,
		SMS:          f.sms,
		Translator:   i18n.MustNew(identity.LangRussian, []string{identity.LangRussian, identity.LangEnglish}),
	}
	return f
}

func (f *reminderFixture) addTodo(t *testing.T, action crm.TodoAction, due time.Time) *crm.Todo {
	t.Helper()
	todo, err := crm.NewTodo(f.tenantID, crm.TodoInput{
		SalesPersonID:     f.sp.ID,
		Action:            action,
		ActionDescription: "Discuss the contract",
		DueAt:             due,
	})
	require.NoError(t, err)
	f.todos.due[f.tenantID] = append(f.todos.due[f.tenantID], todo)
	return todo
}

func (f *reminderFixture) reminder() *TodoReminder {
	r := NewTodoReminder(f.deps, config.SchedulerConfig{ReminderWindow: 15 * time.Minute}, zap.NewNop())
	r.now = func() time.Time { return f.now }
	return r
}

func TestTodoReminder_Run(t *testing.T) {
	f := newReminderFixture(t, identity.LangEnglish)
	call := f.addTodo(t, crm.TodoActionPhone, f.now.Add(10*time.Minute))
	mail := f.addTodo(t, crm.TodoActionEmail, f.now.Add(5*time.Minute))
	later := f.addTodo(t, crm.TodoActionEmail, f.now.Add(2*time.Hour))

	result, err := f.reminder().Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Tenants)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 1, result.SMSSent)
	assert.Zero(t, result.Failed)

	sent := f.mailer.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "ivan@example.com", sent[0].ToAddress)
	assert.Equal(t, "Ivan Petrov", sent[0].ToName)
	assert.Contains(t, sent[0].Subject, "Reminder")
	assert.Contains(t, sent[0].Text, "Discuss the contract")

	sms := f.sms.Sent()
	require.Len(t, sms, 1)
	assert.Equal(t, "+79990001122", sms[0].To)

	assert.NotNil(t, call.RemindedAt)
	assert.NotNil(t, mail.RemindedAt)
	assert.Nil(t, later.RemindedAt)
	assert.Len(t, f.todos.updated, 2)
}

func TestTodoReminder_UsesTenantLanguage(t *testing.T) {
	f := newReminderFixture(t, "")
	f.addTodo(t, crm.TodoActionEmail, f.now.Add(time.Minute))

	_, err := f.reminder().Run(context.Background())

	require.NoError(t, err)
	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Subject, "Напоминание")
}

func TestTodoReminder_SkipsRemindedAndDone(t *testing.T) {
	f := newReminderFixture(t, identity.LangEnglish)
	reminded := f.addTodo(t, crm.TodoActionEmail, f.now)
	reminded.MarkReminded(f.now.Add(-time.Minute))
	done := f.addTodo(t, crm.TodoActionEmail, f.now)
	require.NoError(t, done.Complete())

	result, err := f.reminder().Run(context.Background())

	require.NoError(t, err)
	assert.Zero(t, result.Sent)
	assert.Empty(t, f.mailer.Sent())
	assert.Empty(t, f.todos.updated)
}

func TestTodoReminder_MailFailureKeepsTodoArmed(t *testing.T) {
	f := newReminderFixture(t, identity.LangEnglish)
	todo := f.addTodo(t, crm.TodoActionEmail, f.now)
	f.deps.Mailer = failingMailer{}

	result, err := f.reminder().Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Nil(t, todo.RemindedAt)
	assert.Empty(t, f.todos.updated)
}

func TestTodoReminder_IgnoresLongOverdueTodos(t *testing.T) {
	f := newReminderFixture(t, identity.LangEnglish)
	stale := f.addTodo(t, crm.TodoActionEmail, f.now.AddDate(0, 0, -30))
	recent := f.addTodo(t, crm.TodoActionEmail, f.now.Add(-5*time.Minute))

	result, err := f.reminder().Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Nil(t, stale.RemindedAt)
	assert.NotNil(t, recent.RemindedAt)
	assert.Equal(t, f.now.Add(-15*time.Minute), f.todos.from)
	assert.Equal(t, f.now.Add(15*time.Minute), f.todos.until)
}

func TestTodoReminder_UnknownSalesPerson(t *testing.T) {
	f := newReminderFixture(t, identity.LangEnglish)
	todo, err := crm.NewTodo(f.tenantID, crm.TodoInput{
		SalesPersonID:     uuid.New(),
		Action:            crm.TodoActionEmail,
		ActionDescription: "Orphan",
		DueAt:             f.now,
	})
	require.NoError(t, err)
	f.todos.due[f.tenantID] = []*crm.Todo{todo}

	result, err := f.reminder().Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, result.Sent)
}

func TestTodoReminder_TenantListError(t *testing.T) {
	f := newReminderFixture(t, identity.LangEnglish)
	f.tenants.err = errors.New("connection refused")

	_, err := f.reminder().Run(context.Background())

	assert.ErrorContains(t, err, "list active tenants")
}
