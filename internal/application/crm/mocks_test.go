package crm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/crm"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testTranslator = i18n.MustNew("ru", []string{"ru", "en"})

// MockSalesPersonRepository is a mock implementation of crm.SalesPersonRepository
type MockSalesPersonRepository struct {
	mock.Mock
}

func (m *MockSalesPersonRepository) Create(ctx context.Context, sp *crm.SalesPerson) error {
	return m.Called(ctx, sp).Error(0)
}

func (m *MockSalesPersonRepository) Update(ctx context.Context, sp *crm.SalesPerson) error {
	return m.Called(ctx, sp).Error(0)
}

func (m *MockSalesPersonRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockSalesPersonRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*crm.SalesPerson, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.SalesPerson), args.Error(1)
}

func (m *MockSalesPersonRepository) FindByUserID(ctx context.Context, tenantID, userID uuid.UUID) (*crm.SalesPerson, error) {
	args := m.Called(ctx, tenantID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.SalesPerson), args.Error(1)
}

func (m *MockSalesPersonRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter crm.SalesPersonFilter) ([]*crm.SalesPerson, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*crm.SalesPerson), args.Get(1).(int64), args.Error(2)
}

func (m *MockSalesPersonRepository) ExistsByUserID(ctx context.Context, tenantID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, userID)
	return args.Bool(0), args.Error(1)
}

// MockCustomerRepository is a mock implementation of crm.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, c *crm.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCustomerRepository) Update(ctx context.Context, c *crm.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*crm.Customer, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter crm.CustomerFilter) ([]*crm.Customer, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*crm.Customer), args.Get(1).(int64), args.Error(2)
}

// MockProductRepository is a mock implementation of crm.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, p *crm.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, p *crm.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockProductRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*crm.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*crm.Product, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*crm.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) ExistsBySKU(ctx context.Context, tenantID uuid.UUID, sku int64, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, sku, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) ExistsByDescription(ctx context.Context, tenantID uuid.UUID, description string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, description, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) IsUsedInDeals(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Bool(0), args.Error(1)
}

// MockDealRepository is a mock implementation of crm.DealRepository
type MockDealRepository struct {
	mock.Mock
}

func (m *MockDealRepository) Create(ctx context.Context, d *crm.Deal) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDealRepository) Update(ctx context.Context, d *crm.Deal) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDealRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockDealRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*crm.Deal, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.Deal), args.Error(1)
}

func (m *MockDealRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter crm.DealFilter) ([]*crm.Deal, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*crm.Deal), args.Get(1).(int64), args.Error(2)
}

func (m *MockDealRepository) ExistsByIdent(ctx context.Context, tenantID uuid.UUID, ident int64, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, ident, excludeID)
	return args.Bool(0), args.Error(1)
}

// MockTodoRepository is a mock implementation of crm.TodoRepository
type MockTodoRepository struct {
	mock.Mock
}

func (m *MockTodoRepository) Create(ctx context.Context, t *crm.Todo) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTodoRepository) Update(ctx context.Context, t *crm.Todo) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTodoRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockTodoRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*crm.Todo, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.Todo), args.Error(1)
}

func (m *MockTodoRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter crm.TodoFilter) ([]*crm.Todo, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*crm.Todo), args.Get(1).(int64), args.Error(2)
}

func (m *MockTodoRepository) FindDueForReminder(ctx context.Context, tenantID uuid.UUID, from, until time.Time) ([]*crm.Todo, error) {
	args := m.Called(ctx, tenantID, from, until)
	return args.Get(0).([]*crm.Todo), args.Error(1)
}

// MockUserRepository mocks the user lookups of the sales person service
type MockUserRepository struct {
	mock.Mock
	identity.UserRepository
}

func (m *MockUserRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

// memoryStorage is an in-process ObjectStorage
type memoryStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	failSign  bool
	uploadErr error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte)}
}

func (s *memoryStorage) Upload(_ context.Context, key string, data []byte, _ string) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *memoryStorage) GenerateDownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if s.failSign {
		return "", time.Time{}, errors.New("signing failed")
	}
	return "https://media.example.com/" + key, time.Now().Add(expiresIn), nil
}

func (s *memoryStorage) DeleteObject(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memoryStorage) ObjectExists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *memoryStorage) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	return out
}

// recordingPublisher keeps published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

// pngBytes is a PNG signature followed by padding, enough for content sniffing
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

func newTestAvatarStore(storage ObjectStorage) *AvatarStore {
	return NewAvatarStore(storage, AvatarConfig{MaxSize: 1024, URLExpiry: time.Minute}, zap.NewNop())
}

func adminActor(tenantID uuid.UUID) Actor {
	return Actor{TenantID: tenantID, UserID: uuid.New(), IsAdmin: true, Lang: "en"}
}

func salesActor(tenantID, salesPersonID uuid.UUID) Actor {
	return Actor{TenantID: tenantID, UserID: uuid.New(), SalesPersonID: &salesPersonID, Lang: "ru"}
}

func newSalesPerson(t *testing.T, tenantID uuid.UUID) *crm.SalesPerson {
	t.Helper()
	sp, err := crm.NewSalesPerson(tenantID, uuid.New(), crm.SalesPersonInput{
		FirstName:    "Ivanov",
		SecondName:   "Ivan",
		MobileNumber: "+79001234567",
		Division:     "North",
		Role:         crm.SalesRoleHeadOfSales,
		Lang:         "en",
	})
	require.NoError(t, err)
	sp.ClearDomainEvents()
	return sp
}

func requireCode(t *testing.T, err error, code string) *shared.DomainError {
	t.Helper()
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected a domain error, got %v", err)
	require.Equal(t, code, domainErr.Code)
	return domainErr
}
