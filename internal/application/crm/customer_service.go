package crm

import (
	"context"

	"github.com/crm/backend/internal/domain/crm"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CustomerService handles customer business operations
type CustomerService struct {
	repo            crm.CustomerRepository
	salesPersonRepo crm.SalesPersonRepository
	avatars         *AvatarStore
	translator      *i18n.Translator
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(
	repo crm.CustomerRepository,
	salesPersonRepo crm.SalesPersonRepository,
	avatars *AvatarStore,
	translator *i18n.Translator,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
) *CustomerService {
	return &CustomerService{
		repo:            repo,
		salesPersonRepo: salesPersonRepo,
		avatars:         avatars,
		translator:      translator,
		eventPublisher:  eventPublisher,
		logger:          logger,
	}
}

// Create creates a new customer
func (s *CustomerService) Create(ctx context.Context, actor Actor, req CustomerRequest) (*CustomerResponse, error) {
	input, err := s.toInput(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	customer, err := crm.NewCustomer(actor.TenantID, input)
	if err != nil {
		return nil, err
	}
	customer.SetCreatedBy(actor.UserID)

	if err := s.repo.Create(ctx, customer); err != nil {
		s.logger.Error("Failed to create customer", zap.Error(err))
		return nil, err
	}
	publishEvents(ctx, s.eventPublisher, s.logger, customer)

	resp := s.toResponse(ctx, customer, newLabeler(s.translator, actor.Lang))
	return &resp, nil
}

// GetByID retrieves a customer by ID
func (s *CustomerService) GetByID(ctx context.Context, actor Actor, id uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(ctx, customer, newLabeler(s.translator, actor.Lang))
	return &resp, nil
}

// List retrieves a page of customers
func (s *CustomerService) List(ctx context.Context, actor Actor, filter CustomerListFilter) (*ListResult[CustomerResponse], error) {
	f := filter.Filter.Normalize()
	query := crm.CustomerFilter{
		Filter:        f,
		SalesPersonID: actor.scopeSalesPerson(filter.SalesPersonID),
	}
	if filter.Status != "" {
		status := crm.CustomerStatus(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewFieldError("INVALID_STATUS", "status", "Unknown customer status: "+filter.Status)
		}
		query.Status = &status
	}

	customers, total, err := s.repo.FindAll(ctx, actor.TenantID, query)
	if err != nil {
		return nil, err
	}
	l := newLabeler(s.translator, actor.Lang)
	items := make([]CustomerResponse, len(customers))
	for i, c := range customers {
		items[i] = s.toResponse(ctx, c, l)
	}
	return newListResult(items, total, f, l.emptyText(total, "customers")), nil
}

// Update replaces the editable fields of a customer
func (s *CustomerService) Update(ctx context.Context, actor Actor, id uuid.UUID, req CustomerRequest) (*CustomerResponse, error) {
	customer, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.SalesPersonID == uuid.Nil {
		req.SalesPersonID = customer.SalesPersonID
	}
	input, err := s.toInput(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	if err := customer.Update(input); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, err
	}
	resp := s.toResponse(ctx, customer, newLabeler(s.translator, actor.Lang))
	return &resp, nil
}

// Delete removes a customer. Its deals stay without a customer.
func (s *CustomerService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	customer, err := s.find(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, actor.TenantID, id); err != nil {
		return err
	}
	s.avatars.Remove(ctx, customer.Avatar)
	return nil
}

// UploadAvatar replaces the photo of a customer
func (s *CustomerService) UploadAvatar(ctx context.Context, actor Actor, id uuid.UUID, upload AvatarUpload) (*CustomerResponse, error) {
	customer, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	key, err := s.avatars.Put(ctx, actor.TenantID, customer.ID, upload)
	if err != nil {
		return nil, err
	}
	old := customer.Avatar
	if err := customer.SetAvatar(key); err != nil {
		s.avatars.Remove(ctx, key)
		return nil, err
	}
	if err := s.repo.Update(ctx, customer); err != nil {
		customer.Avatar = old
		s.avatars.Remove(ctx, key)
		return nil, err
	}
	s.avatars.Remove(ctx, old)

	resp := s.toResponse(ctx, customer, newLabeler(s.translator, actor.Lang))
	return &resp, nil
}

func (s *CustomerService) find(ctx context.Context, actor Actor, id uuid.UUID) (*crm.Customer, error) {
	customer, err := s.repo.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(customer.SalesPersonID) {
		return nil, shared.ErrNotFound
	}
	return customer, nil
}

func (s *CustomerService) toInput(ctx context.Context, actor Actor, req CustomerRequest) (crm.CustomerInput, error) {
	owner, err := actor.ownerFor(req.SalesPersonID)
	if err != nil {
		return crm.CustomerInput{}, err
	}
	if err := ensureSalesPerson(ctx, s.salesPersonRepo, actor.TenantID, owner); err != nil {
		return crm.CustomerInput{}, err
	}
	birthDate, err := parseDate("birth_date", req.BirthDate)
	if err != nil {
		return crm.CustomerInput{}, err
	}
	return crm.CustomerInput{
		FirstName:     req.FirstName,
		SecondName:    req.SecondName,
		PhoneNumber:   req.PhoneNumber,
		MobileNumber:  req.MobileNumber,
		SalesPersonID: owner,
		Company:       req.Company,
		Position:      req.Position,
		Email:         req.Email,
		BirthDate:     birthDate,
		Status:        crm.CustomerStatus(req.Status),
		Comment:       req.Comment,
	}, nil
}

func (s *CustomerService) toResponse(ctx context.Context, c *crm.Customer, l labeler) CustomerResponse {
	return CustomerResponse{
		ID:            c.ID,
		FirstName:     c.FirstName,
		SecondName:    c.SecondName,
		FullName:      c.FullName(),
		PhoneNumber:   c.PhoneNumber,
		MobileNumber:  c.MobileNumber,
		AvatarURL:     s.avatars.URL(ctx, c.Avatar),
		SalesPersonID: c.SalesPersonID,
		Company:       c.Company,
		Position:      c.Position,
		Email:         c.Email,
		BirthDate:     formatDate(c.BirthDate),
		Status:        choiceOf(l, c.Status),
		Comment:       c.Comment,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
		Version:       c.Version,
	}
}

// ensureSalesPerson checks that the sales person exists in the tenant
func ensureSalesPerson(ctx context.Context, repo crm.SalesPersonRepository, tenantID, id uuid.UUID) error {
	if _, err := repo.FindByID(ctx, tenantID, id); err != nil {
		if shared.IsNotFound(err) {
			return shared.NewFieldError("INVALID_SALES_PERSON", "sales_person_id", "Sales person does not exist")
		}
		return err
	}
	return nil
}
