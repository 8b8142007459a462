package crm

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/crm"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DealService handles deals, their product lines and status history
type DealService struct {
	repo            crm.DealRepository
	productRepo     crm.ProductRepository
	customerRepo    crm.CustomerRepository
	salesPersonRepo crm.SalesPersonRepository
	translator      *i18n.Translator
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
}

// NewDealService creates a new DealService
func NewDealService(
	repo crm.DealRepository,
	productRepo crm.ProductRepository,
	customerRepo crm.CustomerRepository,
	salesPersonRepo crm.SalesPersonRepository,
	translator *i18n.Translator,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
) *DealService {
	return &DealService{
		repo:            repo,
		productRepo:     productRepo,
		customerRepo:    customerRepo,
		salesPersonRepo: salesPersonRepo,
		translator:      translator,
		eventPublisher:  eventPublisher,
		logger:          logger,
	}
}

// Create opens a deal. The contract number (ident) is unique per tenant.
func (s *DealService) Create(ctx context.Context, actor Actor, req DealRequest) (*DealResponse, error) {
	input, err := s.toInput(ctx, actor, req, nil)
	if err != nil {
		return nil, err
	}
	input.Status = crm.DealStatus(req.Status)

	deal, err := crm.NewDeal(actor.TenantID, input)
	if err != nil {
		return nil, err
	}
	deal.SetCreatedBy(actor.UserID)

	if err := s.repo.Create(ctx, deal); err != nil {
		s.logger.Error("Failed to create deal",
			zap.Int64("ident", deal.Ident),
			zap.Error(err))
		return nil, err
	}
	publishEvents(ctx, s.eventPublisher, s.logger, deal)

	s.logger.Info("Deal created",
		zap.String("deal_id", deal.ID.String()),
		zap.Int64("ident", deal.Ident))
	resp := s.toResponse(deal, newLabeler(s.translator, actor.Lang))
	return &resp, nil
}

// GetByID retrieves a deal with its product lines
func (s *DealService) GetByID(ctx context.Context, actor Actor, id uuid.UUID) (*DealResponse, error) {
	deal, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(deal, newLabeler(s.translator, actor.Lang))
	return &resp, nil
}

// List retrieves a page of deals
func (s *DealService) List(ctx context.Context, actor Actor, filter DealListFilter) (*ListResult[DealResponse], error) {
	f := filter.Filter.Normalize()
	query := crm.DealFilter{
		Filter:        f,
		SalesPersonID: actor.scopeSalesPerson(filter.SalesPersonID),
		CustomerID:    filter.CustomerID,
		DateFrom:      filter.DateFrom,
		DateTo:        filter.DateTo,
	}
	if filter.Status != "" {
		status := crm.DealStatus(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewFieldError("INVALID_STATUS", "status", "Unknown deal status: "+filter.Status)
		}
		query.Status = &status
	}

	deals, total, err := s.repo.FindAll(ctx, actor.TenantID, query)
	if err != nil {
		return nil, err
	}
	l := newLabeler(s.translator, actor.Lang)
	items := make([]DealResponse, len(deals))
	for i, d := range deals {
		items[i] = s.toResponse(d, l)
	}
	return newListResult(items, total, f, l.emptyText(total, "deals")), nil
}

// Update replaces the editable fields. A different status is applied as a
// status change at the current time, so it is recorded in the history.
func (s *DealService) Update(ctx context.Context, actor Actor, id uuid.UUID, req DealRequest) (*DealResponse, error) {
	deal, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.SalesPersonID == uuid.Nil {
		req.SalesPersonID = deal.SalesPersonID
	}
	input, err := s.toInput(ctx, actor, req, &deal.ID)
	if err != nil {
		return nil, err
	}
	if err := deal.Update(input); err != nil {
		return nil, err
	}
	if status := crm.DealStatus(req.Status); status != "" && status != deal.Status {
		now := time.Now()
		if err := deal.ChangeStatus(status, now, crm.TimeOfDayOf(now), ""); err != nil {
			return nil, err
		}
	}
	if err := s.save(ctx, deal); err != nil {
		return nil, err
	}
	resp := s.toResponse(deal, newLabeler(s.translator, actor.Lang))
	return &resp, nil
}

// Delete removes a deal with its lines and history
func (s *DealService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.find(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, actor.TenantID, id)
}

// AddProduct adds a product line to the deal or raises the quantity of an existing one
func (s *DealService) AddProduct(ctx context.Context, actor Actor, dealID uuid.UUID, req AddDealProductRequest) (*DealResponse, error) {
	deal, err := s.find(ctx, actor, dealID)
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(ctx, actor.TenantID, req.ProductID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewFieldError("INVALID_PRODUCT", "product_id", "Product does not exist")
		}
		return nil, err
	}
	if err := deal.AddProduct(product, req.Qty, req.UnitPrice); err != nil {
		return nil, err
	}
	if err := s.save(ctx, deal); err != nil {
		return nil, err
	}
	resp := s.toResponse(deal, newLabeler(s.translator, actor.Lang))
	return &resp, nil
}

// SetProductQty changes the quantity of a product line
func (s *DealService) SetProductQty(ctx context.Context, actor Actor, dealID, productID uuid.UUID, qty int) (*DealResponse, error) {
	deal, err := s.find(ctx, actor, dealID)
	if err != nil {
		return nil, err
	}
	if err := deal.SetProductQty(productID, qty); err != nil {
		return nil, err
	}
	if err := s.save(ctx, deal); err != nil {
		return nil, err
	}
	resp := s.toResponse(deal, newLabeler(s.translator, actor.Lang))
	return &resp, nil
}

// RemoveProduct drops a product line from the deal
func (s *DealService) RemoveProduct(ctx context.Context, actor Actor, dealID, productID uuid.UUID) (*DealResponse, error) {
	deal, err := s.find(ctx, actor, dealID)
	if err != nil {
		return nil, err
	}
	if err := deal.RemoveProduct(productID); err != nil {
		return nil, err
	}
	if err := s.save(ctx, deal); err != nil {
		return nil, err
	}
	resp := s.toResponse(deal, newLabeler(s.translator, actor.Lang))
	return &resp, nil
}

// ChangeStatus moves the deal to a new status and appends a history entry.
// Date and time default to now.
func (s *DealService) ChangeStatus(ctx context.Context, actor Actor, dealID uuid.UUID, req ChangeDealStatusRequest) (resp *DealResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "DealService", "ChangeStatus",
		telemetry.TenantAttr(actor.TenantID),
		attribute.String("deal.id", dealID.String()),
		attribute.String("deal.status", req.Status))
	defer func() { telemetry.EndSpan(span, err) }()

	deal, err := s.find(ctx, actor, dealID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	date := now
	parsed, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	if parsed != nil {
		date = *parsed
	}
	at := crm.TimeOfDayOf(now)
	if t := strings.TrimSpace(req.Time); t != "" {
		if at, err = crm.ParseTimeOfDay(t); err != nil {
			return nil, err
		}
	}

	if err = deal.ChangeStatus(crm.DealStatus(req.Status), date, at, req.Comment); err != nil {
		return nil, err
	}
	if err = s.save(ctx, deal); err != nil {
		return nil, err
	}
	s.logger.Info("Deal status changed",
		zap.String("deal_id", deal.ID.String()),
		zap.String("status", string(deal.Status)))

	out := s.toResponse(deal, newLabeler(s.translator, actor.Lang))
	return &out, nil
}

// History returns the status history of a deal, oldest first
func (s *DealService) History(ctx context.Context, actor Actor, dealID uuid.UUID) ([]DealStatusResponse, error) {
	deal, err := s.find(ctx, actor, dealID)
	if err != nil {
		return nil, err
	}
	history := append([]crm.DealStatusRecord(nil), deal.History...)
	sort.SliceStable(history, func(i, j int) bool {
		a, b := history[i].Time.On(history[i].Date), history[j].Time.On(history[j].Date)
		return a.Before(b)
	})

	l := newLabeler(s.translator, actor.Lang)
	out := make([]DealStatusResponse, len(history))
	for i, h := range history {
		out[i] = DealStatusResponse{
			ID:      h.ID,
			Status:  choiceOf(l, h.Status),
			Date:    h.Date.Format(DateLayout),
			Time:    h.Time.Dotted(),
			Comment: h.Comment,
		}
	}
	return out, nil
}

func (s *DealService) save(ctx context.Context, deal *crm.Deal) error {
	if err := s.repo.Update(ctx, deal); err != nil {
		s.logger.Error("Failed to save deal",
			zap.String("deal_id", deal.ID.String()),
			zap.Error(err))
		return err
	}
	publishEvents(ctx, s.eventPublisher, s.logger, deal)
	return nil
}

func (s *DealService) find(ctx context.Context, actor Actor, id uuid.UUID) (*crm.Deal, error) {
	deal, err := s.repo.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(deal.SalesPersonID) {
		return nil, shared.ErrNotFound
	}
	return deal, nil
}

func (s *DealService) toInput(ctx context.Context, actor Actor, req DealRequest, excludeID *uuid.UUID) (crm.DealInput, error) {
	owner, err := actor.ownerFor(req.SalesPersonID)
	if err != nil {
		return crm.DealInput{}, err
	}
	if err := ensureSalesPerson(ctx, s.salesPersonRepo, actor.TenantID, owner); err != nil {
		return crm.DealInput{}, err
	}

	exists, err := s.repo.ExistsByIdent(ctx, actor.TenantID, req.Ident, excludeID)
	if err != nil {
		return crm.DealInput{}, err
	}
	if exists {
		return crm.DealInput{}, shared.NewFieldError("IDENT_TAKEN", "ident", "A deal with this contract number already exists")
	}

	customerID := req.CustomerID
	if customerID != nil && *customerID == uuid.Nil {
		customerID = nil
	}
	if customerID != nil {
		customer, err := s.customerRepo.FindByID(ctx, actor.TenantID, *customerID)
		if err != nil {
			if shared.IsNotFound(err) {
				return crm.DealInput{}, shared.NewFieldError("INVALID_CUSTOMER", "customer_id", "Customer does not exist")
			}
			return crm.DealInput{}, err
		}
		if !actor.CanAccess(customer.SalesPersonID) {
			return crm.DealInput{}, shared.NewFieldError("INVALID_CUSTOMER", "customer_id", "Customer does not exist")
		}
	}

	dealDate, err := parseDate("deal_date", req.DealDate)
	if err != nil {
		return crm.DealInput{}, err
	}
	input := crm.DealInput{
		Ident:         req.Ident,
		Price:         req.Price,
		Description:   req.Description,
		CustomerID:    customerID,
		SalesPersonID: owner,
	}
	if dealDate != nil {
		input.DealDate = *dealDate
	}
	if t := strings.TrimSpace(req.DealTime); t != "" {
		at, err := crm.ParseTimeOfDay(t)
		if err != nil {
			return crm.DealInput{}, shared.NewFieldError("INVALID_TIME", "deal_time", "Time must be in HH:MM format")
		}
		input.DealTime = &at
	}
	return input, nil
}

func (s *DealService) toResponse(d *crm.Deal, l labeler) DealResponse {
	lines := make([]DealProductResponse, len(d.Products))
	for i, p := range d.Products {
		lines[i] = DealProductResponse{
			ID:         p.ID,
			ProductID:  p.ProductID,
			Qty:        p.Qty,
			UnitPrice:  p.UnitPrice,
			TotalPrice: p.TotalPrice,
		}
	}
	resp := DealResponse{
		ID:            d.ID,
		Ident:         d.Ident,
		Price:         d.Price,
		Description:   d.Description,
		Status:        choiceOf(l, d.Status),
		DealDate:      d.DealDate.Format(DateLayout),
		FormattedDate: d.FormattedDate(),
		FormattedTime: d.FormattedTime(),
		CustomerID:    d.CustomerID,
		SalesPersonID: d.SalesPersonID,
		Products:      lines,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		Version:       d.Version,
	}
	if d.DealTime != nil {
		resp.DealTime = d.DealTime.String()[:5]
	}
	return resp
}
