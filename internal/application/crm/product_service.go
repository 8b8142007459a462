package crm

import (
	"context"
	"strings"

	"github.com/crm/backend/internal/domain/crm"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/i18n"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductService handles the product catalog of a tenant
type ProductService struct {
	repo       crm.ProductRepository
	translator *i18n.Translator
	logger     *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(repo crm.ProductRepository, translator *i18n.Translator, logger *zap.Logger) *ProductService {
	return &ProductService{
		repo:       repo,
		translator: translator,
		logger:     logger,
	}
}

// Create creates a new product. SKU and description are unique per tenant.
func (s *ProductService) Create(ctx context.Context, actor Actor, req ProductRequest) (*ProductResponse, error) {
	if err := s.checkUnique(ctx, actor.TenantID, req, nil); err != nil {
		return nil, err
	}
	product, err := crm.NewProduct(actor.TenantID, req.SKU, req.Description, req.Price)
	if err != nil {
		return nil, err
	}
	product.SetCreatedBy(actor.UserID)

	if err := s.repo.Create(ctx, product); err != nil {
		s.logger.Error("Failed to create product",
			zap.Int64("sku", req.SKU),
			zap.Error(err))
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, actor Actor, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.repo.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// List retrieves a page of products
func (s *ProductService) List(ctx context.Context, actor Actor, filter shared.Filter) (*ListResult[ProductResponse], error) {
	f := filter.Normalize()
	products, total, err := s.repo.FindAll(ctx, actor.TenantID, f)
	if err != nil {
		return nil, err
	}
	items := make([]ProductResponse, len(products))
	for i, p := range products {
		items[i] = ToProductResponse(p)
	}
	l := newLabeler(s.translator, actor.Lang)
	return newListResult(items, total, f, l.emptyText(total, "products")), nil
}

// Update replaces the product fields
func (s *ProductService) Update(ctx context.Context, actor Actor, id uuid.UUID, req ProductRequest) (*ProductResponse, error) {
	product, err := s.repo.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, actor.TenantID, req, &product.ID); err != nil {
		return nil, err
	}
	if err := product.Update(req.SKU, req.Description, req.Price); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// Delete removes a product that is not used by any deal
func (s *ProductService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, actor.TenantID, id); err != nil {
		return err
	}
	used, err := s.repo.IsUsedInDeals(ctx, actor.TenantID, id)
	if err != nil {
		return err
	}
	if used {
		return shared.NewDomainError("PRODUCT_IN_USE", "The product is used in deals")
	}
	return s.repo.Delete(ctx, actor.TenantID, id)
}

func (s *ProductService) checkUnique(ctx context.Context, tenantID uuid.UUID, req ProductRequest, excludeID *uuid.UUID) error {
	exists, err := s.repo.ExistsBySKU(ctx, tenantID, req.SKU, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewFieldError("SKU_TAKEN", "sku", "A product with this SKU already exists")
	}
	exists, err = s.repo.ExistsByDescription(ctx, tenantID, strings.TrimSpace(req.Description), excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewFieldError("DESCRIPTION_TAKEN", "description", "A product with this description already exists")
	}
	return nil
}
