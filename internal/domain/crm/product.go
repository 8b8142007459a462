package crm

import (
	"strings"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is an item that can be sold in deals
type Product struct {
	shared.TenantAggregateRoot
	SKU         int64
	Description string
	Price       decimal.Decimal
}

// NewProduct creates a product. SKU and description uniqueness is checked by the service.
func NewProduct(tenantID uuid.UUID, sku int64, description string, price decimal.Decimal) (*Product, error) {
	p := &Product{TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID)}
	if err := p.apply(sku, description, price); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces the product fields
func (p *Product) Update(sku int64, description string, price decimal.Decimal) error {
	if err := p.apply(sku, description, price); err != nil {
		return err
	}
	p.IncrementVersion()
	return nil
}

func (p *Product) apply(sku int64, description string, price decimal.Decimal) error {
	if sku <= 0 {
		return shared.NewFieldError("INVALID_SKU", "sku", "SKU must be a positive number")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return shared.NewFieldError("INVALID_DESCRIPTION", "description", "Description cannot be empty")
	}
	if len([]rune(description)) > 200 {
		return shared.NewFieldError("INVALID_DESCRIPTION", "description", "Description cannot exceed 200 characters")
	}
	if price.IsNegative() {
		return shared.NewFieldError("INVALID_PRICE", "price", "Price cannot be negative")
	}
	p.SKU = sku
	p.Description = description
	p.Price = price.Round(2)
	return nil
}
