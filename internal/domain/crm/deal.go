package crm

import (
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Deal price column is NUMERIC(12,2)
var maxDealPrice = decimal.New(1, 10).Sub(decimal.New(1, -2))

// DealProduct is a product line of a deal. TotalPrice is always Qty x UnitPrice.
type DealProduct struct {
	ID         uuid.UUID
	DealID     uuid.UUID
	ProductID  uuid.UUID
	Qty        int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

func (l *DealProduct) recalculate() {
	l.TotalPrice = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Qty))).Round(2)
}

// DealStatusRecord is one entry of a deal's status history
type DealStatusRecord struct {
	ID      uuid.UUID
	DealID  uuid.UUID
	Status  DealStatus
	Date    time.Time
	Time    TimeOfDay
	Comment string
}

// Deal is a sales opportunity, optionally tied to a customer, with product
// lines and a status history. While the deal has lines its price is the sum
// of the line totals; without lines the manually entered price stands.
type Deal struct {
	shared.TenantAggregateRoot
	Ident         int64
	Price         decimal.Decimal
	Description   string
	Status        DealStatus
	DealDate      time.Time
	DealTime      *TimeOfDay
	CustomerID    *uuid.UUID
	SalesPersonID uuid.UUID
	Products      []DealProduct
	History       []DealStatusRecord

	// newHistory holds history entries not yet persisted
	newHistory []DealStatusRecord
}

// DealInput carries the editable fields of a deal
type DealInput struct {
	Ident         int64
	Price         decimal.Decimal
	Description   string
	Status        DealStatus
	DealDate      time.Time
	DealTime      *TimeOfDay
	CustomerID    *uuid.UUID
	SalesPersonID uuid.UUID
}

// NewDeal creates a deal and records its initial status in the history
func NewDeal(tenantID uuid.UUID, in DealInput) (*Deal, error) {
	if in.Status == "" {
		in.Status = DealStatusFirstContact
	}
	if !in.Status.IsValid() {
		return nil, shared.NewFieldError("INVALID_STATUS", "status", "Unknown deal status: "+string(in.Status))
	}
	d := &Deal{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Products:            make([]DealProduct, 0),
		History:             make([]DealStatusRecord, 0),
	}
	if err := d.apply(in); err != nil {
		return nil, err
	}
	d.Status = in.Status

	at := time.Now()
	if in.DealTime != nil {
		at = in.DealTime.On(d.DealDate)
	}
	d.appendHistory(in.Status, d.DealDate, TimeOfDayOf(at), "")
	d.AddDomainEvent(NewDealCreatedEvent(d))
	return d, nil
}

// Update replaces the editable fields. Status is ignored here; it changes
// through ChangeStatus so every change lands in the history.
func (d *Deal) Update(in DealInput) error {
	if err := d.apply(in); err != nil {
		return err
	}
	d.recalculate()
	d.IncrementVersion()
	return nil
}

func (d *Deal) apply(in DealInput) error {
	if in.Ident <= 0 {
		return shared.NewFieldError("INVALID_IDENT", "ident", "Contract number must be a positive number")
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return shared.NewFieldError("INVALID_DESCRIPTION", "description", "Description cannot be empty")
	}
	if in.DealDate.IsZero() {
		return shared.NewFieldError("INVALID_DEAL_DATE", "deal_date", "Deal date is required")
	}
	if in.SalesPersonID == uuid.Nil {
		return shared.NewFieldError("INVALID_SALES_PERSON", "sales_person_id", "Sales person is required")
	}
	if err := validateDealPrice(in.Price); err != nil {
		return err
	}
	if in.CustomerID != nil && *in.CustomerID == uuid.Nil {
		in.CustomerID = nil
	}

	d.Ident = in.Ident
	d.Price = in.Price.Round(2)
	d.Description = description
	d.DealDate = DateOf(in.DealDate)
	d.DealTime = in.DealTime
	d.CustomerID = in.CustomerID
	d.SalesPersonID = in.SalesPersonID
	return nil
}

// AddProduct adds a product line, or increases the quantity if the product
// is already on the deal. A zero unit price falls back to the product price.
func (d *Deal) AddProduct(product *Product, qty int, unitPrice *decimal.Decimal) error {
	if product == nil {
		return shared.NewFieldError("INVALID_PRODUCT", "product_id", "Product is required")
	}
	if product.TenantID != d.TenantID {
		return shared.ErrNotFound
	}
	if qty <= 0 {
		return shared.NewFieldError("INVALID_QUANTITY", "qty", "Quantity must be positive")
	}
	price := product.Price
	if unitPrice != nil {
		if unitPrice.IsNegative() {
			return shared.NewFieldError("INVALID_PRICE", "unit_price", "Unit price cannot be negative")
		}
		price = unitPrice.Round(2)
	}

	for i := range d.Products {
		if d.Products[i].ProductID == product.ID {
			d.Products[i].Qty += qty
			d.Products[i].UnitPrice = price
			d.Products[i].recalculate()
			return d.afterLinesChanged()
		}
	}

	line := DealProduct{
		ID:        uuid.New(),
		DealID:    d.ID,
		ProductID: product.ID,
		Qty:       qty,
		UnitPrice: price,
	}
	line.recalculate()
	d.Products = append(d.Products, line)
	return d.afterLinesChanged()
}

// SetProductQty changes the quantity of an existing line
func (d *Deal) SetProductQty(productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return shared.NewFieldError("INVALID_QUANTITY", "qty", "Quantity must be positive")
	}
	for i := range d.Products {
		if d.Products[i].ProductID == productID {
			d.Products[i].Qty = qty
			d.Products[i].recalculate()
			return d.afterLinesChanged()
		}
	}
	return shared.NewDomainError("DEAL_PRODUCT_NOT_FOUND", "Product is not part of the deal")
}

// RemoveProduct drops a product line. When the last line is removed the
// deal keeps the last computed price.
func (d *Deal) RemoveProduct(productID uuid.UUID) error {
	for i := range d.Products {
		if d.Products[i].ProductID == productID {
			d.Products = append(d.Products[:i], d.Products[i+1:]...)
			return d.afterLinesChanged()
		}
	}
	return shared.NewDomainError("DEAL_PRODUCT_NOT_FOUND", "Product is not part of the deal")
}

func (d *Deal) afterLinesChanged() error {
	old := d.Price
	d.recalculate()
	if err := validateDealPrice(d.Price); err != nil {
		d.Price = old
		return err
	}
	d.IncrementVersion()
	return nil
}

// recalculate sets the price to the sum of line totals when lines exist
func (d *Deal) recalculate() {
	if len(d.Products) == 0 {
		return
	}
	total := decimal.Zero
	for i := range d.Products {
		d.Products[i].recalculate()
		total = total.Add(d.Products[i].TotalPrice)
	}
	d.Price = total
}

// LinesTotal returns the sum of line totals
func (d *Deal) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.Products {
		total = total.Add(l.TotalPrice)
	}
	return total
}

// ChangeStatus moves the deal to status and appends a history entry at the
// given date and time. Only one entry may exist per date and time.
func (d *Deal) ChangeStatus(status DealStatus, date time.Time, at TimeOfDay, comment string) error {
	if !status.IsValid() {
		return shared.NewFieldError("INVALID_STATUS", "status", "Unknown deal status: "+string(status))
	}
	if date.IsZero() {
		return shared.NewFieldError("INVALID_DATE", "date", "Date is required")
	}
	date = DateOf(date)
	for _, h := range d.History {
		if h.Date.Equal(date) && h.Time == at {
			return shared.NewDomainError("DEAL_STATUS_DUPLICATE", "A status entry already exists for this date and time")
		}
	}

	old := d.Status
	d.Status = status
	d.appendHistory(status, date, at, strings.TrimSpace(comment))
	d.IncrementVersion()
	d.AddDomainEvent(NewDealStatusChangedEvent(d, old))
	return nil
}

func (d *Deal) appendHistory(status DealStatus, date time.Time, at TimeOfDay, comment string) {
	rec := DealStatusRecord{
		ID:      uuid.New(),
		DealID:  d.ID,
		Status:  status,
		Date:    DateOf(date),
		Time:    at,
		Comment: comment,
	}
	d.History = append(d.History, rec)
	d.newHistory = append(d.newHistory, rec)
}

// PendingHistory returns history entries added since the deal was loaded
func (d *Deal) PendingHistory() []DealStatusRecord {
	return d.newHistory
}

// ClearPendingHistory marks pending history entries as persisted
func (d *Deal) ClearPendingHistory() {
	d.newHistory = nil
}

// FormattedDate renders the deal date as dd/mm/yyyy
func (d *Deal) FormattedDate() string {
	return d.DealDate.Format("02/01/2006")
}

// FormattedTime renders the deal time as hh.mm, or "" when unset
func (d *Deal) FormattedTime() string {
	if d.DealTime == nil {
		return ""
	}
	return d.DealTime.Dotted()
}

func validateDealPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewFieldError("INVALID_PRICE", "price", "Price cannot be negative")
	}
	if price.GreaterThan(maxDealPrice) {
		return shared.NewFieldError("INVALID_PRICE", "price", "Price exceeds the maximum of 9999999999.99")
	}
	return nil
}
