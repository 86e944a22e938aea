package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
	"github.com/shopspring/decimal"
)

const (
	FailureReasonNotFound          = "not_found"
	FailureReasonInsufficientStock = "insufficient_stock"
	FailureReasonInvalidQuantity   = "invalid_quantity"
	FailureReasonPersistenceError  = "persist_error"
)

var (
	ErrNotFound        = fmt.Errorf("inventory: product %w", errs.ErrNotFound)
	ErrConflict        = fmt.Errorf("inventory: product already exists: %w", errs.ErrInvalidInput)
	ErrInvalidQuantity = fmt.Errorf("inventory: quantity must be greater than zero: %w", errs.ErrInvalidInput)
	ErrInvalidStock    = fmt.Errorf("inventory: stock must be zero or greater: %w", errs.ErrInvalidInput)
	ErrInvalidPrice    = fmt.Errorf("inventory: unit price must be between 0 and 999999.99 with at most %d decimal places: %w", PriceScale, errs.ErrInvalidInput)
	ErrInvalidName     = fmt.Errorf("inventory: product name is required: %w", errs.ErrInvalidInput)
)

// PriceScale is the number of decimal places a unit price may carry; it matches
// the NUMERIC(12,2) price column.
const PriceScale = 2

var maxUnitPrice = decimal.RequireFromString("999999.99")

// Product is the unit of stock the ledger guards. Stock never drops below zero.
type Product struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	Stock     int
	UpdatedAt time.Time
}

func NewProduct(id, name string, unitPrice decimal.Decimal, stock int) (*Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}
	if !validPrice(unitPrice) {
		return nil, ErrInvalidPrice
	}
	if stock < 0 {
		return nil, ErrInvalidStock
	}
	return &Product{
		ID:        id,
		Name:      strings.TrimSpace(name),
		UnitPrice: unitPrice,
		Stock:     stock,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// Reserve takes quantity units out of stock, or fails without touching it.
func (p *Product) Reserve(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > p.Stock {
		return &errs.OutOfStockError{
			ProductID: p.ID,
			Name:      p.Name,
			Requested: quantity,
			Available: p.Stock,
		}
	}
	p.Stock -= quantity
	p.touch()
	return nil
}

// Release returns previously reserved units to stock.
func (p *Product) Release(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	p.Stock += quantity
	p.touch()
	return nil
}

// Revise changes the catalog attributes. Stock is left to Reserve and Release.
func (p *Product) Revise(name string, unitPrice decimal.Decimal) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	if !validPrice(unitPrice) {
		return ErrInvalidPrice
	}
	p.Name = strings.TrimSpace(name)
	p.UnitPrice = unitPrice
	p.touch()
	return nil
}

func validPrice(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(maxUnitPrice) && d.Equal(d.Round(PriceScale))
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}
