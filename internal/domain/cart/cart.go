package cart

import (
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = fmt.Errorf("cart: %w", errs.ErrNotFound)
	ErrConflict     = fmt.Errorf("cart: active cart already exists: %w", errs.ErrInvalidTransition)
	ErrNotActive    = fmt.Errorf("cart: cart is no longer active: %w", errs.ErrInvalidTransition)
	ErrEmpty        = fmt.Errorf("cart: %w", errs.ErrEmptyCart)
	ErrMissingPrice = fmt.Errorf("cart: no price for product: %w", errs.ErrNotFound)
	ErrQuantityCap  = fmt.Errorf("cart: line quantity may not exceed %d: %w", MaxLineQuantity, errs.ErrInvalidInput)
)

// MaxLineQuantity bounds a single line so quantities and totals stay well
// inside the storage column range.
const MaxLineQuantity = 9999

type Status string

const (
	StatusActive    Status = "Active"
	StatusConverted Status = "Converted"
)

// Item is one cart line. A line never persists with a quantity below one.
type Item struct {
	ProductID string
	Quantity  int
}

type Cart struct {
	ID         string
	CustomerID string
	Status     Status
	Items      []Item
	// Total is cached and live-priced; Reprice keeps it current.
	Total     decimal.Decimal
	OrderID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id, customerID string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		ID:         id,
		CustomerID: customerID,
		Status:     StatusActive,
		Total:      decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Add upserts a line. Non-positive quantities are treated as one. An add that
// would take the line past MaxLineQuantity is refused and leaves the cart as is.
func (c *Cart) Add(productID string, quantity int) error {
	if err := c.ensureActive(); err != nil {
		return err
	}
	if quantity <= 0 {
		quantity = 1
	}
	if quantity > MaxLineQuantity {
		return ErrQuantityCap
	}
	if i := c.index(productID); i >= 0 {
		if c.Items[i].Quantity > MaxLineQuantity-quantity {
			return ErrQuantityCap
		}
		c.Items[i].Quantity += quantity
	} else {
		c.Items = append(c.Items, Item{ProductID: productID, Quantity: quantity})
	}
	c.touch()
	return nil
}

// Decrease drops one unit from a line and deletes the line when it reaches zero.
// A missing line is a no-op.
func (c *Cart) Decrease(productID string) error {
	if err := c.ensureActive(); err != nil {
		return err
	}
	i := c.index(productID)
	if i < 0 {
		return nil
	}
	if c.Items[i].Quantity <= 1 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	} else {
		c.Items[i].Quantity--
	}
	c.touch()
	return nil
}

// Remove deletes a line unconditionally.
func (c *Cart) Remove(productID string) error {
	if err := c.ensureActive(); err != nil {
		return err
	}
	if i := c.index(productID); i >= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		c.touch()
	}
	return nil
}

// Reprice recomputes Total from the current unit prices of every line.
func (c *Cart) Reprice(prices map[string]decimal.Decimal) error {
	total := decimal.Zero
	for _, it := range c.Items {
		price, ok := prices[it.ProductID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingPrice, it.ProductID)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	c.Total = total
	return nil
}

// Convert consumes the cart for the given order. A converted cart accepts no
// further mutation; the customer's next Add starts a fresh active cart.
func (c *Cart) Convert(orderID string) error {
	if err := c.ensureActive(); err != nil {
		return err
	}
	if len(c.Items) == 0 {
		return ErrEmpty
	}
	c.Status = StatusConverted
	c.OrderID = orderID
	c.touch()
	return nil
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

func (c *Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Items = append([]Item(nil), c.Items...)
	return &clone
}

func (c *Cart) index(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) ensureActive() error {
	if c.Status != StatusActive {
		return ErrNotActive
	}
	return nil
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
}
