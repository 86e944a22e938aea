package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound               = fmt.Errorf("order: %w", errs.ErrNotFound)
	ErrConflict               = fmt.Errorf("order: already exists: %w", errs.ErrStorage)
	ErrInvalidQuantity        = fmt.Errorf("order: quantity must be greater than zero: %w", errs.ErrInvalidInput)
	ErrInvalidPrice           = fmt.Errorf("order: unit price must be zero or greater: %w", errs.ErrInvalidInput)
	ErrShippingAddress        = fmt.Errorf("order: shipping address is required: %w", errs.ErrInvalidInput)
	ErrNoItems                = fmt.Errorf("order: %w", errs.ErrEmptyCart)
	ErrInvalidStateTransition = fmt.Errorf("order: %w", errs.ErrInvalidTransition)
)

type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusCompleted  Status = "Completed"
	StatusCancelled  Status = "Cancelled"
	StatusShipped    Status = "Shipped"
)

// Item snapshots the product at order time. It never follows later catalog changes.
type Item struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID              string
	CustomerID      string
	Status          Status
	Items           []Item
	TotalAmount     decimal.Decimal
	ShippingAddress string
	FailureReason   string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	state OrderState
}

// New builds a Pending order whose total is fixed from the item snapshot.
func New(id, customerID, shippingAddress string, items []Item) (*Order, error) {
	shippingAddress = strings.TrimSpace(shippingAddress)
	if shippingAddress == "" {
		return nil, ErrShippingAddress
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	total := decimal.Zero
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if it.UnitPrice.IsNegative() {
			return nil, ErrInvalidPrice
		}
		total = total.Add(it.LineTotal())
	}

	now := time.Now().UTC()
	return &Order{
		ID:              id,
		CustomerID:      customerID,
		Status:          StatusPending,
		Items:           append([]Item(nil), items...),
		TotalAmount:     total,
		ShippingAddress: shippingAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
		state:           pendingState{},
	}, nil
}

// StartProcessing moves a Pending order into the settlement attempt.
func (o *Order) StartProcessing() error {
	return o.apply(func(s OrderState) (OrderState, error) { return s.OnProcessing(o) })
}

func (o *Order) PaymentSucceeded() error {
	return o.apply(func(s OrderState) (OrderState, error) { return s.OnPaymentSucceeded(o) })
}

func (o *Order) PaymentFailed(reason string) error {
	return o.apply(func(s OrderState) (OrderState, error) { return s.OnPaymentFailed(o, reason) })
}

// Cancel rejects with *errs.CannotCancelError once fulfillment has progressed.
func (o *Order) Cancel() error {
	return o.apply(func(s OrderState) (OrderState, error) { return s.OnCancel(o) })
}

func (o *Order) Ship() error {
	return o.apply(func(s OrderState) (OrderState, error) { return s.OnShipped(o) })
}

// CanSettle reports whether a payment outcome may still be applied.
func (o *Order) CanSettle() bool {
	return o.Status == StatusPending || o.Status == StatusProcessing
}

func (o *Order) Quantity() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]Item(nil), o.Items...)
	return &clone
}

func (o *Order) apply(transition func(OrderState) (OrderState, error)) error {
	next, err := transition(o.currentState())
	if err != nil {
		return err
	}
	o.state = next
	o.Status = next.Status()
	o.touch()
	return nil
}

func (o *Order) currentState() OrderState {
	if o.state == nil || o.state.Status() != o.Status {
		o.state = stateFor(o.Status)
	}
	return o.state
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
