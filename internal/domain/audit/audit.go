package audit

import (
	"context"
	"time"
)

const (
	EntityOrder   = "Order"
	EntityProduct = "Product"

	ActionOrderCreated     = "order created"
	ActionPaymentSucceeded = "payment settled: success"
	ActionPaymentFailed    = "payment settled: failure"
	ActionOrderCancelled   = "order cancelled"
	ActionOrderShipped     = "order shipped"
	ActionProductCreated   = "product created"
	ActionProductUpdated   = "product updated"
)

// Entry is an append-only record of a lifecycle-significant action.
type Entry struct {
	ID         string
	Action     string
	EntityType string
	EntityID   string
	Timestamp  time.Time
}

type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	ListRecent(ctx context.Context, limit int) ([]*Entry, error)
}
