package order

import "context"

// Repository persists orders with their item snapshot. Get locks the order row
// for the rest of the enclosing transaction.
type Repository interface {
	Insert(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, order *Order) error
	ListByCustomer(ctx context.Context, customerID string) ([]*Order, error)
}
